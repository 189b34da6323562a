package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REPAIROPS_APP_ENV" required:"true"`
	Port         string `envconfig:"REPAIROPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REPAIROPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REPAIROPS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"REPAIROPS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"REPAIROPS_SERVICE_KIND" default:"api"`
	// MetricsAddr is where workers expose /metrics. Empty disables it.
	MetricsAddr string `envconfig:"REPAIROPS_WORKER_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"REPAIROPS_DB_DSN"`
	Driver string `envconfig:"REPAIROPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REPAIROPS_DB_HOST"`
	LegacyPort     int    `envconfig:"REPAIROPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REPAIROPS_DB_USER"`
	LegacyPassword string `envconfig:"REPAIROPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"REPAIROPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"REPAIROPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REPAIROPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REPAIROPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REPAIROPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REPAIROPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQueryThreshold is the duration past which statements are logged at warn.
	SlowQueryThreshold time.Duration `envconfig:"REPAIROPS_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REPAIROPS_REDIS_URL"`
	Address      string        `envconfig:"REPAIROPS_REDIS_ADDR"`
	Password     string        `envconfig:"REPAIROPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"REPAIROPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REPAIROPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REPAIROPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REPAIROPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REPAIROPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REPAIROPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the identity provider. The API only
// verifies them.
type JWTConfig struct {
	Secret            string `envconfig:"REPAIROPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REPAIROPS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REPAIROPS_JWT_EXPIRATION_MINUTES" default:"60"`
	// Audience is checked only when set.
	Audience  string        `envconfig:"REPAIROPS_JWT_AUDIENCE"`
	ClockSkew time.Duration `envconfig:"REPAIROPS_JWT_CLOCK_SKEW" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REPAIROPS_AUTO_MIGRATE" default:"false"`
}

// GCPConfig picks explicit credentials when set; otherwise the client libraries
// fall back to application default credentials.
type GCPConfig struct {
	ProjectID              string `envconfig:"REPAIROPS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"REPAIROPS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REPAIROPS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	QuotationsTopic string `envconfig:"REPAIROPS_PUBSUB_QUOTATIONS_TOPIC" default:"repairops-quotation-events"`
	PendenciesTopic string `envconfig:"REPAIROPS_PUBSUB_PENDENCIES_TOPIC" default:"repairops-pendency-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"REPAIROPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"REPAIROPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"REPAIROPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"REPAIROPS_OUTBOX_RETENTION_DAYS" default:"30"`
	// DLQRetentionDays keeps dead letters around longer for admin review.
	DLQRetentionDays int `envconfig:"REPAIROPS_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"REPAIROPS_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"REPAIROPS_CRON_LOCK_TTL" default:"25h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
