package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so the
// prefix only matters for unkeyed fields.
const EnvPrefix = "REPAIROPS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "REPAIROPS_APP_ENV"
	EnvPort     = "REPAIROPS_APP_PORT"
	EnvLogLevel = "REPAIROPS_LOG_LEVEL"

	EnvDBDSN  = "REPAIROPS_DB_DSN"
	EnvDBHost = "REPAIROPS_DB_HOST"
	EnvDBUser = "REPAIROPS_DB_USER"
	EnvDBName = "REPAIROPS_DB_NAME"

	EnvRedisURL = "REPAIROPS_REDIS_URL"

	EnvJWTSecret  = "REPAIROPS_JWT_SECRET"
	EnvJWTIssuer  = "REPAIROPS_JWT_ISSUER"
	EnvJWTExpMins = "REPAIROPS_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "REPAIROPS_GCP_PROJECT_ID"

	EnvPubSubQuotationsTopic = "REPAIROPS_PUBSUB_QUOTATIONS_TOPIC"
	EnvPubSubPendenciesTopic = "REPAIROPS_PUBSUB_PENDENCIES_TOPIC"

	EnvOutboxRetentionDays    = "REPAIROPS_OUTBOX_RETENTION_DAYS"
	EnvOutboxDLQRetentionDays = "REPAIROPS_OUTBOX_DLQ_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
