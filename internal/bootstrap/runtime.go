// Package bootstrap opens the dependencies every binary shares and tears them
// down in reverse order on exit.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/repairops-backend/pkg/config"
	"github.com/angelmondragon/repairops-backend/pkg/db"
	"github.com/angelmondragon/repairops-backend/pkg/instance"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	"github.com/angelmondragon/repairops-backend/pkg/migrate"
	"github.com/angelmondragon/repairops-backend/pkg/redis"
)

type closer struct {
	name  string
	close func() error
}

// Runtime is the process-wide state of one binary.
type Runtime struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client

	closers []closer
	exit    func(code int)
}

// Start loads .env and config, then opens postgres and redis. In dev with
// auto-migrate on it also applies pending migrations. Any failure is fatal.
func Start(kind string) *Runtime {
	rt := &Runtime{
		Kind:   kind,
		Logger: logger.New(logger.Options{ServiceName: kind}),
		exit:   os.Exit,
	}
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		rt.Logger.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		rt.Fatal(ctx, "failed to load config", err)
	}
	cfg.Service.Kind = kind
	rt.Config = cfg
	rt.Logger = logger.New(logger.Options{
		ServiceName: kind,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	rt.DB, err = db.New(ctx, cfg.DB, rt.Logger)
	if err != nil {
		rt.Fatal(ctx, "failed to bootstrap database", err)
	}
	rt.OnClose("database", rt.DB.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, rt.Logger, rt.DB); err != nil {
		rt.Fatal(ctx, "failed to run dev migrations", err)
	}

	rt.Redis, err = redis.New(ctx, cfg.Redis, rt.Logger)
	if err != nil {
		rt.Fatal(ctx, "failed to bootstrap redis", err)
	}
	rt.OnClose("redis", rt.Redis.Close)
	return rt
}

// OnClose registers fn to run during Close. Later registrations close first.
func (rt *Runtime) OnClose(name string, fn func() error) {
	rt.closers = append(rt.closers, closer{name: name, close: fn})
}

// Close runs the registered closers once, newest first, and returns their
// combined errors.
func (rt *Runtime) Close() error {
	var errs error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if err := c.close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	rt.closers = nil
	return errs
}

// Shutdown closes everything and logs what failed to close.
func (rt *Runtime) Shutdown(ctx context.Context) {
	for _, err := range multierr.Errors(rt.Close()) {
		rt.Logger.Error(ctx, "shutdown error", err)
	}
}

// Fatal logs err, releases what was opened so far and exits non-zero.
func (rt *Runtime) Fatal(ctx context.Context, msg string, err error) {
	rt.Logger.Error(ctx, msg, err)
	rt.Shutdown(ctx)
	rt.exit(1)
}

// SignalContext is cancelled on SIGINT or SIGTERM and carries the process
// identity fields every log line should have.
func (rt *Runtime) SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	fields := map[string]any{
		"service_kind": rt.Kind,
		"instance":     instance.GetID(),
	}
	if rt.Config != nil {
		fields["env"] = rt.Config.App.Env
	}
	return rt.Logger.WithFields(ctx, fields), stop
}
