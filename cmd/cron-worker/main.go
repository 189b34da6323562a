package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/repairops-backend/internal/bootstrap"
	"github.com/angelmondragon/repairops-backend/internal/cron"
	"github.com/angelmondragon/repairops-backend/internal/pendencies"
	"github.com/angelmondragon/repairops-backend/internal/quotations"
	"github.com/angelmondragon/repairops-backend/pkg/metrics"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
)

const serviceName = "cron-worker"

func main() {
	rt := bootstrap.Start(serviceName)
	cfg, logg := rt.Config, rt.Logger
	boot := context.Background()
	gdb := rt.DB.DB()

	outboxRepo := outbox.NewRepository(gdb)
	deadLetters := outbox.NewDLQRepository(gdb)

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:       logg,
		Repository:   outboxRepo,
		DeadLetters:  deadLetters,
		Retention:    cfg.Outbox.RetentionDays,
		DLQRetention: cfg.Outbox.DLQRetentionDays,
	})
	if err != nil {
		rt.Fatal(boot, "failed to create outbox retention job", err)
	}
	backlog, err := cron.NewBacklogJob(cron.BacklogJobParams{
		Logger:      logg,
		Quotations:  quotations.NewRepository(gdb),
		Pendencies:  pendencies.NewRepository(gdb),
		Outbox:      outboxRepo,
		DeadLetters: deadLetters,
		Gauge:       metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		rt.Fatal(boot, "failed to create backlog job", err)
	}
	jobs, err := cron.NewRegistry(retention, backlog)
	if err != nil {
		rt.Fatal(boot, "failed to register cron jobs", err)
	}

	lock, err := cron.NewRedisLock(rt.Redis, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		rt.Fatal(boot, "failed to create cron lock", err)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		rt.Fatal(boot, "failed to create cron service", err)
	}

	ctx, stop := rt.SignalContext()
	defer stop()
	defer rt.Shutdown(ctx)

	logg.Info(ctx, "cron worker starting")
	metrics.Serve(ctx, cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg)
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		rt.Fatal(ctx, "cron worker stopped unexpectedly", err)
	}
	logg.Info(ctx, "cron worker stopped")
}

// lockName scopes the cycle lock per environment so staging and production
// workers sharing a redis never block each other.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return serviceName + ":" + env
}
