package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/repairops-backend/internal/bootstrap"
	"github.com/angelmondragon/repairops-backend/pkg/metrics"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
	"github.com/angelmondragon/repairops-backend/pkg/outbox/guard"
	"github.com/angelmondragon/repairops-backend/pkg/outbox/registry"
	"github.com/angelmondragon/repairops-backend/pkg/pubsub"
)

const serviceName = "outbox-publisher"

func main() {
	rt := bootstrap.Start(serviceName)
	cfg, logg := rt.Config, rt.Logger
	boot := context.Background()

	pubsubClient, err := pubsub.NewClient(boot, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		rt.Fatal(boot, "failed to bootstrap pubsub", err)
	}
	rt.OnClose("pubsub", pubsubClient.Close)

	deliveryGuard, err := guard.New(rt.Redis, serviceName, guard.DefaultTTL)
	if err != nil {
		rt.Fatal(boot, "failed to build delivery guard", err)
	}
	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		rt.Fatal(boot, "failed to build event registry", err)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            rt.DB,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(rt.DB.DB()),
		DLQRepository: outbox.NewDLQRepository(rt.DB.DB()),
		Registry:      events,
		Guard:         deliveryGuard,
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		rt.Fatal(boot, "failed to create outbox publisher", err)
	}

	ctx, stop := rt.SignalContext()
	defer stop()
	defer rt.Shutdown(ctx)

	logg.Info(ctx, "outbox publisher starting")
	metrics.Serve(ctx, cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg)
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		rt.Fatal(ctx, "outbox publisher stopped unexpectedly", err)
	}
	logg.Info(ctx, "outbox publisher stopped")
}
