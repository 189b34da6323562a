package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/repairops-backend/api/routes"
	"github.com/angelmondragon/repairops-backend/internal/bootstrap"
	"github.com/angelmondragon/repairops-backend/internal/pendencies"
	"github.com/angelmondragon/repairops-backend/internal/quotations"
	"github.com/angelmondragon/repairops-backend/internal/sequence"
	"github.com/angelmondragon/repairops-backend/pkg/env"
	"github.com/angelmondragon/repairops-backend/pkg/metrics"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	rt := bootstrap.Start(serviceName)
	cfg, logg := rt.Config, rt.Logger
	boot := context.Background()
	gdb := rt.DB.DB()

	events := outbox.NewService(outbox.NewRepository(gdb), logg)
	allocator := sequence.NewAllocator()
	workflow := metrics.NewWorkflowMetrics(prometheus.DefaultRegisterer)

	quotationService, err := quotations.NewService(quotations.NewRepository(gdb), rt.DB, events, allocator, workflow, logg)
	if err != nil {
		rt.Fatal(boot, "failed to create quotations service", err)
	}
	pendencyService, err := pendencies.NewService(pendencies.NewRepository(gdb), rt.DB, events, allocator, workflow, logg)
	if err != nil {
		rt.Fatal(boot, "failed to create pendencies service", err)
	}

	// PORT is set by the hosting platform and wins over config.
	addr := ":" + env.Get("PORT", cfg.App.Port)
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			rt.DB,
			rt.Redis,
			prometheus.DefaultGatherer,
			quotationService,
			pendencyService,
			outbox.NewDLQRepository(gdb),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := rt.SignalContext()
	defer stop()
	defer rt.Shutdown(ctx)
	ctx = logg.WithField(ctx, "addr", addr)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "api server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			stop()
			rt.Fatal(ctx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server draining")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
