package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/repairops-backend/api/controllers"
	pendencycontrollers "github.com/angelmondragon/repairops-backend/api/controllers/pendencies"
	quotationcontrollers "github.com/angelmondragon/repairops-backend/api/controllers/quotations"
	"github.com/angelmondragon/repairops-backend/api/middleware"
	"github.com/angelmondragon/repairops-backend/internal/pendencies"
	"github.com/angelmondragon/repairops-backend/internal/quotations"
	"github.com/angelmondragon/repairops-backend/pkg/config"
	"github.com/angelmondragon/repairops-backend/pkg/db"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	"github.com/angelmondragon/repairops-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	quotationService quotations.Service,
	pendencyService pendencies.Service,
	dlqRepo controllers.DLQReader,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var idempotencyStore redis.IdempotencyStore
	readiness := []controllers.Dependency{}
	if dbP != nil {
		readiness = append(readiness, controllers.Dependency{Name: "database", Pinger: dbP})
	}
	if redisClient != nil {
		idempotencyStore = redisClient
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/quotations", func(r chi.Router) {
			r.Post("/", quotationcontrollers.Create(quotationService, logg))
			r.Get("/", quotationcontrollers.List(quotationService, logg))
			r.Route("/{quotationId}", func(r chi.Router) {
				r.Get("/", quotationcontrollers.Get(quotationService, logg))
				r.Delete("/", quotationcontrollers.Delete(quotationService, logg))
				r.Post("/claim", quotationcontrollers.Claim(quotationService, logg))
				r.Post("/quote", quotationcontrollers.Quote(quotationService, logg))
				r.Post("/approve", quotationcontrollers.Approve(quotationService, logg))
				r.Post("/purchase", quotationcontrollers.Purchase(quotationService, logg))
				r.Post("/cancel", quotationcontrollers.Cancel(quotationService, logg))
				r.Put("/items", quotationcontrollers.EditItems(quotationService, logg))
			})
		})

		r.Route("/pendencies", func(r chi.Router) {
			r.Post("/", pendencycontrollers.Create(pendencyService, logg))
			r.Get("/", pendencycontrollers.List(pendencyService, logg))
			r.Route("/{pendencyId}", func(r chi.Router) {
				r.Get("/", pendencycontrollers.Get(pendencyService, logg))
				r.Delete("/", pendencycontrollers.Delete(pendencyService, logg))
				r.Post("/start", pendencycontrollers.Start(pendencyService, logg))
				r.Post("/answer", pendencycontrollers.Answer(pendencyService, logg))
				r.Post("/complete", pendencycontrollers.Complete(pendencyService, logg))
				r.Post("/reject", pendencycontrollers.Reject(pendencyService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
			r.Get("/ping", controllers.AdminPing())
			r.Get("/outbox/dlq", controllers.AdminOutboxDLQList(dlqRepo, logg))
			r.Get("/outbox/dlq/{eventId}", controllers.AdminOutboxDLQDetail(dlqRepo, logg))
		})
	})

	return r
}
