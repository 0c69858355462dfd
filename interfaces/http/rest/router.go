package rest

import (
	"net/http"

	"collocation-backend/interfaces/http/rest/handlers"
	"collocation-backend/interfaces/http/rest/middleware"
	pkgerrors "collocation-backend/pkg/errors"
	"collocation-backend/pkg/observability"
	"collocation-backend/pkg/ratelimit"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Service is everything the HTTP API needs from the application layer
type Service interface {
	handlers.CollocationService
	handlers.GeneratorService
	handlers.VocabularyService
	handlers.Pinger
}

// RouterConfig holds the HTTP-facing settings
type RouterConfig struct {
	// CORSOrigins lists the allowed origins; empty allows any origin
	CORSOrigins []string
	// Debug adds stack traces to error responses
	Debug bool
	// GenerateLimiter, when set, bounds POST /api/generate per client
	GenerateLimiter *ratelimit.SlidingWindowLimiter
}

// Router creates and configures the HTTP router
type Router struct {
	config  RouterConfig
	service Service
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	config RouterConfig,
	service Service,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:  config,
		service: service,
		metrics: metrics,
		logger:  logger,
	}
}

// GenerateLimiter returns the generation rate limiter, nil when disabled
func (rt *Router) GenerateLimiter() *ratelimit.SlidingWindowLimiter {
	return rt.config.GenerateLimiter
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))
	router.Use(cors.Handler(rt.corsOptions()))

	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.config.Debug)

	health := handlers.NewHealthHandler(rt.service, errorHandler, rt.logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.metrics.GetRegistry(), promhttp.HandlerOpts{}))

	collocations := handlers.NewCollocationHandler(rt.service, errorHandler, rt.logger)
	generator := handlers.NewGeneratorHandler(rt.service, errorHandler, rt.logger)
	vocabulary := handlers.NewVocabularyHandler(rt.service, errorHandler, rt.logger)

	router.Route("/api", func(r chi.Router) {
		r.Post("/add-collocations", collocations.AddCollocations)
		r.Post("/check-word", collocations.CheckWord)
		r.Get("/export-csv", collocations.ExportCSV)
		r.Post("/delete-all", collocations.DeleteAll)
		r.Get("/collocations", collocations.ListCollocations)

		r.Group(func(r chi.Router) {
			if rt.config.GenerateLimiter != nil {
				r.Use(middleware.RateLimit(rt.config.GenerateLimiter, rt.logger))
			}
			r.Post("/generate", generator.Generate)
		})
		r.Post("/save-apikey", generator.SaveAPIKey)

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/", vocabulary.ListVocabulary)
			r.Post("/", vocabulary.CreateVocabulary)
			r.Put("/{id}", vocabulary.UpdateVocabulary)
			r.Delete("/{id}", vocabulary.DeleteVocabulary)
		})
	})

	return router
}

func (rt *Router) corsOptions() cors.Options {
	origins := rt.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}
}
