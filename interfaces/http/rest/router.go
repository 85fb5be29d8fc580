package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"slidesmith/application/services"
	"slidesmith/interfaces/http/rest/handlers"
	"slidesmith/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	pipeline  *services.PipelineService
	populator *services.PopulatorService

	defaultPresentationID string
	defaultCopyFirst      bool
	enableCORS            bool
	logger                *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	pipeline *services.PipelineService,
	populator *services.PopulatorService,
	defaultPresentationID string,
	defaultCopyFirst bool,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		pipeline:              pipeline,
		populator:             populator,
		defaultPresentationID: defaultPresentationID,
		defaultCopyFirst:      defaultCopyFirst,
		enableCORS:            enableCORS,
		logger:                logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		handler := handlers.NewPresentationHandler(
			rt.pipeline,
			rt.populator,
			rt.defaultPresentationID,
			rt.defaultCopyFirst,
			rt.logger,
		)
		r.Route("/presentations", func(r chi.Router) {
			r.Post("/", handler.Submit)
			r.Get("/jobs/{jobID}", handler.Status)
			r.Get("/{presentationID}/slides", handler.Inspect)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
