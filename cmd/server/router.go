package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/degreeplan-api/internal/api"
	apiMiddleware "github.com/phrazzld/degreeplan-api/internal/api/middleware"
	"github.com/phrazzld/degreeplan-api/internal/metrics"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.RequestLog)

	courseHandler := api.NewCourseHandler(app.courseStore, app.logger)
	planHandler := api.NewPlanHandler(app.planService, app.logger)
	validationHandler := api.NewValidationHandler(
		app.validationService,
		app.planService,
		app.cache,
		app.logger,
	)

	r.Route("/api/v1", func(r chi.Router) {
		courseHandler.Routes(r)
		planHandler.Routes(r)
		validationHandler.Routes(r)
	})

	// Health check endpoint
	health := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	}
	r.Get("/health", health)
	r.Get("/api/health", health)

	r.Handle("/metrics", metrics.Handler())

	return r
}
