// Package api provides HTTP routing for the textcal REST API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/teemow/textcal/internal/api/handlers"
	"github.com/teemow/textcal/internal/api/middleware"
	"github.com/teemow/textcal/internal/instrumentation"
	"github.com/teemow/textcal/internal/logging"
	"github.com/teemow/textcal/internal/mirror"
	"github.com/teemow/textcal/internal/server"
)

// Dependencies are the services the router dispatches to. Store and Health
// may be nil.
type Dependencies struct {
	Planner handlers.Planner
	Store   *mirror.Store
	Health  *server.HealthChecker
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(deps Dependencies) *mux.Router {
	logger := logging.WithComponent(deps.Logger, "api")

	r := mux.NewRouter()
	r.Use(middleware.Observe(logger, deps.Metrics))
	r.Use(middleware.ErrorRecovery(logger))

	if deps.Health != nil {
		deps.Health.RegisterHealthEndpoints(r)
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/plans", handlers.ApplyPlan(deps.Planner)).Methods(http.MethodPost)
	api.HandleFunc("/plans/preview", handlers.PreviewPlan(deps.Planner)).Methods(http.MethodPost)

	api.HandleFunc("/calendars/{calendarId}/events", handlers.ListEvents(deps.Store)).Methods(http.MethodGet)
	api.HandleFunc("/calendars/{calendarId}/events.ics", handlers.ExportEvents(deps.Store)).Methods(http.MethodGet)
	api.HandleFunc("/calendars/{calendarId}/events", handlers.ClearEvents(deps.Store)).Methods(http.MethodDelete)

	return r
}
