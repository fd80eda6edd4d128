// Package handlers implements the HTTP handlers of the textcal API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teemow/textcal/internal/api/middleware"
	"github.com/teemow/textcal/internal/google"
	"github.com/teemow/textcal/internal/planner"
	"github.com/teemow/textcal/internal/translator"
)

// maxBodyBytes bounds the size of a plan request body.
const maxBodyBytes = 64 << 10

// PlanRequest is the body of POST /api/plans and /api/plans/preview.
type PlanRequest struct {
	Text       string `json:"text"`
	TimeZone   string `json:"timeZone,omitempty"`
	CalendarID string `json:"calendarId,omitempty"`
}

// Planner is the subset of planner.Service the handlers call.
type Planner interface {
	Apply(ctx context.Context, req planner.Request) (*planner.Response, error)
	Preview(ctx context.Context, req planner.Request) (*planner.Response, error)
}

// ApplyPlan translates the text into a plan and executes it against the
// caller's calendar. The bearer token is taken from the Authorization header.
func ApplyPlan(svc Planner) http.HandlerFunc {
	return planHandler(svc.Apply)
}

// PreviewPlan translates the text without changing the calendar.
func PreviewPlan(svc Planner) http.HandlerFunc {
	return planHandler(svc.Preview)
}

func planHandler(run func(context.Context, planner.Request) (*planner.Response, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body PlanRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		req := planner.Request{
			Text:       body.Text,
			TimeZone:   body.TimeZone,
			CalendarID: body.CalendarID,
			Source:     "api",
		}
		if token, ok := google.BearerToken(r); ok {
			req.Token = token
		}

		resp, err := run(r.Context(), req)
		if err != nil {
			writePlanError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, resp)
	}
}

// writePlanError maps planner errors to HTTP statuses.
func writePlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrMissingText):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
	case errors.Is(err, planner.ErrMissingToken):
		w.Header().Set("WWW-Authenticate", `Bearer realm="textcal"`)
		middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, err.Error())
	case errors.Is(err, translator.ErrBackend):
		middleware.WriteError(w, http.StatusBadGateway, middleware.ErrBadGateway, "Language model request failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrUnavailable, "Request was cancelled")
	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to process plan")
	}
}
