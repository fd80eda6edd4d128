package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/teemow/textcal/internal/api/middleware"
	"github.com/teemow/textcal/internal/mirror"
)

// ClearResponse is returned by DELETE /api/calendars/{calendarId}/events.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// ListEvents returns the mirrored events of a calendar as JSON.
func ListEvents(store *mirror.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			mirrorDisabled(w)
			return
		}
		records, err := store.List(r.Context(), mux.Vars(r)["calendarId"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query mirrored events")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, records)
	}
}

// ExportEvents returns the mirrored events of a calendar as iCalendar.
func ExportEvents(store *mirror.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			mirrorDisabled(w)
			return
		}
		calendarID := mux.Vars(r)["calendarId"]
		records, err := store.List(r.Context(), calendarID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query mirrored events")
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(mirror.ExportICS(calendarID, records)))
	}
}

// ClearEvents removes every mirrored event of a calendar. Remote events are
// not touched.
func ClearEvents(store *mirror.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			mirrorDisabled(w)
			return
		}
		n, err := store.Clear(r.Context(), mux.Vars(r)["calendarId"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to clear mirrored events")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, ClearResponse{Removed: n})
	}
}

func mirrorDisabled(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Local mirror is disabled")
}
