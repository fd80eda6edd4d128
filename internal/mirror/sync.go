package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/textcal/internal/calendar"
	"github.com/teemow/textcal/internal/executor"
	"github.com/teemow/textcal/internal/plan"
)

// Synchronizer applies executed outcomes to the Store.
type Synchronizer struct {
	store *Store
}

// NewSynchronizer creates a Synchronizer writing to store.
func NewSynchronizer(store *Store) *Synchronizer {
	return &Synchronizer{store: store}
}

// Sync mirrors one outcome. Successful creates and updates upsert the values
// the remote service returned; successful deletes remove the row. Failed
// outcomes are ignored.
func (s *Synchronizer) Sync(ctx context.Context, calendarID string, o executor.Outcome) error {
	if !o.Succeeded() || o.RemoteID == "" {
		return nil
	}

	switch o.Action() {
	case plan.KindCreate:
		return s.store.Upsert(ctx, recordFromOutcome(calendarID, o))
	case plan.KindUpdate:
		if o.Event != nil || o.Operation.Update == nil {
			return s.store.Upsert(ctx, recordFromOutcome(calendarID, o))
		}
		r, err := s.mergeUpdate(ctx, calendarID, o)
		if err != nil {
			return err
		}
		return s.store.Upsert(ctx, r)
	case plan.KindDelete:
		return s.store.Delete(ctx, calendarID, o.RemoteID)
	default:
		return fmt.Errorf("cannot mirror operation type %q", o.Action())
	}
}

// recordFromOutcome prefers the remote response and falls back to the
// create's own values when the remote omitted the event body.
func recordFromOutcome(calendarID string, o executor.Outcome) *Record {
	r := &Record{
		CalendarID:    calendarID,
		RemoteEventID: o.RemoteID,
		Name:          o.Title(),
		Link:          o.RemoteLink,
	}

	if ev := o.Event; ev != nil {
		r.Description = ev.Description
		r.Location = ev.Location
		r.StartTime = eventTimeString(ev.Start)
		r.EndTime = eventTimeString(ev.End)
		r.Recurrence = ev.Recurrence
		return r
	}

	if in := o.Operation.Create; in != nil {
		r.Description = deref(in.Description)
		r.Location = deref(in.Location)
		r.StartTime = in.StartAt.String()
		r.EndTime = in.EndAt.String()
		r.Recurrence = in.RecurrenceRules
	}
	return r
}

// mergeUpdate applies the fields an update set to the mirrored row when the
// remote response carried no event body. Unset fields keep their stored value.
func (s *Synchronizer) mergeUpdate(ctx context.Context, calendarID string, o executor.Outcome) (*Record, error) {
	r, err := s.store.Get(ctx, calendarID, o.RemoteID)
	if errors.Is(err, ErrNotFound) {
		r = &Record{CalendarID: calendarID, RemoteEventID: o.RemoteID}
	} else if err != nil {
		return nil, err
	}

	in := o.Operation.Update
	if in.Title != nil {
		r.Name = *in.Title
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Location != nil {
		r.Location = *in.Location
	}
	if in.StartAt != nil {
		r.StartTime = in.StartAt.String()
	}
	if in.EndAt != nil {
		r.EndTime = in.EndAt.String()
	}
	if in.RecurrenceRules != nil {
		r.Recurrence = in.RecurrenceRules
	}
	if o.RemoteLink != "" {
		r.Link = o.RemoteLink
	}
	return r, nil
}

func eventTimeString(t calendar.EventTime) string {
	if t.Date != "" {
		return t.Date
	}
	return t.DateTime
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
