package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// EventTime is one side of an event's time range. Exactly one of DateTime
// and Date is expected to be set; Date marks an all-day boundary.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// EventPatch carries the fields to send on create or patch. Nil pointers are
// left out of the request; a non-nil empty string clears the remote field.
type EventPatch struct {
	Summary     *string
	Description *string
	Location    *string
	// Recurrence is sent when non-nil; an empty non-nil slice clears it.
	Recurrence []string
	Start      *EventTime
	End        *EventTime
	// TimeZone applies to Start and End when they carry a DateTime.
	TimeZone string
}

// RemoteEvent is the subset of the remote event representation textcal keeps.
type RemoteEvent struct {
	ID          string    `json:"id"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status,omitempty"`
	Recurrence  []string  `json:"recurrence,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Updated     string    `json:"updated,omitempty"`
}

func (t *EventTime) toAPI(tz string) *calendar.EventDateTime {
	if t == nil {
		return nil
	}
	if t.Date != "" {
		return &calendar.EventDateTime{Date: t.Date}
	}
	out := &calendar.EventDateTime{DateTime: t.DateTime, TimeZone: t.TimeZone}
	if out.TimeZone == "" {
		out.TimeZone = tz
	}
	return out
}

func fromAPITime(t *calendar.EventDateTime) EventTime {
	if t == nil {
		return EventTime{}
	}
	return EventTime{DateTime: t.DateTime, Date: t.Date, TimeZone: t.TimeZone}
}

// toEvent builds the request body. Explicitly empty strings and slices are
// force-sent so that patching can clear a field.
func (p EventPatch) toEvent() *calendar.Event {
	ev := &calendar.Event{}

	setString := func(dst *string, src *string, field string) {
		if src == nil {
			return
		}
		*dst = *src
		if *src == "" {
			ev.ForceSendFields = append(ev.ForceSendFields, field)
		}
	}
	setString(&ev.Summary, p.Summary, "Summary")
	setString(&ev.Description, p.Description, "Description")
	setString(&ev.Location, p.Location, "Location")

	if p.Recurrence != nil {
		ev.Recurrence = p.Recurrence
		if len(p.Recurrence) == 0 {
			ev.NullFields = append(ev.NullFields, "Recurrence")
		}
	}

	ev.Start = p.Start.toAPI(p.TimeZone)
	ev.End = p.End.toAPI(p.TimeZone)
	return ev
}

func toRemoteEvent(e *calendar.Event) *RemoteEvent {
	if e == nil {
		return nil
	}
	return &RemoteEvent{
		ID:          e.Id,
		HTMLLink:    e.HtmlLink,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Status:      e.Status,
		Recurrence:  e.Recurrence,
		Start:       fromAPITime(e.Start),
		End:         fromAPITime(e.End),
		Updated:     e.Updated,
	}
}
