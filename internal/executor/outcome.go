package executor

import (
	"github.com/teemow/textcal/internal/calendar"
	"github.com/teemow/textcal/internal/plan"
)

// Status is the result of one attempted operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome records the attempt of the operation at Index in its plan.
type Outcome struct {
	Index      int                   `json:"index"`
	Operation  plan.Operation        `json:"operation"`
	Status     Status                `json:"status"`
	RemoteID   string                `json:"remoteId,omitempty"`
	RemoteLink string                `json:"remoteLink,omitempty"`
	Error      string                `json:"error,omitempty"`
	Event      *calendar.RemoteEvent `json:"event,omitempty"`
}

// Action is the operation kind of the outcome.
func (o Outcome) Action() plan.Kind {
	return o.Operation.Kind
}

// Succeeded reports whether the remote mutation was applied.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Title returns the event title as reported by the remote service, falling
// back to the title the plan asked for.
func (o Outcome) Title() string {
	if o.Event != nil && o.Event.Summary != "" {
		return o.Event.Summary
	}
	switch {
	case o.Operation.Create != nil && o.Operation.Create.Title != nil:
		return *o.Operation.Create.Title
	case o.Operation.Update != nil && o.Operation.Update.Title != nil:
		return *o.Operation.Update.Title
	}
	return ""
}
