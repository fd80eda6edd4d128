package plan

import (
	"encoding/json"
)

// Kind identifies the variant of an Operation.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// EventInput is the payload of a create operation.
type EventInput struct {
	Title           *string   `json:"title,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Location        *string   `json:"location,omitempty"`
	RecurrenceRules []string  `json:"recurrenceRules,omitempty"`
	StartAt         Timestamp `json:"startAt"`
	EndAt           Timestamp `json:"endAt"`
}

// PartialEventInput is the payload of an update operation. Nil fields are left
// untouched on the remote event.
type PartialEventInput struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Location        *string    `json:"location,omitempty"`
	RecurrenceRules []string   `json:"recurrenceRules,omitempty"`
	StartAt         *Timestamp `json:"startAt,omitempty"`
	EndAt           *Timestamp `json:"endAt,omitempty"`
}

// Operation is a single validated mutation. Exactly one of Create and Update is
// set for the create and update kinds; delete carries only RemoteID.
type Operation struct {
	Kind     Kind
	RemoteID string
	Create   *EventInput
	Update   *PartialEventInput
}

// NewCreate returns a create operation.
func NewCreate(event EventInput) Operation {
	return Operation{Kind: KindCreate, Create: &event}
}

// NewUpdate returns an update operation.
func NewUpdate(remoteID string, event PartialEventInput) Operation {
	return Operation{Kind: KindUpdate, RemoteID: remoteID, Update: &event}
}

// NewDelete returns a delete operation.
func NewDelete(remoteID string) Operation {
	return Operation{Kind: KindDelete, RemoteID: remoteID}
}

// wireOperation is the JSON form shared by the model response and the API.
type wireOperation struct {
	Type     Kind            `json:"type"`
	RemoteID string          `json:"remoteId,omitempty"`
	Event    json.RawMessage `json:"event,omitempty"`
}

// MarshalJSON encodes the operation in its tagged wire form.
func (o Operation) MarshalJSON() ([]byte, error) {
	w := wireOperation{Type: o.Kind, RemoteID: o.RemoteID}

	var (
		event []byte
		err   error
	)
	switch o.Kind {
	case KindCreate:
		if o.Create != nil {
			event, err = json.Marshal(o.Create)
		}
	case KindUpdate:
		if o.Update != nil {
			event, err = json.Marshal(o.Update)
		}
	}
	if err != nil {
		return nil, err
	}
	w.Event = event

	return json.Marshal(w)
}

// Plan is an ordered batch of validated operations. Operations execute in the
// order they appear.
type Plan struct {
	Operations []Operation `json:"operations"`
}

// Empty returns a plan with no operations. The operations slice is non-nil so
// it encodes as [] rather than null.
func Empty() Plan {
	return Plan{Operations: []Operation{}}
}

// Len returns the number of operations in the plan.
func (p Plan) Len() int {
	return len(p.Operations)
}
