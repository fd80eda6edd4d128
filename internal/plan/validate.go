package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RejectionError explains why a candidate operation was dropped from a plan.
type RejectionError struct {
	// Index is the position of the candidate in the model response.
	Index int `json:"index"`
	// Kind is the declared operation type, empty when it could not be read.
	Kind   Kind   `json:"type,omitempty"`
	Reason string `json:"reason"`
}

func (e *RejectionError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("operation %d rejected: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("%s operation %d rejected: %s", e.Kind, e.Index, e.Reason)
}

func reject(kind Kind, format string, args ...any) *RejectionError {
	return &RejectionError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Event fields recognized in candidate operations. Anything else is ignored.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldLocation    = "location"
	fieldRecurrence  = "recurrenceRules"
	fieldStartAt     = "startAt"
	fieldEndAt       = "endAt"
)

var recognizedEventFields = []string{
	fieldTitle, fieldDescription, fieldLocation, fieldRecurrence, fieldStartAt, fieldEndAt,
}

type object map[string]json.RawMessage

// Validate checks a single candidate and returns the typed Operation. Start and
// end values without an offset are compared as wall clock in loc (UTC when
// nil). A failing candidate yields a *RejectionError with Index left at zero.
func Validate(raw json.RawMessage, loc *time.Location) (Operation, error) {
	fields, ok := decodeObject(raw)
	if !ok {
		return Operation{}, reject("", "operation must be a JSON object")
	}

	kind, err := decodeKind(fields)
	if err != nil {
		return Operation{}, err
	}

	switch kind {
	case KindCreate:
		return validateCreate(fields, loc)
	case KindUpdate:
		return validateUpdate(fields, loc)
	case KindDelete:
		remoteID, err := decodeRemoteID(kind, fields)
		if err != nil {
			return Operation{}, err
		}
		return NewDelete(remoteID), nil
	default:
		return Operation{}, reject(kind, "unknown operation type %q", kind)
	}
}

// ValidateAll validates candidates in order. Valid operations keep their
// relative order in the returned plan; rejected ones are reported with their
// original index.
func ValidateAll(candidates []json.RawMessage, loc *time.Location) (Plan, []RejectionError) {
	p := Empty()
	var rejected []RejectionError

	for i, c := range candidates {
		op, err := Validate(c, loc)
		if err != nil {
			var rej *RejectionError
			if !errors.As(err, &rej) {
				rej = reject("", "%v", err)
			}
			rej.Index = i
			rejected = append(rejected, *rej)
			continue
		}
		p.Operations = append(p.Operations, op)
	}

	return p, rejected
}

func validateCreate(fields object, loc *time.Location) (Operation, error) {
	event, ok, err := decodeEvent(KindCreate, fields)
	if err != nil {
		return Operation{}, err
	}
	if !ok {
		return Operation{}, reject(KindCreate, "event is required")
	}

	in := EventInput{}
	if err := decodeCommon(KindCreate, event, &in.Title, &in.Description, &in.Location, &in.RecurrenceRules); err != nil {
		return Operation{}, err
	}

	start, err := decodeTimestamp(KindCreate, event, fieldStartAt)
	if err != nil {
		return Operation{}, err
	}
	if start == nil {
		return Operation{}, reject(KindCreate, "event.startAt is required")
	}
	end, err := decodeTimestamp(KindCreate, event, fieldEndAt)
	if err != nil {
		return Operation{}, err
	}
	if end == nil {
		return Operation{}, reject(KindCreate, "event.endAt is required")
	}
	if err := checkRange(KindCreate, *start, *end, loc); err != nil {
		return Operation{}, err
	}

	in.StartAt = *start
	in.EndAt = *end
	return NewCreate(in), nil
}

func validateUpdate(fields object, loc *time.Location) (Operation, error) {
	remoteID, err := decodeRemoteID(KindUpdate, fields)
	if err != nil {
		return Operation{}, err
	}

	event, ok, err := decodeEvent(KindUpdate, fields)
	if err != nil {
		return Operation{}, err
	}
	if !ok {
		return Operation{}, reject(KindUpdate, "event is required")
	}

	recognized := 0
	for _, name := range recognizedEventFields {
		if v, present := event[name]; present && !isNull(v) {
			recognized++
		}
	}
	if recognized == 0 {
		return Operation{}, reject(KindUpdate, "event has no recognized fields")
	}

	in := PartialEventInput{}
	if err := decodeCommon(KindUpdate, event, &in.Title, &in.Description, &in.Location, &in.RecurrenceRules); err != nil {
		return Operation{}, err
	}
	if in.StartAt, err = decodeTimestamp(KindUpdate, event, fieldStartAt); err != nil {
		return Operation{}, err
	}
	if in.EndAt, err = decodeTimestamp(KindUpdate, event, fieldEndAt); err != nil {
		return Operation{}, err
	}
	if in.StartAt != nil && in.EndAt != nil {
		if err := checkRange(KindUpdate, *in.StartAt, *in.EndAt, loc); err != nil {
			return Operation{}, err
		}
	}

	return NewUpdate(remoteID, in), nil
}

// checkRange requires both ends to be dates or both date-times, and start to
// be strictly before end.
func checkRange(kind Kind, start, end Timestamp, loc *time.Location) error {
	if start.IsDate() != end.IsDate() {
		return reject(kind, "event.startAt %s and event.endAt %s must both be dates or both be date-times", start.Raw, end.Raw)
	}
	if !start.Before(end, loc) {
		return reject(kind, "event.startAt %s must be before event.endAt %s", start.Raw, end.Raw)
	}
	return nil
}

func decodeObject(raw json.RawMessage) (object, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields object
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

func decodeKind(fields object) (Kind, error) {
	raw, ok := fields["type"]
	if !ok || isNull(raw) {
		return "", reject("", "type is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", reject("", "type must be a string")
	}
	return Kind(strings.ToLower(strings.TrimSpace(s))), nil
}

func decodeRemoteID(kind Kind, fields object) (string, error) {
	raw, ok := fields["remoteId"]
	if !ok || isNull(raw) {
		return "", reject(kind, "remoteId is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", reject(kind, "remoteId must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", reject(kind, "remoteId must not be empty")
	}
	return s, nil
}

func decodeEvent(kind Kind, fields object) (object, bool, error) {
	raw, ok := fields["event"]
	if !ok || isNull(raw) {
		return nil, false, nil
	}
	event, ok := decodeObject(raw)
	if !ok {
		return nil, false, reject(kind, "event must be an object")
	}
	return event, true, nil
}

func decodeCommon(kind Kind, event object, title, description, location **string, rules *[]string) error {
	var err error
	if *title, err = decodeString(kind, event, fieldTitle); err != nil {
		return err
	}
	if *description, err = decodeString(kind, event, fieldDescription); err != nil {
		return err
	}
	if *location, err = decodeString(kind, event, fieldLocation); err != nil {
		return err
	}
	*rules, err = decodeRules(kind, event)
	return err
}

func decodeString(kind Kind, event object, name string) (*string, error) {
	raw, ok := event[name]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, reject(kind, "event.%s must be a string", name)
	}
	return &s, nil
}

// decodeRules accepts an array of strings, or a single string for a lone rule.
func decodeRules(kind Kind, event object) ([]string, error) {
	raw, ok := event[fieldRecurrence]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var rules []string
	if err := json.Unmarshal(raw, &rules); err == nil {
		return rules, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	return nil, reject(kind, "event.%s must be an array of strings", fieldRecurrence)
}

func decodeTimestamp(kind Kind, event object, name string) (*Timestamp, error) {
	raw, ok := event[name]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, reject(kind, "event.%s must be a string", name)
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return nil, reject(kind, "event.%s: %v", name, err)
	}
	return &ts, nil
}
