package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Form describes how a Timestamp was written.
type Form int

const (
	// FormInstant has an explicit offset, e.g. 2025-03-01T10:00:00+01:00.
	FormInstant Form = iota
	// FormLocal is a wall-clock time without offset, resolved by the remote
	// service in the request time zone.
	FormLocal
	// FormDate is a calendar date used for all-day events.
	FormDate
)

const (
	localLayout = "2006-01-02T15:04:05"
	dateLayout  = "2006-01-02"
)

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	localLayout,
	"2006-01-02T15:04",
}

// Timestamp is a parsed ISO-8601 value that remembers its original text and form.
type Timestamp struct {
	Raw  string
	Time time.Time
	Form Form
}

// ParseTimestamp parses an RFC 3339 instant, an offset-less local date-time or
// a calendar date. Offset-less values are parsed as UTC wall clock.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Raw: s, Time: t, Form: FormInstant}, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Raw: s, Time: t, Form: FormLocal}, nil
		}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Timestamp{Raw: s, Time: t, Form: FormDate}, nil
	}

	return Timestamp{}, fmt.Errorf("timestamp %q is not ISO-8601", s)
}

// MustParseTimestamp is like ParseTimestamp but panics on error. Intended for tests
// and constants.
func MustParseTimestamp(s string) Timestamp {
	ts, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// IsDate reports whether the timestamp is a date without a time of day.
func (t Timestamp) IsDate() bool {
	return t.Form == FormDate
}

// In returns the instant t denotes when read in loc. Instants keep their own
// offset; local date-times and dates are taken as wall clock in loc. A nil loc
// means UTC.
func (t Timestamp) In(loc *time.Location) time.Time {
	if t.Form == FormInstant {
		return t.Time
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Time.Year(), t.Time.Month(), t.Time.Day(),
		t.Time.Hour(), t.Time.Minute(), t.Time.Second(), t.Time.Nanosecond(), loc)
}

// Before reports whether t is strictly earlier than u, with offset-less
// values read in loc.
func (t Timestamp) Before(u Timestamp, loc *time.Location) bool {
	return t.In(loc).Before(u.In(loc))
}

// String returns the canonical text form sent to the remote service.
func (t Timestamp) String() string {
	switch t.Form {
	case FormDate:
		return t.Time.Format(dateLayout)
	case FormLocal:
		return t.Time.Format(localLayout)
	default:
		return t.Time.Format(time.RFC3339)
	}
}

// MarshalJSON encodes the timestamp as its original text.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	raw := t.Raw
	if raw == "" {
		raw = t.String()
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes and validates a JSON string timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string")
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
