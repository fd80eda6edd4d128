package plan

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
)

const fence = "```"

// StripCodeFence removes a leading ``` (optionally followed by a language tag
// such as json) and a trailing ``` from a model response.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, fence) {
		return s
	}

	s = strings.TrimPrefix(s, fence)
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		// Anything between the opening fence and the first newline is a
		// language tag.
		s = s[nl+1:]
	} else if i := strings.IndexAny(s, "{["); i > 0 && isLanguageTag(s[:i]) {
		// Single-line fence: ```json {...}```
		s = s[i:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)

	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// ParseResponse extracts the candidate operations from a raw model response of
// the shape {"operations": [...]}. It returns nil when the response is not
// JSON or operations is not an array; the caller treats that as an empty plan.
func ParseResponse(raw string) []json.RawMessage {
	body := StripCodeFence(raw)
	if body == "" {
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil
	}

	ops, ok := envelope["operations"]
	if !ok {
		return nil
	}

	var candidates []json.RawMessage
	if err := json.Unmarshal(ops, &candidates); err != nil {
		return nil
	}
	return candidates
}

// FromResponse parses and validates a model response in one step, reading
// offset-less times in loc.
func FromResponse(raw string, loc *time.Location) (Plan, []RejectionError) {
	return ValidateAll(ParseResponse(raw), loc)
}
