package translator

import (
	"strings"
	"time"
)

// Placeholders substituted into the instruction template.
const (
	placeholderNow      = "{{now}}"
	placeholderTimeZone = "{{timezone}}"
)

// instructionTemplate is sent ahead of every user text.
const instructionTemplate = `You convert calendar requests into a JSON plan.

Current time: {{now}}
Time zone: {{timezone}}

Respond with a single JSON object and nothing else:
{"operations": [ ... ]}

Each element of "operations" is one of:
  {"type": "create", "event": {"title": string, "description": string, "location": string,
    "recurrenceRules": [string], "startAt": string, "endAt": string}}
  {"type": "update", "remoteId": string, "event": {any subset of the create fields}}
  {"type": "delete", "remoteId": string}

Rules:
- startAt and endAt are ISO-8601. Use "YYYY-MM-DDTHH:MM:SS" for times in the
  time zone above and "YYYY-MM-DD" for all-day events.
- A create must have both startAt and endAt, and startAt must be before endAt.
  If no duration is given, assume one hour.
- recurrenceRules are RFC 5545 lines such as "RRULE:FREQ=WEEKLY;BYDAY=MO".
- Only use update or delete when the request names an existing event id.
- Omit fields you do not know. Do not invent ids.
- If nothing should change, return {"operations": []}.`

// renderPrompt fills the template and appends the user text.
func renderPrompt(template, text string, now time.Time, tz string) string {
	r := strings.NewReplacer(
		placeholderNow, now.Format(time.RFC3339)+" ("+now.Weekday().String()+")",
		placeholderTimeZone, tz,
	)
	return r.Replace(template) + "\n\n" + text
}
