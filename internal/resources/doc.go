// Package resources provides MCP resources: read-only data that MCP clients
// fetch by URI.
//
//   - textcal://account reports the configured account, default calendar and
//     whether a token and the mirror are available.
//   - textcal://calendars/{calendarId}/events returns the mirrored events of
//     a calendar as JSON, and .../events.ics as iCalendar.
package resources
