package google

import (
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultOAuthScopes are the scopes textcal needs: event mutation and
// read access to the user's settings for the default time zone.
var DefaultOAuthScopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarSettingsReadonlyScope,
}
