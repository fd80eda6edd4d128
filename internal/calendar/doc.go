// Package calendar is a thin adapter over the Google Calendar v3 API.
//
// A Client is built per caller from an explicit bearer token and exposes
// the four calls textcal needs: create, patch and delete an event, and read
// the user's default time zone. Remote failures surface as *APIError with
// the service's message left untouched.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, token)
//	if err != nil {
//	    return err
//	}
//	title := "Lunch"
//	ev, err := client.CreateEvent(ctx, "primary", calendar.EventPatch{
//	    Summary:  &title,
//	    Start:    &calendar.EventTime{DateTime: "2025-03-01T12:00:00"},
//	    End:      &calendar.EventTime{DateTime: "2025-03-01T13:00:00"},
//	    TimeZone: "Europe/Berlin",
//	})
package calendar
