package mirror

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

const productID = "-//textcal//mirror//EN"

// ExportICS renders records as an iCalendar document. Times that cannot be
// parsed are left out, as are recurrence lines other than valid RRULEs.
func ExportICS(calendarID string, records []Record) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(calendarID)

	for _, r := range records {
		ev := cal.AddEvent(fmt.Sprintf("%s@%s", r.RemoteEventID, calendarID))
		ev.SetDtStampTime(r.UpdatedAt)
		ev.SetModifiedAt(r.UpdatedAt)
		ev.SetSummary(r.Name)
		if r.Description != "" {
			ev.SetDescription(r.Description)
		}
		if r.Location != "" {
			ev.SetLocation(r.Location)
		}
		if r.Link != "" {
			ev.SetURL(r.Link)
		}
		setTime(r.StartTime, ev.SetAllDayStartAt, ev.SetStartAt)
		setTime(r.EndTime, ev.SetAllDayEndAt, ev.SetEndAt)
		for _, rule := range RecurrenceRules(r.Recurrence) {
			ev.AddRrule(rule)
		}
	}

	return cal.Serialize()
}

// RecurrenceRules returns the RRULE values (without the "RRULE:" prefix) of
// lines that parse as RFC 5545 recurrence rules.
func RecurrenceRules(lines []string) []string {
	var out []string
	for _, line := range lines {
		value, ok := strings.CutPrefix(line, "RRULE:")
		if !ok {
			continue
		}
		if _, err := rrule.StrToROption(value); err != nil {
			continue
		}
		out = append(out, value)
	}
	return out
}

type timeSetter func(time.Time, ...ical.PropertyParameter)

func setTime(value string, allDay, dateTime timeSetter) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		allDay(t)
		return
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		dateTime(t.UTC())
	}
}
