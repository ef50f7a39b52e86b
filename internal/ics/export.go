package ics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"eventdash/internal/dates"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

// ExportOptions controls Export.
type ExportOptions struct {
	// Name becomes X-WR-CALNAME.
	Name string
	// Location places StartTime/EndTime; nil means time.Local.
	Location *time.Location
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// EventUID is stable for a given event id and title so a re-export does not
// duplicate entries in subscribed calendars.
func EventUID(ev model.Event) string {
	name := fmt.Sprintf("eventdash:%d:%s", ev.ID, ev.Title)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@eventdash"
}

// Export writes events as a PUBLISH calendar. Events with a start and end
// time become timed VEVENTs, the rest all-day. Events whose date does not
// parse are skipped.
func Export(events []model.Event, opts ExportOptions) string {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendarFor("eventdash")
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, ev := range events {
		d, err := dates.Parse(ev.Date)
		if err != nil {
			appLog.Warn("ics export: skipping event with bad date", "id", ev.ID, "date", ev.Date)
			continue
		}

		ve := cal.AddEvent(EventUID(ev))
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.ImageURL != "" {
			ve.SetURL(ev.ImageURL)
		}

		start, okStart := clockOn(d, ev.StartTime, loc)
		end, okEnd := clockOn(d, ev.EndTime, loc)
		if okStart && okEnd && end.After(start) {
			ve.SetStartAt(start)
			ve.SetEndAt(end)
			continue
		}

		day := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
	}

	return cal.Serialize()
}

// clockOn combines a day with an "HH:MM" clock in loc.
func clockOn(d model.Date, clock string, loc *time.Location) (time.Time, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return time.Time{}, false
	}
	hh, err1 := strconv.Atoi(h)
	mm, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return time.Time{}, false
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, hh, mm, 0, 0, loc), true
}
