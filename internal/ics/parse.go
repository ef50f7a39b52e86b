// Package ics moves events in and out of iCalendar feeds: Export writes
// all-day VEVENTs, Parse/Expand read subscription feeds, and Fetcher
// downloads them with HTTP caching.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"eventdash/internal/dates"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

// Entry is one VEVENT reduced to what an event card needs. Day comes
// straight from the DTSTART text so a date-only value never shifts with
// the host timezone.
type Entry struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string

	Day       model.Date
	StartTime string // "HH:MM", empty for all-day
	EndTime   string

	RRule  string
	ExDays []model.Date

	// RecurrenceDay is set on an override of one instance of a recurring
	// entry with the same UID.
	RecurrenceDay *model.Date
}

// Parse decodes a feed. Timed values in UTC are moved into loc before the
// day is taken; floating and TZID values are read as written. VEVENTs
// without UID or a readable DTSTART are logged and skipped.
func Parse(body []byte, loc *time.Location) ([]Entry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("ics: empty body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}

	out := make([]Entry, 0)
	for _, ve := range cal.Events() {
		e, err := parseVEvent(ve, loc)
		if err != nil {
			appLog.Warn("ics: skipping vevent", "reason", err.Error())
			continue
		}
		out = append(out, e)
	}

	appLog.Debug("ics parse completed", "entries", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (Entry, error) {
	var e Entry

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return e, errors.New("missing UID")
	}
	e.UID = uid.Value

	e.Summary = propValue(ve, ical.ComponentPropertySummary)
	e.Description = propValue(ve, ical.ComponentPropertyDescription)
	e.Location = propValue(ve, ical.ComponentPropertyLocation)
	e.URL = propValue(ve, ical.ComponentPropertyUrl)
	e.RRule = propValue(ve, ical.ComponentPropertyRrule)

	start := ve.GetProperty(ical.ComponentPropertyDtStart)
	if start == nil {
		return e, fmt.Errorf("%s: missing DTSTART", e.UID)
	}
	day, clock, err := dayFromValue(start.Value, loc)
	if err != nil {
		return e, fmt.Errorf("%s: DTSTART: %w", e.UID, err)
	}
	e.Day, e.StartTime = day, clock

	if end := ve.GetProperty(ical.ComponentPropertyDtEnd); end != nil && clock != "" {
		if _, endClock, err := dayFromValue(end.Value, loc); err == nil {
			e.EndTime = endClock
		}
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if d, _, err := dayFromValue(part, loc); err == nil {
				e.ExDays = append(e.ExDays, d)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentPropertyRecurrenceId); rid != nil {
		if d, _, err := dayFromValue(rid.Value, loc); err == nil {
			e.RecurrenceDay = &d
		}
	}

	return e, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

// dayFromValue reads YYYYMMDD[THHMMSS[Z]]. Only the Z form is converted
// into loc.
func dayFromValue(v string, loc *time.Location) (model.Date, string, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return model.Date{}, "", err
		}
		t = t.In(loc)
		return dates.FromTime(t, loc), t.Format("15:04"), nil
	}

	if len(v) < 8 {
		return model.Date{}, "", fmt.Errorf("short date value %q", v)
	}
	y, err1 := strconv.Atoi(v[0:4])
	m, err2 := strconv.Atoi(v[4:6])
	d, err3 := strconv.Atoi(v[6:8])
	if err1 != nil || err2 != nil || err3 != nil || !dates.Valid(y, m, d) {
		return model.Date{}, "", fmt.Errorf("bad date value %q", v)
	}

	clock := ""
	if len(v) >= 13 && v[8] == 'T' {
		clock = v[9:11] + ":" + v[11:13]
	}
	return model.Date{Year: y, Month: m, Day: d}, clock, nil
}
