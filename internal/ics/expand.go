package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"eventdash/internal/dates"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

const defaultMaxOccurrences = 500

// Window is an inclusive day range. A zero From or To leaves that side open
// for single events; recurring entries need both.
type Window struct {
	From model.Date
	To   model.Date

	// MaxOccurrences caps each recurring entry. Zero means 500.
	MaxOccurrences int
}

func (w Window) contains(d model.Date) bool {
	if !w.From.IsZero() && d.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && w.To.Before(d) {
		return false
	}
	return true
}

// Expand turns entries into events inside w. Recurring entries are expanded
// with their RRULE, EXDATE days are dropped and RECURRENCE-ID overrides
// replace the matching instance.
func Expand(entries []Entry, w Window) []model.Event {
	if w.MaxOccurrences <= 0 {
		w.MaxOccurrences = defaultMaxOccurrences
	}

	overrides := map[string]map[model.Date]Entry{}
	for _, e := range entries {
		if e.RecurrenceDay == nil {
			continue
		}
		if overrides[e.UID] == nil {
			overrides[e.UID] = map[model.Date]Entry{}
		}
		overrides[e.UID][*e.RecurrenceDay] = e
	}

	out := make([]model.Event, 0, len(entries))
	for _, e := range entries {
		if e.RecurrenceDay != nil {
			continue
		}
		if e.RRule == "" {
			if w.contains(e.Day) {
				out = append(out, toEvent(e, e.Day))
			}
			continue
		}

		for _, day := range occurrences(e, w) {
			if ov, ok := overrides[e.UID][day]; ok {
				if w.contains(ov.Day) {
					out = append(out, toEvent(ov, ov.Day))
				}
				continue
			}
			out = append(out, toEvent(e, day))
		}
	}
	return out
}

func occurrences(e Entry, w Window) []model.Date {
	if w.From.IsZero() || w.To.IsZero() {
		appLog.Warn("ics: recurring entry needs a bounded window", "uid", e.UID)
		return nil
	}

	r, err := rrule.StrToRRule(e.RRule)
	if err != nil {
		appLog.Error("ics: bad RRULE", err, "uid", e.UID, "rrule", e.RRule)
		return nil
	}
	// Anchor at noon UTC so day arithmetic never crosses midnight.
	r.DTStart(noon(e.Day))

	var set rrule.Set
	set.RRule(r)
	for _, ex := range e.ExDays {
		set.ExDate(noon(ex))
	}

	times := set.Between(noon(w.From), noon(w.To), true)
	if len(times) > w.MaxOccurrences {
		appLog.Error("ics: occurrences truncated", errors.New("cap reached"), "uid", e.UID, "cap", w.MaxOccurrences)
		times = times[:w.MaxOccurrences]
	}

	days := make([]model.Date, 0, len(times))
	for _, t := range times {
		days = append(days, dates.FromTime(t, time.UTC))
	}
	return days
}

func noon(d model.Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC)
}

func toEvent(e Entry, day model.Date) model.Event {
	title := e.Summary
	if title == "" {
		title = "(sem título)"
	}
	return model.Event{
		Title:       title,
		Description: e.Description,
		Date:        dates.FormatISO(day),
		Location:    e.Location,
		ImageURL:    e.URL,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
	}
}

// Decode is Parse followed by Expand.
func Decode(body []byte, loc *time.Location, w Window) ([]model.Event, error) {
	entries, err := Parse(body, loc)
	if err != nil {
		return nil, err
	}
	return Expand(entries, w), nil
}
