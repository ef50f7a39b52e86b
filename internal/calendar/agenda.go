package calendar

import (
	"sort"

	"eventdash/internal/dates"
	"eventdash/internal/model"
)

// AgendaItem is one row of the agenda drawer.
type AgendaItem struct {
	Event model.Event
	Date  model.Date

	// DayLabel and MonthLabel fill the date box, e.g. "05" / "FEV".
	DayLabel   string
	MonthLabel string
}

// Agenda orders events by normalized date. Events on the same day keep
// their input order; events with malformed dates are skipped.
func Agenda(events []model.Event) []AgendaItem {
	items := make([]AgendaItem, 0, len(events))
	for _, ev := range events {
		d, ok := normalize(ev)
		if !ok {
			continue
		}
		day, month := dates.DateBox(d)
		items = append(items, AgendaItem{Event: ev, Date: d, DayLabel: day, MonthLabel: month})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.Before(items[j].Date)
	})
	return items
}

// Upcoming is Agenda restricted to events on or after from.
func Upcoming(events []model.Event, from model.Date) []AgendaItem {
	all := Agenda(events)
	out := all[:0]
	for _, it := range all {
		if !it.Date.Before(from) {
			out = append(out, it)
		}
	}
	return out
}
