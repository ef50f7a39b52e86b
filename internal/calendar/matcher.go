package calendar

import (
	"eventdash/internal/dates"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
)

// HasEventOnDay reports whether at least one event normalizes to the given
// day. Events with malformed dates are skipped.
func HasEventOnDay(events []model.Event, year, month, day int) bool {
	target := model.Date{Year: year, Month: month, Day: day}
	for _, ev := range events {
		d, ok := normalize(ev)
		if ok && d == target {
			return true
		}
	}
	return false
}

// EventsOnDay returns the events falling on the given day, in input order.
func EventsOnDay(events []model.Event, year, month, day int) []model.Event {
	target := model.Date{Year: year, Month: month, Day: day}
	var out []model.Event
	for _, ev := range events {
		d, ok := normalize(ev)
		if ok && d == target {
			out = append(out, ev)
		}
	}
	return out
}

// Index maps each calendar day to the events on it. It must be rebuilt
// whenever the underlying collection changes.
type Index struct {
	byDay   map[model.Date][]model.Event
	skipped int
}

// NewIndex builds an index over events.
func NewIndex(events []model.Event) *Index {
	idx := &Index{}
	idx.Rebuild(events)
	return idx
}

// Rebuild discards the current mapping and indexes events again.
func (x *Index) Rebuild(events []model.Event) {
	x.byDay = make(map[model.Date][]model.Event, len(events))
	x.skipped = 0
	for _, ev := range events {
		d, ok := normalize(ev)
		if !ok {
			x.skipped++
			continue
		}
		x.byDay[d] = append(x.byDay[d], ev)
	}
}

// HasEventOnDay is the indexed form of the package-level function.
func (x *Index) HasEventOnDay(year, month, day int) bool {
	return len(x.byDay[model.Date{Year: year, Month: month, Day: day}]) > 0
}

// EventsOnDay is the indexed form of the package-level function.
func (x *Index) EventsOnDay(year, month, day int) []model.Event {
	evs := x.byDay[model.Date{Year: year, Month: month, Day: day}]
	if len(evs) == 0 {
		return nil
	}
	out := make([]model.Event, len(evs))
	copy(out, evs)
	return out
}

// Skipped is the number of events left out because their date did not parse.
func (x *Index) Skipped() int {
	return x.skipped
}

func normalize(ev model.Event) (model.Date, bool) {
	d, err := dates.Parse(ev.Date)
	if err != nil {
		appLog.Error("calendar: skipping event with malformed date", err, "id", ev.ID, "date", ev.Date)
		return model.Date{}, false
	}
	return d, true
}
