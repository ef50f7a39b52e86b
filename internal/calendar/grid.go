package calendar

import (
	"fmt"

	"eventdash/internal/dates"
	"eventdash/internal/model"
)

// Cell is one slot of a month grid. Day is 0 for a blank slot.
type Cell struct {
	Day int

	// Presentation state, filled by BuildMonthView.
	HasEvent bool
	Selected bool
}

// Empty reports whether c is a leading or trailing blank.
func (c Cell) Empty() bool {
	return c.Day == 0
}

// BuildMonthGrid lays out month (1-based) of year as weeks of seven cells,
// Sunday first. The first week starts with FirstWeekday blanks and the last
// week is padded with blanks to seven cells. An out-of-range month yields nil.
func BuildMonthGrid(year, month int) [][]Cell {
	n := dates.DaysInMonth(year, month)
	if n == 0 {
		return nil
	}

	lead := dates.FirstWeekday(year, month)
	total := lead + n
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	cells := make([]Cell, total)
	for day := 1; day <= n; day++ {
		cells[lead+day-1].Day = day
	}

	weeks := make([][]Cell, 0, total/7)
	for i := 0; i < total; i += 7 {
		weeks = append(weeks, cells[i:i+7:i+7])
	}
	return weeks
}

// MonthView is a month grid decorated for display.
type MonthView struct {
	Year  int
	Month int
	Weeks [][]Cell
}

// Title renders the header, e.g. "Janeiro 2026".
func (v MonthView) Title() string {
	return fmt.Sprintf("%s %d", dates.LongMonth(v.Month), v.Year)
}

// BuildMonthView builds the grid for (year, month) and flags days that have
// events and the selected day (0 for none). Events with malformed dates are
// skipped.
func BuildMonthView(year, month int, events []model.Event, selected int) MonthView {
	idx := NewIndex(events)
	weeks := BuildMonthGrid(year, month)
	for _, week := range weeks {
		for i := range week {
			if week[i].Empty() {
				continue
			}
			week[i].HasEvent = idx.HasEventOnDay(year, month, week[i].Day)
			week[i].Selected = selected != 0 && week[i].Day == selected
		}
	}
	return MonthView{Year: year, Month: month, Weeks: weeks}
}
