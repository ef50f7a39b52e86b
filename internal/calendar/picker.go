package calendar

import (
	"eventdash/internal/dates"
	"eventdash/internal/model"
)

// DayPicker holds the state of the date-picker dialog.
//
// Navigating months touches only Year and Month; a selected day survives
// navigation, matching the dialog it replaces.
type DayPicker struct {
	Year     int
	Month    int
	Selected int // 0 when no day is selected
}

// OpenPicker seeds a picker from an existing value. If value does not
// normalize, the picker opens on today's month with no selection.
func OpenPicker(value string, today model.Date) DayPicker {
	if d, err := dates.Parse(value); err == nil {
		return DayPicker{Year: d.Year, Month: d.Month, Selected: d.Day}
	}
	return DayPicker{Year: today.Year, Month: today.Month}
}

func (p *DayPicker) NextMonth() {
	p.Year, p.Month = dates.AddMonths(p.Year, p.Month, 1)
}

func (p *DayPicker) PrevMonth() {
	p.Year, p.Month = dates.AddMonths(p.Year, p.Month, -1)
}

// Select records day as the selection.
func (p *DayPicker) Select(day int) {
	p.Selected = day
}

// Confirm returns the selection as YYYY-MM-DD. It is a no-op returning
// false when nothing is selected or the selection does not exist in the
// currently displayed month.
func (p DayPicker) Confirm() (string, bool) {
	if p.Selected == 0 || !dates.Valid(p.Year, p.Month, p.Selected) {
		return "", false
	}
	return dates.FormatISO(model.Date{Year: p.Year, Month: p.Month, Day: p.Selected}), true
}

// Grid returns the month grid for the picker with the selection flagged.
func (p DayPicker) Grid() MonthView {
	return BuildMonthView(p.Year, p.Month, nil, p.Selected)
}
