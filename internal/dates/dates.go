// Package dates turns the date strings carried by events into canonical
// calendar days and back into the display forms used by the views.
//
// Every code path that compares or renders an event date goes through Parse.
// Parse never routes a value through a timestamp in another zone, so a
// date-only string cannot drift to the previous or next day.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"eventdash/internal/model"
)

// ErrInvalidDateFormat is returned (wrapped) for any string that does not
// resolve to a real calendar date.
var ErrInvalidDateFormat = errors.New("invalid date format")

// Parse normalizes s into a canonical (year, month, day).
//
// Rules, in order:
//   - contains "/": DD/MM/YYYY, at least three parts required
//   - contains "-" with exactly three numeric parts: YYYY-MM-DD
//   - DD.MM.YYYY with three numeric parts: day first
//   - anything else: generic parsing in UTC, day first when ambiguous; the
//     calendar fields are taken from the parsed value in its own offset
func Parse(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, fmt.Errorf("%w: empty string", ErrInvalidDateFormat)
	}

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) < 3 {
			return model.Date{}, fmt.Errorf("%w: %q: expected DD/MM/YYYY", ErrInvalidDateFormat, s)
		}
		nums, ok := atoiAll(parts[:3])
		if !ok {
			return model.Date{}, fmt.Errorf("%w: %q: non-numeric component", ErrInvalidDateFormat, s)
		}
		return build(s, nums[2], nums[1], nums[0])
	}

	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) == 3 {
			if nums, ok := atoiAll(parts); ok {
				return build(s, nums[0], nums[1], nums[2])
			}
		}
	}

	if parts := strings.Split(s, "."); len(parts) == 3 && len(parts[0]) <= 2 {
		if nums, ok := atoiAll(parts); ok {
			return build(s, nums[2], nums[1], nums[0])
		}
	}

	// Pinned to UTC so epoch inputs do not depend on the host zone; ambiguous
	// numeric forms read day first, like the slash rule.
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return model.Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidDateFormat, s, err)
	}
	return model.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// MustParse is Parse for literals in tests and seed data. It panics on error.
func MustParse(s string) model.Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Valid reports whether (year, month, day) is a real Gregorian date.
func Valid(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= DaysInMonth(year, month)
}

// IsLeap applies the Gregorian rule: divisible by 4, not by 100 unless by 400.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month (1-based) of year.
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if IsLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	default:
		return 0
	}
}

// FirstWeekday returns the weekday index (0=Sunday) of day 1 of the month.
func FirstWeekday(year, month int) int {
	return Weekday(model.Date{Year: year, Month: month, Day: 1})
}

// Weekday returns the weekday index (0=Sunday) of d.
func Weekday(d model.Date) int {
	// UTC only to pick a calendar day; no zone conversion happens.
	return int(time.Date(d.Year, time.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC).Weekday())
}

// Today returns the calendar day of now in loc (time.Local when nil).
func Today(loc *time.Location) model.Date {
	return FromTime(time.Now(), loc)
}

// FromTime reads the calendar fields of t as seen in loc.
func FromTime(t time.Time, loc *time.Location) model.Date {
	if loc != nil {
		t = t.In(loc)
	}
	return model.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// AddMonths shifts (year, month) by n months, keeping month in 1..12.
func AddMonths(year, month, n int) (int, int) {
	idx := year*12 + (month - 1) + n
	y := idx / 12
	m := idx%12 + 1
	if idx%12 < 0 {
		y--
		m += 12
	}
	return y, m
}

func build(src string, year, month, day int) (model.Date, error) {
	if !Valid(year, month, day) {
		return model.Date{}, fmt.Errorf("%w: %q: %04d-%02d-%02d is not a calendar date", ErrInvalidDateFormat, src, year, month, day)
	}
	return model.Date{Year: year, Month: month, Day: day}, nil
}

func atoiAll(parts []string) ([]int, bool) {
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
