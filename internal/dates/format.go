package dates

import (
	"fmt"
	"strings"

	"eventdash/internal/model"
)

var (
	shortMonths = [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}
	longMonths  = [12]string{
		"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	}
)

// WeekdayInitials are the column headers of the month grid, Sunday first.
var WeekdayInitials = [7]string{"D", "S", "T", "Q", "Q", "S", "S"}

// FormatISO renders d in the YYYY-MM-DD wire format.
func FormatISO(d model.Date) string {
	return d.String()
}

// FormatDMY renders d as DD/MM/YYYY.
func FormatDMY(d model.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// FormatLong renders d the way event cards show it: "15 de jan de 2026".
func FormatLong(d model.Date) string {
	return fmt.Sprintf("%02d de %s de %04d", d.Day, ShortMonth(d.Month), d.Year)
}

// DateBox returns the day and upper-case month abbreviation shown in the
// agenda list, e.g. ("05", "FEV").
func DateBox(d model.Date) (day, month string) {
	return fmt.Sprintf("%02d", d.Day), strings.ToUpper(ShortMonth(d.Month))
}

// ShortMonth returns the abbreviated month name, or "mês" out of range.
func ShortMonth(month int) string {
	if month < 1 || month > 12 {
		return "mês"
	}
	return shortMonths[month-1]
}

// LongMonth returns the full month name used in calendar headers.
func LongMonth(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return longMonths[month-1]
}

// DisplayLong formats a raw event date string for a card. Strings that do
// not normalize are returned unchanged.
func DisplayLong(raw string) string {
	d, err := Parse(raw)
	if err != nil {
		return raw
	}
	return FormatLong(d)
}
