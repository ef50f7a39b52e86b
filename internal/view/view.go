// Package view renders the dashboard, agenda and calendar screens as plain
// text for the terminal.
package view

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"eventdash/internal/api"
	"eventdash/internal/calendar"
	"eventdash/internal/dates"
	"eventdash/internal/events"
	"eventdash/internal/form"
	"eventdash/internal/model"
)

// Card writes one event card.
func Card(w io.Writer, ev model.Event) {
	fmt.Fprintf(w, "#%d  %s\n", ev.ID, ev.Title)
	when := dates.DisplayLong(ev.Date)
	if ev.StartTime != "" {
		when += "  " + ev.StartTime
		if ev.EndTime != "" {
			when += "-" + ev.EndTime
		}
	}
	fmt.Fprintf(w, "     %s\n", when)
	if ev.Location != "" {
		fmt.Fprintf(w, "     %s\n", ev.Location)
	}
	if ev.Description != "" {
		fmt.Fprintf(w, "     %s\n", ev.Description)
	}
}

// Dashboard writes every event as a card, in the order given.
func Dashboard(w io.Writer, evs []model.Event) {
	if len(evs) == 0 {
		fmt.Fprintln(w, "Nenhum evento cadastrado.")
		return
	}
	for i, ev := range evs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		Card(w, ev)
	}
}

// Agenda writes the agenda drawer: a date box and title per row.
func Agenda(w io.Writer, items []calendar.AgendaItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nenhum evento na agenda.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "[%s %s]\t%s\t%s\n", it.DayLabel, it.MonthLabel, it.Event.Title, it.Event.Location)
	}
	tw.Flush()
}

// Month writes the month grid. Days with events carry a '*'; the selected
// day is bracketed.
func Month(w io.Writer, v calendar.MonthView) {
	fmt.Fprintf(w, "%s\n", center(v.Title(), 7*cellWidth))
	for _, h := range dates.WeekdayInitials {
		fmt.Fprintf(w, "  %s  ", h)
	}
	fmt.Fprintln(w)

	for _, week := range v.Weeks {
		for _, c := range week {
			fmt.Fprint(w, cell(c))
		}
		fmt.Fprintln(w)
	}
}

const cellWidth = 5

func cell(c calendar.Cell) string {
	if c.Empty() {
		return strings.Repeat(" ", cellWidth)
	}
	mark := " "
	if c.HasEvent {
		mark = "*"
	}
	if c.Selected {
		return fmt.Sprintf("[%2d%s]", c.Day, mark)
	}
	return fmt.Sprintf(" %2d%s ", c.Day, mark)
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

// DayEvents writes the list shown under the grid for the selected day.
func DayEvents(w io.Writer, d model.Date, evs []model.Event) {
	fmt.Fprintf(w, "\n%s\n", dates.FormatLong(d))
	if len(evs) == 0 {
		fmt.Fprintln(w, "  Nenhum evento neste dia.")
		return
	}
	for _, ev := range evs {
		fmt.Fprintf(w, "  - %s", ev.Title)
		if ev.Location != "" {
			fmt.Fprintf(w, " (%s)", ev.Location)
		}
		fmt.Fprintln(w)
	}
}

// FormStatus writes one line per form input with its state after a
// submission.
func FormStatus(w io.Writer, fields []string, t *form.Tracker) {
	for _, f := range fields {
		switch t.State(f) {
		case form.Valid:
			fmt.Fprintf(w, "  ✔ %s\n", f)
		case form.Invalid:
			fmt.Fprintf(w, "  ✖ %s: %s\n", f, t.Message(f))
		default:
			fmt.Fprintf(w, "  · %s\n", f)
		}
	}
}

// ErrorMessage maps an error to the text shown to the user.
func ErrorMessage(err error) string {
	var ve *form.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		keys := make([]string, 0, len(ve.Fields))
		for k := range ve.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(form.SummaryMessage)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %s", k, ve.Field(k))
		}
		return b.String()
	case errors.Is(err, events.ErrNotFound):
		return "Evento não encontrado."
	case errors.Is(err, events.ErrUnsupported):
		return "Operação disponível apenas no modo local."
	case api.IsAuth(err):
		return api.UserMessage(err, "Sessão expirada. Faça login novamente.")
	case api.IsNetwork(err):
		return "Não foi possível conectar ao servidor. Verifique sua conexão."
	}
	return api.UserMessage(err, "Erro inesperado: "+err.Error())
}

// Error writes a toast-like error line.
func Error(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "✖ %s\n", ErrorMessage(err))
}

// Success writes a toast-like confirmation line.
func Success(w io.Writer, msg string) {
	fmt.Fprintf(w, "✔ %s\n", msg)
}
