package view

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdash/internal/api"
	"eventdash/internal/calendar"
	"eventdash/internal/events"
	"eventdash/internal/form"
	"eventdash/internal/model"
)

func TestCardUsesLongDate(t *testing.T) {
	var b bytes.Buffer
	Card(&b, model.Event{ID: 4, Title: "Treinamento", Date: "05/02/2026", StartTime: "08:00", EndTime: "17:00", Location: "Curitiba"})
	out := b.String()
	assert.Contains(t, out, "#4  Treinamento")
	assert.Contains(t, out, "05 de fev de 2026  08:00-17:00")
	assert.Contains(t, out, "Curitiba")
}

func TestCardKeepsUnparsableDate(t *testing.T) {
	var b bytes.Buffer
	Card(&b, model.Event{ID: 1, Title: "X", Date: "em breve"})
	assert.Contains(t, b.String(), "em breve")
}

func TestMonthGridLayout(t *testing.T) {
	v := calendar.BuildMonthView(2026, 1, []model.Event{{ID: 1, Date: "15/01/2026"}}, 15)

	var b bytes.Buffer
	Month(&b, v)
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 7)

	assert.Contains(t, lines[0], "Janeiro 2026")
	// January 2026 starts on a Thursday: four blank cells first.
	assert.True(t, strings.HasPrefix(lines[2], strings.Repeat(" ", 4*cellWidth)+"  1 "))
	assert.Contains(t, b.String(), "[15*]")
	assert.Contains(t, b.String(), " 16  ")
}

func TestAgendaRows(t *testing.T) {
	items := calendar.Agenda([]model.Event{
		{Title: "B", Date: "2026-03-25"},
		{Title: "A", Date: "05/02/2026", Location: "Curitiba"},
	})
	var b bytes.Buffer
	Agenda(&b, items)
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[05 FEV]"))
	assert.True(t, strings.HasPrefix(lines[1], "[25 MAR]"))
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrap: %w", events.ErrNotFound), "Evento não encontrado."},
		{&api.NetworkError{Op: "GET /events", Err: errors.New("refused")}, "Não foi possível conectar ao servidor. Verifique sua conexão."},
		{&api.AuthError{Status: 401}, "Sessão expirada. Faça login novamente."},
		{&api.ServerError{Status: 500, Message: "db down"}, "db down"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ErrorMessage(c.err))
	}

	msg := ErrorMessage(&form.ValidationError{Fields: map[string]string{"title": "Título é obrigatório"}})
	assert.True(t, strings.HasPrefix(msg, form.SummaryMessage))
	assert.Contains(t, msg, "title: Título é obrigatório")
}

func TestFormStatus(t *testing.T) {
	fields := form.EventFields(false)
	tr := form.NewTracker(fields...)
	tr.Apply(&form.ValidationError{Fields: map[string]string{form.FieldDate: "Data inválida"}})

	var buf bytes.Buffer
	FormStatus(&buf, fields, tr)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  ✔ title", lines[0])
	assert.Equal(t, "  ✖ date: Data inválida", lines[1])
	assert.Equal(t, "  ✔ location", lines[2])
	assert.Equal(t, "  ✔ imageUrl", lines[3])
}
