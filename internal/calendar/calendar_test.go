package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdash/internal/model"
)

func sampleEvents() []model.Event {
	return []model.Event{
		{ID: 1, Title: "Reunião Executiva", Date: "15/01/2026"},
		{ID: 2, Title: "Workshop", Date: "2026-01-22"},
		{ID: 3, Title: "Broken", Date: "32/13/2026"},
		{ID: 4, Title: "Kickoff", Date: "2026-01-15"},
		{ID: 5, Title: "Lançamento", Date: "January 28, 2026"},
	}
}

func TestHasEventOnDay(t *testing.T) {
	events := sampleEvents()

	assert.True(t, HasEventOnDay(events, 2026, 1, 15))
	assert.True(t, HasEventOnDay(events, 2026, 1, 22))
	assert.True(t, HasEventOnDay(events, 2026, 1, 28))
	assert.False(t, HasEventOnDay(events, 2026, 1, 16))
	assert.False(t, HasEventOnDay(events, 2025, 1, 15))
	assert.False(t, HasEventOnDay(nil, 2026, 1, 15))
	assert.False(t, HasEventOnDay([]model.Event{}, 2026, 1, 15))
}

func TestEventsOnDayKeepsInputOrder(t *testing.T) {
	got := EventsOnDay(sampleEvents(), 2026, 1, 15)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 4, got[1].ID)

	assert.Empty(t, EventsOnDay(sampleEvents(), 2026, 2, 1))
}

func TestIndexMatchesLinearScan(t *testing.T) {
	events := sampleEvents()
	idx := NewIndex(events)
	assert.Equal(t, 1, idx.Skipped())

	for day := 1; day <= 31; day++ {
		assert.Equal(t, HasEventOnDay(events, 2026, 1, day), idx.HasEventOnDay(2026, 1, day), "day %d", day)
		assert.Equal(t, EventsOnDay(events, 2026, 1, day), idx.EventsOnDay(2026, 1, day), "day %d", day)
	}

	// Rebuild after the collection changes.
	events = append(events, model.Event{ID: 6, Title: "Late add", Date: "16/01/2026"})
	assert.False(t, idx.HasEventOnDay(2026, 1, 16))
	idx.Rebuild(events)
	assert.True(t, idx.HasEventOnDay(2026, 1, 16))
	assert.Equal(t, EventsOnDay(events, 2026, 1, 16), idx.EventsOnDay(2026, 1, 16))
}

func TestBuildMonthGridJanuary2026(t *testing.T) {
	weeks := BuildMonthGrid(2026, 1)
	require.Len(t, weeks, 5)

	first := weeks[0]
	require.Len(t, first, 7)
	for i := 0; i < 4; i++ {
		assert.True(t, first[i].Empty(), "cell %d", i)
	}
	assert.Equal(t, 1, first[4].Day)
	assert.Equal(t, 3, first[6].Day)

	last := weeks[len(weeks)-1]
	require.Len(t, last, 7)
	assert.Equal(t, 31, last[6].Day)
}

func TestBuildMonthGridPadsTrailingWeek(t *testing.T) {
	// February 2024: starts Thursday, 29 days.
	weeks := BuildMonthGrid(2024, 2)
	count := 0
	for _, w := range weeks {
		require.Len(t, w, 7)
		for _, c := range w {
			if !c.Empty() {
				count++
			}
		}
	}
	assert.Equal(t, 29, count)
	last := weeks[len(weeks)-1]
	assert.Equal(t, 29, last[4].Day)
	assert.True(t, last[5].Empty())
	assert.True(t, last[6].Empty())

	assert.Nil(t, BuildMonthGrid(2026, 0))
}

func TestBuildMonthViewFlags(t *testing.T) {
	view := BuildMonthView(2026, 1, sampleEvents(), 22)
	assert.Equal(t, "Janeiro 2026", view.Title())

	flags := map[int]Cell{}
	for _, w := range view.Weeks {
		for _, c := range w {
			if !c.Empty() {
				flags[c.Day] = c
			}
		}
	}
	assert.True(t, flags[15].HasEvent)
	assert.True(t, flags[22].HasEvent)
	assert.True(t, flags[22].Selected)
	assert.False(t, flags[15].Selected)
	assert.False(t, flags[2].HasEvent)
}

func TestDayPicker(t *testing.T) {
	today := model.Date{Year: 2026, Month: 10, Day: 19}

	p := OpenPicker("", today)
	assert.Equal(t, DayPicker{Year: 2026, Month: 10}, p)

	_, ok := p.Confirm()
	assert.False(t, ok, "confirm without selection is a no-op")

	p.Select(5)
	p.NextMonth()
	p.NextMonth()
	p.NextMonth()
	assert.Equal(t, 2027, p.Year)
	assert.Equal(t, 1, p.Month)
	assert.Equal(t, 5, p.Selected)

	v, ok := p.Confirm()
	require.True(t, ok)
	assert.Equal(t, "2027-01-05", v)

	p = OpenPicker("2026-03-25", today)
	assert.Equal(t, DayPicker{Year: 2026, Month: 3, Selected: 25}, p)
	p.PrevMonth()
	assert.Equal(t, 2, p.Month)

	p.Select(31)
	_, ok = p.Confirm()
	assert.False(t, ok, "31 February does not exist")
}

func TestAgendaSortsAndSkips(t *testing.T) {
	items := Agenda(sampleEvents())
	require.Len(t, items, 4)

	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.Event.ID
	}
	assert.Equal(t, []int{1, 4, 2, 5}, ids)
	assert.Equal(t, "15", items[0].DayLabel)
	assert.Equal(t, "JAN", items[0].MonthLabel)

	up := Upcoming(sampleEvents(), model.Date{Year: 2026, Month: 1, Day: 20})
	require.Len(t, up, 2)
	assert.Equal(t, 2, up[0].Event.ID)
}
