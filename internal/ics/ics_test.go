package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdash/internal/config"
	"eventdash/internal/model"
)

const feed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:single@test
DTSTAMP:20260101T000000Z
DTSTART;VALUE=DATE:20260315
DTEND;VALUE=DATE:20260316
SUMMARY:Feriado local
LOCATION:Recife
END:VEVENT
BEGIN:VEVENT
UID:utc@test
DTSTAMP:20260101T000000Z
DTSTART:20260320T020000Z
DTEND:20260320T030000Z
SUMMARY:Tarde da noite
END:VEVENT
BEGIN:VEVENT
UID:weekly@test
DTSTAMP:20260101T000000Z
DTSTART;VALUE=DATE:20260105
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE;VALUE=DATE:20260112
SUMMARY:Semanal
END:VEVENT
BEGIN:VEVENT
UID:weekly@test
DTSTAMP:20260101T000000Z
RECURRENCE-ID;VALUE=DATE:20260119
DTSTART;VALUE=DATE:20260120
SUMMARY:Semanal (remarcado)
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20260101T000000Z
DTSTART;VALUE=DATE:20260101
SUMMARY:Sem UID
END:VEVENT
END:VCALENDAR
`

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	return loc
}

func TestParseReadsDayFromDTSTART(t *testing.T) {
	loc := saoPaulo(t)
	entries, err := Parse([]byte(feed), loc)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, model.Date{Year: 2026, Month: 3, Day: 15}, entries[0].Day)
	assert.Equal(t, "", entries[0].StartTime)

	// 02:00Z is 23:00 the previous day in São Paulo.
	assert.Equal(t, model.Date{Year: 2026, Month: 3, Day: 19}, entries[1].Day)
	assert.Equal(t, "23:00", entries[1].StartTime)
	assert.Equal(t, "00:00", entries[1].EndTime)
}

func TestExpandRecurrence(t *testing.T) {
	loc := saoPaulo(t)
	evs, err := Decode([]byte(feed), loc, Window{
		From: model.Date{Year: 2026, Month: 1, Day: 1},
		To:   model.Date{Year: 2026, Month: 1, Day: 31},
	})
	require.NoError(t, err)

	var got []string
	for _, ev := range evs {
		got = append(got, ev.Date+" "+ev.Title)
	}
	assert.Equal(t, []string{
		"2026-01-05 Semanal",
		"2026-01-20 Semanal (remarcado)",
		"2026-01-26 Semanal",
	}, got)
}

func TestExpandOpenWindowKeepsSingles(t *testing.T) {
	entries, err := Parse([]byte(feed), time.UTC)
	require.NoError(t, err)
	evs := Expand(entries, Window{})
	require.Len(t, evs, 2)
	assert.Equal(t, "2026-03-15", evs[0].Date)
	assert.Equal(t, "Recife", evs[0].Location)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse([]byte("  "), time.UTC)
	assert.Error(t, err)
}

func TestExportRoundTrip(t *testing.T) {
	loc := saoPaulo(t)
	in := []model.Event{
		{ID: 1, Title: "Show", Date: "25/03/2026", Location: "Arena", ImageURL: "https://img.example/1.png"},
		{ID: 2, Title: "Palestra", Date: "2026-04-02", StartTime: "19:00", EndTime: "21:30"},
		{ID: 3, Title: "Quebrado", Date: "xx"},
	}

	out := Export(in, ExportOptions{Name: "Eventos", Location: loc, Now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	assert.Contains(t, out, "X-WR-CALNAME:Eventos")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20260325")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))

	back, err := Decode([]byte(out), loc, Window{})
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "2026-03-25", back[0].Date)
	assert.Equal(t, "https://img.example/1.png", back[0].ImageURL)
	assert.Equal(t, "2026-04-02", back[1].Date)
	assert.Equal(t, "19:00", back[1].StartTime)
	assert.Equal(t, "21:30", back[1].EndTime)
}

func TestEventUIDStable(t *testing.T) {
	ev := model.Event{ID: 4, Title: "X"}
	assert.Equal(t, EventUID(ev), EventUID(ev))
	assert.NotEqual(t, EventUID(ev), EventUID(model.Event{ID: 5, Title: "X"}))
}

func TestFetcherCachesAndFallsBack(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(feed))
	}))

	f := NewFetcher(t.TempDir(), time.Second)
	src := Source{ID: "feriados", URL: srv.URL + "/private.ics?token=x"}

	res, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, res.FromCache)

	res, err = f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 2, hits)

	srv.Close()
	res, err = f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, feed, string(res.Body))
}

func TestFetchAllCollectsErrors(t *testing.T) {
	f := NewFetcher(t.TempDir(), time.Second)
	res, errs := f.FetchAll(context.Background(), SourcesFromConfig([]config.ICSConfig{
		{Name: "vazio"},
	}))
	assert.Empty(t, res)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "vazio")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://cal.example/...", redactURL("https://cal.example/secret/basic.ics?k=1"))
	assert.Equal(t, "(redacted)", redactURL("not a url"))
}
