package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"eventdash/internal/calendar"
	"eventdash/internal/dates"
	"eventdash/internal/events"
	"eventdash/internal/ics"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
	"eventdash/internal/notify"
	"eventdash/internal/server"
	"eventdash/internal/view"
)

func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "export")
	out := fs.String("o", "-", "Arquivo de saída (- para stdout)")
	name := fs.String("name", "Eventos", "Nome do calendário")
	if err := fs.Parse(args); err != nil {
		return err
	}

	evs, err := a.load(ctx)
	if err != nil {
		return err
	}
	body := ics.Export(evs, ics.ExportOptions{Name: *name, Location: a.cfg.Location()})
	if err := a.writeOutput(*out, []byte(body)); err != nil {
		return err
	}
	if *out != "-" && *out != "" {
		view.Success(a.out, fmt.Sprintf("%d eventos exportados para %s.", len(evs), *out))
	}
	return nil
}

func cmdImport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "import")
	file := fs.String("file", "", "Arquivo .ics local")
	url := fs.String("url", "", "URL de um feed .ics (padrão: feeds da configuração)")
	days := fs.Int("days", 365, "Horizonte para eventos recorrentes, em dias")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	n, err := a.importFeeds(ctx, *file, *url, *days)
	if err != nil {
		return err
	}
	view.Success(a.out, fmt.Sprintf("%d eventos importados.", n))
	return nil
}

// importFeeds reads one local file, one URL, or every configured feed and
// imports the expanded events.
func (a *app) importFeeds(ctx context.Context, file, url string, days int) (int, error) {
	today := a.events.Today()
	end := dates.FromTime(time.Date(today.Year, time.Month(today.Month), today.Day+days, 12, 0, 0, 0, time.UTC), time.UTC)
	window := ics.Window{From: today, To: end}
	loc := a.cfg.Location()

	var bodies [][]byte
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return 0, err
		}
		bodies = append(bodies, data)
	default:
		sources := ics.SourcesFromConfig(a.cfg.ICS)
		if url != "" {
			sources = []ics.Source{{ID: "cli", URL: url}}
		}
		if len(sources) == 0 {
			return 0, errors.New("nenhum feed configurado; use -file ou -url")
		}
		results, errs := ics.NewFetcher(a.cfg.ICSCacheDir(), a.cfg.Timeout()).FetchAll(ctx, sources)
		if len(results) == 0 && len(errs) > 0 {
			return 0, errors.Join(errs...)
		}
		for _, r := range results {
			bodies = append(bodies, r.Body)
		}
	}

	var incoming []model.Event
	for _, b := range bodies {
		evs, err := ics.Decode(b, loc, window)
		if err != nil {
			appLog.Error("import: feed skipped", err)
			continue
		}
		incoming = append(incoming, evs...)
	}
	return a.events.Import(ctx, incoming)
}

func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "watch")
	spec := fs.String("schedule", a.cfg.RefreshCron, "Agenda cron (5 campos)")
	feeds := fs.Bool("feeds", false, "Importar também os feeds configurados a cada ciclo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	c := cron.New(cron.WithLocation(a.cfg.Location()))

	tick := func() {
		if *feeds && len(a.cfg.ICS) > 0 {
			if n, err := a.importFeeds(ctx, "", "", 365); err != nil {
				appLog.Error("watch: feed import failed", err)
			} else if n > 0 {
				appLog.Info("watch: feed events imported", "count", n)
			}
		}
		a.refreshAndReport(ctx)
	}

	if _, err := c.AddFunc(*spec, tick); err != nil {
		return fmt.Errorf("agenda cron inválida %q: %w", *spec, err)
	}

	tick()
	c.Start()
	appLog.Info("watch started", "schedule", *spec)

	if a.cfg.Server.RedisURL != "" {
		go a.followChanges(ctx)
	}

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	appLog.Info("watch stopped")
	return nil
}

// refreshAndReport reloads events and prints what is happening today. The
// cron tick and the change feed both call it; reportMu keeps their reports
// from interleaving.
func (a *app) refreshAndReport(ctx context.Context) {
	a.reportMu.Lock()
	defer a.reportMu.Unlock()

	before := len(a.events.Events())
	evs, err := a.events.Refresh(ctx)
	if err != nil {
		view.Error(a.errOut, err)
		if a.events.Loaded() {
			fmt.Fprintf(a.errOut, "  mantendo a última lista (%d eventos)\n", len(evs))
		}
		return
	}
	today := a.events.Today()
	fmt.Fprintf(a.out, "[%s] %d eventos (%+d), %d próximos\n",
		time.Now().In(a.cfg.Location()).Format("15:04"),
		len(evs), len(evs)-before, len(calendar.Upcoming(evs, today)))
	for _, ev := range a.events.EventsOnDay(today.Year, today.Month, today.Day) {
		fmt.Fprintf(a.out, "  hoje: %s\n", ev.Title)
	}
}

// followChanges refreshes immediately when the local server announces a
// change.
func (a *app) followChanges(ctx context.Context) {
	sub, err := notify.NewRedis(ctx, a.cfg.Server.RedisURL, a.cfg.Server.RedisChannel)
	if err != nil {
		appLog.Error("watch: change feed unavailable", err)
		return
	}
	defer sub.Close()

	err = sub.Subscribe(ctx, func(c notify.Change) {
		appLog.Info("watch: change received", "action", c.Action, "id", c.EventID)
		a.refreshAndReport(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		appLog.Error("watch: change feed stopped", err)
	}
}

func cmdServe(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "serve")
	listen := fs.String("listen", a.cfg.Server.Listen, "Endereço HTTP")
	seed := fs.Bool("seed", false, "Popular com eventos de exemplo se o banco estiver vazio")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.cfg.Server.JWTSecret == "" {
		return errors.New("defina server.jwt_secret (ou EVENTDASH_JWT_SECRET) antes de iniciar o servidor")
	}

	store, err := server.OpenStore(a.cfg.ServerDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	var pub notify.Publisher = notify.Nop{}
	if a.cfg.Server.RedisURL != "" {
		r, err := notify.NewRedis(ctx, a.cfg.Server.RedisURL, a.cfg.Server.RedisChannel)
		if err != nil {
			return err
		}
		pub = r
	}
	defer pub.Close()

	srv, err := server.NewServer(store, server.Options{
		Secret:         []byte(a.cfg.Server.JWTSecret),
		TokenTTL:       a.cfg.JWTExpiry(),
		Publisher:      pub,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	if *seed {
		n, err := srv.Seed(ctx, events.InitialEvents())
		if err != nil {
			return err
		}
		if n > 0 {
			appLog.Info("server seeded", "events", n)
		}
	}

	return srv.ListenAndServe(ctx, *listen)
}
