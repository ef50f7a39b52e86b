package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"eventdash/internal/api"
	"eventdash/internal/calendar"
	"eventdash/internal/dates"
	"eventdash/internal/form"
	appLog "eventdash/internal/log"
	"eventdash/internal/model"
	"eventdash/internal/session"
	"eventdash/internal/view"
)

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	email := fs.String("email", "", "E-mail")
	password := fs.String("password", "", "Senha (vazio usa a senha lembrada)")
	remember := fs.Bool("remember", false, "Lembrar senha neste dispositivo")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if a.local() {
		view.Success(a.out, "Modo local: login não é necessário.")
		return nil
	}

	creds := session.Credentials{Email: strings.TrimSpace(*email), Password: *password}
	if saved, ok := a.session.Remembered(ctx); ok {
		if creds.Email == "" {
			creds.Email = saved.Email
		}
		if creds.Password == "" && strings.EqualFold(creds.Email, saved.Email) {
			creds.Password = saved.Password
		}
	}

	if err := (form.LoginForm{Email: creds.Email, Password: creds.Password}).Validate(); err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		if api.IsAuth(err) {
			return errors.New(api.UserMessage(err, "E-mail ou senha inválidos"))
		}
		return err
	}
	if err := a.session.SignIn(ctx, resp.Token, resp.User); err != nil {
		return err
	}

	if *remember {
		err = a.session.Remember(ctx, creds)
	} else {
		err = a.session.Remember(ctx, session.Credentials{Email: creds.Email})
		if err == nil {
			err = a.session.Forget(ctx)
		}
	}
	if err != nil {
		appLog.Error("failed to store remembered credentials", err)
	}

	view.Success(a.out, fmt.Sprintf("Bem-vindo, %s!", resp.User.Name))
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "register")
	var f form.RegisterForm
	fs.StringVar(&f.Name, "name", "", "Nome")
	fs.StringVar(&f.Email, "email", "", "E-mail")
	fs.StringVar(&f.Password, "password", "", "Senha")
	fs.StringVar(&f.Confirm, "confirm", "", "Confirmação da senha")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := f.Validate(); err != nil {
		return err
	}
	if a.local() {
		return errors.New("cadastro indisponível no modo local")
	}

	if _, err := a.client.Register(ctx, api.RegisterRequest{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
	}); err != nil {
		return err
	}
	view.Success(a.out, "Conta criada com sucesso! Faça login para continuar.")
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if err := newFlagSet(a, "logout").Parse(args); err != nil {
		return err
	}
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	view.Success(a.out, "Você saiu da conta.")
	return nil
}

// load refreshes the event snapshot after checking the session.
func (a *app) load(ctx context.Context) ([]model.Event, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	return a.events.Refresh(ctx)
}

func cmdList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "list")
	upcoming := fs.Bool("upcoming", false, "Apenas eventos a partir de hoje")
	if err := fs.Parse(args); err != nil {
		return err
	}

	evs, err := a.load(ctx)
	if err != nil {
		return err
	}
	if *upcoming {
		items := calendar.Upcoming(evs, a.events.Today())
		evs = make([]model.Event, 0, len(items))
		for _, it := range items {
			evs = append(evs, it.Event)
		}
	}
	view.Dashboard(a.out, evs)
	return nil
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "show")
	id := fs.Int("id", 0, "Id do evento")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	ev, err := a.events.Get(ctx, *id)
	if err != nil {
		return err
	}
	view.Card(a.out, ev)
	return nil
}

func cmdAgenda(ctx context.Context, a *app, args []string) error {
	if err := newFlagSet(a, "agenda").Parse(args); err != nil {
		return err
	}
	evs, err := a.load(ctx)
	if err != nil {
		return err
	}
	view.Agenda(a.out, calendar.Agenda(evs))
	return nil
}

func cmdCalendar(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "calendar")
	month := fs.String("month", "", "Mês no formato YYYY-MM (padrão: mês atual)")
	day := fs.Int("day", 0, "Dia selecionado; lista os eventos do dia")
	if err := fs.Parse(args); err != nil {
		return err
	}

	today := a.events.Today()
	year, mon := today.Year, today.Month
	if *month != "" {
		d, err := dates.Parse(*month + "-01")
		if err != nil {
			return fmt.Errorf("mês inválido %q: use YYYY-MM", *month)
		}
		year, mon = d.Year, d.Month
	}
	if *day != 0 && !dates.Valid(year, mon, *day) {
		return fmt.Errorf("dia inválido: %d", *day)
	}

	evs, err := a.load(ctx)
	if err != nil {
		return err
	}

	view.Month(a.out, calendar.BuildMonthView(year, mon, evs, *day))
	if *day != 0 {
		view.DayEvents(a.out, model.Date{Year: year, Month: mon, Day: *day}, a.events.EventsOnDay(year, mon, *day))
	}
	return nil
}

// fillDate copies a typed date into the three form inputs. A value that
// does not normalize is left for validation to reject.
func fillDate(f *form.EventForm, raw string, today model.Date) {
	if raw == "" {
		return
	}
	p := calendar.OpenPicker(raw, today)
	if _, ok := p.Confirm(); !ok {
		parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '-' })
		switch {
		case len(parts) == 3 && len(parts[0]) == 4:
			f.Year, f.Month, f.Day = parts[0], parts[1], parts[2]
		case len(parts) == 3:
			f.Day, f.Month, f.Year = parts[0], parts[1], parts[2]
		default:
			f.Day, f.Month, f.Year = raw, "", ""
		}
		return
	}
	f.Day = strconv.Itoa(p.Selected)
	f.Month = strconv.Itoa(p.Month)
	f.Year = strconv.Itoa(p.Year)
}

// reportForm shows which inputs passed when a submission fails validation.
func (a *app) reportForm(editing bool, err error) {
	if !errors.Is(err, form.ErrValidation) {
		return
	}
	fields := form.EventFields(editing)
	tr := form.NewTracker(fields...)
	tr.Apply(err)
	view.FormStatus(a.out, fields, tr)
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "create")
	var f form.EventForm
	date := fs.String("date", "", "Data (DD/MM/YYYY ou YYYY-MM-DD)")
	fs.StringVar(&f.Title, "title", "", "Título")
	fs.StringVar(&f.Location, "location", "", "Local")
	fs.StringVar(&f.ImageURL, "image", "", "URL da imagem")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	fillDate(&f, *date, a.events.Today())
	ev, err := a.events.Create(ctx, f)
	if err != nil {
		a.reportForm(false, err)
		return err
	}
	view.Success(a.out, fmt.Sprintf("Evento #%d criado para %s.", ev.ID, dates.DisplayLong(ev.Date)))
	return nil
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "edit")
	id := fs.Int("id", 0, "Id do evento")
	date := fs.String("date", "", "Nova data")
	location := fs.String("location", "", "Novo local")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	ev, err := a.events.Get(ctx, *id)
	if err != nil {
		return err
	}
	f := form.EventFormFor(ev)
	fillDate(&f, *date, a.events.Today())
	if *location != "" {
		f.Location = *location
	}

	up, err := a.events.Update(ctx, *id, f)
	if err != nil {
		a.reportForm(true, err)
		return err
	}
	view.Success(a.out, fmt.Sprintf("Evento #%d atualizado: %s, %s.", up.ID, dates.DisplayLong(up.Date), up.Location))
	return nil
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "delete")
	id := fs.Int("id", 0, "Id do evento")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	if err := a.events.Delete(ctx, *id); err != nil {
		return err
	}
	view.Success(a.out, fmt.Sprintf("Evento #%d excluído.", *id))
	return nil
}

func cmdReset(ctx context.Context, a *app, args []string) error {
	if err := newFlagSet(a, "reset").Parse(args); err != nil {
		return err
	}
	if err := a.events.Reset(ctx); err != nil {
		return err
	}
	view.Success(a.out, "Eventos de exemplo restaurados.")
	return nil
}

// writeOutput writes data to path, or to the app's stdout for "" and "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.out.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
