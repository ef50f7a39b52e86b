package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"eventdash/internal/config"
	appLog "eventdash/internal/log"
	"eventdash/internal/view"
)

// globalFlags are the flags accepted before the subcommand name.
type globalFlags struct {
	configPath string
	local      bool
	debug      bool
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":    {"entrar com e-mail e senha", cmdLogin},
	"register": {"criar uma conta", cmdRegister},
	"logout":   {"sair e apagar os dados locais", cmdLogout},
	"list":     {"listar eventos (painel)", cmdList},
	"show":     {"detalhes de um evento", cmdShow},
	"agenda":   {"agenda ordenada por data", cmdAgenda},
	"calendar": {"calendário do mês com marcação de eventos", cmdCalendar},
	"create":   {"criar evento", cmdCreate},
	"edit":     {"alterar data e local de um evento", cmdEdit},
	"delete":   {"excluir evento", cmdDelete},
	"reset":    {"restaurar eventos de exemplo (modo local)", cmdReset},
	"export":   {"exportar eventos em iCalendar", cmdExport},
	"import":   {"importar eventos de feeds iCalendar", cmdImport},
	"watch":    {"atualizar eventos periodicamente", cmdWatch},
	"serve":    {"servidor local da API", cmdServe},
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("eventdash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var g globalFlags
	fs.StringVar(&g.configPath, "config", config.DefaultPath(), "Path to config file")
	fs.BoolVar(&g.local, "local", false, "Use the on-disk event store instead of the API")
	fs.BoolVar(&g.debug, "debug", false, "Debug logging")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "comando desconhecido: %s\n\n", name)
		usage(fs, stderr)
		return 2
	}

	if err := config.LoadDotEnv(".env", filepath.Join(config.DefaultDataDir(), ".env")); err != nil {
		appLog.Error("failed to load .env", err)
	}

	a, err := newApp(ctx, g, stdout, stderr)
	if err != nil {
		appLog.Error("startup failed", err, "config_path", g.configPath)
		view.Error(stderr, err)
		return 1
	}
	defer a.Close()

	if err := cmd.run(ctx, a, fs.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if errors.Is(err, context.Canceled) {
			return 130
		}
		view.Error(stderr, err)
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "uso: eventdash [flags] <comando> [flags do comando]")
	fmt.Fprintln(w, "\ncomandos:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-9s %s\n", n, commands[n].summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}
