package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/mathboard/internal/config"
	"github.com/example/mathboard/internal/logging"
	"github.com/example/mathboard/internal/notify"
	"github.com/example/mathboard/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	config   *config.Config
	notifier *notify.Notifier
	logger   *slog.Logger
	theme    *theme.Theme
	stdout   io.Writer
	stderr   io.Writer

	apiURL       string
	themeName    string
	logLevel     string
	resultAlerts bool
	errorAlerts  bool
	copyAlerts   bool
	saveAlerts   bool
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
		cfg.ApplyEnv(os.Getenv)
	}

	r := &root{
		fs:       flag.NewFlagSet("mathboard", flag.ExitOnError),
		program:  "mathboard",
		config:   cfg,
		notifier: notify.New(notify.LoadPreferences(os.Getenv)),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	// Precedence: CLI > Env > Config > Default. The loader has already
	// folded the environment into cfg, so flag defaults carry both.
	r.fs.StringVar(&r.apiURL, "api-url", cfg.APIURL, "base URL of the recognition backend")
	r.fs.StringVar(&r.themeName, "theme", cfg.Theme, "color theme to use (dark, light, chalkboard or a file path)")
	r.fs.StringVar(&r.logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	r.fs.BoolVar(&r.resultAlerts, "notify-result", cfg.Notify.Result, "show a desktop notification when results arrive")
	r.fs.BoolVar(&r.errorAlerts, "notify-error", cfg.Notify.Error, "show a desktop notification when recognition fails")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying a result")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving the board")
	r.fs.Usage = usageFunc(r)
	return r
}

// setup applies the parsed global flags.
func (r *root) setup() error {
	level, err := logging.ParseLevel(r.logLevel)
	if err != nil {
		return err
	}
	r.logger = logging.New(level)
	slog.SetDefault(r.logger)

	r.config.APIURL = strings.TrimSpace(r.apiURL)
	if r.config.APIURL == "" {
		r.config.APIURL = config.DefaultAPIURL
	}

	if r.notifier != nil {
		r.notifier.SetLogger(r.logger)
		r.notifier.Enable(notify.EventResult, r.resultAlerts)
		r.notifier.Enable(notify.EventError, r.errorAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
	}

	t, err := r.config.ThemeLoader().Load(r.themeName)
	if err != nil {
		r.logger.Warn("theme not found, using default", "theme", r.themeName, "error", err)
		t = theme.Default()
	}
	r.theme = t
	return nil
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if err := r.setup(); err != nil {
		return err
	}
	return r.dispatch(r.fs.Arg(0), r.fs.Args()[1:])
}

func (r *root) dispatch(cmdName string, subArgs []string) error {
	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "submit":
		cmd, err = parseSubmitCmd(subArgs, r)
	case "bbox":
		cmd, err = parseBBoxCmd(subArgs, r)
	case "colors":
		cmd, err = parseColorsCmd(subArgs, r)
	case "themes":
		cmd, err = parseThemesCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
