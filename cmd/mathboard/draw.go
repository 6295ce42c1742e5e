package main

import (
	"flag"

	"github.com/example/mathboard/internal/appstate"
	"github.com/example/mathboard/internal/typeset"
)

// drawCmd opens the interactive board window.
type drawCmd struct {
	*root
	fs     *flag.FlagSet
	width  int
	height int
	output string
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	d := &drawCmd{root: r, fs: fs}
	fs.IntVar(&d.width, "width", 0, "board width in pixels (default from config)")
	fs.IntVar(&d.height, "height", 0, "board height in pixels (default from config)")
	fs.StringVar(&d.output, "output", appstate.DefaultOutput, "file written by Ctrl+S")
	fs.Usage = usageFunc(d)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: d}
	}
	return d, nil
}

func (d *drawCmd) Run() error {
	cfg := d.config
	ui := appstate.New(
		appstate.WithTheme(d.theme),
		appstate.WithOutput(d.output),
		appstate.WithTopOffset(cfg.Canvas.TopOffset),
		appstate.WithSubmitTimeout(cfg.Session.RequestTimeout),
		appstate.WithNotifier(d.notifier),
		appstate.WithLogger(d.logger),
	)
	engine := typeset.New(
		typeset.WithStyle(d.theme.CardStyle()),
		typeset.WithOnReady(ui.NotifyChanged),
		typeset.WithLogger(d.logger),
	)
	b := d.newBoard(boardOptions{
		size:       d.boardSize(d.width, d.height),
		delay:      cfg.Session.DisplayDelay,
		typesetter: engine,
		onChange:   ui.NotifyChanged,
	})
	d.logger.Info("board ready", "api_url", cfg.APIURL, "size", b.session.Canvas().Size())
	ui.Run(b.session, engine)
	return nil
}
