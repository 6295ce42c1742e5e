package main

import (
	"image"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/mathboard/internal/canvas"
	"github.com/example/mathboard/internal/overlay"
	"github.com/example/mathboard/internal/palette"
	"github.com/example/mathboard/internal/recognize"
	"github.com/example/mathboard/internal/session"
	"github.com/example/mathboard/internal/telemetry"
	"github.com/example/mathboard/internal/vars"
)

const (
	defaultBoardWidth  = 1024
	defaultBoardHeight = 720
)

// boardOptions tunes one assembled board.
type boardOptions struct {
	size       image.Point
	delay      time.Duration
	typesetter overlay.Typesetter
	onChange   func()
	registry   prometheus.Registerer
}

// board is a fully wired session with its metrics.
type board struct {
	session *session.Session
	metrics *telemetry.Metrics
}

// boardSize resolves the canvas size, falling back to the configured size
// and then to the built-in default.
func (r *root) boardSize(w, h int) image.Point {
	if w <= 0 {
		w = r.config.Canvas.Width
	}
	if h <= 0 {
		h = r.config.Canvas.Height
	}
	if w <= 0 {
		w = defaultBoardWidth
	}
	if h <= 0 {
		h = defaultBoardHeight
	}
	return image.Pt(w, h)
}

// newBoard assembles canvas, variables, overlay, backend client and session
// from the configuration.
func (r *root) newBoard(opts boardOptions) *board {
	cfg := r.config
	ink := palette.Default()
	if cfg.Canvas.Color != "" {
		if c, err := palette.Parse(cfg.Canvas.Color); err == nil {
			ink = c
		} else {
			r.logger.Warn("ignoring canvas color", "color", cfg.Canvas.Color, "error", err)
		}
	}

	metrics := telemetry.New(opts.registry)
	cv := canvas.New(opts.size.X, opts.size.Y,
		canvas.WithColor(ink),
		canvas.WithLineWidth(cfg.Canvas.StrokeWidth),
		canvas.WithLogger(r.logger),
	)
	ovOpts := []overlay.Option{overlay.WithLogger(r.logger)}
	if opts.typesetter != nil {
		ovOpts = append(ovOpts, overlay.WithTypesetter(opts.typesetter))
	}
	client := recognize.NewClient(cfg.APIURL,
		recognize.WithTimeout(cfg.Session.RequestTimeout),
		recognize.WithLogger(r.logger),
		recognize.WithObserver(metrics),
	)

	sessOpts := []session.Option{
		session.WithDisplayDelay(opts.delay),
		session.WithAllowEmpty(cfg.Session.AllowEmpty),
		session.WithLogger(r.logger),
		session.WithMetrics(metrics),
	}
	if r.notifier != nil {
		sessOpts = append(sessOpts, session.WithNotifier(r.notifier))
	}
	if opts.onChange != nil {
		sessOpts = append(sessOpts, session.WithOnChange(opts.onChange))
	}
	sess := session.New(cv, vars.New(), overlay.NewManager(ovOpts...), client, sessOpts...)
	return &board{session: sess, metrics: metrics}
}
