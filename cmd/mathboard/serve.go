package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/mathboard/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

// serveCmd exposes a headless board over HTTP.
type serveCmd struct {
	*root
	fs     *flag.FlagSet
	addr   string
	width  int
	height int
}

func (s *serveCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	s := &serveCmd{root: r, fs: fs}
	fs.StringVar(&s.addr, "addr", ":8080", "listen address")
	fs.IntVar(&s.width, "width", 0, "board width in pixels (default from config)")
	fs.IntVar(&s.height, "height", 0, "board height in pixels (default from config)")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

// handler builds the board and its routes. reg receives both the board
// metrics and the runtime collectors.
func (s *serveCmd) handler(reg *prometheus.Registry) http.Handler {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	b := s.newBoard(boardOptions{
		size:     s.boardSize(s.width, s.height),
		delay:    s.config.Session.DisplayDelay,
		registry: reg,
	})
	return httpapi.NewHandler(&httpapi.Server{
		Session: b.session,
		Logger:  s.logger,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func (s *serveCmd) Run() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler(prometheus.NewRegistry()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("serving board", "addr", srv.Addr, "api_url", s.config.APIURL)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", s.addr, err)
	case sig := <-shutdown:
		s.logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
