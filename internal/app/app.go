package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
	"github.com/vovakirdan/wirechat-relay/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	addr            string
	hub             *core.Hub
	tcp             *tcp.Server
	http            *stdhttp.Server // nil when the status API is disabled
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	hub := core.NewHub(logger)

	a := &App{
		addr:            cfg.Addr,
		hub:             hub,
		tcp:             tcp.New(hub, logger, cfg.IdleTimeout),
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
	if cfg.HTTPAddr != "" {
		a.http = transporthttp.NewServer(hub, cfg, logger)
	}
	if cfg.IdleTimeout > 0 {
		logger.Info().Dur("idle_timeout", cfg.IdleTimeout).Msg("idle clients will be disconnected")
	}
	return a
}

// Hub exposes the application's hub.
func (a *App) Hub() *core.Hub {
	return a.hub
}

// Run starts every server and blocks until context cancellation or fatal error.
// A bind failure on the chat address stops everything and is returned.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		return a.tcp.ListenAndServe(ctx, a.addr)
	})

	if a.http != nil {
		g.Go(func() error {
			a.log.Info().Str("addr", a.http.Addr).Msg("http server started")
			if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			return a.http.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
