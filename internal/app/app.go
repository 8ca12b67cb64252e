package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftbridge/relay-server/internal/config"
	"github.com/craftbridge/relay-server/internal/core"
	transporthttp "github.com/craftbridge/relay-server/internal/transport/http"
)

// App wires together the relay core and the transport layer.
type App struct {
	server          *stdhttp.Server
	relay           *core.Relay
	tls             config.TLS
	sweepInterval   time.Duration
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	relay := core.NewRelay(core.RelayOptions{
		MaxConnections:       cfg.MaxConnections,
		MaxClassrooms:        cfg.MaxClassrooms,
		RateLimit:            cfg.RateLimit,
		RateWindow:           cfg.RateWindow,
		ClassroomIdleTimeout: cfg.IdleTimeout,
	}, logger)

	return &App{
		server:          transporthttp.NewServer(relay, cfg, logger),
		relay:           relay,
		tls:             cfg.TLS,
		sweepInterval:   cfg.SweepInterval,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
}

// Run starts the server and the sweep ticker and blocks until context
// cancellation or a fatal listen error.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sweepLoop(sweepCtx)

	serverErr := make(chan error, 1)
	go func() {
		err := a.listen()
		if err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

func (a *App) listen() error {
	if a.tls.Enabled {
		a.log.Info().Str("addr", a.server.Addr).Msg("wss server listening")
		return a.server.ListenAndServeTLS(a.tls.CertFile, a.tls.KeyFile)
	}
	a.log.Info().Str("addr", a.server.Addr).Msg("ws server listening")
	return a.server.ListenAndServe()
}

// sweepLoop drives periodic reclamation of stale rate windows and idle
// empty classrooms.
func (a *App) sweepLoop(ctx context.Context) {
	if a.sweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.relay.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
