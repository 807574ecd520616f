package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/session"
	"storefront/internal/telemetry"
)

const sweepInterval = time.Minute

type App struct {
	httpServer *http.Server
	infra      *Infra
	shutdown   telemetry.ShutdownFunc
	stopSweep  context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	shutdownTracing, err := telemetry.Setup(cfg.TraceExporter)
	if err != nil {
		return nil, err
	}

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	router, err := setupHTTP(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		_ = shutdownTracing(ctx)
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           otelhttp.NewHandler(router, "storefront"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a := &App{
		httpServer: server,
		infra:      infra,
		shutdown:   shutdownTracing,
		stopSweep:  func() {},
	}

	if mem, ok := infra.Sessions.(*session.MemoryStore); ok {
		sweepCtx, cancel := context.WithCancel(context.Background())
		a.stopSweep = cancel
		go sweep(sweepCtx, mem)
	}

	return a, nil
}

// Run blocks until the server stops. A graceful shutdown is not an error.
func (a *App) Run() error {
	err := a.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	a.stopSweep()

	err := a.httpServer.Shutdown(ctx)
	return errors.Join(
		err,
		a.infra.Close(),
		a.shutdown(ctx),
	)
}

// sweep evicts expired in-memory sessions; Redis expires keys on its own.
func sweep(ctx context.Context, store *session.MemoryStore) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Info("expired sessions evicted", map[string]any{"count": n})
			}
		}
	}
}
