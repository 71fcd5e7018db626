package jobtrackingservice

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mechanic-setu/internal/config"
	"mechanic-setu/internal/job-tracking-service/adapters/driven/api"
	"mechanic-setu/internal/job-tracking-service/adapters/driven/notify"
	"mechanic-setu/internal/job-tracking-service/adapters/driven/storage"
	"mechanic-setu/internal/job-tracking-service/adapters/driven/ws"
	"mechanic-setu/internal/job-tracking-service/core/services"
	"mechanic-setu/internal/mylogger"
)

// App bundles the assembled client: one session store, one backend
// client, one live connection, one tracking service.
type App struct {
	Cfg     *config.Config
	Log     mylogger.Logger
	Store   *storage.SessionStore
	Backend *api.Client
	Conn    *ws.Client
	Console *notify.Console
	Tracker *services.TrackingService
}

func New(l mylogger.Logger, cfg *config.Config) (*App, error) {
	store, err := storage.New(cfg.Storage.Path, l)
	if err != nil {
		return nil, err
	}

	console := notify.NewConsole()
	backend := api.NewClient(cfg.API, l)
	conn := ws.NewClient(cfg.WS, backend, console, l)
	tracker := services.NewTrackingService(cfg, l, store, conn, backend, console, console)

	return &App{
		Cfg:     cfg,
		Log:     l,
		Store:   store,
		Backend: backend,
		Conn:    conn,
		Console: console,
		Tracker: tracker,
	}, nil
}

// Close releases the connection and the store. Call exactly once.
func (a *App) Close() error {
	if err := a.Conn.Close(); err != nil {
		a.Log.Error("closing live connection", err)
	}
	return a.Store.Close()
}

// SignalContext returns a context cancelled on SIGINT/SIGTERM.
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
}
