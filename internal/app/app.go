package app

import (
	"context"
	"os/exec"
	"runtime"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"dashboard/internal/config"
	"dashboard/internal/service"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *zap.Logger
	emitter service.EventEmitter

	rt      *Runtime
	watcher *templateWatcher
}

// New creates a new App for cfg.
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, logger: logger}
}

// wailsEmitter forwards service events to the webview.
type wailsEmitter struct{ ctx context.Context }

func (e wailsEmitter) Emit(_ context.Context, event string, data any) {
	wailsRuntime.EventsEmit(e.ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	if runtime.GOOS == "darwin" {
		// macOS: disable "Press and Hold" so key repeat works in the settings inputs.
		exec.Command("defaults", "write", "com.wails.dashboard", "ApplePressAndHoldEnabled", "-bool", "false").Run()
	}

	if err := a.start(ctx, wailsEmitter{ctx: ctx}); err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to start: %v", err)
	}
}

func (a *App) start(ctx context.Context, emitter service.EventEmitter) error {
	a.ctx = ctx
	a.emitter = emitter

	rt, err := NewRuntime(ctx, a.cfg, a.logger, emitter)
	if err != nil {
		return err
	}
	a.rt = rt
	if err := rt.Start(ctx); err != nil {
		a.logger.Warn("app: background workers not started", zap.Error(err))
	}

	// Templates saved by a standalone MCP process show up through the store.
	a.watcher = newTemplateWatcher(ctx, rt.Templates, emitter, a.logger)
	a.watcher.Start()
	return nil
}

// Shutdown is called when the app is closing. Dirty sessions are saved
// before the store closes.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.rt == nil {
		return
	}
	if n, err := a.rt.Editor.SaveDirty(ctx, service.AutosaveLabel); err != nil {
		a.logger.Error("app: saving dirty sessions", zap.Error(err))
	} else if n > 0 {
		a.logger.Info("app: saved dirty sessions on exit", zap.Int("count", n))
	}
	if err := a.rt.Close(ctx); err != nil {
		a.logger.Error("app: closing runtime", zap.Error(err))
	}
	a.rt = nil
}
