package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AutosaveLabel labels the revisions autosave records.
const AutosaveLabel = "autosave"

// AutosaveScheduler saves dirty editor sessions as drafts on a cron schedule.
type AutosaveScheduler struct {
	editor *EditorService
	spec   string
	logger *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewAutosaveScheduler schedules autosave with a standard cron spec
// ("@every 1m", "*/5 * * * *"). An empty spec disables it.
func NewAutosaveScheduler(editor *EditorService, spec string, logger *zap.Logger) *AutosaveScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutosaveScheduler{editor: editor, spec: spec, logger: logger}
}

// Start begins the schedule. Calling Start twice restarts it.
func (a *AutosaveScheduler) Start(ctx context.Context) error {
	a.Stop()
	if a.spec == "" {
		a.logger.Info("autosave: disabled")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(a.spec, func() { a.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("autosave: invalid schedule %q: %w", a.spec, err)
	}
	c.Start()

	a.mu.Lock()
	a.cron = c
	a.mu.Unlock()
	a.logger.Info("autosave: scheduled", zap.String("spec", a.spec))
	return nil
}

// RunOnce saves the dirty sessions now.
func (a *AutosaveScheduler) RunOnce(ctx context.Context) int {
	saved, err := a.editor.SaveDirty(ctx, AutosaveLabel)
	if err != nil {
		a.logger.Warn("autosave: some sessions failed", zap.Error(err))
	}
	if saved > 0 {
		a.logger.Info("autosave: saved sessions", zap.Int("count", saved))
	}
	return saved
}

// Stop halts the schedule and waits for a running autosave to finish.
func (a *AutosaveScheduler) Stop() {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
