package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dashboard/internal/service"
)

// EventTemplatesChanged is emitted when the stored template list changes
// behind the app's back (e.g. from a standalone MCP process).
const EventTemplatesChanged = "templates:changed"

const templatePollInterval = 2 * time.Second

// templateLister is the part of TemplateService the watcher polls.
type templateLister interface {
	List(ctx context.Context) ([]service.TemplateListing, error)
}

// templateWatcher polls the template store and emits an event when the
// list fingerprint (count + newest update) moves.
type templateWatcher struct {
	ctx       context.Context
	templates templateLister
	emitter   service.EventEmitter
	logger    *zap.Logger

	mu     sync.Mutex
	last   string
	stopCh chan struct{}
	done   chan struct{}
}

func newTemplateWatcher(ctx context.Context, templates templateLister, emitter service.EventEmitter, logger *zap.Logger) *templateWatcher {
	return &templateWatcher{ctx: ctx, templates: templates, emitter: emitter, logger: logger}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *templateWatcher) Start() {
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop and waits for it to exit.
func (w *templateWatcher) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	<-w.done
	w.stopCh = nil
}

func (w *templateWatcher) pollLoop() {
	defer close(w.done)
	ticker := time.NewTicker(templatePollInterval)
	defer ticker.Stop()

	w.check()
	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

// check compares the current fingerprint with the previous one. The first
// check only records it.
func (w *templateWatcher) check() bool {
	list, err := w.templates.List(w.ctx)
	if err != nil {
		w.logger.Debug("app: template poll failed", zap.Error(err))
		return false
	}
	var newest time.Time
	for _, t := range list {
		if t.UpdatedAt.After(newest) {
			newest = t.UpdatedAt
		}
	}
	fingerprint := fmt.Sprintf("%d:%d", len(list), newest.UnixNano())

	w.mu.Lock()
	changed := w.last != "" && w.last != fingerprint
	w.last = fingerprint
	w.mu.Unlock()

	if changed {
		w.emitter.Emit(w.ctx, EventTemplatesChanged, map[string]int{"count": len(list)})
	}
	return changed
}
