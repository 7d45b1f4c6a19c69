package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter - decouples services from the desktop runtime
// ─────────────────────────────────────────────────────────────

// Events emitted by the services.
const (
	EventEditorChanged     = "editor:changed"
	EventEditorSaved       = "editor:saved"
	EventTemplatePublished = "template:published"
	EventTemplateDeleted   = "template:deleted"
	EventRenderersReloaded = "renderers:reloaded"
	EventFiltersChanged    = "filters:changed"
)

// EventEmitter pushes events to whatever UI is attached. The desktop App
// forwards them to the webview; headless modes use NopEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
// Watcher and cron goroutines emit too, so it locks.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded emissions of one event.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
