package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// saveGuard - saves of one template run one at a time
// ─────────────────────────────────────────────────────────────

// saveGuard serialises saves per template. Manual saves queue behind a
// running save with Lock; autosave uses TryLock and skips busy templates
// until its next tick. WaitAll lets shutdown wait for saves in flight.
type saveGuard struct {
	mu    sync.Mutex
	slots map[string]*saveSlot
	wg    sync.WaitGroup
}

// saveSlot is the per-template token. refs counts holders and waiters so
// the slot is dropped once nobody needs it.
type saveSlot struct {
	token chan struct{}
	refs  int
}

func (g *saveGuard) acquire(templateID string) *saveSlot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.slots == nil {
		g.slots = make(map[string]*saveSlot)
	}
	slot, ok := g.slots[templateID]
	if !ok {
		slot = &saveSlot{token: make(chan struct{}, 1)}
		g.slots[templateID] = slot
	}
	slot.refs++
	return slot
}

func (g *saveGuard) release(templateID string, slot *saveSlot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(g.slots, templateID)
	}
}

// Lock waits until no other save of templateID runs, then takes the slot.
// Waiters are served in no particular order.
func (g *saveGuard) Lock(ctx context.Context, templateID string) error {
	slot := g.acquire(templateID)
	select {
	case slot.token <- struct{}{}:
		g.wg.Add(1)
		return nil
	case <-ctx.Done():
		g.release(templateID, slot)
		return ctx.Err()
	}
}

// TryLock takes the slot only when templateID is not being saved.
func (g *saveGuard) TryLock(templateID string) bool {
	slot := g.acquire(templateID)
	select {
	case slot.token <- struct{}{}:
		g.wg.Add(1)
		return true
	default:
		g.release(templateID, slot)
		return false
	}
}

// Unlock ends a save started with Lock or a successful TryLock. Unlocking
// a template that is not saving does nothing.
func (g *saveGuard) Unlock(templateID string) {
	g.mu.Lock()
	slot, ok := g.slots[templateID]
	g.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-slot.token:
	default:
		return
	}
	g.release(templateID, slot)
	g.wg.Done()
}

// WaitAll blocks until every save in flight finishes or ctx is done.
func (g *saveGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
