package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
	"dashboard/internal/plugins"
	"dashboard/internal/service"
)

func openFixture(t *testing.T, h *harness) service.SessionInfo {
	t.Helper()
	ctx := context.Background()
	_, err := h.templates.Import(ctx, fixtureDoc("collection"), "Collection")
	require.NoError(t, err)
	info, err := h.editor.Open(ctx, "collection")
	require.NoError(t, err)
	return info
}

func TestEditorService_OpenEditSave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	info := openFixture(t, h)
	assert.False(t, info.Dirty)

	changed, err := h.editor.Edit(ctx, info.ID, func(s *engine.Session) bool {
		return s.UpdateGlobalSetting([]string{"accent"}, "#abcdef")
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, h.emitter.Named(service.EventEditorChanged), 1)
	assert.Equal(t, []string{info.ID}, h.editor.DirtySessions())

	rec, err := h.editor.Save(ctx, info.ID, "")
	require.NoError(t, err)
	v, _ := engine.ResolveFieldValue(rec.Document.Settings, []string{"accent"})
	assert.Equal(t, "#abcdef", v)
	assert.Empty(t, h.editor.DirtySessions())
	assert.Len(t, h.emitter.Named(service.EventEditorSaved), 1)

	stored, err := h.templates.Get(ctx, "collection")
	require.NoError(t, err)
	v, _ = engine.ResolveFieldValue(stored.Document.Settings, []string{"accent"})
	assert.Equal(t, "#abcdef", v)
}

func TestEditorService_SaveWaitsForRunningSave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	info := openFixture(t, h)
	_, err := h.editor.Edit(ctx, info.ID, func(s *engine.Session) bool {
		return s.UpdateGlobalSetting([]string{"accent"}, "#abcdef")
	})
	require.NoError(t, err)

	guard := h.editor.SaveGuard()
	require.True(t, guard.TryLock("collection"))

	n, err := h.editor.SaveDirty(ctx, service.AutosaveLabel)
	require.NoError(t, err)
	assert.Zero(t, n, "autosave skips a template that is saving")

	saved := make(chan error, 1)
	go func() {
		_, err := h.editor.Save(ctx, info.ID, "manual")
		saved <- err
	}()
	select {
	case err := <-saved:
		t.Fatalf("Save returned while another save ran: %v", err)
	case <-time.After(30 * time.Millisecond):
	}

	guard.Unlock("collection")
	select {
	case err := <-saved:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Save did not run after the running save finished")
	}
	assert.Empty(t, h.editor.DirtySessions())

	revs, err := h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	assert.Equal(t, "manual", revs[0].Label)
}

func TestEditorService_SaveCancelledWhileQueued(t *testing.T) {
	h := newHarness(t)
	info := openFixture(t, h)

	guard := h.editor.SaveGuard()
	require.True(t, guard.TryLock("collection"))
	defer guard.Unlock("collection")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.editor.Save(ctx, info.ID, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEditorService_NoopEditDoesNotEmit(t *testing.T) {
	h := newHarness(t)
	info := openFixture(t, h)

	changed, err := h.editor.Edit(context.Background(), info.ID, func(s *engine.Session) bool {
		return s.RemoveBlock(engine.Target{AreaID: "products", BlockID: "missing"})
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, h.emitter.Named(service.EventEditorChanged))
}

func TestEditorService_Publish(t *testing.T) {
	h := newHarness(t)
	info := openFixture(t, h)

	rec, err := h.editor.Publish(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TemplatePublished, rec.Status)
	assert.Equal(t, 1, rec.Version)
}

func TestEditorService_UnknownSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.editor.Edit(ctx, "nope", func(*engine.Session) bool { return true })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, h.editor.View("nope", func(*engine.Session) {}), domain.ErrSessionNotFound)
	_, err = h.editor.Save(ctx, "nope", "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, h.editor.Close("nope"), domain.ErrSessionNotFound)

	_, err = h.editor.Open(ctx, "missing-template")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestEditorService_CloseAndList(t *testing.T) {
	h := newHarness(t)
	info := openFixture(t, h)
	second, err := h.editor.Open(context.Background(), "collection")
	require.NoError(t, err)

	list := h.editor.Sessions()
	require.Len(t, list, 2)
	assert.Equal(t, info.ID, list[0].ID)

	require.NoError(t, h.editor.Close(info.ID))
	list = h.editor.Sessions()
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestEditorService_ConcurrentEdits(t *testing.T) {
	h := newHarness(t)
	info := openFixture(t, h)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.editor.Edit(ctx, info.ID, func(s *engine.Session) bool {
				return s.SetBlockDisabled(engine.Target{AreaID: "products", BlockID: "heading"}, i%2 == 0)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.NoError(t, h.editor.View(info.ID, func(s *engine.Session) {
		assert.LessOrEqual(t, s.UndoDepth(), 20)
	}))
}

func TestEditorService_PreviewUsesCatalogue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.templates.Import(ctx, fixtureDoc("collection"), "")
	require.NoError(t, err)

	catalog := stubCatalog{products: []map[string]any{{"id": "live", "title": "Live title", "price": 5}}}
	editor := service.NewEditorService(h.templates, plugins.NewRegistry(), catalog, 0, nil, zaptest.NewLogger(t))
	info, err := editor.Open(ctx, "collection")
	require.NoError(t, err)

	var html string
	require.NoError(t, editor.View(info.ID, func(s *engine.Session) { html = s.Preview() }))
	assert.Contains(t, html, "$5.00")

	failing := service.NewEditorService(h.templates, plugins.NewRegistry(), stubCatalog{err: errors.New("down")}, 0, nil, zaptest.NewLogger(t))
	info, err = failing.Open(ctx, "collection")
	require.NoError(t, err, "an unavailable catalogue falls back to sample products")
	require.NoError(t, failing.View(info.ID, func(s *engine.Session) { html = s.Preview() }))
	assert.Contains(t, html, "$49.00")
}

type stubCatalog struct {
	products []map[string]any
	err      error
}

func (c stubCatalog) Products(context.Context) ([]map[string]any, error) {
	return c.products, c.err
}

// ─────────────────────────────────────────────────────────────
// Autosave
// ─────────────────────────────────────────────────────────────

func TestAutosave_RunOnceSavesDirtySessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	info := openFixture(t, h)

	autosave := service.NewAutosaveScheduler(h.editor, "@every 1h", zaptest.NewLogger(t))
	assert.Equal(t, 0, autosave.RunOnce(ctx), "nothing dirty")

	_, err := h.editor.Edit(ctx, info.ID, func(s *engine.Session) bool {
		return s.UpdateGlobalSetting([]string{"accent"}, "#000000")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, autosave.RunOnce(ctx))
	assert.Empty(t, h.editor.DirtySessions())

	revs, err := h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	assert.Equal(t, service.AutosaveLabel, revs[0].Label)
}

func TestAutosave_StartStop(t *testing.T) {
	h := newHarness(t)

	bad := service.NewAutosaveScheduler(h.editor, "whenever", nil)
	assert.Error(t, bad.Start(context.Background()))

	disabled := service.NewAutosaveScheduler(h.editor, "", nil)
	require.NoError(t, disabled.Start(context.Background()))
	disabled.Stop()

	autosave := service.NewAutosaveScheduler(h.editor, "@every 1h", nil)
	require.NoError(t, autosave.Start(context.Background()))
	require.NoError(t, autosave.Start(context.Background()), "restart replaces the schedule")
	autosave.Stop()
	autosave.Stop()
}
