package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
	"dashboard/internal/service"
	"dashboard/internal/storage"
)

func TestTemplateService_ImportAndGet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec, err := h.templates.Import(ctx, fixtureDoc("collection"), "Collection page")
	require.NoError(t, err)
	assert.Equal(t, "collection", rec.ID)
	assert.Equal(t, domain.TemplateDraft, rec.Status)

	got, err := h.templates.Get(ctx, "collection")
	require.NoError(t, err)
	assert.Equal(t, "Collection page", got.Name)
	require.Len(t, got.Document.Areas, 2)

	revs, err := h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "import", revs[0].Label)
}

func TestTemplateService_ImportRejectsInvalid(t *testing.T) {
	h := newHarness(t)
	doc := fixtureDoc("")
	_, err := h.templates.Import(context.Background(), doc, "")
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestTemplateService_PublishBumpsVersion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := fixtureDoc("collection")

	_, err := h.templates.SaveDraft(ctx, "collection", doc, "")
	require.NoError(t, err)

	rec, err := h.templates.Publish(ctx, "collection", doc)
	require.NoError(t, err)
	assert.Equal(t, domain.TemplatePublished, rec.Status)
	assert.Equal(t, 1, rec.Version)
	require.NotNil(t, rec.PublishedAt)

	rec, err = h.templates.Publish(ctx, "collection", doc)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)

	rec, err = h.templates.SaveDraft(ctx, "collection", doc, "tweak")
	require.NoError(t, err)
	assert.Equal(t, domain.TemplateDraft, rec.Status)
	assert.Equal(t, 2, rec.Version, "drafts keep the published version")
	assert.NotNil(t, rec.PublishedAt)

	revs, err := h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	require.Len(t, revs, 4)
	assert.Equal(t, []string{"tweak", "v2", "v1", "save"}, []string{revs[0].Label, revs[1].Label, revs[2].Label, revs[3].Label})
	assert.Equal(t, domain.RevisionPublish, revs[1].Kind)

	assert.Len(t, h.emitter.Named(service.EventTemplatePublished), 2)
}

func TestTemplateService_RevisionsArePruned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := fixtureDoc("collection")

	for i := 0; i < 8; i++ {
		_, err := h.templates.SaveDraft(ctx, "collection", doc, "")
		require.NoError(t, err)
	}
	revs, err := h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	assert.Len(t, revs, 5)
}

func TestTemplateService_RestoreRevision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	original := fixtureDoc("collection")
	_, err := h.templates.SaveDraft(ctx, "collection", original, "first")
	require.NoError(t, err)

	edited := engine.UpdateGlobalSettings(original, []string{"accent"}, "#222222")
	_, err = h.templates.SaveDraft(ctx, "collection", edited, "second")
	require.NoError(t, err)

	revs, err := h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	require.Len(t, revs, 2)

	rec, err := h.templates.RestoreRevision(ctx, revs[1].ID)
	require.NoError(t, err)
	v, _ := engine.ResolveFieldValue(rec.Document.Settings, []string{"accent"})
	assert.Equal(t, "#111111", v)

	revs, err = h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	assert.Equal(t, "restore first", revs[0].Label)

	_, err = h.templates.RestoreRevision(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRevisionNotFound)
}

func TestTemplateService_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.templates.SaveDraft(ctx, "collection", fixtureDoc("collection"), "")
	require.NoError(t, err)
	require.NoError(t, h.templates.Delete(ctx, "collection"))

	_, err = h.templates.Get(ctx, "collection")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	revs, err := h.templates.Revisions(ctx, "collection")
	require.NoError(t, err)
	assert.Empty(t, revs)

	assert.ErrorIs(t, h.templates.Delete(ctx, "collection"), domain.ErrTemplateNotFound)
}

func TestTemplateService_FileFallback(t *testing.T) {
	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	data, err := json.Marshal(fixtureDoc("search"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "search.json"), data, 0o644))

	svc := service.NewTemplateService(storage.NewTemplateStore(db), storage.NewRevisionStore(db),
		storage.NewFileSource(dir, ""), 0, nil, zaptest.NewLogger(t))

	rec, err := svc.Get(ctx, "search")
	require.NoError(t, err)
	assert.Equal(t, "search", rec.Document.TemplateID)
	assert.True(t, rec.CreatedAt.IsZero(), "not stored yet")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "file", list[0].Source)

	_, err = svc.SaveDraft(ctx, "search", rec.Document, "")
	require.NoError(t, err)
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "stored copy replaces the file entry")
	assert.Equal(t, "store", list[0].Source)

	layout, err := svc.Layout()
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultLayout, layout)
}
