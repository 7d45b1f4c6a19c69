package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/internal/domain"
	"dashboard/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecord(id string) *domain.TemplateRecord {
	return &domain.TemplateRecord{
		ID:   id,
		Name: "Collection " + id,
		Document: domain.TemplateConfig{
			TemplateID: id,
			Settings: domain.NewSettingsTree(
				domain.Field("accent", domain.FieldNode{Kind: domain.FieldColor, Label: "Accent", Value: "#ff0000"}),
				domain.Field("layout", domain.FieldNode{Kind: domain.FieldText, Label: "Layout", Default: "grid"}),
			),
			Areas: []domain.TemplateArea{{ID: "products", Blocks: []domain.TemplateBlock{{ID: "b1", BlockType: "title"}}}},
		},
	}
}

// ─────────────────────────────────────────────────────────────
// TemplateStore
// ─────────────────────────────────────────────────────────────

func TestTemplateStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTemplateStore(openTestDB(t))

	rec := sampleRecord("collection")
	require.NoError(t, store.CreateTemplate(ctx, rec))
	assert.Equal(t, domain.TemplateDraft, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := store.GetTemplate(ctx, "collection")
	require.NoError(t, err)
	assert.Equal(t, "Collection collection", got.Name)
	assert.Equal(t, []string{"accent", "layout"}, got.Document.Settings.Keys(), "settings order survives the round trip")
	require.Len(t, got.Document.Areas, 1)
	assert.Equal(t, "title", got.Document.Areas[0].Blocks[0].BlockType)
	assert.Nil(t, got.PublishedAt)

	now := time.Now().UTC()
	got.Status = domain.TemplatePublished
	got.Version = 2
	got.PublishedAt = &now
	require.NoError(t, store.UpdateTemplate(ctx, got))

	again, err := store.GetTemplate(ctx, "collection")
	require.NoError(t, err)
	assert.Equal(t, domain.TemplatePublished, again.Status)
	assert.Equal(t, 2, again.Version)
	require.NotNil(t, again.PublishedAt)
	assert.WithinDuration(t, now, *again.PublishedAt, time.Second)

	require.NoError(t, store.DeleteTemplate(ctx, "collection"))
	_, err = store.GetTemplate(ctx, "collection")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestTemplateStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTemplateStore(openTestDB(t))

	_, err := store.GetTemplate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	assert.ErrorIs(t, store.UpdateTemplate(ctx, sampleRecord("missing")), domain.ErrTemplateNotFound)
	assert.ErrorIs(t, store.DeleteTemplate(ctx, "missing"), domain.ErrTemplateNotFound)
}

func TestTemplateStore_List(t *testing.T) {
	ctx := context.Background()
	store := storage.NewTemplateStore(openTestDB(t))

	require.NoError(t, store.CreateTemplate(ctx, sampleRecord("a")))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.CreateTemplate(ctx, sampleRecord("b")))

	list, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "most recently updated first")
	assert.Equal(t, "a", list[1].ID)
}

func TestOpen_ReopenRunsMigrationsAgain(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "again.db")

	db, err := storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, storage.NewTemplateStore(db).CreateTemplate(ctx, sampleRecord("x")))
	require.NoError(t, db.Close())

	db, err = storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	_, err = storage.NewTemplateStore(db).GetTemplate(ctx, "x")
	assert.NoError(t, err)
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), "oracle", "", t.TempDir())
	assert.ErrorContains(t, err, "unsupported store driver")

	_, err = storage.Open(context.Background(), storage.DialectPostgres, "", t.TempDir())
	assert.ErrorContains(t, err, "dsn is required")
}

// ─────────────────────────────────────────────────────────────
// RevisionStore
// ─────────────────────────────────────────────────────────────

func TestRevisionStore_ChainsParents(t *testing.T) {
	ctx := context.Background()
	store := storage.NewRevisionStore(openTestDB(t))

	first := &domain.TemplateRevision{TemplateID: "t", Label: "first", Kind: domain.RevisionSave, SnapshotJSON: `{"n":1}`}
	second := &domain.TemplateRevision{TemplateID: "t", Label: "second", Kind: domain.RevisionPublish, SnapshotJSON: `{"n":2}`}
	require.NoError(t, store.PushRevision(ctx, first, 0))
	require.NoError(t, store.PushRevision(ctx, second, 0))

	assert.NotEmpty(t, first.ID)
	assert.Nil(t, first.ParentID)
	require.NotNil(t, second.ParentID)
	assert.Equal(t, first.ID, *second.ParentID)

	list, err := store.ListRevisions(ctx, "t")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Label, "newest first")
	assert.Equal(t, domain.RevisionPublish, list[0].Kind)

	got, err := store.GetRevision(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"n":1}`, got.SnapshotJSON)

	_, err = store.GetRevision(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRevisionNotFound)
}

func TestRevisionStore_PruneReparents(t *testing.T) {
	ctx := context.Background()
	store := storage.NewRevisionStore(openTestDB(t))

	var revs []*domain.TemplateRevision
	for i := 0; i < 5; i++ {
		r := &domain.TemplateRevision{TemplateID: "t", Label: string(rune('a' + i)), Kind: domain.RevisionSave, SnapshotJSON: "{}"}
		require.NoError(t, store.PushRevision(ctx, r, 3))
		revs = append(revs, r)
	}
	require.NoError(t, store.PushRevision(ctx, &domain.TemplateRevision{TemplateID: "other", Kind: domain.RevisionSave, SnapshotJSON: "{}"}, 3))

	list, err := store.ListRevisions(ctx, "t")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"e", "d", "c"}, []string{list[0].Label, list[1].Label, list[2].Label})
	assert.Nil(t, list[2].ParentID, "oldest kept revision becomes the root")
	require.NotNil(t, list[1].ParentID)
	assert.Equal(t, revs[2].ID, *list[1].ParentID)

	others, err := store.ListRevisions(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, others, 1, "pruning is per template")

	require.NoError(t, store.DeleteRevisions(ctx, "t"))
	list, err = store.ListRevisions(ctx, "t")
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ─────────────────────────────────────────────────────────────
// FileSource
// ─────────────────────────────────────────────────────────────

const fileDoc = `{
  "templateId": "collection",
  "templateVersion": "1",
  "settings": {"accent": {"type": "color", "label": "Accent", "default": "#000"}},
  "areas": [{"id": "products", "label": "Products", "settings": {}, "blocks": []}],
  "blockPresets": []
}`

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "collection.json"), []byte(fileDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"templateId": ""}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0o644))

	src := storage.NewFileSource(dir, "")

	ids, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "collection"}, ids)

	doc, err := src.Load("collection")
	require.NoError(t, err)
	assert.Equal(t, "collection", doc.TemplateID)
	require.Len(t, doc.Areas, 1)

	_, err = src.Load("broken")
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)

	_, err = src.Load("missing")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	_, err = src.Load("../collection")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestFileSource_Layout(t *testing.T) {
	dir := t.TempDir()

	layout, err := storage.NewFileSource(dir, "").Layout()
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultLayout, layout)

	layout, err = storage.NewFileSource(dir, "missing.html").Layout()
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultLayout, layout)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shell.html"), []byte(`<main>{{area:products}}</main>`), 0o644))
	layout, err = storage.NewFileSource(dir, "shell.html").Layout()
	require.NoError(t, err)
	assert.Equal(t, `<main>{{area:products}}</main>`, layout)
}
