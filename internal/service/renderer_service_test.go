package service_test

import (
	"context"
	"os"
	"path/filepath"
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

func renderTitle(reg *engine.Registry) string {
	return engine.RenderBlock(domain.RuntimeBlock{ID: "t", BlockType: "title", Settings: map[string]any{"text": "Hello"}}, nil, reg)
}

func TestRendererService_LoadOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "title.html"), []byte(`<p class="custom">{{ .Settings.text }}</p>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.html"), []byte(`<section>hero</section>`), 0o644))

	reg := plugins.NewRegistry()
	svc := service.NewRendererService(reg, dir, nil, zaptest.NewLogger(t))
	require.NoError(t, svc.Load(context.Background()))

	assert.Equal(t, `<p class="custom">Hello</p>`, renderTitle(reg))
	assert.Equal(t, []string{"hero", "title"}, svc.FileTypes())
	assert.Contains(t, reg.Types(), "hero")
}

func TestRendererService_ReloadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "title.html")
	emitter := &service.MockEmitter{}
	reg := plugins.NewRegistry()
	svc := service.NewRendererService(reg, dir, emitter, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte(`<b>{{ .Settings.text }}</b>`), 0o644))
	svc.ReloadFile(ctx, path)
	assert.Equal(t, "<b>Hello</b>", renderTitle(reg))

	require.NoError(t, os.WriteFile(path, []byte(`{{ broken`), 0o644))
	svc.ReloadFile(ctx, path)
	assert.Contains(t, renderTitle(reg), "tpl-renderer-error")

	require.NoError(t, os.Remove(path))
	svc.ReloadFile(ctx, path)
	assert.Contains(t, renderTitle(reg), `class="tpl-title"`, "built-in restored")
	assert.Empty(t, svc.FileTypes())
	assert.Len(t, emitter.Named(service.EventRenderersReloaded), 3)

	svc.ReloadFile(ctx, filepath.Join(dir, "readme.md"))
	assert.Len(t, emitter.Named(service.EventRenderersReloaded), 3)
}

func TestRendererService_Watch(t *testing.T) {
	dir := t.TempDir()
	emitter := &service.MockEmitter{}
	reg := plugins.NewRegistry()
	svc := service.NewRendererService(reg, dir, emitter, zaptest.NewLogger(t))
	require.NoError(t, svc.Watch(context.Background()))
	defer svc.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "banner.html"), []byte(`<div>banner</div>`), 0o644))

	assert.Eventually(t, func() bool {
		_, ok := reg.Lookup("banner")
		return ok
	}, 3*time.Second, 50*time.Millisecond)

	svc.Stop()
	// give any fired timer a moment to observe the cancelled context
	time.Sleep(2 * 300 * time.Millisecond)
}
