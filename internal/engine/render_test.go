package engine_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

func testRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	reg.MustRegister("title", func(b domain.RuntimeBlock, _ *engine.RenderContext) string {
		return fmt.Sprintf("<h1>%v</h1>", b.Settings["text"])
	})
	reg.MustRegister("price", func(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
		parent := ""
		if ctx.Parent != nil {
			parent = ctx.Parent.ID
		}
		return fmt.Sprintf("<span data-parent=%q>%v</span>", parent, b.Settings["font_size"])
	})
	reg.MustRegister("vendor", func(domain.RuntimeBlock, *engine.RenderContext) string { return "<em>vendor</em>" })
	reg.MustRegister("button", func(_ domain.RuntimeBlock, ctx *engine.RenderContext) string {
		return fmt.Sprintf("<button style=%q>buy</button>", ctx.Global["accent"])
	})
	reg.MustRegister("search_bar", func(domain.RuntimeBlock, *engine.RenderContext) string { return "<input>" })
	reg.MustRegister("product_card", func(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
		var sb strings.Builder
		sb.WriteString("<article>")
		for _, child := range b.Blocks {
			sb.WriteString(ctx.RenderBlock(child))
		}
		sb.WriteString("</article>")
		return sb.String()
	})
	return reg
}

func TestRenderTemplate(t *testing.T) {
	out := engine.RenderTemplate(sampleDoc(), testRegistry())

	assert.Equal(t,
		`<input>`+
			`<h1>Hello</h1>`+
			`<article><span data-parent="card">14px</span><em>vendor</em></article>`+
			`<button style="#111111">buy</button>`,
		out)
}

func TestRenderArea_SkipsDisabled(t *testing.T) {
	doc := sampleDoc()
	doc = engine.UpdateBlockDisabled(doc, "products", "c2", true, "card")
	doc = engine.UpdateBlockDisabled(doc, "products", "b1", true, "")
	area, _ := doc.Area("products")

	out := engine.RenderArea(*area, doc, testRegistry())

	assert.NotContains(t, out, "vendor")
	assert.NotContains(t, out, "Hello")
	assert.Contains(t, out, "<article>")

	doc = engine.UpdateAreaDisabled(doc, "products", true)
	area, _ = doc.Area("products")
	assert.Empty(t, engine.RenderArea(*area, doc, testRegistry()))
}

func TestRenderBlock_MissingRendererIsVisible(t *testing.T) {
	out := engine.RenderBlock(domain.RuntimeBlock{ID: "x", BlockType: "<carousel>"}, nil, engine.NewRegistry())

	assert.Contains(t, out, "tpl-missing-renderer")
	assert.Contains(t, out, "&lt;carousel&gt;")
}

func TestRenderBlock_PanicBecomesDiagnostic(t *testing.T) {
	reg := engine.NewRegistry()
	reg.MustRegister("boom", func(domain.RuntimeBlock, *engine.RenderContext) string { panic("kaput") })

	out := engine.RenderBlock(domain.RuntimeBlock{ID: "x", BlockType: "boom"}, nil, reg)

	assert.Contains(t, out, "tpl-renderer-error")
	assert.Contains(t, out, "kaput")
}

func TestRegistry(t *testing.T) {
	reg := engine.NewRegistry()
	v0 := reg.Version()

	require.NoError(t, reg.Register("Title", func(domain.RuntimeBlock, *engine.RenderContext) string { return "" }))
	assert.Greater(t, reg.Version(), v0)
	_, ok := reg.Lookup("title")
	assert.True(t, ok, "lookups ignore case")

	assert.Error(t, reg.Register("", func(domain.RuntimeBlock, *engine.RenderContext) string { return "" }))
	assert.Error(t, reg.Register("x", nil))

	clone := reg.Clone()
	reg.Unregister("title")
	_, ok = reg.Lookup("title")
	assert.False(t, ok)
	assert.Equal(t, []string{"title"}, clone.Types())
}

func TestRenderLayout(t *testing.T) {
	layout := `<aside>{{area:filters}}</aside><main>{{ area:products }}</main>{{area:ghost}}`

	out := engine.RenderLayout(layout, engine.RenderAreasMap(sampleDoc(), testRegistry()))

	assert.True(t, strings.HasPrefix(out, "<aside><input></aside><main><h1>Hello</h1>"))
	assert.True(t, strings.HasSuffix(out, "</main>"))
}
