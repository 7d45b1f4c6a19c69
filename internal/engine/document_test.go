package engine_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

func TestDocumentOps_NeverMutateInput(t *testing.T) {
	ops := map[string]func(domain.TemplateConfig) domain.TemplateConfig{
		"disable": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.UpdateBlockDisabled(d, "products", "b1", true, "")
		},
		"disable child": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.UpdateBlockDisabled(d, "products", "c1", true, "card")
		},
		"setting": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.UpdateBlockSettings(d, "products", "c1", []string{"font_size"}, "18px", "card")
		},
		"remove": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.RemoveBlock(d, "products", "b1", "")
		},
		"add": func(d domain.TemplateConfig) domain.TemplateConfig {
			out, _ := engine.AddBlockToArea(d, "products", "title-preset")
			return out
		},
		"add child": func(d domain.TemplateConfig) domain.TemplateConfig {
			out, _ := engine.AddBlockToProductCard(d, "products", "card", "price-preset")
			return out
		},
		"move": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.MoveBlock(d, "products", "", 0, 2)
		},
		"area disabled": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.UpdateAreaDisabled(d, "filters", true)
		},
		"area setting": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.UpdateAreaSettings(d, "products", []string{"columns"}, "4")
		},
		"global setting": func(d domain.TemplateConfig) domain.TemplateConfig {
			return engine.UpdateGlobalSettings(d, []string{"accent"}, "#ff0000")
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			doc := sampleDoc()
			out := op(doc)
			assert.Empty(t, cmp.Diff(sampleDoc(), doc, treeCmp), "input changed")
			assert.NotEmpty(t, cmp.Diff(doc, out, treeCmp), "operation had no effect")
		})
	}
}

func TestDocumentOps_UnknownIDsAreNoops(t *testing.T) {
	doc := sampleDoc()
	results := []domain.TemplateConfig{
		engine.UpdateBlockDisabled(doc, "nope", "b1", true, ""),
		engine.UpdateBlockDisabled(doc, "products", "nope", true, ""),
		engine.UpdateBlockDisabled(doc, "products", "c1", true, "nope"),
		engine.UpdateBlockSettings(doc, "products", "nope", []string{"text"}, "x", ""),
		engine.RemoveBlock(doc, "products", "nope", ""),
		engine.UpdateNestedBlocks(doc, "products", "", nil),
		engine.MoveBlock(doc, "products", "", 0, 9),
		engine.MoveBlockTo(doc, "products", "", "b1", "nope"),
	}
	added, id := engine.AddBlockToArea(doc, "products", "nope")
	assert.Empty(t, id)
	results = append(results, added)
	added, id = engine.AddBlockToProductCard(doc, "products", "nope", "price-preset")
	assert.Empty(t, id)
	results = append(results, added)

	for i, out := range results {
		assert.Empty(t, cmp.Diff(doc, out, treeCmp), "result %d", i)
	}
}

func TestDisableThenRender_AreaContributesNothing(t *testing.T) {
	doc := domain.TemplateConfig{
		TemplateID: "t",
		Areas: []domain.TemplateArea{{
			ID:     "main",
			Blocks: []domain.TemplateBlock{{ID: "b1", BlockType: "title"}},
		}},
	}
	reg := engine.NewRegistry()
	reg.MustRegister("title", func(b domain.RuntimeBlock, _ *engine.RenderContext) string { return "<h1>title</h1>" })
	require.Equal(t, "<h1>title</h1>", engine.RenderTemplate(doc, reg))

	out := engine.UpdateBlockDisabled(doc, "main", "b1", true, "")

	assert.Equal(t, "", engine.RenderTemplate(out, reg))
}

func TestAddBlockToArea_SettingsAreIndependentOfPreset(t *testing.T) {
	doc := domain.TemplateConfig{
		TemplateID: "t",
		Areas:      []domain.TemplateArea{{ID: "main"}},
		BlockPresets: []domain.TemplatePreset{
			{ID: "price-preset", Scope: domain.ScopeGlobal, Settings: fontSizeTree("14px")},
		},
	}

	out, id := engine.AddBlockToArea(doc, "main", "price-preset")
	require.NotEmpty(t, id)
	require.Len(t, out.Areas[0].Blocks, 1)
	block := out.Areas[0].Blocks[0]

	assert.Equal(t, id, block.ID)
	assert.Equal(t, "price-preset", block.BlockType)
	assert.False(t, block.Disabled)
	assert.True(t, block.IsRemovable())
	assert.Empty(t, cmp.Diff(out.BlockPresets[0].Settings, block.Settings, treeCmp))

	edited := engine.UpdateBlockSettings(out, "main", id, []string{"font_size"}, "18px", "")

	v, _ := engine.ResolveFieldValue(edited.Areas[0].Blocks[0].Settings, []string{"font_size"})
	assert.Equal(t, "18px", v)
	v, _ = engine.ResolveFieldValue(edited.BlockPresets[0].Settings, []string{"font_size"})
	assert.Equal(t, "14px", v, "preset must keep its value")
}

func TestAddBlock_TwoInstancesDoNotShareSettings(t *testing.T) {
	doc := sampleDoc()
	doc, first := engine.AddBlockToProductCard(doc, "products", "card", "price-preset")
	doc, second := engine.AddBlockToProductCard(doc, "products", "card", "price-preset")
	require.NotEqual(t, first, second)

	doc = engine.UpdateBlockSettings(doc, "products", first, []string{"font_size"}, "12px", "card")

	b2, ok := engine.FindBlock(doc, "products", "card", second)
	require.True(t, ok)
	v, _ := engine.ResolveFieldValue(b2.Settings, []string{"font_size"})
	assert.Equal(t, "14px", v)
}

func TestNewBlockID_AvoidsSiblings(t *testing.T) {
	var siblings []domain.TemplateBlock
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := engine.NewBlockID(siblings)
		require.False(t, seen[id])
		require.True(t, strings.HasPrefix(id, "block-"))
		seen[id] = true
		siblings = append(siblings, domain.TemplateBlock{ID: id})
	}
}

func TestMoveBlock_ReordersNestedChildren(t *testing.T) {
	doc := sampleDoc()

	out := engine.MoveBlock(doc, "products", "card", 1, 0)

	card, _ := engine.FindBlock(out, "products", "", "card")
	assert.Equal(t, []string{"c2", "c1"}, blockIDs(card.Blocks))
	assert.Equal(t, []string{"b1", "card", "b3"}, blockIDs(out.Areas[1].Blocks))
}

func TestMoveBlockTo(t *testing.T) {
	out := engine.MoveBlockTo(sampleDoc(), "products", "", "b3", "b1")
	assert.Equal(t, []string{"b3", "b1", "card"}, blockIDs(out.Areas[1].Blocks))
}

func TestRemoveBlock_Child(t *testing.T) {
	out := engine.RemoveBlock(sampleDoc(), "products", "c1", "card")
	card, _ := engine.FindBlock(out, "products", "", "card")
	assert.Equal(t, []string{"c2"}, blockIDs(card.Blocks))
}

func TestUpdateAreaBlocks_Replaces(t *testing.T) {
	doc := sampleDoc()
	blocks := []domain.TemplateBlock{doc.Areas[1].Blocks[2]}

	out := engine.UpdateAreaBlocks(doc, "products", blocks)

	assert.Equal(t, []string{"b3"}, blockIDs(out.Areas[1].Blocks))
	assert.Len(t, doc.Areas[1].Blocks, 3)
}
