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

func nestedTree() domain.SettingsTree {
	return domain.NewSettingsTree(
		domain.Field("heading", domain.FieldNode{Kind: domain.FieldText, Label: "Heading", Default: "Shop"}),
		domain.Group("typography",
			domain.Field("bold", domain.FieldNode{Kind: domain.FieldCheckbox, Label: "Bold"}),
			domain.Field("font_size", domain.FieldNode{Kind: domain.FieldSelect, Label: "Font size", Value: "14px",
				Options: []domain.FieldOption{{Label: "Small", Value: "12px"}, {Label: "Medium", Value: "14px"}}}),
		),
	)
}

func TestResolveFieldValue(t *testing.T) {
	tree := nestedTree()

	v, ok := engine.ResolveFieldValue(tree, []string{"heading"})
	require.True(t, ok)
	assert.Equal(t, "Shop", v)

	v, ok = engine.ResolveFieldValue(tree, []string{"typography", "bold"})
	require.True(t, ok)
	assert.Equal(t, false, v)

	_, ok = engine.ResolveFieldValue(tree, []string{"typography"})
	assert.False(t, ok, "groups have no value")
	_, ok = engine.ResolveFieldValue(tree, []string{"heading", "x"})
	assert.False(t, ok)
}

func TestUpdateFieldValue_LeavesInputUntouched(t *testing.T) {
	tree := nestedTree()
	before := tree.Clone()

	out := engine.UpdateFieldValue(tree, []string{"typography", "font_size"}, "12px")

	assert.Empty(t, cmp.Diff(before, tree, treeCmp), "input changed")
	v, _ := engine.ResolveFieldValue(out, []string{"typography", "font_size"})
	assert.Equal(t, "12px", v)

	f, _ := engine.LookupField(out, []string{"typography", "font_size"})
	assert.Equal(t, domain.FieldSelect, f.Kind, "kind survives the edit")
	assert.Len(t, f.Options, 2)
}

func TestUpdateFieldValue_CreatesMissingFields(t *testing.T) {
	out := engine.UpdateFieldValue(domain.NewSettingsTree(), []string{"layout", "show_vendor"}, true)

	f, ok := engine.LookupField(out, []string{"layout", "show_vendor"})
	require.True(t, ok)
	assert.Equal(t, domain.FieldCheckbox, f.Kind)
	assert.Equal(t, "Show vendor", f.Label)
	assert.Equal(t, true, f.Value)
}

func TestUpdateFieldValue_RefusesToOverwriteStructure(t *testing.T) {
	tree := nestedTree()

	out := engine.UpdateFieldValue(tree, []string{"typography"}, "flat")
	assert.Empty(t, cmp.Diff(tree, out, treeCmp), "a group is never replaced by a value")

	out = engine.UpdateFieldValue(tree, []string{"heading", "inner"}, "x")
	assert.Empty(t, cmp.Diff(tree, out, treeCmp), "a field is never turned into a group")
}

func TestFlattenSettings(t *testing.T) {
	assert.Equal(t, map[string]any{
		"heading": "Shop",
		"typography": map[string]any{
			"bold":      false,
			"font_size": "14px",
		},
	}, engine.FlattenSettings(nestedTree()))
}

func TestToRuntimeBlock_FlattensChildren(t *testing.T) {
	doc := sampleDoc()
	card := doc.Areas[1].Blocks[1]

	rb := engine.ToRuntimeBlock(card)

	assert.Equal(t, "product_card", rb.BlockType)
	assert.False(t, rb.Removable)
	require.Len(t, rb.Blocks, 2)
	assert.Equal(t, map[string]any{"font_size": "14px"}, rb.Blocks[0].Settings)
	assert.True(t, rb.Blocks[0].Removable)
}

func TestRenderSettingsForm(t *testing.T) {
	form := engine.RenderSettingsForm(nestedTree(), nil)

	assert.Contains(t, form, `data-path="heading" value="Shop"`)
	assert.Contains(t, form, `<legend>Typography</legend>`)
	assert.Contains(t, form, `<option value="14px" selected>Medium</option>`)
	assert.Contains(t, form, `type="checkbox" id="setting-typography-bold" data-path="typography.bold">`)
	assert.Less(t, strings.Index(form, "heading"), strings.Index(form, "typography"), "key order is kept")
}

func TestRenderSettingsForm_EscapesValues(t *testing.T) {
	tree := domain.NewSettingsTree(
		domain.Field("note", domain.FieldNode{Kind: domain.FieldTextarea, Label: "Note", Value: `<script>x</script>`}),
	)
	form := engine.RenderSettingsForm(tree, nil)
	assert.NotContains(t, form, "<script>")
	assert.Contains(t, form, "&lt;script&gt;")
}
