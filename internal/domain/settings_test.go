package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/internal/domain"
)

const sampleSettings = `{
	"heading": {"type": "text", "label": "Heading", "default": "Shop"},
	"typography": {
		"font_size": {"type": "select", "label": "Font size", "value": "14px",
			"options": [{"label": "Small", "value": "12px"}, {"label": "Medium", "value": "14px"}]},
		"bold": {"type": "checkbox", "label": "Bold"}
	},
	"accent": {"kind": "color", "label": "Accent", "value": "#ff0000"}
}`

func TestSettingsTree_UnmarshalKeepsOrderAndKinds(t *testing.T) {
	var tree domain.SettingsTree
	require.NoError(t, json.Unmarshal([]byte(sampleSettings), &tree))

	assert.Equal(t, []string{"heading", "typography", "accent"}, tree.Keys())

	heading, ok := tree.Get("heading")
	require.True(t, ok)
	require.True(t, heading.IsField())
	assert.Equal(t, domain.FieldText, heading.Field.Kind)
	assert.Nil(t, heading.Field.Value)
	assert.Equal(t, "Shop", heading.Field.EffectiveValue())

	typo, ok := tree.Get("typography")
	require.True(t, ok)
	assert.False(t, typo.IsField())
	assert.Equal(t, []string{"font_size", "bold"}, typo.Group.Keys())

	bold, _ := typo.Group.Get("bold")
	assert.Equal(t, false, bold.Field.EffectiveValue())

	accent, _ := tree.Get("accent")
	require.True(t, accent.IsField(), "kind is accepted as the discriminator")
	assert.Equal(t, domain.FieldColor, accent.Field.Kind)
}

func TestSettingsTree_RoundTripJSON(t *testing.T) {
	var tree domain.SettingsTree
	require.NoError(t, json.Unmarshal([]byte(sampleSettings), &tree))

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var again domain.SettingsTree
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, tree, again)
}

func TestSettingsTree_RejectsScalarNodes(t *testing.T) {
	var tree domain.SettingsTree
	err := json.Unmarshal([]byte(`{"heading": "plain"}`), &tree)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDocument))
}

func TestSettingsTree_StringKindMakesField(t *testing.T) {
	var tree domain.SettingsTree
	require.NoError(t, json.Unmarshal([]byte(`{
		"font_size": {"kind": "text", "value": "14px"},
		"size": {"type": "slider", "label": "Size"}
	}`), &tree))

	n, ok := tree.Get("font_size")
	require.True(t, ok)
	require.True(t, n.IsField(), "label is optional")
	assert.Empty(t, n.Field.Label)
	assert.Equal(t, "14px", n.Field.Value)

	n, ok = tree.Get("size")
	require.True(t, ok)
	require.True(t, n.IsField(), "unknown kinds still decode as fields")

	doc := domain.TemplateConfig{TemplateID: "collection", Settings: tree}
	err := doc.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
	assert.ErrorContains(t, err, `unknown field type "slider"`)
}

func TestSettingsTree_WithLeavesOriginalUntouched(t *testing.T) {
	orig := domain.NewSettingsTree(
		domain.Field("a", domain.FieldNode{Kind: domain.FieldText, Label: "A"}),
	)
	next := orig.With("b", domain.FieldEntry(domain.FieldNode{Kind: domain.FieldText, Label: "B"}))

	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, []string{"a", "b"}, next.Keys())

	removed := next.Without("a")
	assert.Equal(t, []string{"b"}, removed.Keys())
	assert.Equal(t, 2, next.Len())
}

func TestSettingsTree_CloneIsDeep(t *testing.T) {
	orig := domain.NewSettingsTree(
		domain.Field("size", domain.FieldNode{
			Kind: domain.FieldSelect, Label: "Size", Value: "14px",
			Options: []domain.FieldOption{{Label: "M", Value: "14px"}},
		}),
	)
	clone := orig.Clone()

	n, _ := clone.Get("size")
	n.Field.Value = "16px"
	n.Field.Options[0].Value = "16px"

	o, _ := orig.Get("size")
	assert.Equal(t, "14px", o.Field.Value)
	assert.Equal(t, "14px", o.Field.Options[0].Value)
}

func TestFieldKind_ZeroValue(t *testing.T) {
	assert.Equal(t, false, domain.FieldCheckbox.ZeroValue())
	for _, k := range []domain.FieldKind{domain.FieldText, domain.FieldTextarea, domain.FieldColor, domain.FieldSelect, domain.FieldRadio} {
		assert.Equal(t, "", k.ZeroValue(), string(k))
	}
}

func TestTemplateConfig_Validate(t *testing.T) {
	doc := domain.TemplateConfig{
		TemplateID: "collection",
		Areas: []domain.TemplateArea{
			{ID: "main", Blocks: []domain.TemplateBlock{
				{ID: "b1", BlockType: "title"},
				{ID: "b1", BlockType: "price"},
			}},
			{ID: "main"},
		},
		BlockPresets: []domain.TemplatePreset{
			{ID: "p", Scope: "sidebar", Settings: domain.NewSettingsTree(
				domain.Field("align", domain.FieldNode{Kind: domain.FieldRadio, Label: "Align"}),
			)},
		},
	}
	err := doc.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
	assert.Contains(t, err.Error(), `duplicate block id "b1"`)
	assert.Contains(t, err.Error(), `duplicate area id "main"`)
	assert.Contains(t, err.Error(), `unknown scope "sidebar"`)
	assert.Contains(t, err.Error(), "radio field without options")

	ok := domain.TemplateConfig{TemplateID: "collection"}
	assert.NoError(t, ok.Validate())
}

func TestTemplateBlock_IsRemovable(t *testing.T) {
	yes, no := true, false
	assert.False(t, domain.TemplateBlock{}.IsRemovable())
	assert.False(t, domain.TemplateBlock{Removable: &no}.IsRemovable())
	assert.True(t, domain.TemplateBlock{Removable: &yes}.IsRemovable())
}
