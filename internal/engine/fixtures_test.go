package engine_test

import (
	"github.com/google/go-cmp/cmp"

	"dashboard/internal/domain"
)

var treeCmp = cmp.AllowUnexported(domain.SettingsTree{})

func boolPtr(b bool) *bool { return &b }

func fontSizeTree(value string) domain.SettingsTree {
	return domain.NewSettingsTree(
		domain.Field("font_size", domain.FieldNode{
			Kind:  domain.FieldSelect,
			Label: "Font size",
			Value: value,
			Options: []domain.FieldOption{
				{Label: "Small", Value: "12px"},
				{Label: "Medium", Value: "14px"},
				{Label: "Large", Value: "18px"},
			},
		}),
	)
}

// sampleDoc is a listing page with a filters area and a products area
// holding one product card with two children.
func sampleDoc() domain.TemplateConfig {
	return domain.TemplateConfig{
		TemplateID:      "collection",
		TemplateVersion: "1",
		Settings: domain.NewSettingsTree(
			domain.Field("accent", domain.FieldNode{Kind: domain.FieldColor, Label: "Accent", Default: "#111111"}),
		),
		Areas: []domain.TemplateArea{
			{
				ID:    "filters",
				Label: "Filters",
				Blocks: []domain.TemplateBlock{
					{ID: "search", BlockType: "search_bar", Settings: domain.NewSettingsTree()},
				},
			},
			{
				ID:    "products",
				Label: "Products",
				Settings: domain.NewSettingsTree(
					domain.Field("columns", domain.FieldNode{Kind: domain.FieldText, Label: "Columns", Default: "3"}),
				),
				Blocks: []domain.TemplateBlock{
					{ID: "b1", BlockType: "title", Removable: boolPtr(true), Settings: domain.NewSettingsTree(
						domain.Field("text", domain.FieldNode{Kind: domain.FieldText, Label: "Text", Value: "Hello"}),
					)},
					{ID: "card", BlockType: "product_card", Settings: domain.NewSettingsTree(), Blocks: []domain.TemplateBlock{
						{ID: "c1", BlockType: "price", Removable: boolPtr(true), Settings: fontSizeTree("14px")},
						{ID: "c2", BlockType: "vendor", Settings: domain.NewSettingsTree()},
					}},
					{ID: "b3", BlockType: "button", Removable: boolPtr(false), Settings: domain.NewSettingsTree()},
				},
			},
		},
		BlockPresets: []domain.TemplatePreset{
			{ID: "price-preset", Label: "Price", Scope: domain.ScopeProductCard, Settings: fontSizeTree("14px")},
			{ID: "title-preset", Label: "Title", BlockType: "title", Scope: domain.ScopeGlobal, Settings: domain.NewSettingsTree(
				domain.Field("text", domain.FieldNode{Kind: domain.FieldText, Label: "Text", Default: "New title"}),
			)},
			{ID: "sort-preset", Label: "Sort", BlockType: "sort_select", Scope: domain.ScopeProducts},
			{ID: "filter-preset", Label: "Filter group", BlockType: "filter_group", Scope: domain.ScopeFilters},
			{ID: "hidden-preset", Label: "Hidden", BlockType: "text", Scope: domain.ScopeGlobal, Disabled: true},
		},
	}
}

func blockIDs(blocks []domain.TemplateBlock) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}
