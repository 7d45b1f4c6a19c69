package domain

import (
	"fmt"
	"strings"
)

// TemplateBlock is one configurable unit of layout. Container block types
// (product cards) hold a second level of child blocks in Blocks.
type TemplateBlock struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	BlockType string          `json:"blockType"`
	Disabled  bool            `json:"disabled"`
	Removable *bool           `json:"removable,omitempty"`
	Settings  SettingsTree    `json:"settings"`
	Blocks    []TemplateBlock `json:"blocks,omitempty"`
}

// IsRemovable is false unless removable was explicitly set to true.
func (b TemplateBlock) IsRemovable() bool {
	return b.Removable != nil && *b.Removable
}

// TemplateArea is a named layout region. Block order is render order.
type TemplateArea struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Disabled bool            `json:"disabled"`
	Settings SettingsTree    `json:"settings"`
	Blocks   []TemplateBlock `json:"blocks"`
}

// PresetScope limits where a preset may be offered for insertion.
type PresetScope string

const (
	ScopeGlobal      PresetScope = "global"
	ScopeFilters     PresetScope = "filters"
	ScopeProducts    PresetScope = "products"
	ScopeProductCard PresetScope = "product_card"
)

func (s PresetScope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeFilters, ScopeProducts, ScopeProductCard:
		return true
	}
	return false
}

// TemplatePreset seeds new blocks. Its settings are deep-copied on use.
type TemplatePreset struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	BlockType string       `json:"blockType,omitempty"`
	Scope     PresetScope  `json:"scope"`
	Disabled  bool         `json:"disabled"`
	Settings  SettingsTree `json:"settings"`
}

// InstanceType is the block type given to blocks created from the preset.
func (p TemplatePreset) InstanceType() string {
	if p.BlockType != "" {
		return p.BlockType
	}
	return p.ID
}

// TemplateConfig is the root template document. Values are never mutated
// once built; edits produce a new TemplateConfig.
type TemplateConfig struct {
	TemplateID      string           `json:"templateId"`
	TemplateVersion string           `json:"templateVersion"`
	Settings        SettingsTree     `json:"settings"`
	Areas           []TemplateArea   `json:"areas"`
	BlockPresets    []TemplatePreset `json:"blockPresets"`
}

// Area returns the area with the given id.
func (c *TemplateConfig) Area(id string) (*TemplateArea, bool) {
	for i := range c.Areas {
		if c.Areas[i].ID == id {
			return &c.Areas[i], true
		}
	}
	return nil, false
}

// Preset returns the preset with the given id.
func (c *TemplateConfig) Preset(id string) (*TemplatePreset, bool) {
	for i := range c.BlockPresets {
		if c.BlockPresets[i].ID == id {
			return &c.BlockPresets[i], true
		}
	}
	return nil, false
}

// Validate checks the structural rules a loaded document must satisfy.
func (c *TemplateConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.TemplateID) == "" {
		problems = append(problems, "templateId is empty")
	}
	problems = append(problems, validateSettings("settings", c.Settings)...)

	areaIDs := map[string]bool{}
	for _, a := range c.Areas {
		if a.ID == "" {
			problems = append(problems, "area with empty id")
		} else if areaIDs[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate area id %q", a.ID))
		}
		areaIDs[a.ID] = true
		problems = append(problems, validateSettings("areas."+a.ID+".settings", a.Settings)...)
		problems = append(problems, validateBlocks("areas."+a.ID, a.Blocks)...)
	}

	presetIDs := map[string]bool{}
	for _, p := range c.BlockPresets {
		if p.ID == "" {
			problems = append(problems, "preset with empty id")
		} else if presetIDs[p.ID] {
			problems = append(problems, fmt.Sprintf("duplicate preset id %q", p.ID))
		}
		presetIDs[p.ID] = true
		if !p.Scope.Valid() {
			problems = append(problems, fmt.Sprintf("preset %q: unknown scope %q", p.ID, p.Scope))
		}
		problems = append(problems, validateSettings("blockPresets."+p.ID+".settings", p.Settings)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}
	return nil
}

func validateBlocks(prefix string, blocks []TemplateBlock) []string {
	var problems []string
	seen := map[string]bool{}
	for _, b := range blocks {
		where := prefix + ".blocks." + b.ID
		switch {
		case b.ID == "":
			problems = append(problems, prefix+": block with empty id")
		case seen[b.ID]:
			problems = append(problems, fmt.Sprintf("%s: duplicate block id %q", prefix, b.ID))
		}
		seen[b.ID] = true
		if b.BlockType == "" {
			problems = append(problems, where+": empty blockType")
		}
		problems = append(problems, validateSettings(where+".settings", b.Settings)...)
		problems = append(problems, validateBlocks(where, b.Blocks)...)
	}
	return problems
}

func validateSettings(prefix string, t SettingsTree) []string {
	var problems []string
	t.Walk(func(path []string, f *FieldNode) {
		where := prefix + "." + strings.Join(path, ".")
		if !f.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown field type %q", where, f.Kind))
		}
		if f.Kind.NeedsOptions() && len(f.Options) == 0 {
			problems = append(problems, where+": "+string(f.Kind)+" field without options")
		}
	})
	return problems
}

// RuntimeBlock is the render-ready projection of a TemplateBlock: settings
// are resolved to plain values and nested groups to nested maps.
type RuntimeBlock struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	BlockType string         `json:"blockType"`
	Disabled  bool           `json:"disabled"`
	Removable bool           `json:"removable"`
	Settings  map[string]any `json:"settings"`
	Blocks    []RuntimeBlock `json:"blocks,omitempty"`
}
