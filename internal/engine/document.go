package engine

import (
	"github.com/google/uuid"

	"dashboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Document operations
// ─────────────────────────────────────────────────────────────
//
// Every operation takes a TemplateConfig by value and returns a new one.
// Slices and settings trees along the edited path are copied; everything
// else is shared with the input. Unknown area, block or preset ids leave
// the document unchanged: ids come from the editor itself, so a miss is
// treated as a stale UI event rather than an error.

// UpdateAreaBlocks replaces the block sequence of an area.
func UpdateAreaBlocks(doc domain.TemplateConfig, areaID string, blocks []domain.TemplateBlock) domain.TemplateConfig {
	out, _ := withContainer(doc, areaID, "", func([]domain.TemplateBlock) ([]domain.TemplateBlock, bool) {
		return blocks, true
	})
	return out
}

// UpdateNestedBlocks replaces the child blocks of a container block.
func UpdateNestedBlocks(doc domain.TemplateConfig, areaID, parentBlockID string, blocks []domain.TemplateBlock) domain.TemplateConfig {
	out, _ := updateNestedBlocks(doc, areaID, parentBlockID, blocks)
	return out
}

func updateNestedBlocks(doc domain.TemplateConfig, areaID, parentBlockID string, blocks []domain.TemplateBlock) (domain.TemplateConfig, bool) {
	if parentBlockID == "" {
		return doc, false
	}
	return withContainer(doc, areaID, parentBlockID, func([]domain.TemplateBlock) ([]domain.TemplateBlock, bool) {
		return blocks, true
	})
}

// UpdateBlockDisabled sets the disabled flag of a block. parentBlockID
// addresses a child of a container block; empty means a top-level block.
func UpdateBlockDisabled(doc domain.TemplateConfig, areaID, blockID string, disabled bool, parentBlockID string) domain.TemplateConfig {
	out, _ := updateBlockDisabled(doc, areaID, blockID, disabled, parentBlockID)
	return out
}

func updateBlockDisabled(doc domain.TemplateConfig, areaID, blockID string, disabled bool, parentBlockID string) (domain.TemplateConfig, bool) {
	return withBlockIn(doc, areaID, parentBlockID, blockID, func(b domain.TemplateBlock) (domain.TemplateBlock, bool) {
		b.Disabled = disabled
		return b, true
	})
}

// UpdateBlockSettings sets a field value inside a block's settings.
func UpdateBlockSettings(doc domain.TemplateConfig, areaID, blockID string, fieldPath []string, value any, parentBlockID string) domain.TemplateConfig {
	out, _ := updateBlockSettings(doc, areaID, blockID, fieldPath, value, parentBlockID)
	return out
}

func updateBlockSettings(doc domain.TemplateConfig, areaID, blockID string, fieldPath []string, value any, parentBlockID string) (domain.TemplateConfig, bool) {
	return withBlockIn(doc, areaID, parentBlockID, blockID, func(b domain.TemplateBlock) (domain.TemplateBlock, bool) {
		settings, changed := updateFieldValue(b.Settings, fieldPath, value)
		b.Settings = settings
		return b, changed
	})
}

// RemoveBlock drops a block from its containing sequence.
func RemoveBlock(doc domain.TemplateConfig, areaID, blockID, parentBlockID string) domain.TemplateConfig {
	out, _ := removeBlock(doc, areaID, blockID, parentBlockID)
	return out
}

func removeBlock(doc domain.TemplateConfig, areaID, blockID, parentBlockID string) (domain.TemplateConfig, bool) {
	return withContainer(doc, areaID, parentBlockID, func(blocks []domain.TemplateBlock) ([]domain.TemplateBlock, bool) {
		idx := indexOfBlock(blocks, blockID)
		if idx < 0 {
			return blocks, false
		}
		out := make([]domain.TemplateBlock, 0, len(blocks)-1)
		out = append(out, blocks[:idx]...)
		return append(out, blocks[idx+1:]...), true
	})
}

// AddBlockToArea appends a new block built from a preset to an area.
// It returns the new block id, or "" when the area or preset is unknown.
func AddBlockToArea(doc domain.TemplateConfig, areaID, presetID string) (domain.TemplateConfig, string) {
	return addBlock(doc, areaID, "", presetID)
}

// AddBlockToProductCard appends a new block built from a preset to the
// child blocks of a container block.
func AddBlockToProductCard(doc domain.TemplateConfig, areaID, parentBlockID, presetID string) (domain.TemplateConfig, string) {
	if parentBlockID == "" {
		return doc, ""
	}
	return addBlock(doc, areaID, parentBlockID, presetID)
}

func addBlock(doc domain.TemplateConfig, areaID, parentBlockID, presetID string) (domain.TemplateConfig, string) {
	preset, ok := doc.Preset(presetID)
	if !ok {
		return doc, ""
	}
	var newID string
	out, changed := withContainer(doc, areaID, parentBlockID, func(blocks []domain.TemplateBlock) ([]domain.TemplateBlock, bool) {
		block := NewBlockFromPreset(*preset, blocks)
		newID = block.ID
		next := make([]domain.TemplateBlock, 0, len(blocks)+1)
		next = append(next, blocks...)
		return append(next, block), true
	})
	if !changed {
		return doc, ""
	}
	return out, newID
}

// NewBlockFromPreset instantiates a preset. The id is unique among siblings
// and the settings are a deep copy, so later edits never reach the preset
// or other blocks made from it.
func NewBlockFromPreset(p domain.TemplatePreset, siblings []domain.TemplateBlock) domain.TemplateBlock {
	removable := true
	return domain.TemplateBlock{
		ID:        NewBlockID(siblings),
		Label:     p.Label,
		BlockType: p.InstanceType(),
		Disabled:  false,
		Removable: &removable,
		Settings:  p.Settings.Clone(),
	}
}

// NewBlockID returns an id not used by any block in siblings.
func NewBlockID(siblings []domain.TemplateBlock) string {
	for {
		id := "block-" + uuid.NewString()[:8]
		if indexOfBlock(siblings, id) < 0 {
			return id
		}
	}
}

// MoveBlock reorders a block inside its containing sequence by index.
func MoveBlock(doc domain.TemplateConfig, areaID, parentBlockID string, from, to int) domain.TemplateConfig {
	out, _ := moveBlock(doc, areaID, parentBlockID, from, to)
	return out
}

func moveBlock(doc domain.TemplateConfig, areaID, parentBlockID string, from, to int) (domain.TemplateConfig, bool) {
	return withContainer(doc, areaID, parentBlockID, func(blocks []domain.TemplateBlock) ([]domain.TemplateBlock, bool) {
		if from == to || !inRange(from, len(blocks)) || !inRange(to, len(blocks)) {
			return blocks, false
		}
		return Reorder(blocks, from, to), true
	})
}

// MoveBlockTo moves sourceID to the position currently held by targetID.
func MoveBlockTo(doc domain.TemplateConfig, areaID, parentBlockID, sourceID, targetID string) domain.TemplateConfig {
	out, _ := moveBlockTo(doc, areaID, parentBlockID, sourceID, targetID)
	return out
}

func moveBlockTo(doc domain.TemplateConfig, areaID, parentBlockID, sourceID, targetID string) (domain.TemplateConfig, bool) {
	blocks, ok := containerBlocks(doc, areaID, parentBlockID)
	if !ok {
		return doc, false
	}
	return moveBlock(doc, areaID, parentBlockID, indexOfBlock(blocks, sourceID), indexOfBlock(blocks, targetID))
}

// UpdateAreaDisabled sets the disabled flag of an area.
func UpdateAreaDisabled(doc domain.TemplateConfig, areaID string, disabled bool) domain.TemplateConfig {
	out, _ := updateAreaDisabled(doc, areaID, disabled)
	return out
}

func updateAreaDisabled(doc domain.TemplateConfig, areaID string, disabled bool) (domain.TemplateConfig, bool) {
	return withArea(doc, areaID, func(a domain.TemplateArea) (domain.TemplateArea, bool) {
		a.Disabled = disabled
		return a, true
	})
}

// UpdateAreaSettings sets a field value inside an area's settings.
func UpdateAreaSettings(doc domain.TemplateConfig, areaID string, fieldPath []string, value any) domain.TemplateConfig {
	out, _ := updateAreaSettings(doc, areaID, fieldPath, value)
	return out
}

func updateAreaSettings(doc domain.TemplateConfig, areaID string, fieldPath []string, value any) (domain.TemplateConfig, bool) {
	return withArea(doc, areaID, func(a domain.TemplateArea) (domain.TemplateArea, bool) {
		settings, changed := updateFieldValue(a.Settings, fieldPath, value)
		a.Settings = settings
		return a, changed
	})
}

// UpdateGlobalSettings sets a field value inside the template settings.
func UpdateGlobalSettings(doc domain.TemplateConfig, fieldPath []string, value any) domain.TemplateConfig {
	out, _ := updateGlobalSettings(doc, fieldPath, value)
	return out
}

func updateGlobalSettings(doc domain.TemplateConfig, fieldPath []string, value any) (domain.TemplateConfig, bool) {
	settings, changed := updateFieldValue(doc.Settings, fieldPath, value)
	if !changed {
		return doc, false
	}
	doc.Settings = settings
	return doc, true
}

// FindBlock returns the block addressed by area, optional parent and id.
func FindBlock(doc domain.TemplateConfig, areaID, parentBlockID, blockID string) (domain.TemplateBlock, bool) {
	blocks, ok := containerBlocks(doc, areaID, parentBlockID)
	if !ok {
		return domain.TemplateBlock{}, false
	}
	idx := indexOfBlock(blocks, blockID)
	if idx < 0 {
		return domain.TemplateBlock{}, false
	}
	return blocks[idx], true
}

// ── helpers ────────────────────────────────────────────────

func withArea(doc domain.TemplateConfig, areaID string, fn func(domain.TemplateArea) (domain.TemplateArea, bool)) (domain.TemplateConfig, bool) {
	for i := range doc.Areas {
		if doc.Areas[i].ID != areaID {
			continue
		}
		area, changed := fn(doc.Areas[i])
		if !changed {
			return doc, false
		}
		areas := make([]domain.TemplateArea, len(doc.Areas))
		copy(areas, doc.Areas)
		areas[i] = area
		doc.Areas = areas
		return doc, true
	}
	return doc, false
}

func withBlock(blocks []domain.TemplateBlock, blockID string, fn func(domain.TemplateBlock) (domain.TemplateBlock, bool)) ([]domain.TemplateBlock, bool) {
	idx := indexOfBlock(blocks, blockID)
	if idx < 0 {
		return blocks, false
	}
	block, changed := fn(blocks[idx])
	if !changed {
		return blocks, false
	}
	out := make([]domain.TemplateBlock, len(blocks))
	copy(out, blocks)
	out[idx] = block
	return out, true
}

// withContainer edits the block sequence of an area, or of the child
// blocks of parentBlockID when it is set.
func withContainer(doc domain.TemplateConfig, areaID, parentBlockID string, fn func([]domain.TemplateBlock) ([]domain.TemplateBlock, bool)) (domain.TemplateConfig, bool) {
	return withArea(doc, areaID, func(a domain.TemplateArea) (domain.TemplateArea, bool) {
		if parentBlockID == "" {
			blocks, changed := fn(a.Blocks)
			a.Blocks = blocks
			return a, changed
		}
		blocks, changed := withBlock(a.Blocks, parentBlockID, func(parent domain.TemplateBlock) (domain.TemplateBlock, bool) {
			children, changed := fn(parent.Blocks)
			parent.Blocks = children
			return parent, changed
		})
		a.Blocks = blocks
		return a, changed
	})
}

func withBlockIn(doc domain.TemplateConfig, areaID, parentBlockID, blockID string, fn func(domain.TemplateBlock) (domain.TemplateBlock, bool)) (domain.TemplateConfig, bool) {
	return withContainer(doc, areaID, parentBlockID, func(blocks []domain.TemplateBlock) ([]domain.TemplateBlock, bool) {
		return withBlock(blocks, blockID, fn)
	})
}

func containerBlocks(doc domain.TemplateConfig, areaID, parentBlockID string) ([]domain.TemplateBlock, bool) {
	area, ok := doc.Area(areaID)
	if !ok {
		return nil, false
	}
	if parentBlockID == "" {
		return area.Blocks, true
	}
	idx := indexOfBlock(area.Blocks, parentBlockID)
	if idx < 0 {
		return nil, false
	}
	return area.Blocks[idx].Blocks, true
}

func indexOfBlock(blocks []domain.TemplateBlock, id string) int {
	for i := range blocks {
		if blocks[i].ID == id {
			return i
		}
	}
	return -1
}

func inRange(i, n int) bool { return i >= 0 && i < n }
