package engine

import (
	"dashboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Editor session - history, selection, drag and live preview
// ─────────────────────────────────────────────────────────────

// Target addresses an area, or a block inside an area, possibly nested
// under a container block.
type Target struct {
	AreaID        string `json:"areaId"`
	BlockID       string `json:"blockId,omitempty"`
	ParentBlockID string `json:"parentBlockId,omitempty"`
}

func (t Target) IsZero() bool { return t == Target{} }

// IsArea reports whether t points at an area rather than a block.
func (t Target) IsArea() bool { return t.AreaID != "" && t.BlockID == "" }

// Session is one editing session over a template document. Every change
// goes through the history; the previous documents stay untouched.
// A Session is not safe for concurrent use; callers serialise access.
type Session struct {
	history  History[*domain.TemplateConfig]
	registry *Registry
	saved    *domain.TemplateConfig

	selected Target
	hovered  Target
	drag     DragState

	catalog []map[string]any
	cache   previewCache
}

type previewCache struct {
	doc      *domain.TemplateConfig
	registry *Registry
	version  uint64
	stale    bool
	html     string
	areas    map[string]string
}

// NewSession starts a session at doc. historyLimit caps undo depth (0 = unbounded).
func NewSession(doc domain.TemplateConfig, registry *Registry, historyLimit int) *Session {
	present := doc
	return &Session{
		history:  NewHistory(&present, historyLimit),
		registry: registry,
		saved:    &present,
	}
}

// Document returns the current document.
func (s *Session) Document() domain.TemplateConfig {
	return *s.history.Present()
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// UndoDepth and RedoDepth report the stack sizes.
func (s *Session) UndoDepth() int { return len(s.history.past) }
func (s *Session) RedoDepth() int { return len(s.history.future) }

// Commit makes next the present document.
func (s *Session) Commit(next domain.TemplateConfig) {
	s.history = s.history.Commit(&next)
}

func (s *Session) apply(next domain.TemplateConfig, changed bool) bool {
	if !changed {
		return false
	}
	s.Commit(next)
	return true
}

// Undo steps back one commit. It reports false when there is nothing to undo.
func (s *Session) Undo() bool {
	if !s.history.CanUndo() {
		return false
	}
	s.history = s.history.Undo()
	s.revalidatePointers()
	return true
}

// Redo re-applies an undone commit. It reports false when there is nothing to redo.
func (s *Session) Redo() bool {
	if !s.history.CanRedo() {
		return false
	}
	s.history = s.history.Redo()
	s.revalidatePointers()
	return true
}

// ── Editing ────────────────────────────────────────────────

func (s *Session) UpdateAreaBlocks(areaID string, blocks []domain.TemplateBlock) bool {
	return s.apply(withContainer(s.Document(), areaID, "", func([]domain.TemplateBlock) ([]domain.TemplateBlock, bool) {
		return blocks, true
	}))
}

func (s *Session) UpdateNestedBlocks(areaID, parentBlockID string, blocks []domain.TemplateBlock) bool {
	return s.apply(updateNestedBlocks(s.Document(), areaID, parentBlockID, blocks))
}

func (s *Session) SetBlockDisabled(t Target, disabled bool) bool {
	return s.apply(updateBlockDisabled(s.Document(), t.AreaID, t.BlockID, disabled, t.ParentBlockID))
}

func (s *Session) UpdateBlockSetting(t Target, fieldPath []string, value any) bool {
	return s.apply(updateBlockSettings(s.Document(), t.AreaID, t.BlockID, fieldPath, value, t.ParentBlockID))
}

func (s *Session) SetAreaDisabled(areaID string, disabled bool) bool {
	return s.apply(updateAreaDisabled(s.Document(), areaID, disabled))
}

func (s *Session) UpdateAreaSetting(areaID string, fieldPath []string, value any) bool {
	return s.apply(updateAreaSettings(s.Document(), areaID, fieldPath, value))
}

func (s *Session) UpdateGlobalSetting(fieldPath []string, value any) bool {
	return s.apply(updateGlobalSettings(s.Document(), fieldPath, value))
}

// UpdateSelectedSetting edits the settings of whatever is selected: a
// block, an area, or the template itself when nothing is.
func (s *Session) UpdateSelectedSetting(fieldPath []string, value any) bool {
	switch {
	case s.selected.IsZero():
		return s.UpdateGlobalSetting(fieldPath, value)
	case s.selected.IsArea():
		return s.UpdateAreaSetting(s.selected.AreaID, fieldPath, value)
	default:
		return s.UpdateBlockSetting(s.selected, fieldPath, value)
	}
}

// RemoveBlock deletes a removable block. Blocks not marked removable are
// kept. Selection and hover pointing at the block are cleared.
func (s *Session) RemoveBlock(t Target) bool {
	b, ok := FindBlock(s.Document(), t.AreaID, t.ParentBlockID, t.BlockID)
	if !ok || !b.IsRemovable() {
		return false
	}
	if !s.apply(removeBlock(s.Document(), t.AreaID, t.BlockID, t.ParentBlockID)) {
		return false
	}
	s.revalidatePointers()
	return true
}

// AddBlock instantiates presetID in an area, or inside parentBlockID when
// set. The preset must be offered for that spot (see PresetsFor). The new
// block becomes the selection. It returns the new block id or "".
func (s *Session) AddBlock(areaID, parentBlockID, presetID string) string {
	if !s.offers(areaID, parentBlockID, presetID) {
		return ""
	}
	var (
		doc domain.TemplateConfig
		id  string
	)
	if parentBlockID == "" {
		doc, id = AddBlockToArea(s.Document(), areaID, presetID)
	} else {
		doc, id = AddBlockToProductCard(s.Document(), areaID, parentBlockID, presetID)
	}
	if id == "" {
		return ""
	}
	s.Commit(doc)
	s.selected = Target{AreaID: areaID, BlockID: id, ParentBlockID: parentBlockID}
	return id
}

// MoveBlock reorders inside an area (or inside parentBlockID) by index.
func (s *Session) MoveBlock(areaID, parentBlockID string, from, to int) bool {
	return s.apply(moveBlock(s.Document(), areaID, parentBlockID, from, to))
}

// ── Presets ────────────────────────────────────────────────

// PresetsFor lists the enabled presets offered for insertion. Top-level
// area menus get global presets and presets scoped to the area id; child
// menus of a container block get only product_card presets.
func (s *Session) PresetsFor(areaID, parentBlockID string) []domain.TemplatePreset {
	doc := s.Document()
	if _, ok := doc.Area(areaID); !ok {
		return nil
	}
	var out []domain.TemplatePreset
	for _, p := range doc.BlockPresets {
		if p.Disabled {
			continue
		}
		if parentBlockID != "" {
			if p.Scope == domain.ScopeProductCard {
				out = append(out, p)
			}
			continue
		}
		if p.Scope == domain.ScopeGlobal || string(p.Scope) == areaID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) offers(areaID, parentBlockID, presetID string) bool {
	for _, p := range s.PresetsFor(areaID, parentBlockID) {
		if p.ID == presetID {
			return true
		}
	}
	return false
}

// ── Selection and hover ────────────────────────────────────

// Select points the settings panel at t. A zero Target selects the
// template's global settings. Unknown targets are refused.
func (s *Session) Select(t Target) bool {
	if !t.IsZero() && !s.exists(t) {
		return false
	}
	s.selected = t
	return true
}

func (s *Session) ClearSelection() { s.selected = Target{} }

func (s *Session) Selection() Target { return s.selected }

func (s *Session) Hover(t Target) bool {
	if !t.IsZero() && !s.exists(t) {
		return false
	}
	s.hovered = t
	return true
}

func (s *Session) ClearHover() { s.hovered = Target{} }

func (s *Session) Hovered() Target { return s.hovered }

// SelectedSettings returns the settings tree the panel should edit.
func (s *Session) SelectedSettings() domain.SettingsTree {
	doc := s.Document()
	switch {
	case s.selected.IsZero():
		return doc.Settings
	case s.selected.IsArea():
		if a, ok := doc.Area(s.selected.AreaID); ok {
			return a.Settings
		}
	default:
		if b, ok := FindBlock(doc, s.selected.AreaID, s.selected.ParentBlockID, s.selected.BlockID); ok {
			return b.Settings
		}
	}
	return domain.SettingsTree{}
}

// SettingsForm renders the editable controls for the selection.
func (s *Session) SettingsForm() string {
	return RenderSettingsForm(s.SelectedSettings(), nil)
}

func (s *Session) exists(t Target) bool {
	doc := s.Document()
	if t.IsArea() {
		_, ok := doc.Area(t.AreaID)
		return ok
	}
	_, ok := FindBlock(doc, t.AreaID, t.ParentBlockID, t.BlockID)
	return ok
}

// revalidatePointers drops selection and hover that no longer resolve.
func (s *Session) revalidatePointers() {
	if !s.selected.IsZero() && !s.exists(s.selected) {
		s.selected = Target{}
	}
	if !s.hovered.IsZero() && !s.exists(s.hovered) {
		s.hovered = Target{}
	}
}

// ── Drag and drop ──────────────────────────────────────────

// DragStart begins dragging a block. Refused while another drag is active
// or when the block does not exist.
func (s *Session) DragStart(t Target) bool {
	if s.drag.Active() || !s.exists(t) || t.IsArea() {
		return false
	}
	return s.drag.Start(t.AreaID, t.ParentBlockID, t.BlockID)
}

func (s *Session) DragOver(targetID string) bool { return s.drag.Over(targetID) }

// Drop finishes the drag on targetID and commits the reorder.
func (s *Session) Drop(targetID string) bool {
	move, ok := s.drag.Drop(targetID)
	if !ok || move.SourceID == move.TargetID {
		return false
	}
	return s.apply(moveBlockTo(s.Document(), move.AreaID, move.ParentBlockID, move.SourceID, move.TargetID))
}

func (s *Session) DragEnd() { s.drag.End() }

func (s *Session) Dragging() bool { return s.drag.Active() }

// ── Preview ────────────────────────────────────────────────

// Preview renders the present document. Documents are immutable, so the
// result is cached on document identity and registry version.
func (s *Session) Preview() string {
	s.refreshCache()
	return s.cache.html
}

// PreviewAreas renders the present document area by area.
func (s *Session) PreviewAreas() map[string]string {
	s.refreshCache()
	out := make(map[string]string, len(s.cache.areas))
	for k, v := range s.cache.areas {
		out[k] = v
	}
	return out
}

// PreviewLayout renders the present document into a layout shell.
func (s *Session) PreviewLayout(layout string) string {
	s.refreshCache()
	return RenderLayout(layout, s.cache.areas)
}

// SetCatalog replaces the products the preview lists. Nil falls back to
// whatever the renderers use as sample data.
func (s *Session) SetCatalog(products []map[string]any) {
	s.catalog = products
	s.cache.stale = true
}

func (s *Session) refreshCache() {
	doc := s.history.Present()
	version := s.registry.Version()
	if s.cache.doc == doc && s.cache.registry == s.registry && s.cache.version == version && !s.cache.stale {
		return
	}
	s.cache = previewCache{
		doc:      doc,
		registry: s.registry,
		version:  version,
		html:     RenderTemplateCatalog(*doc, s.catalog, s.registry),
		areas:    RenderAreasCatalog(*doc, s.catalog, s.registry),
	}
}

// ── Save tracking ──────────────────────────────────────────

// Dirty reports whether the present document differs from the last saved one.
func (s *Session) Dirty() bool {
	return s.history.Present() != s.saved
}

// MarkSaved records the present document as saved.
func (s *Session) MarkSaved() {
	s.saved = s.history.Present()
}
