package app

import (
	"fmt"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
	"dashboard/internal/service"
)

// ============================================================
// Editor sessions
// ============================================================

func (a *App) OpenTemplate(templateID string) (service.SessionInfo, error) {
	return a.rt.Editor.Open(a.ctx, templateID)
}

func (a *App) CloseSession(sessionID string) error {
	return a.rt.Editor.Close(sessionID)
}

func (a *App) ListSessions() []service.SessionInfo {
	return a.rt.Editor.Sessions()
}

func (a *App) GetDocument(sessionID string) (domain.TemplateConfig, error) {
	var doc domain.TemplateConfig
	err := a.rt.Editor.View(sessionID, func(s *engine.Session) { doc = s.Document() })
	return doc, err
}

// GetState returns the session state without changing anything.
func (a *App) GetState(sessionID string) (EditorState, error) {
	return a.state(sessionID, false)
}

// ============================================================
// Selection, hover and drag
// ============================================================

// Select points the settings panel at target. A zero target selects the
// template's global settings.
func (a *App) Select(sessionID string, target engine.Target) (EditorState, error) {
	var ok bool
	if err := a.rt.Editor.View(sessionID, func(s *engine.Session) { ok = s.Select(target) }); err != nil {
		return EditorState{}, err
	}
	if !ok {
		return EditorState{}, fmt.Errorf("select: no block %s in area %s", target.BlockID, target.AreaID)
	}
	return a.state(sessionID, false)
}

func (a *App) ClearSelection(sessionID string) (EditorState, error) {
	if err := a.rt.Editor.View(sessionID, func(s *engine.Session) { s.ClearSelection() }); err != nil {
		return EditorState{}, err
	}
	return a.state(sessionID, false)
}

func (a *App) Hover(sessionID string, target engine.Target) error {
	return a.rt.Editor.View(sessionID, func(s *engine.Session) { s.Hover(target) })
}

func (a *App) ClearHover(sessionID string) error {
	return a.rt.Editor.View(sessionID, func(s *engine.Session) { s.ClearHover() })
}

func (a *App) DragStart(sessionID string, target engine.Target) (bool, error) {
	var ok bool
	err := a.rt.Editor.View(sessionID, func(s *engine.Session) { ok = s.DragStart(target) })
	return ok, err
}

func (a *App) DragOver(sessionID, targetID string) (bool, error) {
	var ok bool
	err := a.rt.Editor.View(sessionID, func(s *engine.Session) { ok = s.DragOver(targetID) })
	return ok, err
}

// Drop finishes the drag on targetID and commits the reorder.
func (a *App) Drop(sessionID, targetID string) (EditorState, error) {
	return a.edit(sessionID, func(s *engine.Session) bool { return s.Drop(targetID) })
}

func (a *App) DragEnd(sessionID string) error {
	return a.rt.Editor.View(sessionID, func(s *engine.Session) { s.DragEnd() })
}

// ============================================================
// Document edits
// ============================================================

// AddBlock adds a block from presetID and returns its id. The new block
// becomes the selection.
func (a *App) AddBlock(sessionID, areaID, parentBlockID, presetID string) (string, error) {
	var id string
	_, err := a.rt.Editor.Edit(a.ctx, sessionID, func(s *engine.Session) bool {
		id = s.AddBlock(areaID, parentBlockID, presetID)
		return id != ""
	})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("add block %s: %w", presetID, domain.ErrPresetNotFound)
	}
	return id, nil
}

func (a *App) RemoveBlock(sessionID string, target engine.Target) (EditorState, error) {
	return a.edit(sessionID, func(s *engine.Session) bool { return s.RemoveBlock(target) })
}

func (a *App) SetBlockDisabled(sessionID string, target engine.Target, disabled bool) (EditorState, error) {
	return a.edit(sessionID, func(s *engine.Session) bool { return s.SetBlockDisabled(target, disabled) })
}

func (a *App) SetAreaDisabled(sessionID, areaID string, disabled bool) (EditorState, error) {
	return a.edit(sessionID, func(s *engine.Session) bool { return s.SetAreaDisabled(areaID, disabled) })
}

// UpdateSetting writes a field of whatever the settings panel shows.
func (a *App) UpdateSetting(sessionID string, fieldPath []string, value any) (EditorState, error) {
	return a.edit(sessionID, func(s *engine.Session) bool { return s.UpdateSelectedSetting(fieldPath, value) })
}

func (a *App) UpdateGlobalSetting(sessionID string, fieldPath []string, value any) (EditorState, error) {
	return a.edit(sessionID, func(s *engine.Session) bool { return s.UpdateGlobalSetting(fieldPath, value) })
}

func (a *App) MoveBlock(sessionID, areaID, parentBlockID string, from, to int) (EditorState, error) {
	return a.edit(sessionID, func(s *engine.Session) bool { return s.MoveBlock(areaID, parentBlockID, from, to) })
}

func (a *App) Undo(sessionID string) (EditorState, error) {
	return a.edit(sessionID, (*engine.Session).Undo)
}

func (a *App) Redo(sessionID string) (EditorState, error) {
	return a.edit(sessionID, (*engine.Session).Redo)
}

// ============================================================
// Preview, settings form and presets
// ============================================================

func (a *App) Preview(sessionID string) (PreviewView, error) {
	layout, err := a.rt.Templates.Layout()
	if err != nil {
		return PreviewView{}, err
	}
	var view PreviewView
	err = a.rt.Editor.View(sessionID, func(s *engine.Session) {
		view.HTML = s.PreviewLayout(layout)
		view.Areas = s.PreviewAreas()
	})
	return view, err
}

func (a *App) SettingsForm(sessionID string) (string, error) {
	var form string
	err := a.rt.Editor.View(sessionID, func(s *engine.Session) { form = s.SettingsForm() })
	return form, err
}

// Presets lists what the "add block" menu offers for an area, or for a
// product card when parentBlockID is set.
func (a *App) Presets(sessionID, areaID, parentBlockID string) ([]PresetView, error) {
	var out []PresetView
	err := a.rt.Editor.View(sessionID, func(s *engine.Session) {
		for _, p := range s.PresetsFor(areaID, parentBlockID) {
			out = append(out, PresetView{ID: p.ID, Label: p.Label, BlockType: p.InstanceType()})
		}
	})
	return out, err
}

// ============================================================
// Save and publish
// ============================================================

func (a *App) Save(sessionID, label string) (*domain.TemplateRecord, error) {
	return a.rt.Editor.Save(a.ctx, sessionID, label)
}

func (a *App) Publish(sessionID string) (*domain.TemplateRecord, error) {
	return a.rt.Editor.Publish(a.ctx, sessionID)
}

// ── helpers ─────────────────────────────────────────────────

func (a *App) edit(sessionID string, fn func(*engine.Session) bool) (EditorState, error) {
	changed, err := a.rt.Editor.Edit(a.ctx, sessionID, fn)
	if err != nil {
		return EditorState{}, err
	}
	return a.state(sessionID, changed)
}

func (a *App) state(sessionID string, changed bool) (EditorState, error) {
	st := EditorState{Changed: changed}
	info, err := a.rt.Editor.Info(sessionID)
	if err != nil {
		return st, err
	}
	st.Session = info
	err = a.rt.Editor.View(sessionID, func(s *engine.Session) {
		st.Hovered = s.Hovered()
		st.Dragging = s.Dragging()
		st.SettingsForm = s.SettingsForm()
	})
	return st, err
}
