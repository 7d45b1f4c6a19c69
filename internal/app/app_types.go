package app

import (
	"dashboard/internal/engine"
	"dashboard/internal/service"
)

// EditorState is what the editor UI redraws from after every call.
type EditorState struct {
	Session      service.SessionInfo `json:"session"`
	Changed      bool                `json:"changed"`
	Hovered      engine.Target       `json:"hovered"`
	Dragging     bool                `json:"dragging"`
	SettingsForm string              `json:"settingsForm"`
}

// PreviewView is the rendered page plus the per-area fragments the UI
// swaps in place.
type PreviewView struct {
	HTML  string            `json:"html"`
	Areas map[string]string `json:"areas"`
}

// PresetView is one entry of the "add block" menu.
type PresetView struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	BlockType string `json:"blockType"`
}

// RendererView lists a registered block type and where its renderer
// comes from.
type RendererView struct {
	BlockType string `json:"blockType"`
	FromFile  bool   `json:"fromFile"`
}
