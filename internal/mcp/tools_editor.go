package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

func (s *Server) editTools() []server.ServerTool {
	session := mcp.WithString("sessionId", mcp.Description("Session ID from open_template"), mcp.Required())
	area := mcp.WithString("areaId", mcp.Description("Area ID, e.g. filters or products"), mcp.Required())
	block := mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required())
	parent := mcp.WithString("parentBlockId", mcp.Description("Container block ID when the block is nested (optional)"))
	path := mcp.WithString("path", mcp.Description("Dotted field path, e.g. text or typography.size"), mcp.Required())
	value := mcp.WithString("value", mcp.Description("New value as JSON (true, 12, \"x\"); bare text is taken as a string"), mcp.Required())

	return []server.ServerTool{
		// ── get_document ───────────────────────────────────
		{Tool: mcp.NewTool("get_document",
			mcp.WithDescription("Get the current template document of a session"),
			session,
		), Handler: s.handleGetDocument},

		// ── list_presets ───────────────────────────────────
		{Tool: mcp.NewTool("list_presets",
			mcp.WithDescription("List the block presets that can be added to an area or product card"),
			session, area, parent,
		), Handler: s.handleListPresets},

		// ── add_block ──────────────────────────────────────
		{Tool: mcp.NewTool("add_block",
			mcp.WithDescription("Add a block from a preset at the end of an area, or inside a product card when parentBlockId is set"),
			session, area, parent,
			mcp.WithString("presetId", mcp.Description("Preset ID from list_presets"), mcp.Required()),
		), Handler: s.handleAddBlock},

		// ── remove_block ───────────────────────────────────
		{Tool: mcp.NewTool("remove_block",
			mcp.WithDescription("Remove a block. Only blocks marked removable can be removed."),
			session, area, block, parent,
			mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
		), Handler: s.handleRemoveBlock},

		// ── set_block_disabled ─────────────────────────────
		{Tool: mcp.NewTool("set_block_disabled",
			mcp.WithDescription("Hide or show a block without removing it"),
			session, area, block, parent,
			mcp.WithBoolean("disabled", mcp.Description("true hides the block"), mcp.Required()),
		), Handler: s.handleSetBlockDisabled},

		// ── update_block_setting ───────────────────────────
		{Tool: mcp.NewTool("update_block_setting",
			mcp.WithDescription("Set the value of a field in a block's settings"),
			session, area, block, parent, path, value,
		), Handler: s.handleUpdateBlockSetting},

		// ── update_area_setting ────────────────────────────
		{Tool: mcp.NewTool("update_area_setting",
			mcp.WithDescription("Set the value of a field in an area's settings"),
			session, area, path, value,
		), Handler: s.handleUpdateAreaSetting},

		// ── update_global_setting ──────────────────────────
		{Tool: mcp.NewTool("update_global_setting",
			mcp.WithDescription("Set the value of a template-wide setting"),
			session, path, value,
		), Handler: s.handleUpdateGlobalSetting},

		// ── move_block ─────────────────────────────────────
		{Tool: mcp.NewTool("move_block",
			mcp.WithDescription("Move a block from one index to another within its area or product card"),
			session, area, parent,
			mcp.WithNumber("from", mcp.Description("Current index"), mcp.Required()),
			mcp.WithNumber("to", mcp.Description("New index"), mcp.Required()),
		), Handler: s.handleMoveBlock},

		// ── undo / redo ────────────────────────────────────
		{Tool: mcp.NewTool("undo",
			mcp.WithDescription("Undo the last edit in a session"),
			session,
		), Handler: s.handleUndo},
		{Tool: mcp.NewTool("redo",
			mcp.WithDescription("Redo the last undone edit in a session"),
			session,
		), Handler: s.handleRedo},
	}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sid, err := requireString(req.GetArguments(), "sessionId")
	if err != nil {
		return nil, err
	}
	var doc domain.TemplateConfig
	if err := s.editor.View(sid, func(sess *engine.Session) { doc = sess.Document() }); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return jsonResult(doc)
}

func (s *Server) handleListPresets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sid, err := requireString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	areaID, err := requireString(args, "areaId")
	if err != nil {
		return nil, err
	}

	type presetSummary struct {
		ID        string             `json:"id"`
		Label     string             `json:"label"`
		BlockType string             `json:"blockType"`
		Scope     domain.PresetScope `json:"scope"`
	}
	var out []presetSummary
	err = s.editor.View(sid, func(sess *engine.Session) {
		for _, p := range sess.PresetsFor(areaID, getString(args, "parentBlockId")) {
			out = append(out, presetSummary{ID: p.ID, Label: p.Label, BlockType: p.InstanceType(), Scope: p.Scope})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return jsonResult(out)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sid, err := requireString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	areaID, err := requireString(args, "areaId")
	if err != nil {
		return nil, err
	}
	presetID, err := requireString(args, "presetId")
	if err != nil {
		return nil, err
	}

	var blockID string
	_, err = s.editor.Edit(ctx, sid, func(sess *engine.Session) bool {
		blockID = sess.AddBlock(areaID, getString(args, "parentBlockId"), presetID)
		return blockID != ""
	})
	if err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}
	if blockID == "" {
		return nil, fmt.Errorf("add block: preset %q cannot be added there: %w", presetID, domain.ErrPresetNotFound)
	}
	return jsonResult(map[string]string{"blockId": blockID})
}

func (s *Server) handleRemoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	t, err := targetFrom(args)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, args, "remove block", func(sess *engine.Session) bool {
		return sess.RemoveBlock(t)
	})
}

func (s *Server) handleSetBlockDisabled(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	t, err := targetFrom(args)
	if err != nil {
		return nil, err
	}
	disabled, ok := args["disabled"].(bool)
	if !ok {
		return nil, fmt.Errorf("disabled is required")
	}
	return s.edit(ctx, args, "set block disabled", func(sess *engine.Session) bool {
		return sess.SetBlockDisabled(t, disabled)
	})
}

func (s *Server) handleUpdateBlockSetting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	t, err := targetFrom(args)
	if err != nil {
		return nil, err
	}
	path, value, err := pathAndValue(args)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, args, "update block setting", func(sess *engine.Session) bool {
		return sess.UpdateBlockSetting(t, path, value)
	})
}

func (s *Server) handleUpdateAreaSetting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	areaID, err := requireString(args, "areaId")
	if err != nil {
		return nil, err
	}
	path, value, err := pathAndValue(args)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, args, "update area setting", func(sess *engine.Session) bool {
		return sess.UpdateAreaSetting(areaID, path, value)
	})
}

func (s *Server) handleUpdateGlobalSetting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, value, err := pathAndValue(args)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, args, "update global setting", func(sess *engine.Session) bool {
		return sess.UpdateGlobalSetting(path, value)
	})
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	areaID, err := requireString(args, "areaId")
	if err != nil {
		return nil, err
	}
	from, to := getInt(args, "from", -1), getInt(args, "to", -1)
	if from < 0 || to < 0 {
		return nil, fmt.Errorf("from and to are required")
	}
	return s.edit(ctx, args, "move block", func(sess *engine.Session) bool {
		return sess.MoveBlock(areaID, getString(args, "parentBlockId"), from, to)
	})
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(ctx, req.GetArguments(), "undo", (*engine.Session).Undo)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.edit(ctx, req.GetArguments(), "redo", (*engine.Session).Redo)
}

func pathAndValue(args map[string]any) ([]string, any, error) {
	path, err := parsePath(args)
	if err != nil {
		return nil, nil, err
	}
	value, err := parseValue(args)
	if err != nil {
		return nil, nil, err
	}
	return path, value, nil
}
