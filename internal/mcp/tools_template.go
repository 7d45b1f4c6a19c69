package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

func (s *Server) templateTools() []server.ServerTool {
	return []server.ServerTool{
		// ── list_templates ─────────────────────────────────
		{Tool: mcp.NewTool("list_templates",
			mcp.WithDescription("List stored templates and template files that can be opened"),
		), Handler: s.handleListTemplates},

		// ── open_template ──────────────────────────────────
		{Tool: mcp.NewTool("open_template",
			mcp.WithDescription("Open an editor session on a template. Returns the session id used by every editing tool."),
			mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		), Handler: s.handleOpenTemplate},

		// ── close_session ──────────────────────────────────
		{Tool: mcp.NewTool("close_session",
			mcp.WithDescription("Close an editor session. Unsaved changes are discarded."),
			mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
			mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
		), Handler: s.handleCloseSession},

		// ── render_preview ─────────────────────────────────
		{Tool: mcp.NewTool("render_preview",
			mcp.WithDescription("Render HTML for an open session, or for a stored template when templateId is given instead"),
			mcp.WithString("sessionId", mcp.Description("Session ID")),
			mcp.WithString("templateId", mcp.Description("Template ID (used when no sessionId)")),
			mcp.WithBoolean("layout", mcp.Description("Wrap the areas in the page layout (default true)")),
		), Handler: s.handleRenderPreview},

		// ── save_template ──────────────────────────────────
		{Tool: mcp.NewTool("save_template",
			mcp.WithDescription("Save the session document as a draft and record a revision"),
			mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
			mcp.WithString("label", mcp.Description("Revision label (optional)")),
		), Handler: s.handleSaveTemplate},

		// ── publish_template ───────────────────────────────
		{Tool: mcp.NewTool("publish_template",
			mcp.WithDescription("Publish the session document, bumping the template version"),
			mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
		), Handler: s.handlePublishTemplate},

		// ── list_revisions ─────────────────────────────────
		{Tool: mcp.NewTool("list_revisions",
			mcp.WithDescription("List saved revisions of a template, newest first"),
			mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		), Handler: s.handleListRevisions},

		// ── restore_revision ───────────────────────────────
		{Tool: mcp.NewTool("restore_revision",
			mcp.WithDescription("Save an earlier revision as the current draft. Open sessions keep their documents."),
			mcp.WithString("revisionId", mcp.Description("Revision ID"), mcp.Required()),
		), Handler: s.handleRestoreRevision},
	}
}

func boolPtr(v bool) *bool { return &v }

// recordSummary is the tool view of a saved record, without the document.
func recordSummary(rec *domain.TemplateRecord) domain.TemplateSummary {
	return domain.TemplateSummary{
		ID:          rec.ID,
		Name:        rec.Name,
		Status:      rec.Status,
		Version:     rec.Version,
		UpdatedAt:   rec.UpdatedAt,
		PublishedAt: rec.PublishedAt,
	}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return jsonResult(list)
}

func (s *Server) handleOpenTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	info, err := s.editor.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	s.emitter.Emit(ctx, EventSessionOpened, info)
	return jsonResult(info)
}

func (s *Server) handleCloseSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sid, err := requireString(req.GetArguments(), "sessionId")
	if err != nil {
		return nil, err
	}
	if err := s.editor.Close(sid); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return textResult(fmt.Sprintf("Session %s closed", sid)), nil
}

func (s *Server) handleRenderPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	wrap := getBool(args, "layout", true)

	var layout string
	if wrap {
		l, err := s.templates.Layout()
		if err != nil {
			return nil, fmt.Errorf("read layout: %w", err)
		}
		layout = l
	}

	if sid := getString(args, "sessionId"); sid != "" {
		var html string
		err := s.editor.View(sid, func(sess *engine.Session) {
			if wrap {
				html = sess.PreviewLayout(layout)
			} else {
				html = sess.Preview()
			}
		})
		if err != nil {
			return nil, fmt.Errorf("render preview: %w", err)
		}
		return textResult(html), nil
	}

	id, err := requireString(args, "templateId")
	if err != nil {
		return nil, fmt.Errorf("sessionId or templateId is required")
	}
	rec, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}
	if !wrap {
		return textResult(engine.RenderTemplate(rec.Document, s.editor.Registry())), nil
	}
	areas := engine.RenderAreasMap(rec.Document, s.editor.Registry())
	return textResult(engine.RenderLayout(layout, areas)), nil
}

func (s *Server) handleSaveTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sid, err := requireString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	rec, err := s.editor.Save(ctx, sid, getString(args, "label"))
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return jsonResult(recordSummary(rec))
}

func (s *Server) handlePublishTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sid, err := requireString(req.GetArguments(), "sessionId")
	if err != nil {
		return nil, err
	}
	rec, err := s.editor.Publish(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("publish template: %w", err)
	}
	return jsonResult(recordSummary(rec))
}

func (s *Server) handleListRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	revs, err := s.templates.Revisions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}

	type revisionSummary struct {
		ID       string              `json:"id"`
		ParentID *string             `json:"parentId,omitempty"`
		Label    string              `json:"label"`
		Kind     domain.RevisionKind `json:"kind"`
		Created  string              `json:"createdAt"`
	}
	out := make([]revisionSummary, len(revs))
	for i, r := range revs {
		out[i] = revisionSummary{ID: r.ID, ParentID: r.ParentID, Label: r.Label, Kind: r.Kind, Created: r.CreatedAt.Format("2006-01-02 15:04:05")}
	}
	return jsonResult(out)
}

func (s *Server) handleRestoreRevision(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "revisionId")
	if err != nil {
		return nil, err
	}
	rec, err := s.templates.RestoreRevision(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	return jsonResult(recordSummary(rec))
}
