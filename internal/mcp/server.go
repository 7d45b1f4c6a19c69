package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"dashboard/internal/engine"
	"dashboard/internal/service"
)

// EventSessionOpened tells the desktop UI that an agent opened a session,
// so it can follow along.
const EventSessionOpened = "mcp:session-opened"

// Server is the MCP server for the template editor.
// It exposes tools and resources so AI agents can edit storefront templates
// through the same sessions the desktop UI uses.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter
	logger  *zap.Logger
	tools   []server.ServerTool

	editor    *service.EditorService
	templates *service.TemplateService
	filters   *service.FilterService
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter service.EventEmitter
	Editor  *service.EditorService
	Filters *service.FilterService // optional, nil without a GraphQL backend
	Logger  *zap.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		emitter:   deps.Emitter,
		logger:    deps.Logger,
		editor:    deps.Editor,
		templates: deps.Editor.Templates(),
		filters:   deps.Filters,
	}
	if s.emitter == nil {
		s.emitter = service.NopEmitter{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.mcp = server.NewMCPServer(
		"dashboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.tools = append(s.tools, s.templateTools()...)
	s.tools = append(s.tools, s.editTools()...)
	s.tools = append(s.tools, s.filterTools()...)
	s.mcp.AddTools(s.tools...)
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp: starting stdio server", zap.Int("tools", len(s.tools)))
	return server.ServeStdio(s.mcp)
}

// ToolNames lists the registered tools in registration order.
func (s *Server) ToolNames() []string {
	names := make([]string, len(s.tools))
	for i, t := range s.tools {
		names[i] = t.Tool.Name
	}
	return names
}

// ── Helpers ────────────────────────────────────────────────

// edit runs fn on the session named in args and reports the session state
// afterwards. An edit that leaves the document unchanged is reported as
// such rather than as an error.
func (s *Server) edit(ctx context.Context, args map[string]any, what string, fn func(*engine.Session) bool) (*mcp.CallToolResult, error) {
	sid, err := requireString(args, "sessionId")
	if err != nil {
		return nil, err
	}
	changed, err := s.editor.Edit(ctx, sid, fn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if !changed {
		return textResult(fmt.Sprintf("No change: %s had nothing to do", what)), nil
	}
	info, err := s.editor.Info(sid)
	if err != nil {
		return nil, err
	}
	return jsonResult(info)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
