package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"dashboard/internal/service"
)

func (s *Server) filterTools() []server.ServerTool {
	return []server.ServerTool{
		// ── list_filters ───────────────────────────────────
		{Tool: mcp.NewTool("list_filters",
			mcp.WithDescription("List the storefront collection filters in display order"),
		), Handler: s.handleListFilters},

		// ── move_filter ────────────────────────────────────
		{Tool: mcp.NewTool("move_filter",
			mcp.WithDescription("Move a storefront filter to a new position"),
			mcp.WithNumber("from", mcp.Description("Current index"), mcp.Required()),
			mcp.WithNumber("to", mcp.Description("New index"), mcp.Required()),
		), Handler: s.handleMoveFilter},
	}
}

func (s *Server) handleListFilters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.filters == nil {
		return nil, service.ErrGraphQLUnavailable
	}
	filters, err := s.filters.ListFilters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return jsonResult(filters)
}

func (s *Server) handleMoveFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.filters == nil {
		return nil, service.ErrGraphQLUnavailable
	}
	args := req.GetArguments()
	from, to := getInt(args, "from", -1), getInt(args, "to", -1)
	if from < 0 || to < 0 {
		return nil, fmt.Errorf("from and to are required")
	}
	filters, err := s.filters.MoveFilter(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("move filter: %w", err)
	}
	return jsonResult(filters)
}
