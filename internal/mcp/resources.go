package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const templateScheme = "template://"

func (s *Server) registerResources() {
	// ── template://all ─────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		templateScheme+"all",
		"All Templates",
		mcp.WithMIMEType("application/json"),
	), s.handleTemplatesResource)

	// ── template://{id} ────────────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			templateScheme+"{id}",
			"Stored Template Document",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleTemplateResource,
	)
}

func (s *Server) handleTemplatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(list, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTemplateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, templateScheme)
	if id == "" || id == uri {
		return nil, fmt.Errorf("could not extract template id from URI: %s", uri)
	}

	rec, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(rec.Document, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
