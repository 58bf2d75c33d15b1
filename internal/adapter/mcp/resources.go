package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"switchboard://decisions/stats",
			"Decision Stats",
			mcplib.WithResourceDescription("Aggregate counts of the decision log by decision type"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleStatsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"switchboard://taskforces",
			"Task Forces",
			mcplib.WithResourceDescription("List of all task forces with members and status"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTaskForcesResource,
	)
}

func (s *Server) handleStatsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Decisions == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"decision reader not configured"}`,
			},
		}, nil
	}
	stats, err := s.deps.Decisions.Stats(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTaskForcesResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Forces == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"force reader not configured"}`,
			},
		}, nil
	}
	forces, err := s.deps.Forces.List(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(forces)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
