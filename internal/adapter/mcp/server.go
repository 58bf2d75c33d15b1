// Package mcp exposes the orchestration engine over the Model Context
// Protocol so AI agents can score tasks and request routing decisions.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/switchboard-orch/switchboard/internal/domain/complexity"
	"github.com/switchboard-orch/switchboard/internal/domain/decision"
	"github.com/switchboard-orch/switchboard/internal/domain/taskforce"
)

// Orchestrator routes a task end to end.
type Orchestrator interface {
	Orchestrate(ctx context.Context, req *decision.OrchestrateRequest) (*decision.Result, error)
}

// DecisionReader scores tasks and reads the decision log.
type DecisionReader interface {
	Score(ctx context.Context, description string, taskCtx map[string]any) (*complexity.Score, error)
	Stats(ctx context.Context) (*decision.Stats, error)
}

// ForceReader reads task forces.
type ForceReader interface {
	Get(ctx context.Context, id string) (*taskforce.TaskForce, error)
	List(ctx context.Context) ([]taskforce.TaskForce, error)
}

// ServerConfig holds the MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string
}

// ServerDeps holds the service dependencies the tools call into.
// Nil fields disable the corresponding tools with an error result.
type ServerDeps struct {
	Orchestrator Orchestrator
	Decisions    DecisionReader
	Forces       ForceReader
}

// Server wraps an MCP server serving tools and resources over SSE.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
}

// NewServer creates an MCP server with all tools and resources registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server for testing and transport wiring.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start begins serving over SSE on the configured address. It returns
// immediately; serve errors are logged. A server without an address only
// exposes tools in-process.
func (s *Server) Start() error {
	if s.cfg.Addr == "" {
		return nil
	}
	sse := mcpserver.NewSSEServer(s.mcpServer)
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           AuthMiddleware(s.cfg.APIKey, sse),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server error", "error", err)
		}
	}()
	slog.Info("mcp server listening", "addr", s.cfg.Addr)
	return nil
}

// Stop gracefully shuts down the SSE transport.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}
