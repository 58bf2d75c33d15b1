package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/switchboard-orch/switchboard/internal/domain/decision"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.orchestrateTaskTool(),
		s.scoreTaskTool(),
		s.getDecisionStatsTool(),
		s.listTaskForcesTool(),
		s.getTaskForceTool(),
	)
}

func (s *Server) orchestrateTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("orchestrate_task",
		mcplib.WithDescription("Score a task, record a routing decision and dispatch it (sequential, task force or escalation)"),
		mcplib.WithString("task_id",
			mcplib.Required(),
			mcplib.Description("Caller-assigned identifier for the task"),
		),
		mcplib.WithString("task_description",
			mcplib.Required(),
			mcplib.Description("Natural-language description of the task"),
		),
		mcplib.WithString("agent_id",
			mcplib.Description("Preferred agent for sequential dispatch"),
		),
		mcplib.WithObject("context",
			mcplib.Description("Optional scoring hints: num_subtasks (number), required_skills (string array)"),
		),
		mcplib.WithBoolean("force_escalation",
			mcplib.Description("Route to human oversight regardless of score"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleOrchestrateTask,
	}
}

func (s *Server) scoreTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("score_task",
		mcplib.WithDescription("Compute the five-dimension complexity score for a task without recording a decision"),
		mcplib.WithString("task_description",
			mcplib.Required(),
			mcplib.Description("Natural-language description of the task"),
		),
		mcplib.WithObject("context",
			mcplib.Description("Optional scoring hints: num_subtasks (number), required_skills (string array)"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleScoreTask,
	}
}

func (s *Server) getDecisionStatsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_decision_stats",
		mcplib.WithDescription("Get aggregate counts of the decision log by decision type"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetDecisionStats,
	}
}

func (s *Server) listTaskForcesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_task_forces",
		mcplib.WithDescription("List all task forces with their members and status"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleListTaskForces,
	}
}

func (s *Server) getTaskForceTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_task_force",
		mcplib.WithDescription("Get a task force by ID"),
		mcplib.WithString("task_force_id",
			mcplib.Required(),
			mcplib.Description("The task force ID to look up"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetTaskForce,
	}
}

func (s *Server) handleOrchestrateTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Orchestrator == nil {
		return mcplib.NewToolResultError("orchestrator not configured"), nil
	}
	args := req.GetArguments()
	taskID, ok := args["task_id"].(string)
	if !ok || taskID == "" {
		return mcplib.NewToolResultError("task_id is required"), nil
	}
	desc, _ := args["task_description"].(string)
	agentID, _ := args["agent_id"].(string)
	taskCtx, _ := args["context"].(map[string]any)
	forceEscalation, _ := args["force_escalation"].(bool)

	res, err := s.deps.Orchestrator.Orchestrate(ctx, &decision.OrchestrateRequest{
		TaskID:          taskID,
		TaskDescription: desc,
		AgentID:         agentID,
		Context:         taskCtx,
		ForceEscalation: forceEscalation,
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to orchestrate task %s", taskID), err,
		), nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleScoreTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Decisions == nil {
		return mcplib.NewToolResultError("decision reader not configured"), nil
	}
	args := req.GetArguments()
	desc, ok := args["task_description"].(string)
	if !ok || desc == "" {
		return mcplib.NewToolResultError("task_description is required"), nil
	}
	taskCtx, _ := args["context"].(map[string]any)

	score, err := s.deps.Decisions.Score(ctx, desc, taskCtx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to score task", err), nil
	}
	data, err := json.Marshal(score)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal score", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleGetDecisionStats(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Decisions == nil {
		return mcplib.NewToolResultError("decision reader not configured"), nil
	}
	stats, err := s.deps.Decisions.Stats(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to get decision stats", err), nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal stats", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleListTaskForces(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Forces == nil {
		return mcplib.NewToolResultError("force reader not configured"), nil
	}
	forces, err := s.deps.Forces.List(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list task forces", err), nil
	}
	data, err := json.Marshal(forces)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal task forces", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleGetTaskForce(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Forces == nil {
		return mcplib.NewToolResultError("force reader not configured"), nil
	}
	args := req.GetArguments()
	id, ok := args["task_force_id"].(string)
	if !ok || id == "" {
		return mcplib.NewToolResultError("task_force_id is required"), nil
	}
	tf, err := s.deps.Forces.Get(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to get task force %s", id), err,
		), nil
	}
	data, err := json.Marshal(tf)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal task force", err), nil
	}
	return toolResultJSON(string(data)), nil
}
