package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/talentflow/internal/hiring"
	"github.com/kalambet/talentflow/internal/mockapi"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Backend *mockapi.Backend
}

// NewMCPServer creates an MCP server exposing the hiring pipeline as tools.
// Tool calls skip the simulated latency and failures of the HTTP surface.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"talentflow",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("talentflow: jobs, candidates and assessments of a local hiring pipeline."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_jobs",
			mcp.WithDescription("List job postings in manual order, optionally filtered."),
			mcp.WithString("search", mcp.Description("Substring of the title or a tag")),
			mcp.WithString("status", mcp.Description("active or archived")),
			mcp.WithNumber("page", mcp.Description("1-based page (default 1)")),
		),
		mcpListJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("list_candidates",
			mcp.WithDescription("List candidates, optionally filtered by search text, stage or job."),
			mcp.WithString("search", mcp.Description("Substring of name or email")),
			mcp.WithString("stage", mcp.Description("applied, screen, tech, offer, hired or rejected")),
			mcp.WithNumber("jobId", mcp.Description("Only candidates of this job")),
			mcp.WithNumber("page", mcp.Description("1-based page (default 1)")),
		),
		mcpListCandidates(deps),
	)

	s.AddTool(
		mcp.NewTool("move_candidate",
			mcp.WithDescription("Move a candidate to another pipeline stage. A change of stage is recorded in the timeline."),
			mcp.WithNumber("id", mcp.Description("Candidate id"), mcp.Required()),
			mcp.WithString("stage", mcp.Description("Target stage"), mcp.Required()),
		),
		mcpMoveCandidate(deps),
	)

	s.AddTool(
		mcp.NewTool("candidate_timeline",
			mcp.WithDescription("Stage changes of a candidate, oldest first."),
			mcp.WithNumber("id", mcp.Description("Candidate id"), mcp.Required()),
		),
		mcpCandidateTimeline(deps),
	)

	s.AddTool(
		mcp.NewTool("get_assessment",
			mcp.WithDescription("The assessment attached to a job."),
			mcp.WithNumber("jobId", mcp.Description("Job id"), mcp.Required()),
		),
		mcpGetAssessment(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"talentflow://pipeline",
			"Pipeline",
			mcp.WithResourceDescription("Candidate count per stage across all jobs"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourcePipeline(deps),
	)

	return s
}

func mcpListJobs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := hiring.JobQuery{
			Search: req.GetString("search", ""),
			Status: hiring.JobStatus(req.GetString("status", "")),
			Page:   req.GetInt("page", 1),
		}
		if q.Status != "" && !q.Status.Valid() {
			return mcpError(fmt.Sprintf("unknown status %q", q.Status)), nil
		}
		return mcpJSON(deps.Backend.ListJobs(q))
	}
}

func mcpListCandidates(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q := hiring.CandidateQuery{
			Search: req.GetString("search", ""),
			JobID:  int64(req.GetInt("jobId", 0)),
			Page:   req.GetInt("page", 1),
		}
		if s := req.GetString("stage", ""); s != "" {
			st, err := hiring.ParseStage(s)
			if err != nil {
				return mcpError(err.Error()), nil
			}
			q.Stage = st
		}
		return mcpJSON(deps.Backend.ListCandidates(q))
	}
}

func mcpMoveCandidate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		raw, err := req.RequireString("stage")
		if err != nil {
			return mcpError("stage is required"), nil
		}
		stage, err := hiring.ParseStage(raw)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		c, err := deps.Backend.UpdateCandidate(ctx, int64(id), hiring.CandidatePatch{Stage: &stage})
		if err != nil {
			return mcpError(fmt.Sprintf("move failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Candidate %d (%s) is now in %s", c.ID, c.Name, c.Stage)), nil
	}
}

func mcpCandidateTimeline(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		events, err := deps.Backend.Timeline(int64(id))
		if err != nil {
			return mcpError(fmt.Sprintf("timeline failed: %v", err)), nil
		}
		return mcpJSON(events)
	}
}

func mcpGetAssessment(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobID, err := req.RequireInt("jobId")
		if err != nil {
			return mcpError("jobId is required"), nil
		}
		a, err := deps.Backend.GetAssessment(int64(jobID))
		if err != nil {
			return mcpError(fmt.Sprintf("no assessment: %v", err)), nil
		}
		return mcpJSON(a)
	}
}

func mcpResourcePipeline(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Backend.StageCounts(0))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stage counts: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
