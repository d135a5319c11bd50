// Package mcp exposes the labelqc review engine as MCP tools, so agents can
// inspect review queues, submit verdicts, and audit past reviews over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/review"
	"github.com/annolab/labelqc/internal/severity"
	"github.com/annolab/labelqc/internal/store"
)

// Server wraps the labelqc data layer and exposes it as MCP tools.
type Server struct {
	store  store.Store
	engine *review.Engine
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store) *Server {
	return &Server{
		store:  s,
		engine: review.NewEngine(s),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("labelqc", "1.0.0", server.WithToolCapabilities(true))

	// Register all tools
	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.reviewQueueTool())
	srv.AddTool(s.submitReviewTool())
	srv.AddTool(s.auditReviewTool())
	srv.AddTool(s.userStatsTool())
	srv.AddTool(s.errorCategoriesTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// resolveProject accepts a project name or id.
func (s *Server) resolveProject(ctx context.Context, name string) (*models.Project, error) {
	if p, err := s.store.GetProjectByName(ctx, name); err == nil {
		return p, nil
	}
	if p, err := s.store.GetProject(ctx, name); err == nil {
		return p, nil
	}
	return nil, fmt.Errorf("project not found: %s", name)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// qc_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("qc_list_projects",
		mcp.WithDescription("List all labeling projects. Returns a JSON array with id, name, description, price per label, and deadline."),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	type projectOut struct {
		ID            string  `json:"id"`
		Name          string  `json:"name"`
		Description   string  `json:"description"`
		PricePerLabel float64 `json:"price_per_label"`
		Deadline      string  `json:"deadline,omitempty"`
	}

	out := make([]projectOut, len(projects))
	for i, p := range projects {
		out[i] = projectOut{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			PricePerLabel: p.PricePerLabel,
		}
		if !p.Deadline.IsZero() {
			out[i].Deadline = p.Deadline.Format(time.RFC3339)
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal projects: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// qc_review_queue
func (s *Server) reviewQueueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("qc_review_queue",
		mcp.WithDescription("List assignments waiting for review in a project, with storage URLs, label catalog, and existing annotations. Resolves project by name or id."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
	)
	return tool, s.handleReviewQueue
}

func (s *Server) handleReviewQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectName, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}

	p, err := s.resolveProject(ctx, projectName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project not found: %s", projectName)), nil
	}

	views, err := s.engine.TasksForReview(ctx, p.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list review queue: %v", err)), nil
	}

	data, err := json.Marshal(views)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal review queue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// qc_submit_review
func (s *Server) submitReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("qc_submit_review",
		mcp.WithDescription("Approve or reject a submitted assignment. Rejections should carry an error category code (see qc_error_categories); the category's severity drives the annotator's score penalty."),
		mcp.WithString("reviewer_id", mcp.Required(), mcp.Description("Id of the reviewing user")),
		mcp.WithString("assignment_id", mcp.Required(), mcp.Description("Assignment to review; must be in submitted status")),
		mcp.WithBoolean("approved", mcp.Required(), mcp.Description("true to approve, false to reject")),
		mcp.WithString("comment", mcp.Description("Free-text review comment")),
		mcp.WithString("error_category", mcp.Description("Error category for rejections, e.g. TE-02")),
	)
	return tool, s.handleSubmitReview
}

func (s *Server) handleSubmitReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reviewerID, err := request.RequireString("reviewer_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reviewer_id"), nil
	}
	assignmentID, err := request.RequireString("assignment_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: assignment_id"), nil
	}

	req := review.SubmitReviewRequest{
		AssignmentID:  assignmentID,
		Approved:      request.GetBool("approved", false),
		Comment:       request.GetString("comment", ""),
		ErrorCategory: request.GetString("error_category", ""),
	}

	verdict, err := s.engine.SubmitReview(ctx, reviewerID, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to submit review: %v", err)), nil
	}

	data, _ := json.Marshal(map[string]string{"message": string(verdict)})
	return mcp.NewToolResultText(string(data)), nil
}

// qc_audit_review
func (s *Server) auditReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("qc_audit_review",
		mcp.WithDescription("Audit a past review decision, recording whether the reviewer's verdict was correct. Each review log may be audited once; the outcome feeds the reviewer's accuracy score."),
		mcp.WithString("manager_id", mcp.Required(), mcp.Description("Id of the auditing manager")),
		mcp.WithString("review_log_id", mcp.Required(), mcp.Description("Review log to audit")),
		mcp.WithBoolean("correct", mcp.Required(), mcp.Description("true if the original decision was correct")),
	)
	return tool, s.handleAuditReview
}

func (s *Server) handleAuditReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	managerID, err := request.RequireString("manager_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: manager_id"), nil
	}
	logID, err := request.RequireString("review_log_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: review_log_id"), nil
	}

	result, err := s.engine.AuditReview(ctx, managerID, review.AuditRequest{
		ReviewLogID:       logID,
		IsCorrectDecision: request.GetBool("correct", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to audit review: %v", err)), nil
	}

	data, _ := json.Marshal(map[string]string{"message": "Audit submitted successfully", "result": string(result)})
	return mcp.NewToolResultText(string(data)), nil
}

// qc_user_stats
func (s *Server) userStatsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("qc_user_stats",
		mcp.WithDescription("Get a user's quality ledger for a project: annotator metrics (quality average, efficiency, earnings, critical errors) and reviewer metrics (audited accuracy)."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("User id")),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
	)
	return tool, s.handleUserStats
}

func (s *Server) handleUserStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	projectName, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}

	p, err := s.resolveProject(ctx, projectName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project not found: %s", projectName)), nil
	}

	stat, err := s.store.GetStat(ctx, userID, p.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no stats for user %s in project %s", userID, projectName)), nil
	}

	result := map[string]any{
		"user_id":    stat.UserID,
		"project_id": stat.ProjectID,
		"annotator": map[string]any{
			"total_assigned":        stat.TotalAssigned,
			"total_approved":        stat.TotalApproved,
			"total_rejected":        stat.TotalRejected,
			"total_reviewed_tasks":  stat.TotalReviewedTasks,
			"average_quality_score": stat.AverageQualityScore,
			"efficiency_score":      stat.EfficiencyScore,
			"estimated_earnings":    stat.EstimatedEarnings,
			"total_critical_errors": stat.TotalCriticalErrors,
		},
		"reviewer": map[string]any{
			"reviewer_quality_score":  stat.ReviewerQualityScore,
			"total_audited_reviews":   stat.TotalAuditedReviews,
			"total_correct_decisions": stat.TotalCorrectDecisions,
		},
		"updated_at": stat.Date.Format(time.RFC3339),
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// qc_error_categories
func (s *Server) errorCategoriesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("qc_error_categories",
		mcp.WithDescription("List the error category catalog with severity weights. Critical categories (weight 10) count toward an annotator's critical error total."),
	)
	return tool, s.handleErrorCategories
}

func (s *Server) handleErrorCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type categoryOut struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Weight      int    `json:"weight"`
	}

	categories := severity.All()
	out := make([]categoryOut, len(categories))
	for i, c := range categories {
		out[i] = categoryOut{Code: c.Code, Description: c.Description, Weight: severity.Weight(c.Code)}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal categories: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
