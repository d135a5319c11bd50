package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/annolab/labelqc/internal/llm"
	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/review"
	"github.com/annolab/labelqc/internal/severity"
	"github.com/annolab/labelqc/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store  store.Store
	engine *review.Engine
	llm    *llm.Client
}

// NewServer creates a new API server.
// The llmClient may be nil if no API key is configured.
func NewServer(s store.Store, llmClient *llm.Client) *Server {
	return &Server{
		store:  s,
		engine: review.NewEngine(s),
		llm:    llmClient,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/projects", s.listProjects)
	mux.HandleFunc("POST /api/v1/projects", s.createProject)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.getProject)
	mux.HandleFunc("PUT /api/v1/projects/{id}", s.updateProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.deleteProject)

	mux.HandleFunc("GET /api/v1/projects/{id}/labels", s.listLabels)
	mux.HandleFunc("POST /api/v1/projects/{id}/labels", s.createLabel)

	mux.HandleFunc("GET /api/v1/projects/{id}/items", s.listItems)
	mux.HandleFunc("POST /api/v1/projects/{id}/items", s.createItem)

	mux.HandleFunc("GET /api/v1/projects/{id}/stats", s.listProjectStats)

	mux.HandleFunc("GET /api/v1/assignments", s.listAssignments)
	mux.HandleFunc("POST /api/v1/assignments", s.createAssignment)
	mux.HandleFunc("GET /api/v1/assignments/{id}", s.getAssignment)
	mux.HandleFunc("POST /api/v1/assignments/{id}/submit", s.submitAssignment)
	mux.HandleFunc("POST /api/v1/assignments/{id}/annotations", s.createAnnotation)
	mux.HandleFunc("GET /api/v1/assignments/{id}/logs", s.listReviewLogs)

	mux.HandleFunc("POST /api/v1/reviews", s.submitReview)
	mux.HandleFunc("POST /api/v1/reviews/audit", s.auditReview)
	mux.HandleFunc("GET /api/v1/reviews/pending/{projectID}", s.pendingReviews)
	mux.HandleFunc("GET /api/v1/reviews/categories", s.listCategories)
	mux.HandleFunc("POST /api/v1/reviews/classify", s.classifyComment)

	mux.HandleFunc("GET /api/v1/stats/{userID}/{projectID}", s.getStat)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine/store error kinds to transport status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, review.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Warn("engine operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateProject(r.Context(), &p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(project); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.store.UpdateProject(r.Context(), project); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Labels ---

func (s *Server) listLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.store.ListLabelClasses(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

func (s *Server) createLabel(w http.ResponseWriter, r *http.Request) {
	var lc models.LabelClass
	if err := json.NewDecoder(r.Body).Decode(&lc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	lc.ProjectID = r.PathValue("id")
	if lc.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateLabelClass(r.Context(), &lc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, lc)
}

// --- Data items ---

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListDataItems(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var item models.DataItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	item.ProjectID = r.PathValue("id")
	if err := s.store.CreateDataItem(r.Context(), &item); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// --- Assignments ---

func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AssignmentListFilter{
		ProjectID:   q.Get("project_id"),
		AnnotatorID: q.Get("annotator_id"),
		Status:      models.AssignmentStatus(q.Get("status")),
	}
	assignments, err := s.store.ListAssignments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	var a models.Assignment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if a.ProjectID == "" || a.AnnotatorID == "" {
		writeError(w, http.StatusBadRequest, "project_id and annotator_id are required")
		return
	}
	// Creation and the TotalAssigned bump commit together through the engine.
	if err := s.engine.CreateAssignment(r.Context(), &a); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) getAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAssignment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) submitAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAssignment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if a.Status != models.AssignmentStatusAssigned {
		writeError(w, http.StatusConflict, "assignment is not in assigned state")
		return
	}
	a.Status = models.AssignmentStatusSubmitted
	if err := s.store.UpdateAssignment(r.Context(), a); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) createAnnotation(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAssignment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var an models.Annotation
	if err := json.NewDecoder(r.Body).Decode(&an); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	an.AssignmentID = a.ID
	if an.DataItemID == "" {
		an.DataItemID = a.DataItemID
	}
	if err := s.store.CreateAnnotation(r.Context(), &an); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, an)
}

func (s *Server) listReviewLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.ListReviewLogs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// --- Reviews ---

type submitReviewBody struct {
	ReviewerID string `json:"reviewer_id"`
	review.SubmitReviewRequest
}

func (s *Server) submitReview(w http.ResponseWriter, r *http.Request) {
	var body submitReviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.ReviewerID == "" || body.AssignmentID == "" {
		writeError(w, http.StatusBadRequest, "reviewer_id and assignment_id are required")
		return
	}

	verdict, err := s.engine.SubmitReview(r.Context(), body.ReviewerID, body.SubmitReviewRequest)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": string(verdict)})
}

type auditReviewBody struct {
	ManagerID string `json:"manager_id"`
	review.AuditRequest
}

func (s *Server) auditReview(w http.ResponseWriter, r *http.Request) {
	var body auditReviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.ManagerID == "" || body.ReviewLogID == "" {
		writeError(w, http.StatusBadRequest, "manager_id and review_log_id are required")
		return
	}

	if _, err := s.engine.AuditReview(r.Context(), body.ManagerID, body.AuditRequest); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Audit submitted successfully"})
}

func (s *Server) pendingReviews(w http.ResponseWriter, r *http.Request) {
	views, err := s.engine.TasksForReview(r.Context(), r.PathValue("projectID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories := severity.All()
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.Display()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) classifyComment(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		writeError(w, http.StatusServiceUnavailable, "no LLM API key configured")
		return
	}

	var body struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.Comment == "" {
		writeError(w, http.StatusBadRequest, "comment is required")
		return
	}

	suggestion, err := s.llm.SuggestCategory(r.Context(), body.Comment)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

// --- Stats ---

func (s *Server) getStat(w http.ResponseWriter, r *http.Request) {
	stat, err := s.store.GetStat(r.Context(), r.PathValue("userID"), r.PathValue("projectID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stat)
}

func (s *Server) listProjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.ListStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
