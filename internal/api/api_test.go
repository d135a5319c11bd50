package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	return NewServer(s, nil).Router(), s
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "body: %s", w.Body.String())
}

func createProject(t *testing.T, router http.Handler, name string, price float64) *models.Project {
	t.Helper()
	w := doJSON(t, router, "POST", "/api/v1/projects", map[string]any{
		"Name":          name,
		"PricePerLabel": price,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Project
	decodeBody(t, w, &p)
	return &p
}

func createSubmittedAssignment(t *testing.T, router http.Handler, projectID, annotatorID string) *models.Assignment {
	t.Helper()
	w := doJSON(t, router, "POST", "/api/v1/assignments", map[string]any{
		"ProjectID":   projectID,
		"AnnotatorID": annotatorID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var a models.Assignment
	decodeBody(t, w, &a)

	w = doJSON(t, router, "POST", "/api/v1/assignments/"+a.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &a)
	return &a
}

func TestProjectLifecycle(t *testing.T) {
	router, _ := newTestServer(t)

	p := createProject(t, router, "traffic-cams", 0.25)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "traffic-cams", p.Name)

	w := doJSON(t, router, "GET", "/api/v1/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/projects", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var projects []models.Project
	decodeBody(t, w, &projects)
	assert.Len(t, projects, 1)

	w = doJSON(t, router, "DELETE", "/api/v1/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProject_MissingName(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, "POST", "/api/v1/projects", map[string]any{"Description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAssignment_TracksStats(t *testing.T) {
	router, s := newTestServer(t)
	p := createProject(t, router, "traffic-cams", 0.25)

	w := doJSON(t, router, "POST", "/api/v1/assignments", map[string]any{
		"ProjectID":   p.ID,
		"AnnotatorID": "annotator-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stat, err := s.GetStat(context.Background(), "annotator-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stat.TotalAssigned)
	assert.Equal(t, 100.0, stat.AverageQualityScore)
}

func TestSubmitAssignment_OnlyFromAssigned(t *testing.T) {
	router, _ := newTestServer(t)
	p := createProject(t, router, "traffic-cams", 0.25)
	a := createSubmittedAssignment(t, router, p.ID, "annotator-1")

	assert.Equal(t, models.AssignmentStatusSubmitted, a.Status)

	// A second submit conflicts.
	w := doJSON(t, router, "POST", "/api/v1/assignments/"+a.ID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitReview_Approve(t *testing.T) {
	router, s := newTestServer(t)
	p := createProject(t, router, "traffic-cams", 0.25)
	a := createSubmittedAssignment(t, router, p.ID, "annotator-1")

	w := doJSON(t, router, "POST", "/api/v1/reviews", map[string]any{
		"reviewer_id":   "reviewer-1",
		"assignment_id": a.ID,
		"approved":      true,
		"comment":       "clean work",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, "Approved", resp["message"])

	got, err := s.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, got.Status)

	stat, err := s.GetStat(context.Background(), "annotator-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stat.TotalApproved)
	assert.Equal(t, 0.25, stat.EstimatedEarnings)
}

func TestSubmitReview_Reject(t *testing.T) {
	router, s := newTestServer(t)
	p := createProject(t, router, "traffic-cams", 0.25)
	a := createSubmittedAssignment(t, router, p.ID, "annotator-1")

	w := doJSON(t, router, "POST", "/api/v1/reviews", map[string]any{
		"reviewer_id":    "reviewer-1",
		"assignment_id":  a.ID,
		"approved":       false,
		"error_category": "LU-01",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, "Rejected", resp["message"])

	stat, err := s.GetStat(context.Background(), "annotator-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stat.TotalRejected)
	assert.Equal(t, 1, stat.TotalCriticalErrors)
	assert.Equal(t, 0.0, stat.AverageQualityScore)
}

func TestSubmitReview_Errors(t *testing.T) {
	router, _ := newTestServer(t)
	p := createProject(t, router, "traffic-cams", 0.25)

	// Missing required fields.
	w := doJSON(t, router, "POST", "/api/v1/reviews", map[string]any{"approved": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown assignment.
	w = doJSON(t, router, "POST", "/api/v1/reviews", map[string]any{
		"reviewer_id":   "reviewer-1",
		"assignment_id": "nope",
		"approved":      true,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Assignment still in assigned state.
	aw := doJSON(t, router, "POST", "/api/v1/assignments", map[string]any{
		"ProjectID":   p.ID,
		"AnnotatorID": "annotator-1",
	})
	require.Equal(t, http.StatusCreated, aw.Code)
	var a models.Assignment
	decodeBody(t, aw, &a)

	w = doJSON(t, router, "POST", "/api/v1/reviews", map[string]any{
		"reviewer_id":   "reviewer-1",
		"assignment_id": a.ID,
		"approved":      true,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuditReview(t *testing.T) {
	router, _ := newTestServer(t)
	p := createProject(t, router, "traffic-cams", 0.25)
	a := createSubmittedAssignment(t, router, p.ID, "annotator-1")

	w := doJSON(t, router, "POST", "/api/v1/reviews", map[string]any{
		"reviewer_id":    "reviewer-1",
		"assignment_id":  a.ID,
		"approved":       false,
		"error_category": "TE-02",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/v1/assignments/"+a.ID+"/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.ReviewLog
	decodeBody(t, w, &logs)
	require.Len(t, logs, 1)

	audit := map[string]any{
		"manager_id":          "manager-1",
		"review_log_id":       logs[0].ID,
		"is_correct_decision": true,
	}
	w = doJSON(t, router, "POST", "/api/v1/reviews/audit", audit)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, "Audit submitted successfully", resp["message"])

	// Auditing the same log again conflicts.
	w = doJSON(t, router, "POST", "/api/v1/reviews/audit", audit)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Reviewer accuracy is visible through the stats endpoint.
	w = doJSON(t, router, "GET", fmt.Sprintf("/api/v1/stats/%s/%s", "reviewer-1", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stat models.UserProjectStat
	decodeBody(t, w, &stat)
	assert.Equal(t, 1, stat.TotalAuditedReviews)
	assert.Equal(t, 1, stat.TotalCorrectDecisions)
	assert.Equal(t, 100.0, stat.ReviewerQualityScore)
}

func TestPendingReviews(t *testing.T) {
	router, _ := newTestServer(t)
	p := createProject(t, router, "traffic-cams", 0.25)
	createSubmittedAssignment(t, router, p.ID, "annotator-1")

	w := doJSON(t, router, "GET", "/api/v1/reviews/pending/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []map[string]any
	decodeBody(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "traffic-cams", views[0]["project_name"])
}

func TestListCategories(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, "GET", "/api/v1/reviews/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var categories []string
	decodeBody(t, w, &categories)
	assert.Len(t, categories, 10)
	assert.Contains(t, categories[0], ":")
}

func TestClassify_NoLLM(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, "POST", "/api/v1/reviews/classify", map[string]any{"comment": "missed a car"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetStat_NotFound(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, "GET", "/api/v1/stats/ghost/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
