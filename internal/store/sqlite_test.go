package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolab/labelqc/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

// --- Project CRUD ---

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Create
	deadline := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	p := &models.Project{
		Name:          "street-signs",
		Description:   "Sign detection batch 3",
		PricePerLabel: 0.4,
		Deadline:      deadline,
	}
	err := s.CreateProject(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	// Get by ID
	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Description, got.Description)
	assert.InDelta(t, 0.4, got.PricePerLabel, 0.001)
	assert.True(t, deadline.Equal(got.Deadline))

	// Get by Name
	got, err = s.GetProjectByName(ctx, "street-signs")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	// Update
	got.Description = "Updated description"
	err = s.UpdateProject(ctx, got)
	require.NoError(t, err)

	got2, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated description", got2.Description)

	// List
	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	// Delete
	err = s.DeleteProject(ctx, p.ID)
	require.NoError(t, err)

	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProject_NilDeadlineRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "no-deadline"}
	require.NoError(t, s.CreateProject(ctx, p))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Deadline.IsZero())
}

// --- Label classes / data items ---

func TestLabelClassesAndDataItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "p1"}
	require.NoError(t, s.CreateProject(ctx, p))

	require.NoError(t, s.CreateLabelClass(ctx, &models.LabelClass{ProjectID: p.ID, Name: "truck", Color: "#123456"}))
	require.NoError(t, s.CreateLabelClass(ctx, &models.LabelClass{ProjectID: p.ID, Name: "bike"}))

	labels, err := s.ListLabelClasses(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "bike", labels[0].Name, "ordered by name")

	item := &models.DataItem{ProjectID: p.ID, StorageURL: "s3://b/1.jpg", Metadata: `{"camera":"north"}`}
	require.NoError(t, s.CreateDataItem(ctx, item))
	assert.Equal(t, models.DataItemStatusPending, item.Status)

	got, err := s.GetDataItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "s3://b/1.jpg", got.StorageURL)

	got.Status = models.DataItemStatusDone
	require.NoError(t, s.UpdateDataItem(ctx, got))

	items, err := s.ListDataItems(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.DataItemStatusDone, items[0].Status)
}

// --- Assignments ---

func TestAssignmentCRUDAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "p1"}
	require.NoError(t, s.CreateProject(ctx, p))

	a1 := &models.Assignment{ProjectID: p.ID, AnnotatorID: "u1"}
	require.NoError(t, s.CreateAssignment(ctx, a1))
	assert.Equal(t, models.AssignmentStatusAssigned, a1.Status)

	a2 := &models.Assignment{ProjectID: p.ID, AnnotatorID: "u2", Status: models.AssignmentStatusSubmitted}
	require.NoError(t, s.CreateAssignment(ctx, a2))

	got, err := s.GetAssignment(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.AnnotatorID)

	// Filter by status
	submitted, err := s.ListAssignments(ctx, AssignmentListFilter{ProjectID: p.ID, Status: models.AssignmentStatusSubmitted})
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	assert.Equal(t, a2.ID, submitted[0].ID)

	// Filter by annotator
	byUser, err := s.ListAssignments(ctx, AssignmentListFilter{AnnotatorID: "u1"})
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	// Update
	got.Status = models.AssignmentStatusSubmitted
	require.NoError(t, s.UpdateAssignment(ctx, got))
	got2, err := s.GetAssignment(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusSubmitted, got2.Status)

	_, err = s.GetAssignment(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Stats ---

func TestStatKeyedLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetStat(ctx, "u1", "p1")
	assert.ErrorIs(t, err, ErrNotFound)

	stat := models.NewUserProjectStat("u1", "p1")
	require.NoError(t, s.CreateStat(ctx, stat))
	assert.NotEmpty(t, stat.ID)

	got, err := s.GetStat(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.InDelta(t, 100, got.AverageQualityScore, 0.001)
	assert.InDelta(t, 100, got.EfficiencyScore, 0.001)
	assert.InDelta(t, 100, got.ReviewerQualityScore, 0.001)
	assert.Equal(t, 0, got.TotalAssigned)

	got.TotalApproved = 3
	got.EstimatedEarnings = 1.2
	require.NoError(t, s.UpdateStat(ctx, got))

	got2, err := s.GetStat(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, got2.TotalApproved)
	assert.InDelta(t, 1.2, got2.EstimatedEarnings, 0.001)
}

func TestStatUniquePerUserProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateStat(ctx, models.NewUserProjectStat("u1", "p1")))

	// Second insert for the same key violates the unique index.
	err := s.CreateStat(ctx, models.NewUserProjectStat("u1", "p1"))
	assert.Error(t, err)

	// Different key is fine.
	assert.NoError(t, s.CreateStat(ctx, models.NewUserProjectStat("u1", "p2")))
}

// --- Review logs ---

func TestReviewLogLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Project{Name: "p1"}
	require.NoError(t, s.CreateProject(ctx, p))
	a := &models.Assignment{ProjectID: p.ID, AnnotatorID: "u1"}
	require.NoError(t, s.CreateAssignment(ctx, a))

	log := &models.ReviewLog{
		AssignmentID:  a.ID,
		ReviewerID:    "r1",
		Verdict:       models.VerdictRejected,
		Comment:       "loose boxes",
		ErrorCategory: "TE-02",
		ScorePenalty:  50,
	}
	require.NoError(t, s.CreateReviewLog(ctx, log))
	assert.NotEmpty(t, log.ID)

	got, err := s.GetReviewLog(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerdictRejected, got.Verdict)
	assert.False(t, got.IsAudited)

	got.IsAudited = true
	got.AuditResult = models.AuditAgree
	require.NoError(t, s.UpdateReviewLog(ctx, got))

	got2, err := s.GetReviewLog(ctx, log.ID)
	require.NoError(t, err)
	assert.True(t, got2.IsAudited)
	assert.Equal(t, models.AuditAgree, got2.AuditResult)

	logs, err := s.ListReviewLogs(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

// --- Transactions ---

func TestTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := s.Tx(ctx, func(tx Store) error {
		if err := tx.CreateProject(ctx, &models.Project{Name: "ghost"}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = s.GetProjectByName(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTx_CommitsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Store) error {
		if err := tx.CreateProject(ctx, &models.Project{Name: "kept"}); err != nil {
			return err
		}
		return tx.CreateStat(ctx, models.NewUserProjectStat("u1", "p1"))
	})
	require.NoError(t, err)

	_, err = s.GetProjectByName(ctx, "kept")
	assert.NoError(t, err)
	_, err = s.GetStat(ctx, "u1", "p1")
	assert.NoError(t, err)
}

func TestTx_NestedReusesTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx Store) error {
		return tx.Tx(ctx, func(inner Store) error {
			return inner.CreateProject(ctx, &models.Project{Name: "nested"})
		})
	})
	require.NoError(t, err)

	_, err = s.GetProjectByName(ctx, "nested")
	assert.NoError(t, err)
}
