package store

import (
	"context"
	"errors"

	"github.com/annolab/labelqc/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Callers match it with errors.Is rather than by message.
var ErrNotFound = errors.New("not found")

// AssignmentListFilter specifies filters for listing assignments.
type AssignmentListFilter struct {
	ProjectID   string
	AnnotatorID string
	Status      models.AssignmentStatus
}

// Store defines the persistence interface for labelqc.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectByName(ctx context.Context, name string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	// Label classes
	CreateLabelClass(ctx context.Context, lc *models.LabelClass) error
	ListLabelClasses(ctx context.Context, projectID string) ([]*models.LabelClass, error)

	// Data items
	CreateDataItem(ctx context.Context, item *models.DataItem) error
	GetDataItem(ctx context.Context, id string) (*models.DataItem, error)
	ListDataItems(ctx context.Context, projectID string) ([]*models.DataItem, error)
	UpdateDataItem(ctx context.Context, item *models.DataItem) error

	// Assignments
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	GetAssignment(ctx context.Context, id string) (*models.Assignment, error)
	ListAssignments(ctx context.Context, filter AssignmentListFilter) ([]*models.Assignment, error)
	UpdateAssignment(ctx context.Context, a *models.Assignment) error

	// Annotations
	CreateAnnotation(ctx context.Context, an *models.Annotation) error
	ListAnnotationsByAssignment(ctx context.Context, assignmentID string) ([]*models.Annotation, error)

	// Per-user per-project stats. GetStat is a direct keyed lookup; the
	// (user_id, project_id) pair is UNIQUE-indexed so at most one record
	// exists per key.
	GetStat(ctx context.Context, userID, projectID string) (*models.UserProjectStat, error)
	CreateStat(ctx context.Context, stat *models.UserProjectStat) error
	UpdateStat(ctx context.Context, stat *models.UserProjectStat) error
	ListStats(ctx context.Context, projectID string) ([]*models.UserProjectStat, error)

	// Review logs
	CreateReviewLog(ctx context.Context, log *models.ReviewLog) error
	GetReviewLog(ctx context.Context, id string) (*models.ReviewLog, error)
	ListReviewLogs(ctx context.Context, assignmentID string) ([]*models.ReviewLog, error)
	UpdateReviewLog(ctx context.Context, log *models.ReviewLog) error

	// Tx runs fn against a transaction-scoped store. If fn returns an error
	// or ctx is cancelled, every write made inside fn is rolled back.
	Tx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
