package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/annolab/labelqc/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting every store method run either directly or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
	q  querier
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullTime maps the zero time to NULL so sentinel "unset" deadlines
// round-trip cleanly.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.q.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.q.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.q.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Tx runs fn against a transaction-scoped copy of the store. A nested call
// reuses the outer transaction.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&SQLiteStore{db: s.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, price_per_label, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.PricePerLabel, nullTime(p.Deadline), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanProject(row *sql.Row) (*models.Project, error) {
	p := &models.Project{}
	var deadline sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PricePerLabel, &deadline, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		p.Deadline = deadline.Time
	}
	return p, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, name, description, price_per_label, deadline, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	p, err := s.scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, name, description, price_per_label, deadline, created_at, updated_at
		FROM projects WHERE name = ?`, name)
	p, err := s.scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project by name: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, description, price_per_label, deadline, created_at, updated_at
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p := &models.Project{}
		var deadline sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PricePerLabel, &deadline, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if deadline.Valid {
			p.Deadline = deadline.Time
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, price_per_label = ?, deadline = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.PricePerLabel, nullTime(p.Deadline), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Label classes ---

func (s *SQLiteStore) CreateLabelClass(ctx context.Context, lc *models.LabelClass) error {
	if lc.ID == "" {
		lc.ID = newULID()
	}
	lc.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO label_classes (id, project_id, name, color, guideline, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		lc.ID, lc.ProjectID, lc.Name, lc.Color, lc.Guideline, lc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create label class: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListLabelClasses(ctx context.Context, projectID string) ([]*models.LabelClass, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, project_id, name, color, guideline, created_at
		FROM label_classes WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list label classes: %w", err)
	}
	defer rows.Close()

	var labels []*models.LabelClass
	for rows.Next() {
		lc := &models.LabelClass{}
		if err := rows.Scan(&lc.ID, &lc.ProjectID, &lc.Name, &lc.Color, &lc.Guideline, &lc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan label class: %w", err)
		}
		labels = append(labels, lc)
	}
	return labels, rows.Err()
}

// --- Data items ---

func (s *SQLiteStore) CreateDataItem(ctx context.Context, item *models.DataItem) error {
	if item.ID == "" {
		item.ID = newULID()
	}
	if item.Status == "" {
		item.Status = models.DataItemStatusPending
	}
	item.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO data_items (id, project_id, storage_url, metadata, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.ProjectID, item.StorageURL, item.Metadata, item.Status, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create data item: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDataItem(ctx context.Context, id string) (*models.DataItem, error) {
	item := &models.DataItem{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, project_id, storage_url, metadata, status, created_at
		FROM data_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.ProjectID, &item.StorageURL, &item.Metadata, &item.Status, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("data item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get data item: %w", err)
	}
	return item, nil
}

func (s *SQLiteStore) ListDataItems(ctx context.Context, projectID string) ([]*models.DataItem, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, project_id, storage_url, metadata, status, created_at
		FROM data_items WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list data items: %w", err)
	}
	defer rows.Close()

	var items []*models.DataItem
	for rows.Next() {
		item := &models.DataItem{}
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.StorageURL, &item.Metadata, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan data item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) UpdateDataItem(ctx context.Context, item *models.DataItem) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE data_items SET storage_url = ?, metadata = ?, status = ? WHERE id = ?`,
		item.StorageURL, item.Metadata, item.Status, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update data item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("data item %s: %w", item.ID, ErrNotFound)
	}
	return nil
}

// --- Assignments ---

func (s *SQLiteStore) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	if a.ID == "" {
		a.ID = newULID()
	}
	if a.Status == "" {
		a.Status = models.AssignmentStatusAssigned
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO assignments (id, project_id, annotator_id, data_item_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.AnnotatorID, a.DataItemID, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	a := &models.Assignment{}
	err := s.q.QueryRowContext(ctx,
		`SELECT id, project_id, annotator_id, data_item_id, status, created_at, updated_at
		FROM assignments WHERE id = ?`, id,
	).Scan(&a.ID, &a.ProjectID, &a.AnnotatorID, &a.DataItemID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, filter AssignmentListFilter) ([]*models.Assignment, error) {
	query := `SELECT id, project_id, annotator_id, data_item_id, status, created_at, updated_at
		FROM assignments WHERE 1=1`
	var args []any

	if filter.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, filter.ProjectID)
	}
	if filter.AnnotatorID != "" {
		query += " AND annotator_id = ?"
		args = append(args, filter.AnnotatorID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		a := &models.Assignment{}
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.AnnotatorID, &a.DataItemID, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *SQLiteStore) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`UPDATE assignments SET annotator_id = ?, data_item_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		a.AnnotatorID, a.DataItemID, a.Status, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("assignment %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// --- Annotations ---

func (s *SQLiteStore) CreateAnnotation(ctx context.Context, an *models.Annotation) error {
	if an.ID == "" {
		an.ID = newULID()
	}
	an.CreatedAt = time.Now().UTC()

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO annotations (id, assignment_id, data_item_id, label_class_id, data_json, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		an.ID, an.AssignmentID, an.DataItemID, an.LabelClassID, an.DataJSON, an.Value, an.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create annotation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAnnotationsByAssignment(ctx context.Context, assignmentID string) ([]*models.Annotation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, assignment_id, data_item_id, label_class_id, data_json, value, created_at
		FROM annotations WHERE assignment_id = ? ORDER BY created_at`, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	var annotations []*models.Annotation
	for rows.Next() {
		an := &models.Annotation{}
		if err := rows.Scan(&an.ID, &an.AssignmentID, &an.DataItemID, &an.LabelClassID, &an.DataJSON, &an.Value, &an.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		annotations = append(annotations, an)
	}
	return annotations, rows.Err()
}

// --- Stats ---

const statColumns = `id, user_id, project_id, total_assigned, total_approved, total_rejected,
	total_reviewed_tasks, average_quality_score, efficiency_score, estimated_earnings,
	total_critical_errors, reviewer_quality_score, total_reviews_done,
	total_audited_reviews, total_correct_decisions, date`

func scanStat(scan func(...any) error) (*models.UserProjectStat, error) {
	stat := &models.UserProjectStat{}
	err := scan(
		&stat.ID, &stat.UserID, &stat.ProjectID, &stat.TotalAssigned, &stat.TotalApproved,
		&stat.TotalRejected, &stat.TotalReviewedTasks, &stat.AverageQualityScore,
		&stat.EfficiencyScore, &stat.EstimatedEarnings, &stat.TotalCriticalErrors,
		&stat.ReviewerQualityScore, &stat.TotalReviewsDone, &stat.TotalAuditedReviews,
		&stat.TotalCorrectDecisions, &stat.Date,
	)
	if err != nil {
		return nil, err
	}
	return stat, nil
}

func (s *SQLiteStore) GetStat(ctx context.Context, userID, projectID string) (*models.UserProjectStat, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+statColumns+` FROM user_project_stats WHERE user_id = ? AND project_id = ?`,
		userID, projectID)
	stat, err := scanStat(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stat for user %s project %s: %w", userID, projectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get stat: %w", err)
	}
	return stat, nil
}

func (s *SQLiteStore) CreateStat(ctx context.Context, stat *models.UserProjectStat) error {
	if stat.ID == "" {
		stat.ID = newULID()
	}
	if stat.Date.IsZero() {
		stat.Date = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO user_project_stats (`+statColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stat.ID, stat.UserID, stat.ProjectID, stat.TotalAssigned, stat.TotalApproved,
		stat.TotalRejected, stat.TotalReviewedTasks, stat.AverageQualityScore,
		stat.EfficiencyScore, stat.EstimatedEarnings, stat.TotalCriticalErrors,
		stat.ReviewerQualityScore, stat.TotalReviewsDone, stat.TotalAuditedReviews,
		stat.TotalCorrectDecisions, stat.Date,
	)
	if err != nil {
		return fmt.Errorf("create stat: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateStat(ctx context.Context, stat *models.UserProjectStat) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE user_project_stats SET
			total_assigned = ?, total_approved = ?, total_rejected = ?,
			total_reviewed_tasks = ?, average_quality_score = ?, efficiency_score = ?,
			estimated_earnings = ?, total_critical_errors = ?, reviewer_quality_score = ?,
			total_reviews_done = ?, total_audited_reviews = ?, total_correct_decisions = ?,
			date = ?
		WHERE id = ?`,
		stat.TotalAssigned, stat.TotalApproved, stat.TotalRejected,
		stat.TotalReviewedTasks, stat.AverageQualityScore, stat.EfficiencyScore,
		stat.EstimatedEarnings, stat.TotalCriticalErrors, stat.ReviewerQualityScore,
		stat.TotalReviewsDone, stat.TotalAuditedReviews, stat.TotalCorrectDecisions,
		stat.Date, stat.ID,
	)
	if err != nil {
		return fmt.Errorf("update stat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("stat %s: %w", stat.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListStats(ctx context.Context, projectID string) ([]*models.UserProjectStat, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+statColumns+` FROM user_project_stats WHERE project_id = ? ORDER BY user_id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	var stats []*models.UserProjectStat
	for rows.Next() {
		stat, err := scanStat(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// --- Review logs ---

func (s *SQLiteStore) CreateReviewLog(ctx context.Context, log *models.ReviewLog) error {
	if log.ID == "" {
		log.ID = newULID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO review_logs (id, assignment_id, reviewer_id, verdict, comment, error_category, score_penalty, is_audited, audit_result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.AssignmentID, log.ReviewerID, log.Verdict, log.Comment,
		log.ErrorCategory, log.ScorePenalty, boolToInt(log.IsAudited), log.AuditResult, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create review log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReviewLog(ctx context.Context, id string) (*models.ReviewLog, error) {
	log := &models.ReviewLog{}
	var audited int
	err := s.q.QueryRowContext(ctx,
		`SELECT id, assignment_id, reviewer_id, verdict, comment, error_category, score_penalty, is_audited, audit_result, created_at
		FROM review_logs WHERE id = ?`, id,
	).Scan(&log.ID, &log.AssignmentID, &log.ReviewerID, &log.Verdict, &log.Comment,
		&log.ErrorCategory, &log.ScorePenalty, &audited, &log.AuditResult, &log.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review log %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review log: %w", err)
	}
	log.IsAudited = audited != 0
	return log, nil
}

func (s *SQLiteStore) ListReviewLogs(ctx context.Context, assignmentID string) ([]*models.ReviewLog, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, assignment_id, reviewer_id, verdict, comment, error_category, score_penalty, is_audited, audit_result, created_at
		FROM review_logs WHERE assignment_id = ? ORDER BY created_at`, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ReviewLog
	for rows.Next() {
		log := &models.ReviewLog{}
		var audited int
		if err := rows.Scan(&log.ID, &log.AssignmentID, &log.ReviewerID, &log.Verdict, &log.Comment,
			&log.ErrorCategory, &log.ScorePenalty, &audited, &log.AuditResult, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review log: %w", err)
		}
		log.IsAudited = audited != 0
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) UpdateReviewLog(ctx context.Context, log *models.ReviewLog) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE review_logs SET is_audited = ?, audit_result = ? WHERE id = ?`,
		boolToInt(log.IsAudited), log.AuditResult, log.ID,
	)
	if err != nil {
		return fmt.Errorf("update review log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("review log %s: %w", log.ID, ErrNotFound)
	}
	return nil
}
