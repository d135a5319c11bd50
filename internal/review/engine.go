// Package review implements the quality-scoring engine: submitting review
// verdicts on assignments, auditing past reviews, and projecting the pending
// review queue. The engine is the only writer of user/project stats and
// review logs.
package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/severity"
	"github.com/annolab/labelqc/internal/store"
)

// ErrInvalidState is returned when an operation targets a record in the
// wrong state: reviewing an assignment that is not submitted, or auditing
// a review log twice. Callers match it with errors.Is.
var ErrInvalidState = errors.New("invalid state")

// criticalWeight is the severity weight at or above which a rejection
// counts as a critical error.
const criticalWeight = 10

// SubmitReviewRequest carries one review verdict.
type SubmitReviewRequest struct {
	AssignmentID  string `json:"assignment_id"`
	Approved      bool   `json:"approved"`
	Comment       string `json:"comment"`
	ErrorCategory string `json:"error_category,omitempty"`
}

// AuditRequest carries one manager audit of a past review.
type AuditRequest struct {
	ReviewLogID       string `json:"review_log_id"`
	IsCorrectDecision bool   `json:"is_correct_decision"`
}

// Engine orchestrates review and audit workflows against the store.
type Engine struct {
	store store.Store
	locks keyedMutex
	now   func() time.Time
}

// NewEngine creates a review engine backed by the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// keyedMutex serializes operations per (userID, projectID) key, so two
// concurrent reviews touching the same annotator's stat record cannot race
// the get-or-create. Entries are reference counted and dropped when the last
// holder releases, keeping the map bounded by in-flight operations rather
// than by every key ever touched.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func statKey(userID, projectID string) string {
	return userID + "/" + projectID
}

// getOrCreateStat returns the stat record for (userID, projectID), creating
// it with default scores on first touch. Must run under the key's lock and
// inside the enclosing transaction.
func getOrCreateStat(ctx context.Context, s store.Store, userID, projectID string) (*models.UserProjectStat, error) {
	stat, err := s.GetStat(ctx, userID, projectID)
	if err == nil {
		return stat, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	stat = models.NewUserProjectStat(userID, projectID)
	if err := s.CreateStat(ctx, stat); err != nil {
		return nil, err
	}
	return stat, nil
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SubmitReview records one review verdict for a submitted assignment: it
// transitions the assignment, scores the task, folds the score into the
// annotator's running quality average, and appends an immutable review log.
// All writes commit atomically or not at all.
func (e *Engine) SubmitReview(ctx context.Context, reviewerID string, req SubmitReviewRequest) (models.ReviewVerdict, error) {
	// Resolve the annotator key first so the per-key lock covers the whole
	// read-modify-write. State is re-read and re-validated inside the tx.
	a, err := e.store.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return "", err
	}

	unlock := e.locks.lock(statKey(a.AnnotatorID, a.ProjectID))
	defer unlock()

	var verdict models.ReviewVerdict
	err = e.store.Tx(ctx, func(tx store.Store) error {
		assignment, err := tx.GetAssignment(ctx, req.AssignmentID)
		if err != nil {
			return err
		}
		if assignment.Status != models.AssignmentStatusSubmitted {
			return fmt.Errorf("task not ready for review: %w", ErrInvalidState)
		}

		project, err := tx.GetProject(ctx, assignment.ProjectID)
		if err != nil {
			return err
		}

		stat, err := getOrCreateStat(ctx, tx, assignment.AnnotatorID, assignment.ProjectID)
		if err != nil {
			return err
		}

		var taskScore float64
		penalty := 0

		if req.Approved {
			taskScore = 100
			assignment.Status = models.AssignmentStatusCompleted
			stat.TotalApproved++
			stat.EstimatedEarnings = float64(stat.TotalApproved) * project.PricePerLabel

			if assignment.DataItemID != "" {
				item, err := tx.GetDataItem(ctx, assignment.DataItemID)
				switch {
				case err == nil:
					item.Status = models.DataItemStatusDone
					if err := tx.UpdateDataItem(ctx, item); err != nil {
						return err
					}
				case !errors.Is(err, store.ErrNotFound):
					return err
				}
			}
		} else {
			assignment.Status = models.AssignmentStatusRejected
			stat.TotalRejected++

			weight := severity.Weight(req.ErrorCategory)
			if weight >= criticalWeight {
				stat.TotalCriticalErrors++
			}
			penalty = weight * 10
			taskScore = math.Max(0, float64(100-penalty))
		}

		// Running mean over all reviewed tasks, rounded to 2 decimals.
		totalSoFar := stat.AverageQualityScore*float64(stat.TotalReviewedTasks) + taskScore
		stat.TotalReviewedTasks++
		stat.AverageQualityScore = round2(totalSoFar / float64(stat.TotalReviewedTasks))

		if stat.TotalAssigned > 0 {
			stat.EfficiencyScore = float64(stat.TotalApproved) / float64(stat.TotalAssigned) * 100
		}
		stat.Date = e.now()

		verdict = models.VerdictRejected
		var category string
		if req.Approved {
			verdict = models.VerdictApproved
		} else {
			category = req.ErrorCategory
		}

		log := &models.ReviewLog{
			AssignmentID:  assignment.ID,
			ReviewerID:    reviewerID,
			Verdict:       verdict,
			Comment:       req.Comment,
			ErrorCategory: category,
			ScorePenalty:  penalty,
			CreatedAt:     e.now(),
		}

		if err := tx.CreateReviewLog(ctx, log); err != nil {
			return err
		}
		if err := tx.UpdateStat(ctx, stat); err != nil {
			return err
		}
		return tx.UpdateAssignment(ctx, assignment)
	})
	if err != nil {
		return "", err
	}
	return verdict, nil
}

// AuditReview records a manager's agreement or disagreement with a past
// review decision and folds it into the reviewer's accuracy score. A log
// may be audited at most once.
func (e *Engine) AuditReview(ctx context.Context, managerID string, req AuditRequest) (models.AuditResult, error) {
	log, err := e.store.GetReviewLog(ctx, req.ReviewLogID)
	if err != nil {
		return "", err
	}
	// The assignment is resolved only to recover the project id keying the
	// reviewer's stats.
	a, err := e.store.GetAssignment(ctx, log.AssignmentID)
	if err != nil {
		return "", err
	}

	unlock := e.locks.lock(statKey(log.ReviewerID, a.ProjectID))
	defer unlock()

	var result models.AuditResult
	err = e.store.Tx(ctx, func(tx store.Store) error {
		log, err := tx.GetReviewLog(ctx, req.ReviewLogID)
		if err != nil {
			return err
		}
		if log.IsAudited {
			return fmt.Errorf("review already audited: %w", ErrInvalidState)
		}

		stat, err := getOrCreateStat(ctx, tx, log.ReviewerID, a.ProjectID)
		if err != nil {
			return err
		}

		log.IsAudited = true
		result = models.AuditDisagree
		if req.IsCorrectDecision {
			result = models.AuditAgree
		}
		log.AuditResult = result

		stat.TotalAuditedReviews++
		if req.IsCorrectDecision {
			stat.TotalCorrectDecisions++
		}
		accuracy := float64(stat.TotalCorrectDecisions) / float64(stat.TotalAuditedReviews)
		stat.ReviewerQualityScore = round2(accuracy * 100)
		stat.Date = e.now()

		if err := tx.UpdateReviewLog(ctx, log); err != nil {
			return err
		}
		return tx.UpdateStat(ctx, stat)
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// CreateAssignment persists new work routed to an annotator and bumps their
// assigned-task counter in the same transaction. Creation goes through the
// engine so the engine stays the sole writer of stat records and the
// efficiency denominator can never drift from the assignments that exist.
func (e *Engine) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	unlock := e.locks.lock(statKey(a.AnnotatorID, a.ProjectID))
	defer unlock()

	return e.store.Tx(ctx, func(tx store.Store) error {
		if err := tx.CreateAssignment(ctx, a); err != nil {
			return err
		}
		stat, err := getOrCreateStat(ctx, tx, a.AnnotatorID, a.ProjectID)
		if err != nil {
			return err
		}
		stat.TotalAssigned++
		stat.Date = e.now()
		return tx.UpdateStat(ctx, stat)
	})
}
