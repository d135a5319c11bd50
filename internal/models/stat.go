package models

import "time"

// UserProjectStat is the running quality ledger for one (user, project) pair.
// A single record carries two independent roles: the user's productivity as an
// annotator and their accuracy as a reviewer. A user who does both shares one
// row, with each field group initialized and updated independently.
type UserProjectStat struct {
	ID        string
	UserID    string
	ProjectID string

	// Annotator role.
	TotalAssigned       int
	TotalApproved       int
	TotalRejected       int
	TotalReviewedTasks  int
	AverageQualityScore float64 // 0-100, running mean of task scores
	EfficiencyScore     float64 // 0-100, approved/assigned as a percentage
	EstimatedEarnings   float64 // totalApproved * pricePerLabel
	TotalCriticalErrors int
	Date                time.Time // last update

	// Reviewer role.
	ReviewerQualityScore  float64 // 0-100, audited accuracy percentage
	TotalReviewsDone      int
	TotalAuditedReviews   int
	TotalCorrectDecisions int
}

// NewUserProjectStat returns a fresh stat record with documented defaults:
// all counters zero, all three scores start at 100.
func NewUserProjectStat(userID, projectID string) *UserProjectStat {
	return &UserProjectStat{
		UserID:               userID,
		ProjectID:            projectID,
		AverageQualityScore:  100,
		EfficiencyScore:      100,
		ReviewerQualityScore: 100,
	}
}
