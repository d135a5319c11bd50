package models

import "time"

// ReviewVerdict is the binary outcome of a review.
type ReviewVerdict string

const (
	VerdictApproved ReviewVerdict = "Approved"
	VerdictRejected ReviewVerdict = "Rejected"
)

// AuditResult records whether a manager agreed with a past review decision.
type AuditResult string

const (
	AuditAgree    AuditResult = "Agree"
	AuditDisagree AuditResult = "Disagree"
)

// ReviewLog is the immutable record of one review decision. The audit fields
// are the only mutable part and are set exactly once, by the audit workflow.
type ReviewLog struct {
	ID            string
	AssignmentID  string
	ReviewerID    string
	Verdict       ReviewVerdict
	Comment       string
	ErrorCategory string // empty when the verdict is Approved
	ScorePenalty  int
	IsAudited     bool
	AuditResult   AuditResult // set only when IsAudited
	CreatedAt     time.Time
}
