package models

import "time"

// AssignmentStatus represents the state of an assignment.
// Transitions are monotonic: assigned -> submitted -> completed or rejected.
type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusSubmitted AssignmentStatus = "submitted"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusRejected  AssignmentStatus = "rejected"
)

// Assignment represents one unit of labeling work routed to an annotator.
type Assignment struct {
	ID          string
	ProjectID   string
	AnnotatorID string
	DataItemID  string // empty when the assignment is not tied to a data item
	Status      AssignmentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
