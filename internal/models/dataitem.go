package models

import "time"

// DataItemStatus represents the labeling state of a data item.
type DataItemStatus string

const (
	DataItemStatusPending DataItemStatus = "pending"
	DataItemStatusDone    DataItemStatus = "done"
)

// DataItem is the underlying artifact being labeled (an image, a clip, etc).
type DataItem struct {
	ID         string
	ProjectID  string
	StorageURL string
	Metadata   string
	Status     DataItemStatus
	CreatedAt  time.Time
}

// Annotation is one recorded labeling result for an assignment.
// The payload lives in DataJSON; Value is a legacy field older clients
// still write to, kept as a fallback when DataJSON is empty.
type Annotation struct {
	ID           string
	AssignmentID string
	DataItemID   string
	LabelClassID string
	DataJSON     string
	Value        string
	CreatedAt    time.Time
}
