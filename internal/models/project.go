package models

import "time"

// Project represents a labeling project that owns data items and a label catalog.
type Project struct {
	ID            string
	Name          string
	Description   string
	PricePerLabel float64 // payout per approved assignment
	Deadline      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LabelClass is one entry in a project's label catalog.
type LabelClass struct {
	ID        string
	ProjectID string
	Name      string
	Color     string
	Guideline string
	CreatedAt time.Time
}
