package review

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/store"
)

// LabelView is one label-catalog entry in a task view.
type LabelView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Guideline string `json:"guideline"`
}

// TaskView is one pending assignment projected with its review context.
// Missing related data maps to explicit defaults: empty storage URL and
// project name, zero-time deadline, empty label list.
type TaskView struct {
	AssignmentID string                  `json:"assignment_id"`
	AnnotatorID  string                  `json:"annotator_id"`
	DataItemID   string                  `json:"data_item_id"`
	StorageURL   string                  `json:"storage_url"`
	ProjectName  string                  `json:"project_name"`
	Status       models.AssignmentStatus `json:"status"`
	Deadline     time.Time               `json:"deadline"`
	Labels       []LabelView             `json:"labels"`
	Annotations  []json.RawMessage       `json:"existing_annotations"`
}

// TasksForReview projects every submitted assignment in the project into a
// review-ready view. Read-only; mutates nothing.
func (e *Engine) TasksForReview(ctx context.Context, projectID string) ([]TaskView, error) {
	assignments, err := e.store.ListAssignments(ctx, store.AssignmentListFilter{
		ProjectID: projectID,
		Status:    models.AssignmentStatusSubmitted,
	})
	if err != nil {
		return nil, err
	}

	// Project and label catalog are shared across the whole queue. A missing
	// project is not an error here: views fall back to empty defaults.
	var projectName string
	var deadline time.Time
	labels := []LabelView{}

	project, err := e.store.GetProject(ctx, projectID)
	switch {
	case err == nil:
		projectName = project.Name
		deadline = project.Deadline
		classes, err := e.store.ListLabelClasses(ctx, projectID)
		if err != nil {
			return nil, err
		}
		for _, lc := range classes {
			labels = append(labels, LabelView{ID: lc.ID, Name: lc.Name, Color: lc.Color, Guideline: lc.Guideline})
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	views := make([]TaskView, 0, len(assignments))
	for _, a := range assignments {
		view := TaskView{
			AssignmentID: a.ID,
			AnnotatorID:  a.AnnotatorID,
			DataItemID:   a.DataItemID,
			ProjectName:  projectName,
			Status:       a.Status,
			Deadline:     deadline,
			Labels:       labels,
			Annotations:  []json.RawMessage{},
		}

		if a.DataItemID != "" {
			item, err := e.store.GetDataItem(ctx, a.DataItemID)
			switch {
			case err == nil:
				view.StorageURL = item.StorageURL
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
		}

		annotations, err := e.store.ListAnnotationsByAssignment(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		for _, an := range annotations {
			if payload, ok := decodeAnnotation(an.DataJSON, an.Value); ok {
				view.Annotations = append(view.Annotations, payload)
			}
		}

		views = append(views, view)
	}
	return views, nil
}

// decodeAnnotation extracts the structured payload from an annotation's
// legacy dual fields: dataJSON is primary, value is the fallback. Entries
// where both fields are empty, or where the chosen field is not valid JSON,
// are dropped rather than surfaced.
func decodeAnnotation(dataJSON, value string) (json.RawMessage, bool) {
	payload := strings.TrimSpace(dataJSON)
	if payload == "" {
		payload = strings.TrimSpace(value)
	}
	if payload == "" || !json.Valid([]byte(payload)) {
		return nil, false
	}
	return json.RawMessage(payload), true
}
