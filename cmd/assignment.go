package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/output"
	"github.com/annolab/labelqc/internal/store"
)

var (
	assignItemID        string
	assignListAnnotator string
	assignListStatus    string
)

var assignmentCmd = &cobra.Command{
	Use:     "assignment",
	Aliases: []string{"assign"},
	Short:   "Manage labeling assignments",
	Long: `Route labeling work to annotators and move it through its lifecycle.

An assignment starts as 'assigned', becomes 'submitted' when the annotator
finishes, and ends 'completed' or 'rejected' after review.`,
}

var assignmentAddCmd = &cobra.Command{
	Use:   "add <project> <annotator-id>",
	Short: "Assign labeling work to an annotator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignmentAddRun(args[0], args[1])
	},
}

var assignmentSubmitCmd = &cobra.Command{
	Use:   "submit <assignment-id>",
	Short: "Mark an assignment as submitted for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignmentSubmitRun(args[0])
	},
}

var assignmentListCmd = &cobra.Command{
	Use:     "list <project>",
	Aliases: []string{"ls"},
	Short:   "List a project's assignments",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return assignmentListRun(args[0])
	},
}

func init() {
	assignmentAddCmd.Flags().StringVar(&assignItemID, "item", "", "Data item id to label")

	assignmentListCmd.Flags().StringVar(&assignListAnnotator, "annotator", "", "Filter by annotator id")
	assignmentListCmd.Flags().StringVar(&assignListStatus, "status", "", "Filter by status (assigned, submitted, completed, rejected)")

	assignmentCmd.AddCommand(assignmentAddCmd)
	assignmentCmd.AddCommand(assignmentSubmitCmd)
	assignmentCmd.AddCommand(assignmentListCmd)
	rootCmd.AddCommand(assignmentCmd)
}

func assignmentAddRun(project, annotatorID string) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}
	s, _ := getStore()
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	a := &models.Assignment{
		ProjectID:   p.ID,
		AnnotatorID: annotatorID,
		DataItemID:  assignItemID,
	}
	if err := eng.CreateAssignment(ctx, a); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}

	ui.Success("Assigned work in %s to %s", output.Cyan(p.Name), annotatorID)
	ui.VerboseLog("Assignment ID: %s", a.ID)
	return nil
}

func assignmentSubmitRun(assignmentID string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	a, err := s.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.Status != models.AssignmentStatusAssigned {
		return fmt.Errorf("assignment %s is %s, expected assigned", a.ID, a.Status)
	}

	a.Status = models.AssignmentStatusSubmitted
	if err := s.UpdateAssignment(ctx, a); err != nil {
		return fmt.Errorf("submit assignment: %w", err)
	}

	ui.Success("Assignment %s submitted for review", a.ID)
	return nil
}

func assignmentListRun(project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	assignments, err := s.ListAssignments(ctx, store.AssignmentListFilter{
		ProjectID:   p.ID,
		AnnotatorID: assignListAnnotator,
		Status:      models.AssignmentStatus(assignListStatus),
	})
	if err != nil {
		return err
	}

	if len(assignments) == 0 {
		ui.Info("No assignments in project %s", p.Name)
		return nil
	}

	table := ui.Table([]string{"ID", "Annotator", "Status"})
	for _, a := range assignments {
		table.Append([]string{
			a.ID,
			a.AnnotatorID,
			output.StatusColor(string(a.Status)),
		})
	}
	table.Render()
	return nil
}
