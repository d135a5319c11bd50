package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/output"
	"github.com/annolab/labelqc/internal/review"
	"github.com/annolab/labelqc/internal/severity"
)

var (
	reviewReviewer string
	reviewComment  string
	reviewCategory string

	auditManager string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review submitted work and audit past reviews",
	Long: `Review submitted assignments and audit review decisions.

Approving an assignment completes it and credits the annotator's earnings.
Rejecting it applies a score penalty based on the error category's severity
and returns the work to the annotator. Audits record whether a reviewer's
decision was correct and feed the reviewer's accuracy score.`,
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <assignment-id>",
	Short: "Approve a submitted assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewSubmitRun(args[0], true)
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <assignment-id>",
	Short: "Reject a submitted assignment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewSubmitRun(args[0], false)
	},
}

var reviewPendingCmd = &cobra.Command{
	Use:   "pending <project>",
	Short: "List assignments waiting for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewPendingRun(args[0])
	},
}

var reviewAuditCmd = &cobra.Command{
	Use:   "audit <review-log-id> <correct|incorrect>",
	Short: "Audit a past review decision",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[1] {
		case "correct", "incorrect":
		default:
			return fmt.Errorf("verdict must be 'correct' or 'incorrect', got %q", args[1])
		}
		return reviewAuditRun(args[0], args[1] == "correct")
	},
}

var reviewCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List error categories and their severity weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewCategoriesRun()
	},
}

func init() {
	reviewApproveCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "Reviewer user id (required)")
	reviewApproveCmd.Flags().StringVar(&reviewComment, "comment", "", "Review comment")
	_ = reviewApproveCmd.MarkFlagRequired("reviewer")

	reviewRejectCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "Reviewer user id (required)")
	reviewRejectCmd.Flags().StringVar(&reviewComment, "comment", "", "Review comment")
	reviewRejectCmd.Flags().StringVar(&reviewCategory, "category", "", "Error category code, e.g. TE-02")
	_ = reviewRejectCmd.MarkFlagRequired("reviewer")

	reviewAuditCmd.Flags().StringVar(&auditManager, "manager", "", "Auditing manager user id (required)")
	_ = reviewAuditCmd.MarkFlagRequired("manager")

	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	reviewCmd.AddCommand(reviewPendingCmd)
	reviewCmd.AddCommand(reviewAuditCmd)
	reviewCmd.AddCommand(reviewCategoriesCmd)
	rootCmd.AddCommand(reviewCmd)
}

func reviewSubmitRun(assignmentID string, approved bool) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}

	if !approved && reviewCategory != "" && !severity.Valid(reviewCategory) {
		ui.Warning("Unrecognized error category %q, no penalty will apply", reviewCategory)
	}

	verdict, err := eng.SubmitReview(context.Background(), reviewReviewer, review.SubmitReviewRequest{
		AssignmentID:  assignmentID,
		Approved:      approved,
		Comment:       reviewComment,
		ErrorCategory: reviewCategory,
	})
	if err != nil {
		return err
	}

	if verdict == models.VerdictApproved {
		ui.Success("Approved assignment %s", assignmentID)
	} else {
		ui.Success("Rejected assignment %s", assignmentID)
		if reviewCategory != "" {
			ui.VerboseLog("Category: %s (weight %d)", reviewCategory, severity.Weight(reviewCategory))
		}
	}
	return nil
}

func reviewPendingRun(project string) error {
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

	views, err := eng.TasksForReview(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(views) == 0 {
		ui.Info("No assignments waiting for review in %s", p.Name)
		return nil
	}

	table := ui.Table([]string{"Assignment", "Annotator", "Item", "Annotations"})
	for _, v := range views {
		table.Append([]string{
			v.AssignmentID,
			v.AnnotatorID,
			v.StorageURL,
			fmt.Sprintf("%d", len(v.Annotations)),
		})
	}
	table.Render()
	return nil
}

func reviewAuditRun(logID string, correct bool) error {
	eng, err := getEngine()
	if err != nil {
		return err
	}

	result, err := eng.AuditReview(context.Background(), auditManager, review.AuditRequest{
		ReviewLogID:       logID,
		IsCorrectDecision: correct,
	})
	if err != nil {
		return err
	}

	ui.Success("Audit recorded: %s", string(result))
	return nil
}

func reviewCategoriesRun() error {
	table := ui.Table([]string{"Code", "Description", "Weight"})
	for _, c := range severity.All() {
		weight := severity.Weight(c.Code)
		weightStr := fmt.Sprintf("%d", weight)
		if weight >= 10 {
			weightStr = output.Red(weightStr)
		}
		table.Append([]string{output.Cyan(c.Code), c.Description, weightStr})
	}
	table.Render()
	return nil
}
