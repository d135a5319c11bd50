package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/output"
	"github.com/annolab/labelqc/internal/store"
)

var (
	projectDescription string
	projectPrice       float64
	projectDeadline    string

	labelColor     string
	labelGuideline string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage labeling projects",
	Long:  "Add, list, show, and delete labeling projects and their label catalogs.",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a labeling project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectAddRun(args[0])
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List labeling projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <name-or-id>",
	Short: "Show detailed project information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(args[0])
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete <name-or-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a project and all its data",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectDeleteRun(args[0])
	},
}

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage a project's label catalog",
}

var labelAddCmd = &cobra.Command{
	Use:   "add <project> <name>",
	Short: "Add a label class to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return labelAddRun(args[0], args[1])
	},
}

var labelListCmd = &cobra.Command{
	Use:     "list <project>",
	Aliases: []string{"ls"},
	Short:   "List a project's label classes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return labelListRun(args[0])
	},
}

func init() {
	projectAddCmd.Flags().StringVar(&projectDescription, "description", "", "Project description")
	projectAddCmd.Flags().Float64Var(&projectPrice, "price", 0, "Price paid per approved label")
	projectAddCmd.Flags().StringVar(&projectDeadline, "deadline", "", "Project deadline (YYYY-MM-DD)")

	labelAddCmd.Flags().StringVar(&labelColor, "color", "", "Display color, e.g. #ff0000")
	labelAddCmd.Flags().StringVar(&labelGuideline, "guideline", "", "Annotation guideline text")

	labelCmd.AddCommand(labelAddCmd)
	labelCmd.AddCommand(labelListCmd)

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(projectCmd)
}

func projectAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p := &models.Project{
		Name:          name,
		Description:   projectDescription,
		PricePerLabel: projectPrice,
	}

	if projectDeadline != "" {
		deadline, err := time.Parse("2006-01-02", projectDeadline)
		if err != nil {
			return fmt.Errorf("invalid deadline %q: use YYYY-MM-DD", projectDeadline)
		}
		p.Deadline = deadline
	}

	if err := s.CreateProject(context.Background(), p); err != nil {
		return fmt.Errorf("add project: %w", err)
	}

	ui.Success("Added project: %s", output.Cyan(name))
	ui.VerboseLog("ID: %s", p.ID)
	if p.PricePerLabel > 0 {
		ui.VerboseLog("Price per label: %.4f", p.PricePerLabel)
	}
	return nil
}

func projectListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		ui.Info("No projects. Use 'labelqc project add <name>' to get started.")
		return nil
	}

	table := ui.Table([]string{"Name", "Price/Label", "Deadline", "Pending Review"})
	for _, p := range projects {
		pending, _ := s.ListAssignments(ctx, store.AssignmentListFilter{
			ProjectID: p.ID,
			Status:    models.AssignmentStatusSubmitted,
		})

		deadline := "-"
		if !p.Deadline.IsZero() {
			deadline = p.Deadline.Format("2006-01-02")
		}

		table.Append([]string{
			output.Cyan(p.Name),
			fmt.Sprintf("%.4f", p.PricePerLabel),
			deadline,
			fmt.Sprintf("%d", len(pending)),
		})
	}
	table.Render()
	return nil
}

func projectShowRun(nameOrID string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, nameOrID)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(p.Name))
	fmt.Fprintf(ui.Out, "  ID:          %s\n", p.ID)
	if p.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:        %s\n", p.Description)
	}
	fmt.Fprintf(ui.Out, "  Price/Label: %.4f\n", p.PricePerLabel)
	if !p.Deadline.IsZero() {
		fmt.Fprintf(ui.Out, "  Deadline:    %s\n", p.Deadline.Format("2006-01-02"))
	}

	if labels, err := s.ListLabelClasses(ctx, p.ID); err == nil && len(labels) > 0 {
		fmt.Fprintf(ui.Out, "  Labels:      %d\n", len(labels))
	}
	if items, err := s.ListDataItems(ctx, p.ID); err == nil && len(items) > 0 {
		done := 0
		for _, item := range items {
			if item.Status == models.DataItemStatusDone {
				done++
			}
		}
		fmt.Fprintf(ui.Out, "  Items:       %d (%d done)\n", len(items), done)
	}

	// Assignment counts by status
	assignments, err := s.ListAssignments(ctx, store.AssignmentListFilter{ProjectID: p.ID})
	if err == nil && len(assignments) > 0 {
		counts := map[models.AssignmentStatus]int{}
		for _, a := range assignments {
			counts[a.Status]++
		}
		fmt.Fprintf(ui.Out, "  Assignments: %d assigned, %d submitted, %d completed, %d rejected\n",
			counts[models.AssignmentStatusAssigned],
			counts[models.AssignmentStatusSubmitted],
			counts[models.AssignmentStatusCompleted],
			counts[models.AssignmentStatusRejected])
	}

	return nil
}

func projectDeleteRun(nameOrID string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, nameOrID)
	if err != nil {
		return err
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	ui.Success("Deleted project: %s", output.Cyan(p.Name))
	return nil
}

func labelAddRun(project, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	lc := &models.LabelClass{
		ProjectID: p.ID,
		Name:      name,
		Color:     labelColor,
		Guideline: labelGuideline,
	}
	if err := s.CreateLabelClass(ctx, lc); err != nil {
		return fmt.Errorf("add label: %w", err)
	}

	ui.Success("Added label %s to %s", output.Cyan(name), p.Name)
	return nil
}

func labelListRun(project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	labels, err := s.ListLabelClasses(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(labels) == 0 {
		ui.Info("No labels in project %s", p.Name)
		return nil
	}

	table := ui.Table([]string{"Name", "Color", "Guideline"})
	for _, lc := range labels {
		table.Append([]string{output.Cyan(lc.Name), lc.Color, lc.Guideline})
	}
	table.Render()
	return nil
}

// resolveProject finds a project by name or id.
func resolveProject(ctx context.Context, s store.Store, nameOrID string) (*models.Project, error) {
	if p, err := s.GetProjectByName(ctx, nameOrID); err == nil {
		return p, nil
	}
	if p, err := s.GetProject(ctx, nameOrID); err == nil {
		return p, nil
	}
	return nil, fmt.Errorf("project not found: %s", nameOrID)
}
