package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annolab/labelqc/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quality statistics",
	Long: `Show per-user quality statistics for a project.

Each user carries one record per project with two independent score groups:
annotator metrics (quality average, efficiency, earnings) and reviewer
metrics (audited decision accuracy).`,
}

var statsShowCmd = &cobra.Command{
	Use:   "show <user-id> <project>",
	Short: "Show one user's stats in a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsShowRun(args[0], args[1])
	},
}

var statsListCmd = &cobra.Command{
	Use:     "list <project>",
	Aliases: []string{"ls"},
	Short:   "List all user stats in a project",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsListRun(args[0])
	},
}

func init() {
	statsCmd.AddCommand(statsShowCmd)
	statsCmd.AddCommand(statsListCmd)
	rootCmd.AddCommand(statsCmd)
}

func statsShowRun(userID, project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	stat, err := s.GetStat(ctx, userID, p.ID)
	if err != nil {
		return fmt.Errorf("no stats for user %s in project %s", userID, p.Name)
	}

	fmt.Fprintf(ui.Out, "%s in %s\n", output.Cyan(userID), p.Name)
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  Annotator\n")
	fmt.Fprintf(ui.Out, "    Quality score:    %s\n", output.ScoreColor(stat.AverageQualityScore))
	fmt.Fprintf(ui.Out, "    Efficiency:       %s\n", output.ScoreColor(stat.EfficiencyScore))
	fmt.Fprintf(ui.Out, "    Assigned:         %d\n", stat.TotalAssigned)
	fmt.Fprintf(ui.Out, "    Approved:         %d\n", stat.TotalApproved)
	fmt.Fprintf(ui.Out, "    Rejected:         %d\n", stat.TotalRejected)
	fmt.Fprintf(ui.Out, "    Critical errors:  %d\n", stat.TotalCriticalErrors)
	fmt.Fprintf(ui.Out, "    Earnings:         %.2f\n", stat.EstimatedEarnings)
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  Reviewer\n")
	fmt.Fprintf(ui.Out, "    Accuracy score:   %s\n", output.ScoreColor(stat.ReviewerQualityScore))
	fmt.Fprintf(ui.Out, "    Audited reviews:  %d\n", stat.TotalAuditedReviews)
	fmt.Fprintf(ui.Out, "    Correct decisions: %d\n", stat.TotalCorrectDecisions)

	return nil
}

func statsListRun(project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	stats, err := s.ListStats(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		ui.Info("No stats recorded for project %s", p.Name)
		return nil
	}

	table := ui.Table([]string{"User", "Quality", "Efficiency", "Approved", "Rejected", "Critical", "Earnings", "Reviewer Acc"})
	for _, st := range stats {
		table.Append([]string{
			output.Cyan(st.UserID),
			output.ScoreColor(st.AverageQualityScore),
			output.ScoreColor(st.EfficiencyScore),
			fmt.Sprintf("%d", st.TotalApproved),
			fmt.Sprintf("%d", st.TotalRejected),
			fmt.Sprintf("%d", st.TotalCriticalErrors),
			fmt.Sprintf("%.2f", st.EstimatedEarnings),
			output.ScoreColor(st.ReviewerQualityScore),
		})
	}
	table.Render()
	return nil
}
