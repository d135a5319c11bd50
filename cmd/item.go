package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/annolab/labelqc/internal/models"
	"github.com/annolab/labelqc/internal/output"
)

var itemMetadata string

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage a project's data items",
}

var itemAddCmd = &cobra.Command{
	Use:   "add <project> <storage-url>",
	Short: "Add a data item to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return itemAddRun(args[0], args[1])
	},
}

var itemListCmd = &cobra.Command{
	Use:     "list <project>",
	Aliases: []string{"ls"},
	Short:   "List a project's data items",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return itemListRun(args[0])
	},
}

func init() {
	itemAddCmd.Flags().StringVar(&itemMetadata, "metadata", "", "Free-form metadata JSON")

	itemCmd.AddCommand(itemAddCmd)
	itemCmd.AddCommand(itemListCmd)
	rootCmd.AddCommand(itemCmd)
}

func itemAddRun(project, storageURL string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	item := &models.DataItem{
		ProjectID:  p.ID,
		StorageURL: storageURL,
		Metadata:   itemMetadata,
		Status:     models.DataItemStatusPending,
	}
	if err := s.CreateDataItem(ctx, item); err != nil {
		return fmt.Errorf("add item: %w", err)
	}

	ui.Success("Added item to %s", output.Cyan(p.Name))
	ui.VerboseLog("ID: %s", item.ID)
	return nil
}

func itemListRun(project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	items, err := s.ListDataItems(ctx, p.ID)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		ui.Info("No data items in project %s", p.Name)
		return nil
	}

	table := ui.Table([]string{"ID", "Storage URL", "Status"})
	for _, item := range items {
		table.Append([]string{
			item.ID,
			item.StorageURL,
			output.StatusColor(string(item.Status)),
		})
	}
	table.Render()
	return nil
}
