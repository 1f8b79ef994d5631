package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/mcp"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load every screen once and print collection counts as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(true)
		if err != nil {
			return err
		}
		defer a.Close()

		id, _ := cmd.Flags().GetString("workspace")
		ctx := cmd.Context()
		if reset, _ := cmd.Flags().GetBool("reset"); reset {
			if err := a.workspaces.Reset(ctx, id); err != nil {
				return err
			}
			a.logger.Info("workspace cache cleared", "workspace", id)
		}
		stats := a.service.SyncAll(ctx, a.workspace(ctx, id))
		for _, w := range stats.Warnings {
			a.logger.Warn("sync warning", "resource", w.Resource, "kind", w.Kind, "message", w.Message)
		}
		return printJSON(stats)
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Print recent operation outcomes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(true)
		if err != nil {
			return err
		}
		defer a.Close()

		id, _ := cmd.Flags().GetString("workspace")
		opts := activity.ListOptions{}
		opts.Resource, _ = cmd.Flags().GetString("resource")
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		if outcome, _ := cmd.Flags().GetString("outcome"); outcome != "" {
			o := activity.Outcome(outcome)
			opts.Outcome = &o
		}

		entries, err := a.activity.Recent(cmd.Context(), id, opts)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

func init() {
	syncCmd.Flags().String("workspace", mcp.DefaultTenant, "Workspace whose cache is refreshed")
	syncCmd.Flags().Bool("reset", false, "Discard the saved cache, including local-only changes, before refreshing")

	activityCmd.Flags().String("workspace", mcp.DefaultTenant, "Workspace to list")
	activityCmd.Flags().String("resource", "", "Only this resource")
	activityCmd.Flags().String("outcome", "", "Only this outcome (synced, saved_locally, failed, warning)")
	activityCmd.Flags().IntP("limit", "n", activity.DefaultLimit, "Maximum entries")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
