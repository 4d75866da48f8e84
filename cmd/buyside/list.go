package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/buyside/internal/campaign"
	"github.com/jonathan/buyside/internal/observability"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns, newest first",
	RunE:  runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard statistics",
	RunE:  runStats,
}

var (
	listQuery string
	listJSON  bool
	statsJSON bool
)

func init() {
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Case-insensitive filter on name or keyword")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print as JSON")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, appConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close(ctx)

	all, err := a.campaigns.List(ctx)
	if err != nil {
		return err
	}
	filtered := campaign.Filter(all, listQuery)

	if listJSON {
		return writeJSON(cmd, filtered)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintCampaignList(filtered)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, appConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close(ctx)

	all, err := a.campaigns.List(ctx)
	if err != nil {
		return err
	}
	stats := campaign.Summarize(all)

	if statsJSON {
		return writeJSON(cmd, stats)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintStats(stats)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
