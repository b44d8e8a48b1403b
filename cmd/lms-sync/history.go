// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lms-sync/internal/history"
	"github.com/pdiddy/lms-sync/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past sync runs (runs, items, export, prune)",
	Long: `History reads the SQLite database that sync writes after every run.
Use subcommands to list runs, query item results, export a run, or prune
old runs.`,
}

// --- runs subcommand ---

var historyRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent sync runs",
	RunE:  runHistoryRuns,
}

func runHistoryRuns(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-20s  %-10s  %-10s  %-10s  %s\n",
		"Run", "Started", "Downloaded", "Skipped", "Failed", "Duration")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, r := range runs {
		dur := "-"
		if !r.Finished.IsZero() {
			dur = r.Finished.Sub(r.Started).Round(time.Second).String()
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-20s  %-10d  %-10d  %-10d  %s\n",
			r.ID, r.Started.Local().Format("2006-01-02 15:04:05"), r.Downloaded, r.Skipped, r.Failed, dur)
	}
	return nil
}

// --- items subcommand ---

var historyItemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Query item results across runs",
	Long: `Items lists recorded item results, newest first. Filter by run, status,
course name, or path substring. Without --run, all runs are searched.`,
	RunE: runHistoryItems,
}

func runHistoryItems(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetInt64("run")
	status, _ := cmd.Flags().GetString("status")
	course, _ := cmd.Flags().GetString("course")
	path, _ := cmd.Flags().GetString("path")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	switch types.ItemStatus(status) {
	case "", types.StatusDownloaded, types.StatusSkipped, types.StatusFailed:
	default:
		return fmt.Errorf("unsupported status %q: use downloaded, skipped, or failed", status)
	}

	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := store.Items(context.Background(), history.QueryOptions{
		RunID:      runID,
		Status:     types.ItemStatus(status),
		Course:     course,
		Path:       path,
		MaxResults: limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(items) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, it := range items {
		target := it.Path
		if target == "" {
			target = it.Course
		}
		line := fmt.Sprintf("%-10s  %-8s  %s", it.Status, it.Kind, target)
		if it.Reason != "" {
			line += " (" + it.Reason + ")"
		}
		fmt.Fprintln(os.Stdout, line)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(items))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one run to YAML or JSON",
	Long: `Export writes a run and all of its item results to
<history-dir>/run-<id>.yaml or run-<id>.json. Defaults to the latest run.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	runID, _ := cmd.Flags().GetInt64("run")

	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if runID == 0 {
		if runID, err = store.LatestRunID(ctx); err != nil {
			return err
		}
		if runID == 0 {
			return fmt.Errorf("no runs recorded")
		}
	}

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(ctx, runID)
	case "json":
		path, err = store.ExportJSON(ctx, runID)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- prune subcommand ---

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}

		store, err := history.NewStore(historyConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Prune(context.Background(), keep)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d run(s)\n", n)
		return nil
	},
}

func init() {
	historyRunsCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")

	historyItemsCmd.Flags().Int64("run", 0, "restrict to one run ID")
	historyItemsCmd.Flags().String("status", "", "filter by status: downloaded, skipped, failed")
	historyItemsCmd.Flags().String("course", "", "filter by course name substring")
	historyItemsCmd.Flags().String("path", "", "filter by local path substring")
	historyItemsCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	historyItemsCmd.Flags().Bool("json", false, "output results as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().Int64("run", 0, "run ID to export (0 = latest)")

	historyPruneCmd.Flags().Int("keep", 20, "number of recent runs to keep")

	historyCmd.AddCommand(historyRunsCmd)
	historyCmd.AddCommand(historyItemsCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyPruneCmd)

	rootCmd.AddCommand(historyCmd)
}
