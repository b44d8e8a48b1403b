// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lms-sync/internal/lms"
	"github.com/pdiddy/lms-sync/internal/rules"
	"github.com/pdiddy/lms-sync/internal/syncer"
	"github.com/pdiddy/lms-sync/pkg/types"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List active courses and the rule each one matches",
	Long: `Courses lists the courses you are actively enrolled in together with
the decision the rule file makes for each: the mode and destination, or
"skip" when no rule matches. Nothing is downloaded.`,
	RunE: runCourses,
}

func init() {
	coursesCmd.Flags().String("rules", rules.DefaultFile, "rule file with nickname:mode:path lines")
	coursesCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(coursesCmd)
}

// courseRow is one line of the courses listing.
type courseRow struct {
	ID     int64              `json:"id"`
	Name   string             `json:"name"`
	Sync   bool               `json:"sync"`
	Mode   types.DownloadMode `json:"mode,omitempty"`
	Path   string             `json:"path,omitempty"`
	Nick   string             `json:"rule,omitempty"`
}

func runCourses(cmd *cobra.Command, args []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	clientCfg, err := clientConfig()
	if err != nil {
		return err
	}
	client, err := lms.New(clientCfg, &http.Client{Timeout: clientCfg.Timeout})
	if err != nil {
		return err
	}

	downloadRules, err := rules.Load(rulesPath, os.Stderr)
	if err != nil {
		return err
	}

	courses, err := client.Courses(context.Background())
	if err != nil {
		return fmt.Errorf("listing courses: %w", err)
	}

	defaultDir := viper.GetString("default_dir")
	if defaultDir == "" {
		defaultDir = syncer.DefaultDir
	}

	rows := make([]courseRow, 0, len(courses))
	for _, c := range courses {
		d := rules.Match(downloadRules, c.Name, defaultDir)
		rows = append(rows, courseRow{
			ID: c.ID, Name: c.Name, Sync: d.Download,
			Mode: d.Mode, Path: d.Path, Nick: d.Nickname,
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No active courses.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-40s  %-8s  %s\n", "ID", "Course", "Mode", "Destination")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range rows {
		name := r.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		mode, dest := string(r.Mode), r.Path
		if !r.Sync {
			mode, dest = "skip", "-"
		}
		fmt.Fprintf(os.Stdout, "%-8d  %-40s  %-8s  %s\n", r.ID, name, mode, dest)
	}
	fmt.Fprintf(os.Stdout, "\n%d courses\n", len(rows))
	return nil
}
