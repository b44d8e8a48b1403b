// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lms-sync/internal/convert"
	"github.com/pdiddy/lms-sync/internal/history"
	"github.com/pdiddy/lms-sync/internal/httputil"
	"github.com/pdiddy/lms-sync/internal/lms"
	"github.com/pdiddy/lms-sync/internal/office"
	"github.com/pdiddy/lms-sync/internal/rules"
	"github.com/pdiddy/lms-sync/internal/syncer"
	"github.com/pdiddy/lms-sync/pkg/types"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download new and changed course content",
	Long: `Sync lists your active courses, applies the rules in downSubjects.txt,
and downloads module items, pages, and Files-area documents whose local copy
is missing or older than the server's. Office documents, text files, and
pages are rendered to PDF under <destination>/PDF_Versions/.

Individual failures are reported and the run continues. Only a failure to
list courses stops the run. Use --strict to exit non-zero when any item fails.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("rules", rules.DefaultFile, "rule file with nickname:mode:path lines")
	syncCmd.Flags().String("default-dir", syncer.DefaultDir, "destination for every course when no rules exist")
	syncCmd.Flags().Bool("dry-run", false, "report what would be downloaded without writing anything")
	syncCmd.Flags().Bool("no-convert", false, "skip PDF renditions")
	syncCmd.Flags().Bool("no-history", false, "do not record this run in the history database")
	syncCmd.Flags().Bool("strict", false, "exit non-zero if any item failed")
	syncCmd.Flags().Bool("quiet", false, "print only the summary line")
	syncCmd.Flags().String("report", "", "also write the run report as YAML to this path")

	for key, flag := range map[string]string{
		"rules_file":  "rules",
		"default_dir": "default-dir",
	} {
		_ = viper.BindPFlag(key, syncCmd.Flags().Lookup(flag))
	}

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noConvert, _ := cmd.Flags().GetBool("no-convert")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	strict, _ := cmd.Flags().GetBool("strict")
	quiet, _ := cmd.Flags().GetBool("quiet")
	reportPath, _ := cmd.Flags().GetString("report")

	clientCfg, err := clientConfig()
	if err != nil {
		return err
	}
	client, err := lms.New(clientCfg, &http.Client{Timeout: clientCfg.Timeout})
	if err != nil {
		return err
	}
	httputil.RetryLog = os.Stderr

	var out io.Writer = os.Stdout
	if quiet {
		out = io.Discard
	}

	cfg := types.SyncConfig{
		RulesFile:  viper.GetString("rules_file"),
		DefaultDir: viper.GetString("default_dir"),
		DryRun:     dryRun,
		Convert:    viper.GetBool("convert") && !noConvert,
	}

	downloadRules, err := rules.Load(cfg.RulesFile, os.Stderr)
	if err != nil {
		return err
	}

	var conv syncer.Renderer
	if cfg.Convert && !cfg.DryRun {
		conv = newConverter(conversionConfig(), os.Stderr)
	}

	s := syncer.New(client, conv, downloadRules, cfg, out)
	report, runErr := s.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if quiet {
		fmt.Fprintf(os.Stdout, "Sync summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
			report.Downloaded, report.Skipped, report.Failed, report.Total())
	}

	if !noHistory && !cfg.DryRun {
		if err := recordRun(report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if reportPath != "" {
		if err := writeReport(reportPath, report); err != nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("sync interrupted: %w", runErr)
	}
	if strict && report.HasFailures() {
		return fmt.Errorf("%d item(s) failed", report.Failed)
	}
	return nil
}

func conversionConfig() types.ConversionConfig {
	return types.ConversionConfig{
		OfficeBinary:    viper.GetString("office_binary"),
		WkhtmltopdfPath: viper.GetString("wkhtmltopdf_path"),
	}
}

// newConverter wires the office suite and HTML renderer. A missing office
// suite is reported on w; HTML and PDF renditions still work without it.
func newConverter(cfg types.ConversionConfig, w io.Writer) *convert.Converter {
	var suite office.Suite
	if cfg.OfficeBinary != "" {
		suite = office.New(cfg.OfficeBinary)
	} else if s, err := office.Detect(); err != nil {
		fmt.Fprintf(w, "warning: %v; office documents will not be converted\n", err)
	} else {
		suite = s
	}
	return convert.New(suite, convert.NewWkhtmltopdfRenderer(cfg.WkhtmltopdfPath))
}

// recordRun stores the report in the history database.
func recordRun(report types.RunReport) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	id, err := store.SaveRun(context.Background(), report)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Recorded run %d in %s\n", id, historyConfig().Dir)
	return nil
}

func writeReport(path string, report types.RunReport) error {
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
