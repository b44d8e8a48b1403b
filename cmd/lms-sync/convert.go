// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [dirs...]",
	Short: "Create missing PDF renditions for already-downloaded content",
	Long: `Convert walks each directory, renders every office document, text file,
and HTML page to <dir>/PDF_Versions/, and copies PDFs there. Renditions that
are not older than their source are left alone, so convert is safe to rerun.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv := newConverter(conversionConfig(), os.Stderr)

		var failed int
		for _, dir := range args {
			result, err := conv.ConvertDir(dir, os.Stdout)
			if err != nil {
				return err
			}
			failed += result.Failed
		}
		if failed > 0 {
			return fmt.Errorf("%d file(s) failed conversion", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
