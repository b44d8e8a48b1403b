//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Sync builds the CLI and runs a sync with the local rule file.
func Sync() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "sync", "--rules", rulesFile)
}

// DryRun builds the CLI and reports what a sync would download.
func DryRun() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "sync", "--dry-run", "--rules", rulesFile)
}

// Renditions builds the CLI and fills in missing PDFs under the default
// download directory.
func Renditions() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "convert", downloadsDir)
}
