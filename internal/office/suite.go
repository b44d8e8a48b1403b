// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package office detects a headless office suite (LibreOffice) and runs
// document-to-PDF conversions with it.
package office

import (
	"fmt"
	"os/exec"
	"strings"
)

const (
	binSoffice     = "soffice"
	binLibreoffice = "libreoffice"
)

// Suite converts office documents to PDF.
type Suite interface {
	// Name returns the binary used ("soffice", "libreoffice", or an override path).
	Name() string

	// Available reports whether the binary exists on PATH and responds to
	// a version probe.
	Available() bool

	// ConvertToPDF converts src into outDir. The suite picks the output
	// name, which is the source stem with a .pdf extension. The call blocks
	// until the subprocess exits.
	ConvertToPDF(src, outDir string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunCombined(name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunCombined(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// suite implements Suite for one LibreOffice entry point. soffice and
// libreoffice accept the same arguments.
type suite struct {
	bin  string
	exec executor
}

func (s *suite) Name() string { return s.bin }

func (s *suite) Available() bool {
	if _, err := s.exec.LookPath(s.bin); err != nil {
		return false
	}
	return s.exec.RunSilent(s.bin, "--headless", "--version") == nil
}

func (s *suite) ConvertToPDF(src, outDir string) error {
	args := []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, src}
	out, err := s.exec.RunCombined(s.bin, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("running %s on %s: %w: %s", s.bin, src, err, msg)
		}
		return fmt.Errorf("running %s on %s: %w", s.bin, src, err)
	}
	return nil
}

var defaultExec = &osExecutor{}

// New returns a Suite for an explicit binary path without probing it.
func New(bin string) Suite {
	return &suite{bin: bin, exec: defaultExec}
}

// Detect tries soffice first and falls back to libreoffice. It returns an
// error if neither is available.
func Detect() (Suite, error) {
	return detect(defaultExec)
}

func detect(exec executor) (Suite, error) {
	for _, bin := range []string{binSoffice, binLibreoffice} {
		s := &suite{bin: bin, exec: exec}
		if s.Available() {
			return s, nil
		}
	}
	return nil, fmt.Errorf(
		"no office suite available: neither %s nor %s found or operational",
		binSoffice, binLibreoffice,
	)
}
