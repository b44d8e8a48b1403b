// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// WkhtmltopdfRenderer renders HTML files with the wkhtmltopdf engine.
type WkhtmltopdfRenderer struct {
	// BinPath overrides the wkhtmltopdf binary lookup when set.
	BinPath string
}

// NewWkhtmltopdfRenderer creates a renderer, optionally pinned to binPath.
func NewWkhtmltopdfRenderer(binPath string) *WkhtmltopdfRenderer {
	if binPath != "" {
		wkhtmltopdf.SetPath(binPath)
	}
	return &WkhtmltopdfRenderer{BinPath: binPath}
}

// RenderFile renders the HTML file at src into a PDF at dst.
func (r *WkhtmltopdfRenderer) RenderFile(src, dst string) error {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return fmt.Errorf("wkhtmltopdf not available: %w", err)
	}
	pdfg.AddPage(wkhtmltopdf.NewPage(src))

	if err := pdfg.Create(); err != nil {
		return fmt.Errorf("wkhtmltopdf: %w", err)
	}
	if err := pdfg.WriteFile(dst); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
