// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert produces PDF renditions of downloaded course documents.
// Office documents and plain text go through a headless office suite, HTML
// goes through an HTML-to-PDF renderer, and PDFs are copied as-is. Each
// source has exactly one rendition, <pdfDir>/<stem>.pdf.
package convert

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/lms-sync/internal/office"
)

// PDFDirName is the rendition directory created inside each destination.
const PDFDirName = "PDF_Versions"

// Family is a document family that determines the conversion routine.
type Family int

const (
	FamilyNone Family = iota
	FamilyOffice
	FamilyText
	FamilyHTML
	FamilyPDF
)

func (f Family) String() string {
	switch f {
	case FamilyOffice:
		return "office"
	case FamilyText:
		return "text"
	case FamilyHTML:
		return "html"
	case FamilyPDF:
		return "pdf"
	default:
		return "none"
	}
}

var familyByExt = map[string]Family{
	".doc":  FamilyOffice,
	".docx": FamilyOffice,
	".ppt":  FamilyOffice,
	".pptx": FamilyOffice,
	".xls":  FamilyOffice,
	".xlsx": FamilyOffice,
	".odt":  FamilyOffice,
	".odp":  FamilyOffice,
	".ods":  FamilyOffice,
	".rtf":  FamilyOffice,
	".txt":  FamilyText,
	".html": FamilyHTML,
	".htm":  FamilyHTML,
	".pdf":  FamilyPDF,
}

// Classify returns the document family of path by extension.
func Classify(path string) Family {
	return familyByExt[strings.ToLower(filepath.Ext(path))]
}

// Outcome describes what Render did.
type Outcome string

const (
	OutcomeConverted   Outcome = "converted"
	OutcomeCopied      Outcome = "copied"
	OutcomeUpToDate    Outcome = "up to date"
	OutcomeUnsupported Outcome = "unsupported"
)

// HTMLRenderer renders a saved HTML file to a PDF file.
type HTMLRenderer interface {
	RenderFile(src, dst string) error
}

// Converter routes sources to the conversion routine for their family.
// A nil Office or HTML makes conversions of that family fail with an error.
type Converter struct {
	Office office.Suite
	HTML   HTMLRenderer
}

// New creates a converter from an office suite and an HTML renderer.
func New(suite office.Suite, html HTMLRenderer) *Converter {
	return &Converter{Office: suite, HTML: html}
}

// RenditionPath returns <pdfDir>/<source stem>.pdf.
func RenditionPath(src, pdfDir string) string {
	base := filepath.Base(src)
	return filepath.Join(pdfDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
}

// UpToDate reports whether the rendition exists and is not older than src.
func UpToDate(src, rendition string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	ri, err := os.Stat(rendition)
	if err != nil {
		return false
	}
	return !ri.ModTime().Before(si.ModTime())
}

// Render produces the rendition of src in pdfDir and returns its path.
// Unsupported families return OutcomeUnsupported with no error. An
// existing rendition that is not older than the source is left untouched.
func (c *Converter) Render(src, pdfDir string) (string, Outcome, error) {
	family := Classify(src)
	if family == FamilyNone {
		return "", OutcomeUnsupported, nil
	}
	if _, err := os.Stat(src); err != nil {
		return "", "", fmt.Errorf("reading source: %w", err)
	}

	out := RenditionPath(src, pdfDir)
	if UpToDate(src, out) {
		return out, OutcomeUpToDate, nil
	}

	if err := os.MkdirAll(pdfDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating %s: %w", pdfDir, err)
	}

	switch family {
	case FamilyOffice, FamilyText:
		if c.Office == nil {
			return "", "", errors.New("no office suite available")
		}
		if err := c.Office.ConvertToPDF(src, pdfDir); err != nil {
			return "", "", err
		}
		if _, err := os.Stat(out); err != nil {
			return "", "", fmt.Errorf("%s produced no output at %s", c.Office.Name(), out)
		}
		return out, OutcomeConverted, nil

	case FamilyHTML:
		if c.HTML == nil {
			return "", "", errors.New("no HTML renderer available")
		}
		if err := c.HTML.RenderFile(src, out); err != nil {
			return "", "", fmt.Errorf("rendering %s: %w", src, err)
		}
		return out, OutcomeConverted, nil

	default:
		if err := copyFile(src, out); err != nil {
			return "", "", err
		}
		return out, OutcomeCopied, nil
	}
}

// copyFile copies src to dst through a temporary file in dst's directory.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".rendition-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copying %s: %w", src, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertDir renders every convertible document under dir into
// dir/PDF_Versions, printing per-file status to w. The rendition directory
// itself is not descended into.
func (c *Converter) ConvertDir(dir string, w io.Writer) (BatchResult, error) {
	pdfDir := filepath.Join(dir, PDFDirName)
	var result BatchResult

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == PDFDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || Classify(path) == FamilyNone {
			return nil
		}

		out, outcome, err := c.Render(path, pdfDir)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			result.Failed++
		case outcome == OutcomeUpToDate:
			fmt.Fprintf(w, "skipped: %s (up to date)\n", out)
			result.Skipped++
		default:
			fmt.Fprintf(w, "%s: %s\n", outcome, out)
			result.Converted++
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walking %s: %w", dir, err)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result, nil
}
