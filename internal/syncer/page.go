// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package syncer

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/lms-sync/internal/freshness"
	"github.com/pdiddy/lms-sync/pkg/types"
)

// pageTemplate wraps a page body into a self-contained HTML document. The
// arguments are the escaped title (twice) and the raw body.
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 50em; margin: 2em auto; line-height: 1.5; }
img { max-width: 100%%; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.3em; }
</style>
</head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`

// PageDocument renders the standalone HTML document saved for a page.
func PageDocument(title, body string) string {
	t := html.EscapeString(title)
	return fmt.Sprintf(pageTemplate, t, t, body)
}

// syncPage saves a page as HTML, downloads the documents it links to, and
// renders the page to PDF.
func (s *Syncer) syncPage(ctx context.Context, course types.Course, item types.ModuleItem, targetDir, pdfDir string) {
	if item.PageURL == "" {
		fmt.Fprintf(s.w, "failed:  page %s (no page key)\n", item.Title)
		s.record(course, types.ItemResult{Status: types.StatusFailed, Kind: "page", Reason: "module item has no page key"})
		return
	}

	page, err := s.api.Page(ctx, course.ID, item.PageURL)
	if err != nil {
		fmt.Fprintf(s.w, "failed:  page %s (%v)\n", item.Title, err)
		s.record(course, types.ItemResult{Status: statusFor(err), Kind: "page", Reason: err.Error()})
		return
	}

	title := page.Title
	if title == "" {
		title = titleOr(item.Title)
	}
	path := filepath.Join(targetDir, SafeFilename(title+".html"))
	res := types.ItemResult{Kind: "page", Path: path}

	switch {
	case !freshness.NeedsDownload(path, page.UpdatedAt):
		fmt.Fprintf(s.w, "skipped: %s (up to date)\n", path)
		res.Status = types.StatusSkipped
		res.Reason = "up to date"
	case s.cfg.DryRun:
		fmt.Fprintf(s.w, "would save page: %s\n", path)
		res.Status = types.StatusSkipped
		res.Reason = "dry run"
	default:
		fmt.Fprintf(s.w, "saving page: %s\n", path)
		if err := os.WriteFile(path, []byte(PageDocument(title, page.Body)), 0o644); err != nil {
			s.record(course, s.failed(res, fmt.Errorf("writing page: %w", err)))
			return
		}
		res.Status = types.StatusDownloaded
	}

	embedded := s.resolver.Resolve(ctx, page.Body, targetDir, pdfDir, s.w)
	for _, it := range embedded.Items {
		s.record(course, it)
	}
	if n := len(embedded.Downloaded); n > 0 {
		fmt.Fprintf(s.w, "  %d embedded file(s) downloaded from %s\n", n, title)
	}

	res.Rendition = s.render(path, pdfDir)
	s.record(course, res)
}

// SafeFilename turns a remote name into a single path element. Literal '+'
// (left over from URL encoding) becomes a space and path separators are
// replaced so the name cannot leave its target directory.
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "+", " ")
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}

func titleOr(title string) string {
	if strings.TrimSpace(title) == "" {
		return "untitled"
	}
	return title
}
