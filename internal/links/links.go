// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package links finds in-system file references in page HTML and downloads
// the documents they point to.
package links

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/lms-sync/pkg/types"
)

// fileIDPatterns are tried in order; the first match wins.
var fileIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/files/(\d+)`),
	regexp.MustCompile(`/download\?(?:[^#]*&)?files=(\d+)`),
	regexp.MustCompile(`/preview\?(?:[^#]*&)?files=(\d+)`),
}

// documentExts is the set of extensions downloaded from embedded links.
var documentExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".ppt":  true,
	".pptx": true,
	".xls":  true,
	".xlsx": true,
	".html": true,
	".htm":  true,
}

// linkSelector matches the elements whose href/src may reference a file.
const linkSelector = "a[href], iframe[src], embed[src]"

// ExtractURLs returns the absolute in-system URLs referenced by anchors,
// iframes, and embeds in body, in document order without duplicates.
// Fragment-only links and links to other hosts are dropped; relative links
// are resolved against base.
func ExtractURLs(body string, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	seen := make(map[string]bool)
	var out []string
	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		attr := "src"
		if goquery.NodeName(s) == "a" {
			attr = "href"
		}
		raw, _ := s.Attr(attr)
		if u, ok := resolve(raw, base); ok && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	})
	return out, nil
}

func resolve(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(abs.Host, base.Host) {
		return "", false
	}
	return abs.String(), true
}

// FileID extracts a numeric file identifier from an in-system URL. It
// recognizes /files/<id>, /download?files=<id>, and /preview?files=<id>,
// in that priority order.
func FileID(rawURL string) (string, bool) {
	for _, re := range fileIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// IsDocument reports whether filename has an extension downloaded from
// embedded links.
func IsDocument(filename string) bool {
	return documentExts[strings.ToLower(filepath.Ext(filename))]
}

// FileFetcher fetches file metadata by identifier.
type FileFetcher interface {
	File(ctx context.Context, fileID string) (types.FileRecord, error)
}

// DownloadFunc downloads rec into targetDir, converting into pdfDir, and
// reports the outcome. It is the same routine used for top-level files.
type DownloadFunc func(ctx context.Context, rec types.FileRecord, targetDir, pdfDir string) types.ItemResult

// Resolver downloads the documents referenced from page HTML.
type Resolver struct {
	Files    FileFetcher
	Base     *url.URL
	Download DownloadFunc
}

// Result lists what Resolve did.
type Result struct {
	// Downloaded holds the paths actually written.
	Downloaded []string
	// Items holds one result per referenced file, including failures.
	Items []types.ItemResult
}

// Resolve scans body for file links and downloads every referenced
// document into targetDir. Failures are logged to w and recorded; they
// never stop the scan.
func (r *Resolver) Resolve(ctx context.Context, body, targetDir, pdfDir string, w io.Writer) Result {
	var res Result

	urls, err := ExtractURLs(body, r.Base)
	if err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
		return res
	}

	seen := make(map[string]bool)
	for _, u := range urls {
		id, ok := FileID(u)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		rec, err := r.Files.File(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "failed:  embedded file %s (%v)\n", id, err)
			res.Items = append(res.Items, types.ItemResult{
				Status: types.StatusFailed,
				Kind:   "embedded",
				Reason: fmt.Sprintf("fetching metadata for file %s: %v", id, err),
			})
			continue
		}
		if !IsDocument(rec.Filename) {
			continue
		}

		item := r.Download(ctx, rec, targetDir, pdfDir)
		item.Kind = "embedded"
		res.Items = append(res.Items, item)
		if item.Status == types.StatusDownloaded {
			res.Downloaded = append(res.Downloaded, item.Path)
		}
	}
	return res
}
