// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package syncer drives a sync run: for every active course it applies the
// download rules, walks modules and the Files area, downloads stale content,
// and requests PDF renditions. Every item yields a types.ItemResult; no
// single failure stops the run except failing to list courses.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/lms-sync/internal/convert"
	"github.com/pdiddy/lms-sync/internal/freshness"
	"github.com/pdiddy/lms-sync/internal/links"
	"github.com/pdiddy/lms-sync/internal/lms"
	"github.com/pdiddy/lms-sync/internal/rules"
	"github.com/pdiddy/lms-sync/pkg/types"
)

// API is the subset of the LMS client used by the syncer.
type API interface {
	Courses(ctx context.Context) ([]types.Course, error)
	Modules(ctx context.Context, courseID int64) ([]types.Module, error)
	ModuleItems(ctx context.Context, courseID, moduleID int64, include ...string) ([]types.ModuleItem, error)
	Files(ctx context.Context, courseID int64, include ...string) ([]types.FileRecord, error)
	File(ctx context.Context, fileID string) (types.FileRecord, error)
	Page(ctx context.Context, courseID int64, pageURL string) (types.Page, error)
	FileAt(ctx context.Context, rawURL string) (types.FileRecord, error)
	Download(ctx context.Context, rawURL, destPath string) error
	BaseURL() *url.URL
}

// Renderer produces PDF renditions. *convert.Converter implements it.
type Renderer interface {
	Render(src, pdfDir string) (string, convert.Outcome, error)
}

// Syncer runs one sync pass. It is not safe for concurrent use.
type Syncer struct {
	api      API
	conv     Renderer
	rules    []types.DownloadRule
	cfg      types.SyncConfig
	w        io.Writer
	resolver *links.Resolver
	report   types.RunReport
	now      func() time.Time
}

// New creates a syncer. A nil conv disables PDF renditions.
func New(api API, conv Renderer, downloadRules []types.DownloadRule, cfg types.SyncConfig, w io.Writer) *Syncer {
	if cfg.DefaultDir == "" {
		cfg.DefaultDir = DefaultDir
	}
	s := &Syncer{
		api:   api,
		conv:  conv,
		rules: downloadRules,
		cfg:   cfg,
		w:     w,
		now:   time.Now,
	}
	s.resolver = &links.Resolver{
		Files:    api,
		Base:     api.BaseURL(),
		Download: s.DownloadFile,
	}
	return s
}

// DefaultDir is the destination for every course when no rules exist.
const DefaultDir = "canvas_downloads"

// Run syncs every active course and returns the collected results. An
// error listing courses is returned as-is; a cancelled context stops the
// run between items and returns the partial report with ctx.Err().
func (s *Syncer) Run(ctx context.Context) (types.RunReport, error) {
	s.report = types.RunReport{Started: s.now()}

	courses, err := s.api.Courses(ctx)
	if err != nil {
		return s.report, fmt.Errorf("listing courses: %w", err)
	}

	for _, c := range courses {
		if err := ctx.Err(); err != nil {
			return s.finish(), err
		}
		s.SyncCourse(ctx, c)
	}
	return s.finish(), ctx.Err()
}

func (s *Syncer) finish() types.RunReport {
	s.report.Finished = s.now()
	r := s.report
	fmt.Fprintf(s.w, "\nSync summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		r.Downloaded, r.Skipped, r.Failed, r.Total())
	return r
}

// Report returns the results collected so far.
func (s *Syncer) Report() types.RunReport {
	return s.report
}

// SyncCourse applies the rules to one course and syncs the selected areas.
func (s *Syncer) SyncCourse(ctx context.Context, course types.Course) {
	d := rules.Match(s.rules, course.Name, s.cfg.DefaultDir)
	if !d.Download {
		fmt.Fprintf(s.w, "skipped: course %s (no matching rule)\n", course.Name)
		s.record(course, types.ItemResult{Status: types.StatusSkipped, Kind: "course", Reason: "no matching rule"})
		return
	}
	if !d.Mode.IncludesModules() && !d.Mode.IncludesFiles() {
		fmt.Fprintf(s.w, "skipped: course %s (unknown mode %q)\n", course.Name, d.Mode)
		s.record(course, types.ItemResult{Status: types.StatusSkipped, Kind: "course", Path: d.Path,
			Reason: fmt.Sprintf("unknown mode %q", d.Mode)})
		return
	}

	fmt.Fprintf(s.w, "\ncourse: %s -> %s (%s)\n", course.Name, d.Path, d.Mode)

	pdfDir := filepath.Join(d.Path, convert.PDFDirName)
	if err := s.mkdirs(d.Path, pdfDir); err != nil {
		fmt.Fprintf(s.w, "failed:  course %s (%v)\n", course.Name, err)
		s.record(course, types.ItemResult{Status: types.StatusFailed, Kind: "course", Path: d.Path, Reason: err.Error()})
		return
	}

	if d.Mode.IncludesModules() {
		s.syncModules(ctx, course, d.Path, pdfDir)
	}
	if d.Mode.IncludesFiles() {
		s.syncFiles(ctx, course, d.Path, pdfDir)
	}
}

// syncModules walks modules in listing order. A module with exactly one
// item writes into the course directory; otherwise it gets a subdirectory.
func (s *Syncer) syncModules(ctx context.Context, course types.Course, courseDir, pdfDir string) {
	modules, err := s.api.Modules(ctx, course.ID)
	if err != nil {
		s.listFailure(course, "modules", courseDir, err)
		return
	}

	for _, m := range modules {
		if ctx.Err() != nil {
			return
		}
		items, err := s.api.ModuleItems(ctx, course.ID, m.ID, "content_details")
		if err != nil {
			s.listFailure(course, "items of module "+m.Name, courseDir, err)
			continue
		}

		targetDir := ModuleDir(courseDir, m.Name, len(items))
		if targetDir != courseDir {
			if err := s.mkdirs(targetDir); err != nil {
				fmt.Fprintf(s.w, "failed:  module %s (%v)\n", m.Name, err)
				s.record(course, types.ItemResult{Status: types.StatusFailed, Kind: "module", Path: targetDir, Reason: err.Error()})
				continue
			}
		}

		for _, item := range items {
			if ctx.Err() != nil {
				return
			}
			s.syncItem(ctx, course, item, targetDir, pdfDir)
		}
	}
}

// ModuleDir returns the directory that receives a module's content.
func ModuleDir(courseDir, moduleName string, itemCount int) string {
	if itemCount == 1 {
		return courseDir
	}
	if moduleName == "" {
		moduleName = "Unnamed Module"
	}
	return filepath.Join(courseDir, SafeFilename(moduleName))
}

func (s *Syncer) syncItem(ctx context.Context, course types.Course, item types.ModuleItem, targetDir, pdfDir string) {
	if !item.Type.Recognized() {
		return
	}
	if item.Type == types.ItemPage {
		s.syncPage(ctx, course, item, targetDir, pdfDir)
		return
	}

	if item.URL == "" {
		fmt.Fprintf(s.w, "failed:  %s (no content URL)\n", item.Title)
		s.record(course, types.ItemResult{Status: types.StatusFailed, Kind: "file", Reason: "module item has no content URL"})
		return
	}

	rec, err := s.api.FileAt(ctx, item.URL)
	if err != nil {
		fmt.Fprintf(s.w, "failed:  %s (%v)\n", item.Title, err)
		s.record(course, types.ItemResult{Status: statusFor(err), Kind: "file", Reason: err.Error()})
		return
	}
	if rec.Filename == "" {
		rec.Filename = titleOr(item.Title) + ".html"
	}

	s.record(course, s.DownloadFile(ctx, rec, targetDir, pdfDir))
}

func (s *Syncer) syncFiles(ctx context.Context, course types.Course, courseDir, pdfDir string) {
	files, err := s.api.Files(ctx, course.ID)
	if err != nil {
		s.listFailure(course, "files", courseDir, err)
		return
	}
	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		if f.Filename == "" {
			fmt.Fprintf(s.w, "warning: file %d has no filename\n", f.ID)
			continue
		}
		s.record(course, s.DownloadFile(ctx, f, courseDir, pdfDir))
	}
}

// DownloadFile downloads rec into targetDir when the local copy is missing
// or stale, then renders its PDF into pdfDir. Conversion failures are
// logged and do not fail the download.
func (s *Syncer) DownloadFile(ctx context.Context, rec types.FileRecord, targetDir, pdfDir string) types.ItemResult {
	path := filepath.Join(targetDir, SafeFilename(rec.Filename))
	res := types.ItemResult{Kind: "file", Path: path}

	if rec.URL == "" {
		fmt.Fprintf(s.w, "failed:  %s (no download URL)\n", path)
		res.Status = types.StatusFailed
		res.Reason = "no download URL"
		return res
	}

	if !freshness.NeedsDownload(path, rec.ModifiedAt) {
		fmt.Fprintf(s.w, "skipped: %s (up to date)\n", path)
		res.Status = types.StatusSkipped
		res.Reason = "up to date"
		res.Rendition = s.render(path, pdfDir)
		return res
	}

	if s.cfg.DryRun {
		fmt.Fprintf(s.w, "would download: %s\n", path)
		res.Status = types.StatusSkipped
		res.Reason = "dry run"
		return res
	}

	fmt.Fprintf(s.w, "downloading: %s\n", path)
	if err := s.mkdirs(targetDir); err != nil {
		return s.failed(res, err)
	}
	if err := s.api.Download(ctx, rec.URL, path); err != nil {
		return s.failed(res, err)
	}

	res.Status = types.StatusDownloaded
	res.Rendition = s.render(path, pdfDir)
	return res
}

// render requests a PDF rendition of path and returns its location, or ""
// when none was produced.
func (s *Syncer) render(path, pdfDir string) string {
	if s.conv == nil || !s.cfg.Convert || s.cfg.DryRun {
		return ""
	}
	out, outcome, err := s.conv.Render(path, pdfDir)
	if err != nil {
		fmt.Fprintf(s.w, "warning: no PDF for %s (%v)\n", path, err)
		return ""
	}
	switch outcome {
	case convert.OutcomeConverted, convert.OutcomeCopied:
		fmt.Fprintf(s.w, "%s: %s\n", outcome, out)
	}
	return out
}

func (s *Syncer) failed(res types.ItemResult, err error) types.ItemResult {
	fmt.Fprintf(s.w, "failed:  %s (%v)\n", res.Path, err)
	res.Status = types.StatusFailed
	res.Reason = err.Error()
	return res
}

// listFailure records a failed listing. Responses of the wrong shape are
// treated as empty listings and reported as skips.
func (s *Syncer) listFailure(course types.Course, what, dir string, err error) {
	status := statusFor(err)
	if status == types.StatusSkipped {
		fmt.Fprintf(s.w, "warning: %s for %s treated as empty (%v)\n", what, course.Name, err)
	} else {
		fmt.Fprintf(s.w, "failed:  %s for %s (%v)\n", what, course.Name, err)
	}
	s.record(course, types.ItemResult{Status: status, Kind: "listing", Path: dir,
		Reason: fmt.Sprintf("listing %s: %v", what, err)})
}

func statusFor(err error) types.ItemStatus {
	var shape *lms.ShapeError
	if errors.As(err, &shape) {
		return types.StatusSkipped
	}
	return types.StatusFailed
}

func (s *Syncer) record(course types.Course, r types.ItemResult) {
	r.Course = course.Name
	if r.At.IsZero() {
		r.At = s.now()
	}
	s.report.Add(r)
}

// mkdirs creates dirs if absent. Nothing is created in dry-run mode.
func (s *Syncer) mkdirs(dirs ...string) error {
	if s.cfg.DryRun {
		return nil
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	return nil
}
