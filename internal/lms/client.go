// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lms is a client for the Canvas-style LMS REST API. Every call is
// one authenticated request; list endpoints ask for a single page of
// pageSize entries and do not follow pagination links, so listings longer
// than pageSize are truncated.
package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/lms-sync/internal/httputil"
	"github.com/pdiddy/lms-sync/pkg/types"
)

// pageSize is the per_page value sent on every list request.
const pageSize = 100

const apiPrefix = "/api/v1"

// StatusError is returned for any non-200 response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned HTTP %d", e.Method, e.URL, e.StatusCode)
}

// ShapeError is returned when a response decodes to the wrong JSON type,
// e.g. an object where a list was expected.
type ShapeError struct {
	URL  string
	Want string
	Got  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response from %s: want %s, got %s", e.URL, e.Want, e.Got)
}

// Client issues authenticated requests against one LMS instance.
type Client struct {
	http *http.Client
	cfg  types.ClientConfig
	base *url.URL
}

// New creates a client for cfg.BaseURL. It returns an error when the base
// URL is not an absolute http(s) URL.
func New(cfg types.ClientConfig, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be an absolute http(s) URL", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{http: httpClient, cfg: cfg, base: base}, nil
}

// BaseURL returns the parsed LMS root URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Courses lists the caller's actively enrolled courses.
func (c *Client) Courses(ctx context.Context) ([]types.Course, error) {
	var out []types.Course
	params := url.Values{"enrollment_state": {"active"}}
	err := c.getJSON(ctx, c.endpoint("courses"), params, &out, true)
	return out, err
}

// Modules lists the modules of a course in listing order.
func (c *Client) Modules(ctx context.Context, courseID int64) ([]types.Module, error) {
	var out []types.Module
	err := c.getJSON(ctx, c.endpoint("courses", id(courseID), "modules"), nil, &out, true)
	return out, err
}

// ModuleItems lists the items of a module. Each include value is sent as a
// repeated include[] parameter (e.g. "content_details").
func (c *Client) ModuleItems(ctx context.Context, courseID, moduleID int64, include ...string) ([]types.ModuleItem, error) {
	var out []types.ModuleItem
	u := c.endpoint("courses", id(courseID), "modules", id(moduleID), "items")
	err := c.getJSON(ctx, u, includes(include), &out, true)
	return out, err
}

// Files lists the files in a course's Files area.
func (c *Client) Files(ctx context.Context, courseID int64, include ...string) ([]types.FileRecord, error) {
	var out []types.FileRecord
	err := c.getJSON(ctx, c.endpoint("courses", id(courseID), "files"), includes(include), &out, true)
	return out, err
}

// File fetches the metadata of a single file by its identifier.
func (c *Client) File(ctx context.Context, fileID string) (types.FileRecord, error) {
	var out types.FileRecord
	err := c.getJSON(ctx, c.endpoint("files", fileID), nil, &out, false)
	return out, err
}

// Page fetches a course page, including its HTML body, by page key.
func (c *Client) Page(ctx context.Context, courseID int64, pageURL string) (types.Page, error) {
	var out types.Page
	err := c.getJSON(ctx, c.endpoint("courses", id(courseID), "pages", pageURL), nil, &out, false)
	return out, err
}

// FileAt fetches file metadata from an item's content URL.
func (c *Client) FileAt(ctx context.Context, rawURL string) (types.FileRecord, error) {
	var out types.FileRecord
	err := c.getJSON(ctx, rawURL, nil, &out, false)
	return out, err
}

// Download streams rawURL into destPath through a temporary file in the
// same directory, renaming on success. The download_frd=1 parameter is
// added when absent so the LMS serves the file body instead of a preview.
func (c *Client) Download(ctx context.Context, rawURL, destPath string) error {
	if !strings.Contains(rawURL, "download_frd=1") {
		if strings.Contains(rawURL, "?") {
			rawURL += "&download_frd=1"
		} else {
			rawURL += "?download_frd=1"
		}
	}

	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Method: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".lms-sync-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// endpoint builds an absolute API URL from path segments. Segments are
// escaped individually.
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.base.String() + apiPrefix + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	return resp, nil
}

// getJSON performs a GET with per_page and extra params merged into the
// URL's existing query, then decodes the body into out. wantList selects
// whether a JSON array or object is expected.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any, wantList bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	q := u.Query()
	if wantList {
		q.Set("per_page", strconv.Itoa(pageSize))
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	resp, err := c.do(ctx, u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: http.MethodGet, URL: u.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", u, err)
	}

	want, got := "object", jsonKind(body)
	if wantList {
		want = "list"
	}
	if got != want {
		return &ShapeError{URL: u.String(), Want: want, Got: got}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response from %s: %w", u, err)
	}
	return nil
}

// jsonKind names the JSON type of the top-level value in body.
func jsonKind(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "empty body"
	}
	switch trimmed[0] {
	case '[':
		return "list"
	case '{':
		return "object"
	case '"':
		return "string"
	case 'n':
		return "null"
	default:
		return "scalar"
	}
}

func includes(values []string) url.Values {
	if len(values) == 0 {
		return nil
	}
	return url.Values{"include[]": values}
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}
