package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lms-sync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds the LMS API endpoint and credentials.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the LMS root, e.g. "https://school.instructure.com".
	// Trailing slashes are ignored.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// AccessToken is sent as a bearer token on every request.
	AccessToken string `json:"-" yaml:"-"`

	// MaxRetries is the number of backoff retries on HTTP 429. Zero sends
	// each request exactly once.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DownloadMode selects which areas of a course are synced.
type DownloadMode string

const (
	ModeFiles   DownloadMode = "files"
	ModeModules DownloadMode = "modules"
	ModeBoth    DownloadMode = "both"
)

// IncludesModules reports whether module content is synced in this mode.
func (m DownloadMode) IncludesModules() bool {
	return m == ModeModules || m == ModeBoth
}

// IncludesFiles reports whether the course Files area is synced in this mode.
func (m DownloadMode) IncludesFiles() bool {
	return m == ModeFiles || m == ModeBoth
}

// DownloadRule maps a course-name substring to a mode and destination.
type DownloadRule struct {
	Nickname string       `json:"nickname" yaml:"nickname"`
	Mode     DownloadMode `json:"mode" yaml:"mode"`
	Path     string       `json:"path" yaml:"path"`
}

// SyncConfig holds settings for a sync run.
type SyncConfig struct {
	// RulesFile is the rule file path (conventionally "downSubjects.txt").
	RulesFile string `json:"rules_file" yaml:"rules_file"`

	// DefaultDir is the destination used for every course when no rules
	// are configured.
	DefaultDir string `json:"default_dir" yaml:"default_dir"`

	// DryRun evaluates decisions and freshness without writing files.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Convert enables PDF renditions.
	Convert bool `json:"convert" yaml:"convert"`
}

// ConversionConfig holds settings for PDF rendition.
type ConversionConfig struct {
	// OfficeBinary overrides office-suite detection (e.g. "/opt/libreoffice/program/soffice").
	OfficeBinary string `json:"office_binary,omitempty" yaml:"office_binary,omitempty"`

	// WkhtmltopdfPath overrides the wkhtmltopdf binary location.
	WkhtmltopdfPath string `json:"wkhtmltopdf_path,omitempty" yaml:"wkhtmltopdf_path,omitempty"`
}

// HistoryConfig holds settings for the run-history database.
type HistoryConfig struct {
	// Dir holds the history database and its exports.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default number of rows returned by queries (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
