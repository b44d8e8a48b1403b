// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the lms-sync pipeline:
// the remote LMS records (courses, modules, items, files, pages), download
// rules, run configuration, and per-item sync results.
package types

// ItemType is the kind of a module item as reported by the LMS.
type ItemType string

const (
	ItemFile       ItemType = "File"
	ItemPage       ItemType = "Page"
	ItemAttachment ItemType = "Attachment"
)

// Recognized reports whether the item kind carries downloadable content.
// Other kinds (quizzes, external URLs, sub-headers) are ignored.
func (t ItemType) Recognized() bool {
	switch t {
	case ItemFile, ItemPage, ItemAttachment:
		return true
	default:
		return false
	}
}

// Course is a top-level content container in the LMS.
type Course struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Module is an ordered grouping of items within a course.
type Module struct {
	ID         int64  `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Position   int    `json:"position,omitempty" yaml:"position,omitempty"`
	ItemsCount int    `json:"items_count,omitempty" yaml:"items_count,omitempty"`
}

// ModuleItem is a single addressable unit of content within a module.
type ModuleItem struct {
	ID    int64    `json:"id" yaml:"id"`
	Type  ItemType `json:"type" yaml:"type"`
	Title string   `json:"title,omitempty" yaml:"title,omitempty"`

	// URL is the API URL for the item's content (file metadata for File
	// items). Empty for kinds without an API representation.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PageURL is the page key used by the pages endpoint for Page items.
	PageURL string `json:"page_url,omitempty" yaml:"page_url,omitempty"`

	ContentID int64 `json:"content_id,omitempty" yaml:"content_id,omitempty"`
}

// FileRecord is the metadata of a downloadable file.
type FileRecord struct {
	ID          int64  `json:"id" yaml:"id"`
	Filename    string `json:"filename" yaml:"filename"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// ModifiedAt is the remote ISO-8601 modification timestamp. Empty when
	// the LMS did not report one.
	ModifiedAt string `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`

	// URL is the download URL, either direct or a redirect to storage.
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Size        int64  `json:"size,omitempty" yaml:"size,omitempty"`
	ContentType string `json:"content-type,omitempty" yaml:"content_type,omitempty"`
}

// Page is a wiki page whose body is HTML.
type Page struct {
	Title     string `json:"title" yaml:"title"`
	Body      string `json:"body" yaml:"body"`
	URL       string `json:"url" yaml:"url"`
	UpdatedAt string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}
