// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ItemStatus is the outcome of syncing a single item.
type ItemStatus string

const (
	StatusDownloaded ItemStatus = "downloaded"
	StatusSkipped    ItemStatus = "skipped"
	StatusFailed     ItemStatus = "failed"
)

// ItemResult records what happened to one file, page, or course.
type ItemResult struct {
	Status ItemStatus `json:"status" yaml:"status"`
	Course string     `json:"course" yaml:"course"`

	// Kind is "file", "page", "embedded", or "course".
	Kind string `json:"kind" yaml:"kind"`

	// Path is the local target path; empty when none could be built.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Reason explains a skip or failure.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Rendition is the PDF produced or found up to date for Path.
	Rendition string `json:"rendition,omitempty" yaml:"rendition,omitempty"`

	At time.Time `json:"at" yaml:"at"`
}

// RunReport aggregates the results of one sync run.
type RunReport struct {
	Started  time.Time    `json:"started" yaml:"started"`
	Finished time.Time    `json:"finished" yaml:"finished"`
	Items    []ItemResult `json:"items" yaml:"items"`

	Downloaded int `json:"downloaded" yaml:"downloaded"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Failed     int `json:"failed" yaml:"failed"`
}

// Add appends r and updates the counters.
func (rep *RunReport) Add(r ItemResult) {
	rep.Items = append(rep.Items, r)
	switch r.Status {
	case StatusDownloaded:
		rep.Downloaded++
	case StatusSkipped:
		rep.Skipped++
	case StatusFailed:
		rep.Failed++
	}
}

// Total returns the total number of items processed.
func (rep RunReport) Total() int {
	return rep.Downloaded + rep.Skipped + rep.Failed
}

// HasFailures reports whether any item failed.
func (rep RunReport) HasFailures() bool {
	return rep.Failed > 0
}
