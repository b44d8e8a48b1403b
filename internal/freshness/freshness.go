// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package freshness decides whether a local copy of a remote file is stale.
package freshness

import (
	"os"
	"strings"
	"time"
)

// NeedsDownload reports whether the file at path must be (re)downloaded
// given the remote modification timestamp. A missing local file always
// needs a download.
func NeedsDownload(path, modifiedAt string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return Stale(info.ModTime(), modifiedAt)
}

// Stale reports whether a remote timestamp is strictly newer than the local
// modification time. Both instants are compared in UTC. An absent or
// unparseable remote timestamp cannot prove the local copy is current, so
// it counts as stale.
func Stale(local time.Time, modifiedAt string) bool {
	remote, ok := ParseRemote(modifiedAt)
	if !ok {
		return true
	}
	return remote.After(local.UTC())
}

// ParseRemote parses an ISO-8601 timestamp as reported by the LMS. A
// trailing "Z" is UTC; explicit offsets are honored.
func ParseRemote(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
