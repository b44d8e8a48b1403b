// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lms-sync/pkg/types"
)

func withHome(t *testing.T, dir string) {
	t.Helper()
	orig := homeDir
	homeDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { homeDir = orig })
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	withHome(t, "/home/student")

	tests := []struct {
		name    string
		content string
		want    []types.DownloadRule
		wantLog string
	}{
		{
			name:    "basic rules in file order",
			content: "CS101:files:/a\nBio:Both:/b\n",
			want: []types.DownloadRule{
				{Nickname: "CS101", Mode: types.ModeFiles, Path: "/a"},
				{Nickname: "Bio", Mode: types.ModeBoth, Path: "/b"},
			},
		},
		{
			name:    "blank lines ignored and fields trimmed",
			content: "\n  Math : MODULES : /m  \n\n",
			want: []types.DownloadRule{
				{Nickname: "Math", Mode: types.ModeModules, Path: "/m"},
			},
		},
		{
			name:    "quotes stripped and home expanded",
			content: "Hist:files:'~/school/hist'\nArt:files:\"~\"\n",
			want: []types.DownloadRule{
				{Nickname: "Hist", Mode: types.ModeFiles, Path: "/home/student/school/hist"},
				{Nickname: "Art", Mode: types.ModeFiles, Path: "/home/student"},
			},
		},
		{
			name:    "path containing colon is truncated",
			content: "Win:files:C:\\courses\n",
			want: []types.DownloadRule{
				{Nickname: "Win", Mode: types.ModeFiles, Path: "C"},
			},
		},
		{
			name:    "short line warns",
			content: "broken:files\nOK:files:/ok\n",
			want: []types.DownloadRule{
				{Nickname: "OK", Mode: types.ModeFiles, Path: "/ok"},
			},
			wantLog: "expected nickname:mode:path",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log bytes.Buffer
			got, err := Load(writeRules(t, tt.content), &log)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantLog != "" {
				assert.Contains(t, log.String(), tt.wantLog)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var log bytes.Buffer
	got, err := Load(filepath.Join(t.TempDir(), "nope.txt"), &log)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, log.String(), "warning:")
}

func TestMatch(t *testing.T) {
	rules := []types.DownloadRule{
		{Nickname: "CS101", Mode: types.ModeFiles, Path: "/a"},
		{Nickname: "Bio", Mode: types.ModeBoth, Path: "/b"},
		{Nickname: "cs", Mode: types.ModeModules, Path: "/c"},
	}

	tests := []struct {
		name   string
		rules  []types.DownloadRule
		course string
		want   Decision
	}{
		{
			name:   "first match wins",
			rules:  rules,
			course: "Intro to CS101 - Fall",
			want:   Decision{Download: true, Mode: types.ModeFiles, Path: "/a", Nickname: "CS101"},
		},
		{
			name:   "case insensitive",
			rules:  rules,
			course: "MARINE BIOLOGY",
			want:   Decision{Download: true, Mode: types.ModeBoth, Path: "/b", Nickname: "Bio"},
		},
		{
			name:   "no rules downloads everything",
			rules:  nil,
			course: "Anything",
			want:   Decision{Download: true, Mode: types.ModeBoth, Path: "canvas_downloads"},
		},
		{
			name:   "no substring match skips",
			rules:  rules,
			course: "Art History",
			want:   Decision{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.rules, tt.course, "canvas_downloads")
			assert.Equal(t, tt.want, got)
		})
	}
}
