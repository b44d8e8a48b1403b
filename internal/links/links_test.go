// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package links

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lms-sync/pkg/types"
)

var testBase = mustParse("https://canvas.example.edu")

func mustParse(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func TestExtractURLs(t *testing.T) {
	body := `
<p>See <a href="/courses/5/files/42/download?verifier=xyz">notes</a>
and <a href="#section2">below</a>.</p>
<a href="https://other.example.com/files/9">elsewhere</a>
<a href="mailto:prof@example.edu">mail</a>
<a href="">empty</a>
<iframe src="https://CANVAS.example.edu/courses/5/files/43/preview"></iframe>
<embed src="files/44">
<a href="/courses/5/files/42/download?verifier=xyz">duplicate</a>
<img src="/courses/5/files/45/preview">
`
	got, err := ExtractURLs(body, testBase)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://canvas.example.edu/courses/5/files/42/download?verifier=xyz",
		"https://CANVAS.example.edu/courses/5/files/43/preview",
		"https://canvas.example.edu/files/44",
	}, got)
}

func TestFileID(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"/courses/5/files/42/download?verifier=xyz", "42", true},
		{"https://canvas.example.edu/files/7", "7", true},
		{"https://canvas.example.edu/courses/5/download?files=88", "88", true},
		{"https://canvas.example.edu/courses/5/download?wrap=1&files=89", "89", true},
		{"https://canvas.example.edu/preview?files=90", "90", true},
		{"https://canvas.example.edu/files/11/download?files=12", "11", true},
		{"https://canvas.example.edu/courses/5/pages/intro", "", false},
		{"https://canvas.example.edu/download?xfiles=3", "", false},
		{"#section2", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := FileID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument("Slides.PPTX"))
	assert.True(t, IsDocument("page.htm"))
	assert.False(t, IsDocument("photo.jpg"))
	assert.False(t, IsDocument("archive.zip"))
}

// fakeFiles serves canned file metadata by ID.
type fakeFiles struct {
	records map[string]types.FileRecord
	calls   []string
}

func (f *fakeFiles) File(_ context.Context, id string) (types.FileRecord, error) {
	f.calls = append(f.calls, id)
	rec, ok := f.records[id]
	if !ok {
		return types.FileRecord{}, errors.New("HTTP 404")
	}
	return rec, nil
}

func TestResolve(t *testing.T) {
	files := &fakeFiles{records: map[string]types.FileRecord{
		"42": {ID: 42, Filename: "Week+1.pdf", URL: "https://canvas.example.edu/files/42/download"},
		"43": {ID: 43, Filename: "diagram.png", URL: "https://canvas.example.edu/files/43/download"},
		"44": {ID: 44, Filename: "old.docx", URL: "https://canvas.example.edu/files/44/download"},
	}}

	var downloads []string
	r := &Resolver{
		Files: files,
		Base:  testBase,
		Download: func(_ context.Context, rec types.FileRecord, targetDir, pdfDir string) types.ItemResult {
			downloads = append(downloads, rec.Filename)
			path := filepath.Join(targetDir, rec.Filename)
			if rec.ID == 44 {
				return types.ItemResult{Status: types.StatusSkipped, Path: path, Reason: "up to date"}
			}
			return types.ItemResult{Status: types.StatusDownloaded, Path: path}
		},
	}

	body := `<a href="/courses/1/files/42">a</a>
<a href="/courses/1/files/42/download">again</a>
<a href="/courses/1/files/43">b</a>
<a href="/courses/1/download?files=44">c</a>
<a href="/courses/1/files/99">missing</a>
<a href="#top">top</a>
<a href="https://elsewhere.org/files/1">off</a>`

	var log bytes.Buffer
	res := r.Resolve(context.Background(), body, "/dl/Module", "/dl/PDF_Versions", &log)

	assert.Equal(t, []string{"42", "43", "44", "99"}, files.calls)
	assert.Equal(t, []string{"Week+1.pdf", "old.docx"}, downloads)
	assert.Equal(t, []string{filepath.Join("/dl/Module", "Week+1.pdf")}, res.Downloaded)

	require.Len(t, res.Items, 3)
	assert.Equal(t, types.StatusDownloaded, res.Items[0].Status)
	assert.Equal(t, types.StatusSkipped, res.Items[1].Status)
	assert.Equal(t, types.StatusFailed, res.Items[2].Status)
	for _, it := range res.Items {
		assert.Equal(t, "embedded", it.Kind)
	}
	assert.Contains(t, log.String(), "failed:  embedded file 99")
}

func TestResolve_NoLinks(t *testing.T) {
	files := &fakeFiles{}
	r := &Resolver{Files: files, Base: testBase, Download: func(context.Context, types.FileRecord, string, string) types.ItemResult {
		t.Fatal("download should not be called")
		return types.ItemResult{}
	}}

	res := r.Resolve(context.Background(), `<a href="#section2">x</a><p>plain</p>`, "/d", "/d/PDF_Versions", &bytes.Buffer{})
	assert.Empty(t, res.Downloaded)
	assert.Empty(t, res.Items)
	assert.Empty(t, files.calls)
}
