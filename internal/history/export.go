// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lms-sync/pkg/types"
)

// ExportEntry is one run with its items, as written to export files.
type ExportEntry struct {
	Run   Run                `json:"run" yaml:"run"`
	Items []types.ItemResult `json:"items" yaml:"items"`
}

const exportLimit = 100000

// ExportYAML writes run runID to <dir>/run-<id>.yaml and returns the path.
func (s *Store) ExportYAML(ctx context.Context, runID int64) (string, error) {
	entry, err := s.exportEntry(ctx, runID)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("run-%d.yaml", runID))
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes run runID to <dir>/run-<id>.json and returns the path.
func (s *Store) ExportJSON(ctx context.Context, runID int64) (string, error) {
	entry, err := s.exportEntry(ctx, runID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("run-%d.json", runID))
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntry(ctx context.Context, runID int64) (ExportEntry, error) {
	var r Run
	var started, finished string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started, COALESCE(finished, ''), downloaded, skipped, failed FROM runs WHERE id = ?`, runID,
	).Scan(&r.ID, &started, &finished, &r.Downloaded, &r.Skipped, &r.Failed)
	if err != nil {
		return ExportEntry{}, fmt.Errorf("loading run %d: %w", runID, err)
	}
	r.Started = parseTime(started)
	r.Finished = parseTime(finished)

	items, err := s.Items(ctx, QueryOptions{RunID: runID, MaxResults: exportLimit})
	if err != nil {
		return ExportEntry{}, fmt.Errorf("querying for export: %w", err)
	}
	// Items come back newest first; exports keep run order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return ExportEntry{Run: r, Items: items}, nil
}
