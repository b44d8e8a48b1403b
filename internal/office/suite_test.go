// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"errors"
	"strings"
	"testing"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	combinedFunc  func(name string, args ...string) ([]byte, error)
	calls         []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunCombined(name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, name+" "+strings.Join(args, " "))
	if m.combinedFunc != nil {
		return m.combinedFunc(name, args...)
	}
	return nil, nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "soffice available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"soffice": true},
				runnableCmds:  map[string]bool{"soffice --headless --version": true},
			},
			wantName: "soffice",
		},
		{
			name: "libreoffice fallback when soffice missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"libreoffice": true},
				runnableCmds:  map[string]bool{"libreoffice --headless --version": true},
			},
			wantName: "libreoffice",
		},
		{
			name: "neither available",
			exec: &mockExecutor{
				availableBins: map[string]bool{},
				runnableCmds:  map[string]bool{},
			},
			wantErr: true,
		},
		{
			name: "soffice on PATH but probe fails, libreoffice works",
			exec: &mockExecutor{
				availableBins: map[string]bool{"soffice": true, "libreoffice": true},
				runnableCmds:  map[string]bool{"libreoffice --headless --version": true},
			},
			wantName: "libreoffice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := detect(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no office suite available") {
					t.Errorf("error should mention no suite available, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("got suite %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}

func TestConvertToPDF(t *testing.T) {
	exec := &mockExecutor{}
	s := &suite{bin: "soffice", exec: exec}

	if err := s.ConvertToPDF("/c/Lecture 1.docx", "/c/PDF_Versions"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "soffice --headless --convert-to pdf --outdir /c/PDF_Versions /c/Lecture 1.docx"
	if len(exec.calls) != 1 || exec.calls[0] != want {
		t.Errorf("calls = %q, want [%q]", exec.calls, want)
	}
}

func TestConvertToPDF_Failure(t *testing.T) {
	exec := &mockExecutor{
		combinedFunc: func(string, ...string) ([]byte, error) {
			return []byte("Error: source file could not be loaded\n"), errors.New("exit status 1")
		},
	}
	s := &suite{bin: "soffice", exec: exec}

	err := s.ConvertToPDF("/c/broken.doc", "/c/PDF_Versions")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "could not be loaded") {
		t.Errorf("error should carry converter output, got: %v", err)
	}
}
