// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules loads download rules from a line-oriented rule file and
// decides, per course, whether and where its content is synced.
//
// Each non-blank line has the form nickname:mode:path, for example
//
//	CS101:files:~/school/cs101
//	Bio:both:'/data/biology'
package rules

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/lms-sync/pkg/types"
)

// DefaultFile is the conventional rule file name.
const DefaultFile = "downSubjects.txt"

// homeDir is swapped in tests.
var homeDir = os.UserHomeDir

// Decision is the outcome of matching a course against the rules.
type Decision struct {
	Download bool
	Mode     types.DownloadMode
	Path     string
	// Nickname is the matching rule's nickname; empty for the fallback.
	Nickname string
}

// Load reads rules from path in file order. A missing file is not an error:
// Load prints a warning to w and returns no rules, which makes Match fall
// back to downloading every course.
//
// Lines are split on every ':' and the third field is taken as the path,
// so a path that itself contains ':' is truncated at its first colon.
func Load(path string, w io.Writer) ([]types.DownloadRule, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(w, "warning: %s not found, all courses will be downloaded\n", path)
			return nil, nil
		}
		return nil, fmt.Errorf("opening rule file %s: %w", path, err)
	}
	defer f.Close()

	var rules []types.DownloadRule
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rule, ok := parseLine(line)
		if !ok {
			fmt.Fprintf(w, "warning: %s:%d: expected nickname:mode:path, got %q\n", path, lineNo, line)
			continue
		}
		rules = append(rules, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading rule file %s: %w", path, err)
	}
	return rules, nil
}

func parseLine(line string) (types.DownloadRule, bool) {
	parts := strings.Split(line, ":")
	if len(parts) < 3 {
		return types.DownloadRule{}, false
	}
	return types.DownloadRule{
		Nickname: strings.TrimSpace(parts[0]),
		Mode:     types.DownloadMode(strings.ToLower(strings.TrimSpace(parts[1]))),
		Path:     expandHome(strings.Trim(strings.TrimSpace(parts[2]), `'"`)),
	}, true
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := homeDir()
	if err != nil || home == "" {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Match returns the decision for courseName. The first rule whose nickname
// is a case-insensitive substring of the course name wins. With no rules,
// every course is downloaded in both modes into defaultPath.
func Match(rules []types.DownloadRule, courseName, defaultPath string) Decision {
	if len(rules) == 0 {
		return Decision{Download: true, Mode: types.ModeBoth, Path: defaultPath}
	}
	name := strings.ToLower(courseName)
	for _, r := range rules {
		if strings.Contains(name, strings.ToLower(r.Nickname)) {
			return Decision{Download: true, Mode: r.Mode, Path: r.Path, Nickname: r.Nickname}
		}
	}
	return Decision{}
}
