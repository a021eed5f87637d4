// Package tasks removes completed Markdown checklist items from a notes tree.
package tasks

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DoneMarker marks a completed checklist item.
const DoneMarker = "- [x]"

// FileResult reports the lines removed from one file.
type FileResult struct {
	Path    string `json:"path"`
	Removed int    `json:"removed"`
}

// Total sums the removed lines of results.
func Total(results []FileResult) int {
	n := 0
	for _, r := range results {
		n += r.Removed
	}
	return n
}

// ClearCompleted walks root and drops every completed checklist line from
// each .md file. Hidden directories such as .git are not entered. Only files
// that changed are reported.
func ClearCompleted(root string) ([]FileResult, error) {
	var results []FileResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != ".md" {
			return nil
		}
		removed, err := ClearFile(path)
		if err != nil {
			return err
		}
		if removed > 0 {
			results = append(results, FileResult{Path: path, Removed: removed})
		}
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("syncsched: clear completed tasks: %w", err)
	}
	return results, nil
}

// ClearFile rewrites one file without its completed checklist lines and
// returns how many were removed. An unchanged file is not rewritten.
func ClearFile(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	kept, removed := Strip(data)
	if removed == 0 {
		return 0, nil
	}
	if err := os.WriteFile(path, kept, info.Mode().Perm()); err != nil {
		return 0, err
	}
	return removed, nil
}

// Strip returns data without the lines that contain DoneMarker. Kept lines
// keep their own line endings.
func Strip(data []byte) ([]byte, int) {
	out := make([]byte, 0, len(data))
	removed := 0
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if IsCompleted(string(line)) {
			removed++
			continue
		}
		out = append(out, line...)
	}
	return out, removed
}

// IsCompleted reports whether line is a completed checklist item.
func IsCompleted(line string) bool {
	return strings.Contains(line, DoneMarker)
}
