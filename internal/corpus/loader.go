// Package corpus loads documentation files from disk and splits them into
// overlapping chunks for embedding.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scrollab/askdocs/internal/log"
)

// Document is a single source file loaded from the corpus.
type Document struct {
	// Path is the absolute path of the file on disk. It becomes the chunk's
	// source attribution, so it must be stable across runs.
	Path string

	// Text is the full file content.
	Text string
}

// LoadResult reports what a Load pass saw.
type LoadResult struct {
	Documents []Document
	// Skipped counts files whose extension did not match.
	Skipped int
	// Failed maps file paths to the read error. A failed file does not abort
	// the load; callers decide whether partial results are acceptable.
	Failed map[string]error
}

// Loader walks a directory tree and reads files whose extension matches.
type Loader struct {
	extensions map[string]bool
	logger     log.Logger
}

// NewLoader creates a Loader accepting the given extensions (with leading
// dot, e.g. ".adoc"). Matching is case-insensitive.
func NewLoader(extensions []string, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.NewNop()
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Loader{extensions: exts, logger: logger}
}

// Load reads all matching files under root. The traversal maintains an
// explicit worklist of directories instead of recursing, so arbitrarily deep
// trees cannot exhaust the stack. Hidden directories (".git" and friends) are
// skipped. An unreadable root is fatal; an unreadable file or subdirectory is
// recorded in Failed and the walk continues.
//
// Documents are returned in lexical path order so ingestion output is
// deterministic.
func (l *Loader) Load(root string) (*LoadResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat corpus root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	result := &LoadResult{Failed: make(map[string]error)}

	worklist := []string{root}
	for len(worklist) > 0 {
		dir := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			if dir == root {
				return nil, fmt.Errorf("read corpus root %s: %w", root, err)
			}
			l.logger.Warn("skipping unreadable directory", "dir", dir, "error", err)
			result.Failed[dir] = err
			continue
		}

		for _, entry := range entries {
			name := entry.Name()
			path := filepath.Join(dir, name)

			if entry.IsDir() {
				if strings.HasPrefix(name, ".") {
					continue
				}
				worklist = append(worklist, path)
				continue
			}

			if !l.matches(name) {
				result.Skipped++
				continue
			}

			data, err := os.ReadFile(path)
			if err != nil {
				l.logger.Warn("skipping unreadable file", "path", path, "error", err)
				result.Failed[path] = err
				continue
			}

			result.Documents = append(result.Documents, Document{
				Path: path,
				Text: string(data),
			})
		}
	}

	sort.Slice(result.Documents, func(i, j int) bool {
		return result.Documents[i].Path < result.Documents[j].Path
	})

	l.logger.Debug("corpus loaded",
		"root", root,
		"documents", len(result.Documents),
		"skipped", result.Skipped,
		"failed", len(result.Failed))

	return result, nil
}

func (l *Loader) matches(name string) bool {
	return l.extensions[strings.ToLower(filepath.Ext(name))]
}
