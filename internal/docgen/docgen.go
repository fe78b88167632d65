// Package docgen batch-generates markdown documentation for source files.
// Each matching file is sent to the model with a documentation prompt; the
// results are written as .md files plus a JSON manifest suitable for
// ingestion.
package docgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrollab/askdocs/internal/answer"
	"github.com/scrollab/askdocs/internal/corpus"
	"github.com/scrollab/askdocs/internal/log"
)

// manifestName is the JSON manifest written next to the generated docs.
const manifestName = "output.json"

// ManifestEntry describes one generated document.
type ManifestEntry struct {
	PageContent string        `json:"pageContent"`
	Metadata    EntryMetadata `json:"metadata"`
}

// EntryMetadata names the source file a document was generated from.
type EntryMetadata struct {
	Name string `json:"name"`
}

// Options configures a Generator run.
type Options struct {
	// Extension selects source files, e.g. ".cairo".
	Extension string
	// OutputDir receives the generated .md files and the manifest.
	OutputDir string
}

// Result summarizes a run.
type Result struct {
	Generated int
	Failed    map[string]error
}

// Generator documents a source tree.
type Generator struct {
	model  answer.Generator
	opts   Options
	logger log.Logger
}

// New creates a Generator.
func New(model answer.Generator, opts Options, logger log.Logger) (*Generator, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.Extension == "" {
		return nil, fmt.Errorf("extension must not be empty")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory must not be empty")
	}
	return &Generator{model: model, opts: opts, logger: logger}, nil
}

// Run documents every matching file under root. A failure on one file is
// recorded and the run continues; the manifest lists only successful files.
func (g *Generator) Run(ctx context.Context, root string) (*Result, error) {
	loader := corpus.NewLoader([]string{g.opts.Extension}, g.logger)
	loaded, err := loader.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}

	if err := os.MkdirAll(g.opts.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	result := &Result{Failed: make(map[string]error)}
	for path, loadErr := range loaded.Failed {
		result.Failed[path] = loadErr
	}

	var manifest []ManifestEntry
	for _, doc := range loaded.Documents {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("documenting sources: %w", err)
		}

		markdown, err := g.document(ctx, doc)
		if err != nil {
			g.logger.Warn("documentation failed", "path", doc.Path, "error", err)
			result.Failed[doc.Path] = err
			continue
		}

		name := docName(doc.Path, g.opts.Extension)
		outPath := filepath.Join(g.opts.OutputDir, name+".md")
		if err := os.WriteFile(outPath, []byte(markdown), 0o644); err != nil {
			result.Failed[doc.Path] = fmt.Errorf("writing %s: %w", outPath, err)
			continue
		}

		manifest = append(manifest, ManifestEntry{
			PageContent: markdown,
			Metadata:    EntryMetadata{Name: name},
		})
		result.Generated++
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	manifestPath := filepath.Join(g.opts.OutputDir, manifestName)
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	g.logger.Info("documentation generated",
		"root", root,
		"generated", result.Generated,
		"failed", len(result.Failed))

	return result, nil
}

const docPrompt = `Write clear markdown documentation for the following source file.
Describe its purpose, public interface and noteworthy behavior. Do not
reproduce the entire file; quote only the signatures that matter.

File: %s

%s`

// document asks the model for one file's documentation, accumulating the
// streamed tokens into the final markdown.
func (g *Generator) document(ctx context.Context, doc corpus.Document) (string, error) {
	var b strings.Builder
	err := g.model.Generate(ctx, fmt.Sprintf(docPrompt, filepath.Base(doc.Path), doc.Text),
		func(token string) error {
			b.WriteString(token)
			return nil
		})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("model returned empty documentation")
	}
	return b.String(), nil
}

// docName derives the output name from the source path: base name with the
// source extension stripped.
func docName(path, ext string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ext)
}
