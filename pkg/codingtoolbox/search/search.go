// Package search provides search_files, which finds files by glob pattern
// under a directory tree.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
)

// MaxResults caps the number of paths search_files returns.
const MaxResults = 50

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var errLimit = errors.New("search: result limit reached")

// skippedDirs are never descended into, in addition to hidden directories.
var skippedDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
}

// Config configures the search tool.
type Config struct {
	Root string // Base for relative paths; empty means the working directory.
}

// Search provides the search_files tool.
type Search struct {
	cfg Config
}

// New creates a Search.
func New(cfg Config) *Search {
	return &Search{cfg: cfg}
}

// Tools returns a ToolBox containing the search tools.
func (s *Search) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.MustRegister(s.filesTool())

	return tb
}

type filesInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

func (s *Search) filesTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "search_files",
		Description: "Find files whose name matches a glob pattern (e.g. *.go). Hidden directories, node_modules, __pycache__ and venv are skipped. Returns at most 50 paths.",
		Params: []toolbox.Param{
			{Name: "pattern", Type: toolbox.TypeString, Description: "File name pattern, supports * and ? wildcards", Required: true},
			{Name: "path", Type: toolbox.TypeString, Description: "Directory to search, defaults to the current directory"},
		},
		Handler: s.handleFiles,
	}
}

func (s *Search) handleFiles(ctx context.Context, input json.RawMessage) (string, error) {
	var in filesInput
	if err := jsonAPI.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("search_files: invalid input: %w", err)
	}

	if _, err := filepath.Match(in.Pattern, ""); err != nil {
		return "", fmt.Errorf("search_files: invalid pattern %q: %w", in.Pattern, err)
	}

	display := in.Path
	if display == "" {
		display = "."
	}

	root := display
	if !filepath.IsAbs(root) && s.cfg.Root != "" {
		root = filepath.Join(s.cfg.Root, root)
	}

	matches, truncated, err := find(ctx, root, display, in.Pattern)
	if err != nil {
		return "", fmt.Errorf("search_files: %w", err)
	}

	if len(matches) == 0 {
		return fmt.Sprintf("no files matching %q", in.Pattern), nil
	}

	out := strings.Join(matches, "\n")
	if truncated {
		out += fmt.Sprintf("\n... (showing the first %d matches)", MaxResults)
	}

	return out, nil
}

// find walks root and returns matching file paths rendered under display.
func find(ctx context.Context, root, display, pattern string) ([]string, bool, error) {
	var (
		matches   []string
		truncated bool
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || skippedDirs[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}

		if ok, _ := filepath.Match(pattern, d.Name()); !ok {
			return nil
		}

		if len(matches) == MaxResults {
			truncated = true
			return errLimit
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		matches = append(matches, filepath.Join(display, rel))

		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, false, err
	}

	return matches, truncated, nil
}
