// Package filesystem provides read_file, write_file and list_dir. Relative
// paths resolve against a configurable root directory, and when a root is set
// no path may leave it. Writes report a unified diff of the change and are
// serialised per path.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrOutsideRoot is returned for a path that resolves outside Config.Root.
var ErrOutsideRoot = errors.New("path is outside the root directory")

// NotifyFunc receives a non-blocking notice for every file change, e.g. to
// show the diff in a terminal.
type NotifyFunc func(ctx context.Context, message string)

// Config configures the filesystem tools.
type Config struct {
	Root   string // Base for relative paths and the confinement boundary; empty means the working directory, unconfined.
	Notify NotifyFunc
}

// FS provides the filesystem tools.
type FS struct {
	cfg   Config
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an FS.
func New(cfg Config) *FS {
	return &FS{cfg: cfg, locks: make(map[string]*sync.Mutex)}
}

// Tools returns a ToolBox containing the filesystem tools.
func (f *FS) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.MustRegister(f.readTool(), f.writeTool(), f.listTool())

	return tb
}

// resolve maps an agent-supplied path onto the filesystem. The check is
// lexical; symlinks inside the root are followed.
func (f *FS) resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}
	if f.cfg.Root == "" {
		return filepath.Clean(path), nil
	}

	root, err := filepath.Abs(f.cfg.Root)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return path, nil
}

func (f *FS) lock(path string) func() {
	f.mu.Lock()
	m, ok := f.locks[path]
	if !ok {
		m = &sync.Mutex{}
		f.locks[path] = m
	}
	f.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// --- read_file ---

type readInput struct {
	Path string `json:"path"`
}

func (f *FS) readTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "read_file",
		Description: "Read the contents of a file. Use it to inspect code and configuration files.",
		Params: []toolbox.Param{
			{Name: "path", Type: toolbox.TypeString, Description: "Path of the file to read", Required: true},
		},
		Handler: f.handleRead,
	}
}

func (f *FS) handleRead(_ context.Context, input json.RawMessage) (string, error) {
	var in readInput
	if err := jsonAPI.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("read_file: invalid input: %w", err)
	}

	path, err := f.resolve(in.Path)
	if err != nil {
		return "", fmt.Errorf("read_file: %s: %w", in.Path, err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the agent
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read_file: file not found: %s", in.Path)
		}
		return "", fmt.Errorf("read_file: %w", err)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("read_file: %s is not a UTF-8 text file", in.Path)
	}
	if len(data) == 0 {
		return "(empty file)", nil
	}

	return string(data), nil
}

// --- write_file ---

type writeInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (f *FS) writeTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "write_file",
		Description: "Write content to a file, creating it and any missing parent directories. Existing files are overwritten.",
		Params: []toolbox.Param{
			{Name: "path", Type: toolbox.TypeString, Description: "Path of the file to write", Required: true},
			{Name: "content", Type: toolbox.TypeString, Description: "The full content to write", Required: true},
		},
		Handler: f.handleWrite,
	}
}

func (f *FS) handleWrite(ctx context.Context, input json.RawMessage) (string, error) {
	var in writeInput
	if err := jsonAPI.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("write_file: invalid input: %w", err)
	}
	if strings.TrimSpace(in.Path) == "" {
		return "", fmt.Errorf("write_file: path is required")
	}

	path, err := f.resolve(in.Path)
	if err != nil {
		return "", fmt.Errorf("write_file: %s: %w", in.Path, err)
	}

	unlock := f.lock(path)
	defer unlock()

	old, err := os.ReadFile(path) //nolint:gosec // path is chosen by the agent
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("write_file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("write_file: create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(in.Content), fileMode(path)); err != nil {
		return "", fmt.Errorf("write_file: %w", err)
	}

	diff := computeDiff(in.Path, string(old), in.Content)
	if diff != "" && f.cfg.Notify != nil {
		f.cfg.Notify(ctx, fmt.Sprintf("File change: %s\n%s", in.Path, diff))
	}

	msg := fmt.Sprintf("wrote %d characters to %s", utf8.RuneCountInString(in.Content), in.Path)
	if diff == "" {
		return msg + " (unchanged)", nil
	}

	return msg + "\n\n" + diff, nil
}

// fileMode returns the existing file's permission bits, or 0o600 for new files.
func fileMode(path string) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return 0o600
	}

	return info.Mode().Perm()
}

// --- list_dir ---

type listInput struct {
	Path string `json:"path"`
}

func (f *FS) listTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "list_dir",
		Description: "List the entries of a directory. Directories end with a slash; files show their size.",
		Params: []toolbox.Param{
			{Name: "path", Type: toolbox.TypeString, Description: "Directory to list, defaults to the current directory"},
		},
		Handler: f.handleList,
	}
}

func (f *FS) handleList(_ context.Context, input json.RawMessage) (string, error) {
	var in listInput
	if err := jsonAPI.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("list_dir: invalid input: %w", err)
	}

	path, err := f.resolve(in.Path)
	if err != nil {
		return "", fmt.Errorf("list_dir: %s: %w", in.Path, err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("list_dir: directory not found: %s", in.Path)
		}
		return "", fmt.Errorf("list_dir: %w", err)
	}

	if len(entries) == 0 {
		return "(empty directory)", nil
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			lines = append(lines, e.Name()+"/")
			continue
		}

		info, err := e.Info()
		if err != nil {
			lines = append(lines, e.Name())
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%d bytes)", e.Name(), info.Size()))
	}

	return strings.Join(lines, "\n"), nil
}
