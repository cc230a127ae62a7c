// Package defaults assembles the built-in tools into a single registry that
// agents draw their tool subsets from.
package defaults

import (
	"github.com/germanamz/actloop/pkg/codingtoolbox/calc"
	"github.com/germanamz/actloop/pkg/codingtoolbox/exec"
	"github.com/germanamz/actloop/pkg/codingtoolbox/filesystem"
	"github.com/germanamz/actloop/pkg/codingtoolbox/search"
	"github.com/germanamz/actloop/pkg/codingtoolbox/web"
	"github.com/germanamz/actloop/pkg/tools/toolbox"
)

// Config configures every built-in tool.
type Config struct {
	Registry   toolbox.Options
	Exec       exec.Config
	Filesystem filesystem.Config
	Search     search.Config
	Web        web.Config
}

// ToolNames lists the built-in tools in registration order.
var ToolNames = []string{
	"bash", "read_file", "write_file", "list_dir", "search_files", "calculator", "fetch_url",
}

// New builds a registry by merging the given toolboxes in order. A tool name
// registered by two toolboxes fails with toolbox.ErrDuplicateTool.
func New(opts toolbox.Options, toolboxes ...*toolbox.ToolBox) (*toolbox.ToolBox, error) {
	tb := toolbox.NewWithOptions(opts)
	for _, other := range toolboxes {
		if err := tb.Merge(other); err != nil {
			return nil, err
		}
	}

	return tb, nil
}

// Builtins returns a registry holding every built-in tool.
func Builtins(cfg Config) (*toolbox.ToolBox, error) {
	return New(cfg.Registry,
		exec.New(cfg.Exec).Tools(),
		filesystem.New(cfg.Filesystem).Tools(),
		search.New(cfg.Search).Tools(),
		calc.New().Tools(),
		web.New(cfg.Web).Tools(),
	)
}
