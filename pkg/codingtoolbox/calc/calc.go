// Package calc provides the calculator tool. Expressions are evaluated by the
// langchaingo calculator, which runs them through a sandboxed Starlark
// interpreter with the math module in scope.
package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/actloop/pkg/tools/toolbox"
	jsoniter "github.com/json-iterator/go"
	lctools "github.com/tmc/langchaingo/tools"
)

const evaluatorErrorPrefix = "error from evaluator:"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Calc provides the calculator tool.
type Calc struct {
	eval lctools.Calculator
}

// New creates a Calc.
func New() *Calc {
	return &Calc{}
}

// Tools returns a ToolBox containing the calculator tool.
func (c *Calc) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.MustRegister(toolbox.Tool{
		Name:        "calculator",
		Description: "Evaluate a math expression such as '2 + 3 * 4' or 'sqrt(16) + pow(2, 10)'.",
		Params: []toolbox.Param{
			{Name: "expression", Type: toolbox.TypeString, Description: "The expression to evaluate", Required: true},
		},
		Handler: c.handle,
	})

	return tb
}

type input struct {
	Expression string `json:"expression"`
}

func (c *Calc) handle(ctx context.Context, raw json.RawMessage) (string, error) {
	var in input
	if err := jsonAPI.Unmarshal(raw, &in); err != nil {
		return "", fmt.Errorf("calculator: invalid input: %w", err)
	}

	expr := strings.TrimSpace(in.Expression)
	if expr == "" {
		return "", fmt.Errorf("calculator: expression is required")
	}

	out, err := c.eval.Call(ctx, expr)
	if err != nil {
		return "", fmt.Errorf("calculator: %w", err)
	}

	// The evaluator reports failures in its output rather than as an error.
	if msg, ok := strings.CutPrefix(out, evaluatorErrorPrefix); ok {
		return "", fmt.Errorf("calculator: cannot evaluate %q: %s", expr, strings.TrimSpace(msg))
	}

	return out, nil
}
