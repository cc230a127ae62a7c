package modeladapter

import (
	"fmt"

	"github.com/germanamz/actloop/pkg/chats/content"
)

// ResultText renders a tool result for a provider wire format. Error results
// are prefixed so the model can tell a failure from regular output.
func ResultText(tr content.ToolResult) string {
	if !tr.IsError {
		return tr.Content
	}
	if tr.ExitCode != nil {
		return fmt.Sprintf("error (%s, exit code %d): %s", tr.Kind, *tr.ExitCode, tr.Content)
	}
	if tr.Kind != content.ErrorNone {
		return fmt.Sprintf("error (%s): %s", tr.Kind, tr.Content)
	}
	return "error: " + tr.Content
}
