// Package content defines the parts a conversation turn is made of.
package content

// Part is a piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// ToolCall is an assistant's request to invoke a tool. Arguments holds the
// raw JSON object produced by the model; it is validated by the registry, not
// here. ID is unique within one assistant turn and is echoed back by the
// matching ToolResult.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ErrorKind classifies a failed tool invocation.
type ErrorKind string

const (
	ErrorNone             ErrorKind = ""
	ErrorUnknownTool      ErrorKind = "unknown_tool"
	ErrorInvalidArguments ErrorKind = "invalid_arguments"
	ErrorExecution        ErrorKind = "execution_error"
	ErrorCancelled        ErrorKind = "cancelled"
)

// ToolResult holds the output (or normalized failure) of one tool invocation.
// ExitCode is only set by shell-like tools that report one.
type ToolResult struct {
	ToolCallID string
	ToolName   string
	Content    string
	IsError    bool
	Kind       ErrorKind
	ExitCode   *int
}

func (tr ToolResult) PartKind() string { return "tool_result" }
