package toolbox

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTool is returned by Register when a tool name is already taken.
	ErrDuplicateTool = errors.New("toolbox: duplicate tool")
	// ErrUnknownTool is reported when a call names a tool that is not registered.
	ErrUnknownTool = errors.New("toolbox: unknown tool")
	// ErrInvalidArguments is reported when call arguments do not match the schema.
	ErrInvalidArguments = errors.New("toolbox: invalid arguments")
	// ErrToolExecution matches every ExecError, including recovered panics.
	// It never appears in a result's Content.
	ErrToolExecution = errors.New("toolbox: tool execution failed")
	// ErrInvalidTool is returned by Register for tools without a name or handler.
	ErrInvalidTool = errors.New("toolbox: invalid tool")
)

// ExecError is the error shape handlers return to report a failed execution
// with an optional exit code.
type ExecError struct {
	Message string
	Code    *int
}

// Exit creates an ExecError carrying an exit code.
func Exit(code int, msg string) *ExecError {
	return &ExecError{Message: msg, Code: &code}
}

func (e *ExecError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("%s (exit code %d)", e.Message, *e.Code)
	}
	return e.Message
}

// Is makes errors.Is(err, ErrToolExecution) hold for every ExecError.
func (e *ExecError) Is(target error) bool {
	return target == ErrToolExecution
}
