// Package fallback provides the NONE executor, which answers requests the
// classifier did not understand.
package fallback

import (
	"context"

	"github.com/rhuss/datapilot/pkg/tools"
)

// DefaultMessage is the answer returned for unrecognized requests.
const DefaultMessage = "Não entendi a sua pergunta sobre vendas ou previsões."

// Executor implements tools.ToolExecutor for ToolKindNone.
type Executor struct {
	message string
}

// Ensure Executor implements tools.ToolExecutor at compile time.
var _ tools.ToolExecutor = (*Executor)(nil)

// New creates an Executor answering with message, or DefaultMessage when
// message is empty.
func New(message string) *Executor {
	if message == "" {
		message = DefaultMessage
	}
	return &Executor{message: message}
}

// Kind returns tools.ToolKindNone.
func (e *Executor) Kind() tools.ToolKind {
	return tools.ToolKindNone
}

// Execute returns the fixed answer. It never fails.
func (e *Executor) Execute(_ context.Context, _ tools.ToolCall) (*tools.ToolResult, error) {
	return &tools.ToolResult{Kind: tools.ToolKindNone, Output: e.message}, nil
}
