package tools

import (
	"context"
	"fmt"
	"strings"
)

// ToolKind is the tagged variant over the tools a request can be routed to.
type ToolKind int

const (
	// ToolKindNone means the request was not understood. The router
	// answers with a fixed explanation instead of running a backend.
	ToolKindNone ToolKind = iota

	// ToolKindSQL is the sales query tool. It builds a tenant-scoped SQL
	// statement and reports the aggregated result.
	ToolKindSQL
)

// String returns the wire label of the kind ("NONE", "SQL_TOOL").
func (k ToolKind) String() string {
	switch k {
	case ToolKindNone:
		return "NONE"
	case ToolKindSQL:
		return "SQL_TOOL"
	default:
		return fmt.Sprintf("ToolKind(%d)", int(k))
	}
}

// ParseToolKind converts a wire label back to a ToolKind. Matching is
// case-insensitive.
func ParseToolKind(s string) (ToolKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return ToolKindNone, nil
	case "SQL_TOOL":
		return ToolKindSQL, nil
	default:
		return ToolKindNone, fmt.Errorf("unknown tool kind %q", s)
	}
}

// ToolExecutor runs one kind of tool.
type ToolExecutor interface {
	// Kind returns the tool kind this executor handles.
	Kind() ToolKind

	// Execute runs the tool for the call's tenant.
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)
}

// ToolCall is a request to run a tool on behalf of a tenant.
type ToolCall struct {
	// TenantID scopes everything the tool reads or reports.
	TenantID string

	// Text is the caller's free-text request.
	Text string
}

// ToolResult is the output of a tool execution.
type ToolResult struct {
	// Kind is the tool that produced the result.
	Kind ToolKind

	// Query is the statement the tool ran, if any.
	Query string

	// Output is the human-readable answer.
	Output string

	// IsError indicates that Output describes a failure.
	IsError bool
}
