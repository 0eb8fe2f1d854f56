// Package dispatch routes a tenant's free-text request to a tool and
// returns a tenant-scoped result.
//
// Dispatch is total: every input yields a Result. When the selected tool
// has no executor, or its executor fails, the router answers with the NONE
// tool instead of surfacing an error.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/rhuss/datapilot/pkg/auth"
	"github.com/rhuss/datapilot/pkg/debug"
	"github.com/rhuss/datapilot/pkg/observability"
	"github.com/rhuss/datapilot/pkg/tools"
	"github.com/rhuss/datapilot/pkg/tools/builtins/fallback"
)

// Result is the outcome of a dispatch.
type Result struct {
	// OrganizationID is always the caller's tenant.
	OrganizationID string

	// Tool is the tool that produced the result.
	Tool tools.ToolKind

	// Query is the statement the tool synthesized. Empty for NONE.
	Query string

	// SimulatedResult is the human-readable answer.
	SimulatedResult string
}

// Executors runs tools by kind. *registry.Registry implements it.
type Executors interface {
	Execute(ctx context.Context, kind tools.ToolKind, call tools.ToolCall) (*tools.ToolResult, error)
}

// Config holds optional router settings.
type Config struct {
	// AllowedTools restricts which tools may be selected. Empty allows all.
	AllowedTools []tools.ToolKind

	// FallbackMessage is the NONE answer used when the NONE executor itself
	// is unavailable. Default: fallback.DefaultMessage.
	FallbackMessage string
}

// Router classifies requests and runs the selected tool.
type Router struct {
	classifier tools.Classifier
	executors  Executors
	cfg        Config
}

// New creates a Router. A nil classifier means tools.DefaultClassifier.
func New(classifier tools.Classifier, executors Executors, cfg Config) *Router {
	if classifier == nil {
		classifier = tools.DefaultClassifier()
	}
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = fallback.DefaultMessage
	}
	return &Router{classifier: classifier, executors: executors, cfg: cfg}
}

// Classify returns the tool that Dispatch would select for text, after the
// allow-list is applied.
func (r *Router) Classify(text string) tools.ToolKind {
	return tools.FilterAllowed(r.classifier.Classify(text), r.cfg.AllowedTools)
}

// Dispatch runs the tool selected for text on behalf of sess's tenant.
func (r *Router) Dispatch(ctx context.Context, sess *auth.Session, text string) *Result {
	tenant := sess.TenantID
	kind := r.Classify(text)

	debug.Log("dispatch", "classified request",
		"tenant_id", tenant,
		"tool", kind.String(),
		"text", debug.Truncate(text, 80),
	)

	call := tools.ToolCall{TenantID: tenant, Text: text}
	res, err := r.executors.Execute(ctx, kind, call)
	if err != nil || res == nil || res.IsError {
		if kind != tools.ToolKindNone {
			slog.Warn("tool failed, answering with NONE",
				"tool", kind.String(),
				"tenant_id", tenant,
				"error", err,
			)
			res, err = r.executors.Execute(ctx, tools.ToolKindNone, call)
		}
		if err != nil || res == nil || res.IsError {
			res = &tools.ToolResult{Output: r.cfg.FallbackMessage}
		}
		kind = tools.ToolKindNone
	}

	observability.DispatchTotal.WithLabelValues(kind.String()).Inc()

	result := &Result{
		OrganizationID:  tenant,
		Tool:            kind,
		SimulatedResult: res.Output,
	}
	if kind != tools.ToolKindNone {
		result.Query = res.Query
	}
	return result
}
