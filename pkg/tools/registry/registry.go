// Package registry maps tool kinds to their executors and wraps every
// execution with panic recovery and Prometheus metrics.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/datapilot/pkg/observability"
	"github.com/rhuss/datapilot/pkg/tools"
)

var toolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "datapilot_tool_duration_seconds",
		Help:    "Tool execution duration",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
	[]string{"tool_name"},
)

func init() {
	prometheus.MustRegister(toolDuration)
}

// Registry holds one executor per tool kind.
type Registry struct {
	mu        sync.RWMutex
	executors map[tools.ToolKind]tools.ToolExecutor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{executors: make(map[tools.ToolKind]tools.ToolExecutor)}
}

// Register adds an executor. If an executor for the same kind is already
// registered, the first one is kept and a warning is logged.
func (r *Registry) Register(e tools.ToolExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.executors[e.Kind()]; ok {
		slog.Warn("tool kind conflict, keeping first executor",
			"tool", e.Kind().String(),
			"winner", fmt.Sprintf("%T", existing),
			"loser", fmt.Sprintf("%T", e),
		)
		return
	}
	r.executors[e.Kind()] = e

	slog.Info("registered tool executor", "tool", e.Kind().String())
}

// Has reports whether an executor is registered for kind.
func (r *Registry) Has(kind tools.ToolKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.executors[kind]
	return ok
}

// Kinds returns the registered kinds in ascending order.
func (r *Registry) Kinds() []tools.ToolKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]tools.ToolKind, 0, len(r.executors))
	for k := range r.executors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Execute runs call on the executor for kind. A missing executor is an
// error. A panicking executor is recovered and reported as an error.
func (r *Registry) Execute(ctx context.Context, kind tools.ToolKind, call tools.ToolCall) (result *tools.ToolResult, err error) {
	r.mu.RLock()
	e, ok := r.executors[kind]
	r.mu.RUnlock()

	name := kind.String()
	if !ok {
		observability.ToolExecutionsTotal.WithLabelValues(name, "missing").Inc()
		return nil, fmt.Errorf("no executor registered for tool %s", name)
	}

	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool executor panicked",
				"tool", name,
				"panic", rec,
			)
			result = nil
			err = fmt.Errorf("tool %s panicked", name)

			observability.ToolExecutionsTotal.WithLabelValues(name, "panic").Inc()
			toolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		}
	}()

	result, err = e.Execute(ctx, call)

	status := "success"
	if err != nil {
		status = "error"
	} else if result != nil && result.IsError {
		status = "tool_error"
	}

	observability.ToolExecutionsTotal.WithLabelValues(name, status).Inc()
	toolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	return result, err
}
