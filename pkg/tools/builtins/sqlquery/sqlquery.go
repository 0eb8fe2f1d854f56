// Package sqlquery provides the SQL_TOOL executor. It stands in for a real
// query backend: it synthesizes the tenant-scoped statement that would be
// run and returns a canned aggregate.
package sqlquery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/datapilot/pkg/tools"
)

// DefaultMonth is the reporting month used when Config.Month is zero.
const DefaultMonth = 10

// Config holds the stub's canned values.
type Config struct {
	// Month is the month filter written into the query. Default: 10.
	Month int

	// Amount is the formatted total reported for every tenant.
	// Default: "R$ 12.345,00".
	Amount string
}

// Executor implements tools.ToolExecutor for ToolKindSQL.
type Executor struct {
	month  int
	amount string
}

// Ensure Executor implements tools.ToolExecutor at compile time.
var _ tools.ToolExecutor = (*Executor)(nil)

// New creates an Executor.
func New(cfg Config) *Executor {
	if cfg.Month == 0 {
		cfg.Month = DefaultMonth
	}
	if cfg.Amount == "" {
		cfg.Amount = "R$ 12.345,00"
	}
	return &Executor{month: cfg.Month, amount: cfg.Amount}
}

// Kind returns tools.ToolKindSQL.
func (e *Executor) Kind() tools.ToolKind {
	return tools.ToolKindSQL
}

// Execute builds the query for call.TenantID and reports the canned total.
// The tenant appears in both the query and the output.
func (e *Executor) Execute(_ context.Context, call tools.ToolCall) (*tools.ToolResult, error) {
	if call.TenantID == "" {
		return nil, errors.New("sqlquery: tenant id is required")
	}
	return &tools.ToolResult{
		Kind:   tools.ToolKindSQL,
		Query:  e.Query(call.TenantID),
		Output: fmt.Sprintf("A soma de vendas para o mês %d (Organização: %s) foi de %s.", e.month, call.TenantID, e.amount),
	}, nil
}

// Query returns the statement for tenantID. The tenant is embedded as a
// quoted SQL literal with single quotes doubled.
func (e *Executor) Query(tenantID string) string {
	return fmt.Sprintf("SELECT SUM(valor_venda) FROM vendas_limpas WHERE org_id=%s AND mes = %d;",
		quoteLiteral(tenantID), e.month)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
