package sqlquery

import (
	"context"
	"strings"
	"testing"

	"github.com/rhuss/datapilot/pkg/tools"
)

func TestExecute(t *testing.T) {
	e := New(Config{})

	result, err := e.Execute(context.Background(), tools.ToolCall{TenantID: "org_a", Text: "vendas"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantQuery := "SELECT SUM(valor_venda) FROM vendas_limpas WHERE org_id='org_a' AND mes = 10;"
	if result.Query != wantQuery {
		t.Errorf("Query = %q, want %q", result.Query, wantQuery)
	}
	wantOutput := "A soma de vendas para o mês 10 (Organização: org_a) foi de R$ 12.345,00."
	if result.Output != wantOutput {
		t.Errorf("Output = %q, want %q", result.Output, wantOutput)
	}
	if result.Kind != tools.ToolKindSQL {
		t.Errorf("Kind = %v, want SQL_TOOL", result.Kind)
	}
}

func TestExecute_TenantIsolation(t *testing.T) {
	e := New(Config{})
	ctx := context.Background()

	a, err := e.Execute(ctx, tools.ToolCall{TenantID: "acme", Text: "vendas"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	b, err := e.Execute(ctx, tools.ToolCall{TenantID: "globex", Text: "vendas"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	for _, s := range []string{a.Query, a.Output} {
		if strings.Contains(s, "globex") {
			t.Errorf("tenant acme result leaks globex: %q", s)
		}
	}
	for _, s := range []string{b.Query, b.Output} {
		if strings.Contains(s, "acme") {
			t.Errorf("tenant globex result leaks acme: %q", s)
		}
	}
}

func TestQuery_EscapesQuotes(t *testing.T) {
	e := New(Config{Month: 3})
	got := e.Query("o'brien")
	want := "SELECT SUM(valor_venda) FROM vendas_limpas WHERE org_id='o''brien' AND mes = 3;"
	if got != want {
		t.Errorf("Query = %q, want %q", got, want)
	}
}

func TestExecute_RequiresTenant(t *testing.T) {
	if _, err := New(Config{}).Execute(context.Background(), tools.ToolCall{Text: "vendas"}); err == nil {
		t.Error("expected error for empty tenant")
	}
}
