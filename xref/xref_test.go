package xref_test

import (
	"strings"
	"testing"

	"github.com/tuxpascal/tpc/compiler"
	"github.com/tuxpascal/tpc/xref"
)

func compileOK(t *testing.T, src string) *compiler.Compiler {
	t.Helper()
	c := compiler.New(src, "test.pas")
	if _, err := c.Compile(); err != nil {
		t.Fatalf("Compile errored: %v", err)
	}
	return c
}

func TestCollectGlobalConst(t *testing.T) {
	src := `program p;
const limit = 10;
var total: integer;
begin
  total := limit;
end.
`
	c := compileOK(t, src)
	entries := xref.Collect(c.GlobalScope())

	var limit, total *xref.Entry
	for i := range entries {
		switch entries[i].Name {
		case "limit":
			limit = &entries[i]
		case "total":
			total = &entries[i]
		}
	}

	if limit == nil {
		t.Fatal("expected a 'limit' entry")
	}
	if limit.Kind != compiler.SymConst {
		t.Errorf("expected limit to be a const, got %s", limit.Kind)
	}
	if len(limit.References) != 1 {
		t.Errorf("expected 1 reference to limit, got %d", len(limit.References))
	}

	if total == nil {
		t.Fatal("expected a 'total' entry")
	}
	if len(total.References) != 1 {
		t.Errorf("expected 1 reference to total (the assignment target), got %d", len(total.References))
	}
}

func TestCollectWalksNestedScopes(t *testing.T) {
	src := `program p;
var g: integer;

procedure bump;
var step: integer;
begin
  step := 1;
  g := g + step;
end;

begin
  g := 0;
  bump;
end.
`
	c := compileOK(t, src)
	entries := xref.Collect(c.GlobalScope())

	found := false
	for _, e := range entries {
		if e.Name == "step" {
			found = true
			if e.Level != 1 {
				t.Errorf("expected 'step' at level 1, got %d", e.Level)
			}
		}
	}
	if !found {
		t.Error("expected Collect to walk into the nested procedure scope and find 'step'")
	}
}

func TestReportFormatsDeclarationAndReferences(t *testing.T) {
	src := `program p;
const zero = 0;
begin
end.
`
	c := compileOK(t, src)
	report := xref.Report(c.GlobalScope())

	if !strings.Contains(report, "zero") {
		t.Errorf("expected report to mention 'zero', got %q", report)
	}
	if !strings.Contains(report, "const") {
		t.Errorf("expected report to show the const kind, got %q", report)
	}
	if !strings.Contains(report, "referenced: (never)") {
		t.Errorf("expected zero to be reported unreferenced, got %q", report)
	}
}
