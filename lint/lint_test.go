package lint_test

import (
	"testing"

	"github.com/tuxpascal/tpc/compiler"
	"github.com/tuxpascal/tpc/lint"
)

func compileOK(t *testing.T, src string) *compiler.Compiler {
	t.Helper()
	c := compiler.New(src, "test.pas")
	if _, err := c.Compile(); err != nil {
		t.Fatalf("Compile errored: %v", err)
	}
	return c
}

func findCode(issues []lint.Issue, code string) *lint.Issue {
	for i := range issues {
		if issues[i].Code == code {
			return &issues[i]
		}
	}
	return nil
}

func TestUnusedConstIsFlagged(t *testing.T) {
	c := compileOK(t, `program p;
const limit = 10;
begin
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "UNUSED_CONST"); got == nil {
		t.Fatalf("expected an UNUSED_CONST issue, got %v", issues)
	}
}

func TestUnusedVarIsFlagged(t *testing.T) {
	c := compileOK(t, `program p;
var dead: integer;
begin
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "UNUSED_VAR"); got == nil {
		t.Fatalf("expected an UNUSED_VAR issue, got %v", issues)
	}
}

func TestUsedSymbolsAreNotFlagged(t *testing.T) {
	c := compileOK(t, `program p;
const limit = 10;
var total: integer;
begin
  total := limit;
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "UNUSED_CONST"); got != nil {
		t.Errorf("did not expect limit to be flagged unused, got %v", got)
	}
	if got := findCode(issues, "UNUSED_VAR"); got != nil {
		t.Errorf("did not expect total to be flagged unused, got %v", got)
	}
}

func TestFunctionResultSlotIsNotFlaggedUnused(t *testing.T) {
	// square's own name is its result slot: the assignment `square := n * n`
	// looks the slot up and records a reference, so it must not trip
	// UNUSED_VAR.
	c := compileOK(t, `program p;
function square(n: integer): integer;
begin
  square := n * n;
end;
begin
  writeln(square(3));
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "UNUSED_VAR"); got != nil {
		t.Errorf("did not expect a function result slot to be flagged unused, got %v", got)
	}
}

func TestForwardNeverDefinedIsFlagged(t *testing.T) {
	// helper is never called, so Compile accepts it (only a called forward
	// declaration without a body is a compile error), but it never gets a
	// body, so FORWARD_NOT_DEFINED must still fire.
	c := compileOK(t, `program p;
procedure helper; forward;
begin
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "FORWARD_NOT_DEFINED"); got == nil {
		t.Fatalf("expected a FORWARD_NOT_DEFINED issue, got %v", issues)
	}
}

func TestDefinedRoutineIsNotFlaggedForward(t *testing.T) {
	c := compileOK(t, `program p;
procedure helper;
begin
end;
begin
  helper;
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "FORWARD_NOT_DEFINED"); got != nil {
		t.Errorf("did not expect a defined procedure to be flagged forward, got %v", got)
	}
}

func TestShadowedNameIsFlagged(t *testing.T) {
	c := compileOK(t, `program p;
var x: integer;
procedure helper;
  var x: integer;
begin
  x := 1;
end;
begin
  x := 0;
  helper;
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "SHADOWED_NAME"); got == nil {
		t.Fatalf("expected a SHADOWED_NAME issue, got %v", issues)
	}
}

func TestParamDoesNotShadowItself(t *testing.T) {
	// The global scope has no 'n', so the parameter should not be reported
	// as shadowing anything.
	c := compileOK(t, `program p;
procedure helper(n: integer);
begin
  writeln(n);
end;
begin
  helper(1);
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	if got := findCode(issues, "SHADOWED_NAME"); got != nil {
		t.Errorf("did not expect param n to be flagged shadowed, got %v", got)
	}
}

func TestOptionsDisableIndividualChecks(t *testing.T) {
	c := compileOK(t, `program p;
const limit = 10;
begin
end.
`)
	opts := lint.Options{CheckUnused: false, CheckForward: true, CheckShadowed: true}
	issues := lint.Lint(c.GlobalScope(), &opts)
	if got := findCode(issues, "UNUSED_CONST"); got != nil {
		t.Errorf("expected UNUSED_CONST check to be disabled, got %v", got)
	}
}

func TestIssuesAreSortedByPosition(t *testing.T) {
	c := compileOK(t, `program p;
var a: integer;
var b: integer;
begin
end.
`)
	issues := lint.Lint(c.GlobalScope(), nil)
	for i := 1; i < len(issues); i++ {
		prev, cur := issues[i-1].Pos, issues[i].Pos
		if cur.Line < prev.Line || (cur.Line == prev.Line && cur.Column < prev.Column) {
			t.Errorf("issues not sorted by position: %v then %v", prev, cur)
		}
	}
}

func TestIssueStringFormat(t *testing.T) {
	issue := lint.Issue{
		Level:   lint.LevelWarning,
		Pos:     compiler.Position{Filename: "test.pas", Line: 3, Column: 5},
		Message: "variable 'x' is declared but never used",
		Code:    "UNUSED_VAR",
	}
	got := issue.String()
	want := "test.pas:3:5: warning: variable 'x' is declared but never used [UNUSED_VAR]"
	if got != want {
		t.Errorf("Issue.String() = %q, want %q", got, want)
	}
}
