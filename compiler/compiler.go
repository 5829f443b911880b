// Package compiler implements a single-pass Pascal-subset-to-ARM64
// compiler: a lexer, a lexically scoped symbol table, a recursive-descent
// expression/statement parser that emits ARM64 assembly as it parses (no
// intermediate representation), and a small runtime prelude.
//
// Compile is the only entry point most callers need:
//
//	c := compiler.New(source, filename)
//	asm, err := c.Compile()
package compiler

import "fmt"

// Compiler holds every piece of state needed for one compilation: the
// lexer's cursor, the current scope, the emitter (label counter, string
// pool, output buffer), and bookkeeping for the routine currently being
// compiled. Nothing here is a package-level global — a caller compiling
// two programs constructs two Compilers.
type Compiler struct {
	lex      *Lexer
	filename string
	e        *Emitter

	global  *Scope
	scope   *Scope // current (innermost) scope
	current *Symbol // Procedure/Function symbol currently being compiled, or nil at top level

	mainLabel string
}

// New creates a Compiler for the given (already include-expanded) source.
func New(source, filename string) *Compiler {
	return &Compiler{
		lex:      NewLexer(source, filename),
		filename: filename,
		e:        NewEmitter(),
		global:   NewGlobalScope(),
	}
}

// GlobalScope exposes the outermost scope for tooling (xref, lint, inspect)
// that wants to walk the full symbol tree after a successful Compile.
func (c *Compiler) GlobalScope() *Scope { return c.global }

// Compile runs the full pipeline — lex, parse, emit — and returns the
// generated ARM64 assembly text, or the first error encountered. There is no
// recovery and no multi-error reporting: the first Error returned aborts
// compilation.
func (c *Compiler) Compile() (string, error) {
	if err := c.lex.Advance(); err != nil {
		return "", err
	}
	c.scope = c.global

	if err := c.parseProgram(); err != nil {
		return "", err
	}

	if err := checkAllForwardsDefined(c.global); err != nil {
		return "", err
	}

	return c.assemble(), nil
}

// checkAllForwardsDefined walks the full scope tree looking for a
// Procedure/Function symbol that was called somewhere (References is
// non-empty) but whose body never arrived: a `forward;` with no matching
// definition, referenced by a call site that would otherwise `bl` a label
// with no body. A forward declaration that nothing ever calls is merely
// dead code — left for lint's FORWARD_NOT_DEFINED check to flag, not a
// compile error.
func checkAllForwardsDefined(scope *Scope) error {
	for _, sym := range scope.Symbols() {
		if (sym.Kind == SymProcedure || sym.Kind == SymFunction) && !sym.Defined && len(sym.References) > 0 {
			return NewErrorGot(sym.DeclPos, ErrorSemantic, "forward declaration never defined", sym.Name)
		}
	}
	for _, child := range scope.Children {
		if err := checkAllForwardsDefined(child); err != nil {
			return err
		}
	}
	return nil
}

// assemble stitches together the header, the branch into main, the runtime
// prelude, the main block, and the string-pool data section.
func (c *Compiler) assemble() string {
	var out string
	out += ".global _main\n"
	out += ".align 4\n"
	out += "_main:\n"
	out += fmt.Sprintf("    b %s\n", c.mainLabel)
	out += c.e.String()
	out += c.dataSection()
	return out
}

func (c *Compiler) dataSection() string {
	tmp := NewEmitter()
	tmp.strings = c.e.strings
	tmp.EmitStringPool()
	return tmp.String()
}

// tokString returns a short textual form of the current token for error
// "(got '<token>')" annotations.
func (c *Compiler) tokString() string {
	t := c.lex.Current
	switch t.Type {
	case TokenIdent, TokenString:
		return t.Str
	case TokenInt:
		return fmt.Sprintf("%d", t.Int)
	default:
		return t.Type.String()
	}
}

func (c *Compiler) pos() Position { return c.lex.Current.Pos }

// advance scans the next token, surfacing any lexical error.
func (c *Compiler) advance() error { return c.lex.Advance() }

// expect requires the current token to have type tt, consumes it, and
// advances past it; otherwise returns a syntax error naming tt.
func (c *Compiler) expect(tt TokenType) error {
	if c.lex.Current.Type != tt {
		return NewErrorGot(c.pos(), ErrorSyntax, fmt.Sprintf("expected '%s'", tt), c.tokString())
	}
	return c.advance()
}

// expectIdent requires an identifier, returns its spelling, and advances.
func (c *Compiler) expectIdent() (string, Position, error) {
	if c.lex.Current.Type != TokenIdent {
		return "", Position{}, NewErrorGot(c.pos(), ErrorSyntax, "expected identifier", c.tokString())
	}
	name := c.lex.Current.Str
	pos := c.lex.Current.Pos
	if err := c.advance(); err != nil {
		return "", Position{}, err
	}
	return name, pos, nil
}

// at reports whether the current token has type tt, without consuming it.
func (c *Compiler) at(tt TokenType) bool { return c.lex.Current.Type == tt }
