package compiler

import "strings"

// This file handles statement parsing fused with ARM64 codegen —
// compound statements, control flow, assignment, and procedure/built-in
// calls, all sharing the expression machinery in expr.go.

// parseCompoundStatement implements `begin stmt {; stmt} [;] end`.
func (c *Compiler) parseCompoundStatement() error {
	if err := c.expect(TokenBegin); err != nil {
		return err
	}
	for !c.at(TokenEnd) {
		if err := c.parseStatement(); err != nil {
			return err
		}
		if c.at(TokenSemi) {
			if err := c.advance(); err != nil {
				return err
			}
			continue
		}
		break
	}
	return c.expect(TokenEnd)
}

// parseStatement dispatches on the leading token. A token that cannot start
// any statement form (e.g. 'end', ';', 'until') is the empty statement.
func (c *Compiler) parseStatement() error {
	switch c.lex.Current.Type {
	case TokenBegin:
		return c.parseCompoundStatement()
	case TokenIf:
		return c.parseIfStatement()
	case TokenWhile:
		return c.parseWhileStatement()
	case TokenRepeat:
		return c.parseRepeatStatement()
	case TokenFor:
		return c.parseForStatement()
	case TokenIdent:
		return c.parseIdentStatement()
	default:
		return nil
	}
}

// parseIfStatement implements `if expr then S [else S]`.
func (c *Compiler) parseIfStatement() error {
	if err := c.advance(); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	if err := c.expect(TokenThen); err != nil {
		return err
	}

	lElse := c.e.Label()
	c.e.Inst("cmp x0, #0")
	c.e.Inst("b.eq %s", lElse)

	if err := c.parseStatement(); err != nil {
		return err
	}

	if c.at(TokenElse) {
		lEnd := c.e.Label()
		c.e.Inst("b %s", lEnd)
		c.e.Def(lElse)
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseStatement(); err != nil {
			return err
		}
		c.e.Def(lEnd)
		return nil
	}

	c.e.Def(lElse)
	return nil
}

// parseWhileStatement implements `while expr do S`.
func (c *Compiler) parseWhileStatement() error {
	if err := c.advance(); err != nil {
		return err
	}
	lTop := c.e.Label()
	lEnd := c.e.Label()

	c.e.Def(lTop)
	if err := c.parseExpression(); err != nil {
		return err
	}
	c.e.Inst("cmp x0, #0")
	c.e.Inst("b.eq %s", lEnd)

	if err := c.expect(TokenDo); err != nil {
		return err
	}
	if err := c.parseStatement(); err != nil {
		return err
	}
	c.e.Inst("b %s", lTop)
	c.e.Def(lEnd)
	return nil
}

// parseRepeatStatement implements `repeat Ss until expr`.
func (c *Compiler) parseRepeatStatement() error {
	if err := c.advance(); err != nil {
		return err
	}
	lTop := c.e.Label()
	c.e.Def(lTop)

	for !c.at(TokenUntil) {
		if err := c.parseStatement(); err != nil {
			return err
		}
		if c.at(TokenSemi) {
			if err := c.advance(); err != nil {
				return err
			}
			continue
		}
		break
	}

	if err := c.expect(TokenUntil); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	c.e.Inst("cmp x0, #0")
	c.e.Inst("b.eq %s", lTop)
	return nil
}

// parseForStatement implements `for ident := expr (to|downto) expr do S`
// the bound is evaluated once and spilled, reloaded each iteration.
func (c *Compiler) parseForStatement() error {
	if err := c.advance(); err != nil {
		return err
	}

	name, pos, err := c.expectIdent()
	if err != nil {
		return err
	}
	sym, ok := c.scope.Lookup(name, pos)
	if !ok {
		return NewErrorGot(pos, ErrorSemantic, "undefined identifier", name)
	}
	if sym.Kind != SymVar && sym.Kind != SymParam {
		return NewErrorGot(pos, ErrorSemantic, "for loop variable must be a variable", name)
	}

	if err := c.expect(TokenAssign); err != nil {
		return err
	}
	if err := c.parseExpression(); err != nil {
		return err
	}
	if err := c.storeVar(sym); err != nil {
		return err
	}

	descending := false
	switch c.lex.Current.Type {
	case TokenTo:
		if err := c.advance(); err != nil {
			return err
		}
	case TokenDownto:
		descending = true
		if err := c.advance(); err != nil {
			return err
		}
	default:
		return NewErrorGot(c.pos(), ErrorSyntax, "expected 'to' or 'downto'", c.tokString())
	}

	if err := c.parseExpression(); err != nil {
		return err
	}
	c.e.Inst("str x0, [sp, #-16]!") // spill the bound, evaluated once

	if err := c.expect(TokenDo); err != nil {
		return err
	}

	lTop := c.e.Label()
	lEnd := c.e.Label()
	c.e.Def(lTop)
	if err := c.loadVar(sym); err != nil {
		return err
	}
	c.e.Inst("ldur x1, [sp]")
	c.e.Inst("cmp x0, x1")
	if descending {
		c.e.Inst("b.lt %s", lEnd)
	} else {
		c.e.Inst("b.gt %s", lEnd)
	}

	if err := c.parseStatement(); err != nil {
		return err
	}

	if err := c.loadVar(sym); err != nil {
		return err
	}
	if descending {
		c.e.Inst("sub x0, x0, #1")
	} else {
		c.e.Inst("add x0, x0, #1")
	}
	if err := c.storeVar(sym); err != nil {
		return err
	}
	c.e.Inst("b %s", lTop)
	c.e.Def(lEnd)
	c.e.Inst("add sp, sp, #16") // drop the spilled bound
	return nil
}

// parseIdentStatement is the single entry point for everything that starts
// with an identifier at statement position: the built-in procedures
// write/writeln/writechar/halt, a procedure or function call, an array
// element assignment, or a plain assignment.
func (c *Compiler) parseIdentStatement() error {
	name := c.lex.Current.Str
	pos := c.lex.Current.Pos
	lname := strings.ToLower(name)

	switch lname {
	case "write", "writeln":
		return c.parseWriteStatement(lname == "writeln")

	case "writechar":
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.expect(TokenLParen); err != nil {
			return err
		}
		if err := c.parseExpression(); err != nil {
			return err
		}
		if err := c.expect(TokenRParen); err != nil {
			return err
		}
		c.e.Inst("bl _print_char")
		return nil

	case "halt":
		if err := c.advance(); err != nil {
			return err
		}
		if c.at(TokenLParen) {
			if err := c.advance(); err != nil {
				return err
			}
			if err := c.parseExpression(); err != nil {
				return err
			}
			if err := c.expect(TokenRParen); err != nil {
				return err
			}
		} else {
			c.e.LoadImmediate("x0", 0)
		}
		c.e.emitExitSyscall()
		return nil
	}

	if err := c.advance(); err != nil {
		return err
	}
	sym, ok := c.scope.Lookup(name, pos)
	if !ok {
		return NewErrorGot(pos, ErrorSemantic, "undefined identifier", name)
	}

	switch sym.Kind {
	case SymProcedure, SymFunction:
		return c.emitCall(sym)

	case SymConst:
		return NewErrorGot(pos, ErrorSemantic, "cannot assign to a constant", name)

	case SymVar, SymParam:
		if c.at(TokenLBracket) {
			if err := c.arrayElemAddr(sym); err != nil {
				return err
			}
			c.e.Inst("str x8, [sp, #-16]!")
			if err := c.expect(TokenAssign); err != nil {
				return err
			}
			if err := c.parseExpression(); err != nil {
				return err
			}
			c.e.Inst("ldr x8, [sp], #16")
			c.e.Inst("str x0, [x8]")
			return nil
		}
		if err := c.expect(TokenAssign); err != nil {
			return err
		}
		if err := c.parseExpression(); err != nil {
			return err
		}
		return c.storeVar(sym)
	}
	return nil
}

// parseWriteStatement implements the write/writeln argument walk: a
// string literal argument is written directly from the data section; any
// other argument is evaluated and printed via the integer runtime.
func (c *Compiler) parseWriteStatement(newline bool) error {
	if err := c.advance(); err != nil {
		return err
	}

	if c.at(TokenLParen) {
		if err := c.advance(); err != nil {
			return err
		}
		if !c.at(TokenRParen) {
			for {
				if c.at(TokenString) {
					if err := c.emitWriteStringLiteral(); err != nil {
						return err
					}
				} else {
					if err := c.parseExpression(); err != nil {
						return err
					}
					c.e.Inst("bl _print_int")
				}
				if c.at(TokenComma) {
					if err := c.advance(); err != nil {
						return err
					}
					continue
				}
				break
			}
		}
		if err := c.expect(TokenRParen); err != nil {
			return err
		}
	}

	if newline {
		c.e.Inst("bl _print_newline")
	}
	return nil
}

// emitWriteStringLiteral writes the current string-literal token directly to
// stdout: intern it, materialize its address via adrp/add, and invoke the
// write syscall with the literal's exact byte length.
func (c *Compiler) emitWriteStringLiteral() error {
	s := c.lex.Current.Str
	if len(s) > stringLiteralMax {
		return NewError(c.pos(), ErrorSemantic, "string literal exceeds 256 bytes")
	}
	id := c.e.AddString(s)
	if err := c.advance(); err != nil {
		return err
	}
	c.e.Inst("adrp x1, str%d@PAGE", id)
	c.e.Inst("add x1, x1, str%d@PAGEOFF", id)
	c.e.Inst("mov x0, #1")
	c.e.LoadImmediate("x2", int64(len(s)))
	c.e.emitWriteSyscall()
	return nil
}
