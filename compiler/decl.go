package compiler

// This file handles blocks, const/var sections, type specs, and
// procedure/function declarations, including the static-link prologue and
// the forward-declaration/nested-routine jump-over scheme.

// parseProgram implements `program name [( ident {, ident} )] ; block .`
// The main program has its own frame but no static link, and exits via
// syscall instead of `ret`.
func (c *Compiler) parseProgram() error {
	if err := c.expect(TokenProgram); err != nil {
		return err
	}
	if _, _, err := c.expectIdent(); err != nil {
		return err
	}
	if c.at(TokenLParen) {
		if err := c.advance(); err != nil {
			return err
		}
		for {
			if _, _, err := c.expectIdent(); err != nil {
				return err
			}
			if c.at(TokenComma) {
				if err := c.advance(); err != nil {
					return err
				}
				continue
			}
			break
		}
		if err := c.expect(TokenRParen); err != nil {
			return err
		}
	}
	if err := c.expect(TokenSemi); err != nil {
		return err
	}

	c.mainLabel = c.e.Label()

	bodyLabel, err := c.parseDeclarations(c.global)
	if err != nil {
		return err
	}

	c.e.emitRuntime()

	if bodyLabel != "" {
		c.e.Def(bodyLabel)
	}

	c.e.Def(c.mainLabel)
	localSize := Align16(c.global.LocalSize())
	c.e.Inst("stp x29, x30, [sp, #-16]!")
	c.e.Inst("mov x29, sp")
	if localSize > 0 {
		c.e.AdjustSP(-localSize)
	}

	if err := c.parseCompoundStatement(); err != nil {
		return err
	}

	if localSize > 0 {
		c.e.AdjustSP(localSize)
	}
	c.e.Inst("ldp x29, x30, [sp], #16")
	c.e.LoadImmediate("x0", 0)
	c.e.emitExitSyscall()

	return c.expect(TokenDot)
}

// parseDeclarations parses zero or more const/var/procedure/function
// sections in scope, interleaved freely, stopping at 'begin'. The first
// nested procedure/function declaration triggers a single "b Lbody" jump
// that skips over every nested routine's body; the caller plants Lbody once
// declarations are exhausted and it is about to emit its own prologue.
// The returned label is empty when scope declared no routines.
func (c *Compiler) parseDeclarations(scope *Scope) (string, error) {
	bodyLabel := ""
	for {
		switch c.lex.Current.Type {
		case TokenConst:
			if err := c.parseConstSection(scope); err != nil {
				return "", err
			}
		case TokenVar:
			if err := c.parseVarSection(scope); err != nil {
				return "", err
			}
		case TokenProcedure, TokenFunction:
			if bodyLabel == "" {
				bodyLabel = c.e.Label()
				c.e.Inst("b %s", bodyLabel)
			}
			if err := c.parseRoutineDecl(scope); err != nil {
				return "", err
			}
		default:
			return bodyLabel, nil
		}
	}
}

// parseConstSection implements `const { ident = ['-'] integer_literal ; }`.
func (c *Compiler) parseConstSection(scope *Scope) error {
	if err := c.advance(); err != nil {
		return err
	}
	for c.at(TokenIdent) {
		name, pos, err := c.expectIdent()
		if err != nil {
			return err
		}
		if err := c.expect(TokenEqual); err != nil {
			return err
		}
		neg := false
		if c.at(TokenMinus) {
			neg = true
			if err := c.advance(); err != nil {
				return err
			}
		}
		if !c.at(TokenInt) {
			return NewErrorGot(c.pos(), ErrorSyntax, "expected integer literal", c.tokString())
		}
		v := c.lex.Current.Int
		if neg {
			v = -v
		}
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.expect(TokenSemi); err != nil {
			return err
		}
		if _, err := scope.AddConst(name, v, pos); err != nil {
			return err
		}
	}
	return nil
}

// parseVarSection implements `var { ident {, ident} : type ; }`.
func (c *Compiler) parseVarSection(scope *Scope) error {
	if err := c.advance(); err != nil {
		return err
	}
	for c.at(TokenIdent) {
		var names []string
		var poss []Position
		n, p, err := c.expectIdent()
		if err != nil {
			return err
		}
		names = append(names, n)
		poss = append(poss, p)
		for c.at(TokenComma) {
			if err := c.advance(); err != nil {
				return err
			}
			n, p, err := c.expectIdent()
			if err != nil {
				return err
			}
			names = append(names, n)
			poss = append(poss, p)
		}
		if err := c.expect(TokenColon); err != nil {
			return err
		}
		typ, err := c.parseTypeSpec()
		if err != nil {
			return err
		}
		if err := c.expect(TokenSemi); err != nil {
			return err
		}
		for i, nm := range names {
			if _, err := scope.AddVar(nm, typ, poss[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseTypeSpec implements
// `type := integer | char | boolean | string | array [ lo .. hi ] of type`.
func (c *Compiler) parseTypeSpec() (Type, error) {
	switch c.lex.Current.Type {
	case TokenInteger:
		return typeInteger, c.advance()
	case TokenChar:
		return typeChar, c.advance()
	case TokenBoolean:
		return typeBoolean, c.advance()
	case TokenString_:
		return typeString, c.advance()
	case TokenArray:
		if err := c.advance(); err != nil {
			return Type{}, err
		}
		if err := c.expect(TokenLBracket); err != nil {
			return Type{}, err
		}
		if !c.at(TokenInt) {
			return Type{}, NewErrorGot(c.pos(), ErrorSyntax, "expected integer literal", c.tokString())
		}
		lo := c.lex.Current.Int
		if err := c.advance(); err != nil {
			return Type{}, err
		}
		if err := c.expect(TokenDotDot); err != nil {
			return Type{}, err
		}
		if !c.at(TokenInt) {
			return Type{}, NewErrorGot(c.pos(), ErrorSyntax, "expected integer literal", c.tokString())
		}
		hi := c.lex.Current.Int
		if err := c.advance(); err != nil {
			return Type{}, err
		}
		if err := c.expect(TokenRBracket); err != nil {
			return Type{}, err
		}
		if err := c.expect(TokenOf); err != nil {
			return Type{}, err
		}
		elem, err := c.parseTypeSpec()
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindArray, Lo: lo, Hi: hi, Elem: &elem}, nil
	default:
		return Type{}, NewErrorGot(c.pos(), ErrorSyntax, "expected type", c.tokString())
	}
}

// formal is one name in a parameter group, paired with the group's type.
type formal struct {
	name string
	pos  Position
	typ  Type
}

// parseRoutineDecl implements procedure/function declarations: head
// parsing, forward-declaration matching, static-link scope entry,
// parameter/result-slot symbol setup, nested-routine jump-over, and the
// save-result/epilogue sequence for functions.
func (c *Compiler) parseRoutineDecl(parent *Scope) error {
	isFunction := c.at(TokenFunction)
	if err := c.advance(); err != nil {
		return err
	}
	name, pos, err := c.expectIdent()
	if err != nil {
		return err
	}

	kind := SymProcedure
	if isFunction {
		kind = SymFunction
	}

	existing, hasExisting := parent.LookupLocal(name)
	var label string
	if hasExisting {
		label = existing.Label
	} else {
		label = c.e.Label()
	}

	var formals []formal
	if c.at(TokenLParen) {
		if err := c.advance(); err != nil {
			return err
		}
		for {
			var names []string
			var poss []Position
			n, p, err := c.expectIdent()
			if err != nil {
				return err
			}
			names = append(names, n)
			poss = append(poss, p)
			for c.at(TokenComma) {
				if err := c.advance(); err != nil {
					return err
				}
				n, p, err := c.expectIdent()
				if err != nil {
					return err
				}
				names = append(names, n)
				poss = append(poss, p)
			}
			if err := c.expect(TokenColon); err != nil {
				return err
			}
			typ, err := c.parseTypeSpec()
			if err != nil {
				return err
			}
			for i, nm := range names {
				formals = append(formals, formal{name: nm, pos: poss[i], typ: typ})
			}
			if c.at(TokenSemi) {
				if err := c.advance(); err != nil {
					return err
				}
				continue
			}
			break
		}
		if err := c.expect(TokenRParen); err != nil {
			return err
		}
	}

	resultType := typeVoid
	if isFunction {
		if err := c.expect(TokenColon); err != nil {
			return err
		}
		rt, err := c.parseTypeSpec()
		if err != nil {
			return err
		}
		resultType = rt
	}
	if err := c.expect(TokenSemi); err != nil {
		return err
	}

	sym, err := parent.AddRoutine(name, kind, resultType, label, pos)
	if err != nil {
		return err
	}

	if c.at(TokenForward) {
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.expect(TokenSemi); err != nil {
			return err
		}
		sym.Params = sym.Params[:0]
		for _, f := range formals {
			sym.Params = append(sym.Params, &Symbol{Name: f.name, Kind: SymParam, Type: f.typ})
		}
		return nil
	}

	if sym.Defined {
		return NewErrorGot(pos, ErrorSemantic, "procedure/function already defined", name)
	}

	bodyScope := parent.Enter()
	savedScope, savedCurrent := c.scope, c.current
	c.scope, c.current = bodyScope, sym
	defer func() { c.scope, c.current = savedScope, savedCurrent }()

	var paramSyms []*Symbol
	for _, f := range formals {
		psym, err := bodyScope.AddParam(f.name, f.typ, f.pos)
		if err != nil {
			return err
		}
		paramSyms = append(paramSyms, psym)
	}
	sym.Params = paramSyms

	var resultSym *Symbol
	if isFunction {
		rs, err := bodyScope.AddVar(name, resultType, pos)
		if err != nil {
			return err
		}
		rs.IsResultSlot = true
		resultSym = rs
	}

	nestedBodyLabel, err := c.parseDeclarations(bodyScope)
	if err != nil {
		return err
	}
	if nestedBodyLabel != "" {
		c.e.Def(nestedBodyLabel)
	}

	c.e.Def(label)
	localSize := Align16(bodyScope.LocalSize())
	c.emitProcPrologue(localSize, paramSyms)

	if err := c.parseCompoundStatement(); err != nil {
		return err
	}

	if isFunction {
		if err := c.loadVar(resultSym); err != nil {
			return err
		}
	}
	c.emitProcEpilogue(localSize)
	sym.Defined = true

	return c.expect(TokenSemi)
}

// emitProcPrologue saves FP/LR, reserves the aligned local frame, stores the
// incoming static link at [FP, -8], and copies incoming parameters from
// x0..x7 into their frame slots.
func (c *Compiler) emitProcPrologue(localSize int64, params []*Symbol) {
	c.e.Inst("stp x29, x30, [sp, #-16]!")
	c.e.Inst("mov x29, sp")
	if localSize > 0 {
		c.e.AdjustSP(-localSize)
	}
	c.e.FrameStore("x9", -8, "x10")
	for i, p := range params {
		if i >= maxArgs {
			break
		}
		c.e.FrameStore(argRegs[i], p.Offset, "x10")
	}
}

// emitProcEpilogue restores sp, FP, LR, and returns. The caller is
// responsible for having already left the function result, if any, in x0.
func (c *Compiler) emitProcEpilogue(localSize int64) {
	if localSize > 0 {
		c.e.AdjustSP(localSize)
	}
	c.e.Inst("ldp x29, x30, [sp], #16")
	c.e.Inst("ret")
}
