package compiler

// emitRuntime writes the four fixed runtime subroutines, in the order the
// output format requires: print-int, newline,
// read-char, print-char. Each follows the same prologue/epilogue shape as
// user routines (see emitProcPrologue/emitProcEpilogue in decl.go) with a
// small scratch area of its own.
func (e *Emitter) emitRuntime() {
	e.emitPrintInt()
	e.emitNewline()
	e.emitReadChar()
	e.emitPrintChar()
}

// emitPrintInt prints the signed 64-bit integer in x0 to stdout.
// Negative values print a leading '-' and negate; zero prints the literal
// '0'; otherwise decimal digits are extracted least-significant-first into
// a 32-byte stack buffer via sdiv/msub, then written out most-significant
// first by walking the buffer backwards. x19/x20 are callee-saved scratch.
func (e *Emitter) emitPrintInt() {
	lNonzero := e.Label()
	lPositive := e.Label()
	lDigitLoop := e.Label()
	lPrintLoop := e.Label()
	lDone := e.Label()

	e.Def("_print_int")
	e.Inst("stp x29, x30, [sp, #-16]!")
	e.Inst("mov x29, sp")
	e.Inst("stp x19, x20, [sp, #-16]!")
	e.Inst("sub sp, sp, #32")

	e.Inst("mov x19, x0")
	e.Inst("cmp x19, #0")
	e.Inst("b.ne %s", lNonzero)
	e.Inst("mov w10, #48") // '0'
	e.Inst("strb w10, [sp]")
	e.Inst("mov x1, sp")
	e.Inst("mov x0, #1")
	e.Inst("mov x2, #1")
	e.emitWriteSyscall()
	e.Inst("b %s", lDone)

	e.Def(lNonzero)
	e.Inst("cmp x19, #0")
	e.Inst("b.ge %s", lPositive)
	e.Inst("mov w10, #45") // '-'
	e.Inst("strb w10, [sp]")
	e.Inst("mov x1, sp")
	e.Inst("mov x0, #1")
	e.Inst("mov x2, #1")
	e.emitWriteSyscall()
	e.Inst("neg x19, x19")

	e.Def(lPositive)
	e.Inst("mov x20, #0")
	e.Def(lDigitLoop)
	e.Inst("mov x11, #10")
	e.Inst("sdiv x12, x19, x11")
	e.Inst("msub x13, x12, x11, x19")
	e.Inst("add w13, w13, #48")
	e.Inst("strb w13, [sp, x20]")
	e.Inst("add x20, x20, #1")
	e.Inst("mov x19, x12")
	e.Inst("cmp x19, #0")
	e.Inst("b.ne %s", lDigitLoop)

	e.Def(lPrintLoop)
	e.Inst("cmp x20, #0")
	e.Inst("b.eq %s", lDone)
	e.Inst("sub x20, x20, #1")
	e.Inst("add x1, sp, x20")
	e.Inst("mov x0, #1")
	e.Inst("mov x2, #1")
	e.emitWriteSyscall()
	e.Inst("b %s", lPrintLoop)

	e.Def(lDone)
	e.Inst("add sp, sp, #32")
	e.Inst("ldp x19, x20, [sp], #16")
	e.Inst("ldp x29, x30, [sp], #16")
	e.Inst("ret")
}

// emitNewline writes a single '\n' byte to stdout.
func (e *Emitter) emitNewline() {
	e.Def("_print_newline")
	e.Inst("stp x29, x30, [sp, #-16]!")
	e.Inst("mov x29, sp")
	e.Inst("sub sp, sp, #16")
	e.Inst("mov w10, #10") // '\n'
	e.Inst("strb w10, [sp]")
	e.Inst("mov x1, sp")
	e.Inst("mov x0, #1")
	e.Inst("mov x2, #1")
	e.emitWriteSyscall()
	e.Inst("mov sp, x29")
	e.Inst("ldp x29, x30, [sp], #16")
	e.Inst("ret")
}

// emitReadChar reads a single byte from stdin into x0, or -1 on EOF/error.
func (e *Emitter) emitReadChar() {
	lEOF := e.Label()
	lDone := e.Label()

	e.Def("_read_char")
	e.Inst("stp x29, x30, [sp, #-16]!")
	e.Inst("mov x29, sp")
	e.Inst("sub sp, sp, #16")
	e.Inst("mov x0, #0") // stdin
	e.Inst("mov x1, sp")
	e.Inst("mov x2, #1")
	e.emitReadSyscall()
	e.Inst("cmp x0, #1")
	e.Inst("b.lt %s", lEOF)
	e.Inst("ldrb w0, [sp]")
	e.Inst("b %s", lDone)
	e.Def(lEOF)
	e.Inst("mov x0, #-1")
	e.Def(lDone)
	e.Inst("mov sp, x29")
	e.Inst("ldp x29, x30, [sp], #16")
	e.Inst("ret")
}

// emitPrintChar writes the low byte of x0 to stdout.
func (e *Emitter) emitPrintChar() {
	e.Def("_print_char")
	e.Inst("stp x29, x30, [sp, #-16]!")
	e.Inst("mov x29, sp")
	e.Inst("sub sp, sp, #16")
	e.Inst("strb w0, [sp]")
	e.Inst("mov x1, sp")
	e.Inst("mov x0, #1")
	e.Inst("mov x2, #1")
	e.emitWriteSyscall()
	e.Inst("mov sp, x29")
	e.Inst("ldp x29, x30, [sp], #16")
	e.Inst("ret")
}

// emitWriteSyscall invokes write(x0=fd, x1=buf, x2=len). x0/x1/x2 must
// already hold the call arguments; the syscall number (4) and the Darwin
// class bit (0x02000000) are combined into x16.
func (e *Emitter) emitWriteSyscall() {
	e.Inst("mov x16, #0x2000004")
	e.Inst("svc #0x80")
}

// emitReadSyscall invokes read(x0=fd, x1=buf, x2=len), syscall number 3.
func (e *Emitter) emitReadSyscall() {
	e.Inst("mov x16, #0x2000003")
	e.Inst("svc #0x80")
}

// emitExitSyscall invokes exit(x0=code), syscall number 1. Used both by
// halt and by the implicit exit at the end of the main program.
func (e *Emitter) emitExitSyscall() {
	e.Inst("mov x16, #0x2000001")
	e.Inst("svc #0x80")
}
