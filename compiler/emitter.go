package compiler

import (
	"fmt"
	"strings"
)

// Emitter is the stateful, line-oriented ARM64 assembly writer. It owns the
// label counter and the string-literal pool; every codegen helper in this
// package writes through an Emitter rather than touching strings.Builder
// directly.
//
// ARM64 add/sub immediates and ldur/stur offsets use the same shape of
// "classify the value into an encodable range, otherwise fall back to a
// materialized register" logic, just with different thresholds per
// instruction class.
const (
	maxLdurOffset = 255   // signed 9-bit range for ldur/stur
	maxAddImm     = 4095  // unsigned 12-bit range for add/sub immediate
	maxSpAdjImm   = 4095  // same as maxAddImm; named separately for clarity at call sites
)

// Emitter accumulates assembly text and the string pool for one compilation.
type Emitter struct {
	out         strings.Builder
	labelCount  int
	strings     []string // pool contents, indexed by id
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Label allocates and returns a fresh label name ("L0", "L1", ...).
func (e *Emitter) Label() string {
	n := e.labelCount
	e.labelCount++
	return fmt.Sprintf("L%d", n)
}

// Def writes "name:" with no leading indentation.
func (e *Emitter) Def(name string) {
	fmt.Fprintf(&e.out, "%s:\n", name)
}

// Inst writes a single four-space-indented instruction line.
func (e *Emitter) Inst(format string, args ...any) {
	e.out.WriteString("    ")
	fmt.Fprintf(&e.out, format, args...)
	e.out.WriteString("\n")
}

// Raw writes a line verbatim (used for directives like ".global _main").
func (e *Emitter) Raw(line string) {
	e.out.WriteString(line)
	e.out.WriteString("\n")
}

// String returns the accumulated assembly text so far (the body; the data
// section is appended separately by EmitStringPool).
func (e *Emitter) String() string { return e.out.String() }

// AddString interns s into the string pool and returns its 0-based id.
func (e *Emitter) AddString(s string) int {
	id := len(e.strings)
	e.strings = append(e.strings, s)
	return id
}

// EmitStringPool appends the ".data" section holding every interned string
// literal as "strN: .ascii \"...\"" with \n \t \\ \" escaped.
func (e *Emitter) EmitStringPool() {
	if len(e.strings) == 0 {
		return
	}
	e.out.WriteString("\n.data\n")
	for i, s := range e.strings {
		fmt.Fprintf(&e.out, "str%d: .ascii \"%s\"\n", i, escapeAsciiz(s))
	}
}

func escapeAsciiz(s string) string {
	var sb strings.Builder
	for _, b := range []byte(s) {
		switch b {
		case '\n':
			sb.WriteString("\\n")
		case '\t':
			sb.WriteString("\\t")
		case '\\':
			sb.WriteString("\\\\")
		case '"':
			sb.WriteString("\\\"")
		default:
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// LoadImmediate materializes the 64-bit value v into register reg.
//
//   - [0, 65535]:      a single mov.
//   - [-65535, -1]:    mov of the absolute value, then neg.
//   - otherwise:       movz of the low 16 bits, movk ... lsl #16/#32/#48 for
//     each non-zero subword, and a trailing neg if v was negative.
func (e *Emitter) LoadImmediate(reg string, v int64) {
	if v >= 0 && v <= 65535 {
		e.Inst("mov %s, #%d", reg, v)
		return
	}
	if v >= -65535 && v < 0 {
		e.Inst("mov %s, #%d", reg, -v)
		e.Inst("neg %s, %s", reg, reg)
		return
	}

	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}

	first := true
	for shift := 0; shift < 64; shift += 16 {
		word := (u >> uint(shift)) & 0xffff
		if shift == 0 {
			e.Inst("movz %s, #%d", reg, word)
			first = false
			continue
		}
		if word == 0 {
			continue
		}
		if first {
			e.Inst("movz %s, #%d, lsl #%d", reg, word, shift)
			first = false
		} else {
			e.Inst("movk %s, #%d, lsl #%d", reg, word, shift)
		}
	}
	if neg {
		e.Inst("neg %s, %s", reg, reg)
	}
}

// FrameLoad emits a load of 8 bytes from [x29, #off] into reg, using ldur
// directly when the offset fits the 255-byte signed range and otherwise
// materializing the offset into scratch and falling back to ldr.
func (e *Emitter) FrameLoad(reg string, off int64, scratch string) {
	if off >= -maxLdurOffset && off <= maxLdurOffset {
		e.Inst("ldur %s, [x29, #%d]", reg, off)
		return
	}
	e.LoadImmediate(scratch, off)
	e.Inst("add %s, x29, %s", scratch, scratch)
	e.Inst("ldr %s, [%s]", reg, scratch)
}

// FrameStore is the store-direction counterpart of FrameLoad.
func (e *Emitter) FrameStore(reg string, off int64, scratch string) {
	if off >= -maxLdurOffset && off <= maxLdurOffset {
		e.Inst("stur %s, [x29, #%d]", reg, off)
		return
	}
	e.LoadImmediate(scratch, off)
	e.Inst("add %s, x29, %s", scratch, scratch)
	e.Inst("str %s, [%s]", reg, scratch)
}

// FrameAddr materializes the address of [x29, #off] into reg: an add/sub
// immediate when off fits 12 bits, otherwise a materialize-then-add.
func (e *Emitter) FrameAddr(reg string, off int64) {
	if off >= -maxAddImm && off <= maxAddImm {
		if off >= 0 {
			e.Inst("add %s, x29, #%d", reg, off)
		} else {
			e.Inst("sub %s, x29, #%d", reg, -off)
		}
		return
	}
	e.LoadImmediate(reg, off)
	e.Inst("add %s, x29, %s", reg, reg)
}

// AdjustSP adjusts sp by delta bytes (delta may be negative). Callers are
// expected to have already rounded |delta| up to a multiple of 16 via
// Align16; AdjustSP itself performs no rounding.
func (e *Emitter) AdjustSP(delta int64) {
	if delta == 0 {
		return
	}
	n := delta
	op := "add"
	if n < 0 {
		op = "sub"
		n = -n
	}
	if n <= maxSpAdjImm {
		e.Inst("%s sp, sp, #%d", op, n)
		return
	}
	e.LoadImmediate("x10", n)
	e.Inst("%s sp, sp, x10", op)
}

// Align16 rounds n up to the next multiple of 16, as required for every
// local-frame size and every SP adjustment.
func Align16(n int64) int64 {
	if n < 0 {
		n = 0
	}
	return (n + 15) &^ 15
}

// StaticLink walks from the current frame (level C, held in x29) out to the
// frame at level L, leaving the result in x9. steps = C - L.
func (e *Emitter) StaticLink(steps int) {
	e.Inst("mov x9, x29")
	for i := 0; i < steps; i++ {
		e.Inst("ldur x9, [x9, #-8]")
	}
}

// OuterFrameLoad walks from the current frame to level L (steps = C - L)
// into x8, then loads 8 bytes at offset off into reg using the same
// range-classified policy as FrameLoad.
func (e *Emitter) OuterFrameLoad(reg string, steps int, off int64) {
	e.Inst("mov x8, x29")
	for i := 0; i < steps; i++ {
		e.Inst("ldur x8, [x8, #-8]")
	}
	if off >= -maxLdurOffset && off <= maxLdurOffset {
		e.Inst("ldur %s, [x8, #%d]", reg, off)
		return
	}
	e.LoadImmediate("x9", off)
	e.Inst("add x8, x8, x9")
	e.Inst("ldr %s, [x8]", reg)
}

// OuterFrameStore is the store-direction counterpart of OuterFrameLoad.
func (e *Emitter) OuterFrameStore(reg string, steps int, off int64) {
	e.Inst("mov x8, x29")
	for i := 0; i < steps; i++ {
		e.Inst("ldur x8, [x8, #-8]")
	}
	if off >= -maxLdurOffset && off <= maxLdurOffset {
		e.Inst("stur %s, [x8, #%d]", reg, off)
		return
	}
	e.LoadImmediate("x9", off)
	e.Inst("add x8, x8, x9")
	e.Inst("str %s, [x8]", reg)
}

// OuterFrameAddr materializes the address at (level L, offset off) into x8,
// leaving the address (not the value) in x8 for indexing.
func (e *Emitter) OuterFrameAddr(steps int, off int64) {
	e.Inst("mov x8, x29")
	for i := 0; i < steps; i++ {
		e.Inst("ldur x8, [x8, #-8]")
	}
	if off >= -maxAddImm && off <= maxAddImm {
		if off >= 0 {
			e.Inst("add x8, x8, #%d", off)
		} else {
			e.Inst("sub x8, x8, #%d", -off)
		}
		return
	}
	e.LoadImmediate("x9", off)
	e.Inst("add x8, x8, x9")
}

// argRegs are the ARM64 argument registers, in order, used for both
// outgoing call arguments and incoming parameter copy-down.
var argRegs = []string{"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7"}

// maxArgs is the largest argument/parameter count this subset supports
// (more than 8 parameters is unsupported).
const maxArgs = 8
