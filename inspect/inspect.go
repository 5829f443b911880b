// Package inspect is a read-only, post-compile terminal UI for browsing a
// finished compilation: the generated assembly, the string-literal pool,
// and the symbol table, laid out side by side. There is no live execution
// to visualize — this compiler never runs the target program, it only
// ever translates it — so every panel is a static snapshot of one
// *compiler.Compiler after Compile returned successfully.
package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tuxpascal/tpc/compiler"
	"github.com/tuxpascal/tpc/xref"
)

// Inspector holds the TUI application and its three panels.
type Inspector struct {
	app    *tview.Application
	layout *tview.Flex

	asmView    *tview.TextView
	stringView *tview.TextView
	symView    *tview.TextView
}

// New builds an Inspector over a compiled program: asm is the assembly text
// Compile returned, and c is the Compiler that produced it (its GlobalScope
// is walked to populate the symbol panel).
func New(c *compiler.Compiler, asm string) *Inspector {
	insp := &Inspector{app: tview.NewApplication()}
	insp.initViews(c, asm)
	insp.buildLayout()
	insp.setupKeyBindings()
	return insp
}

// Run builds and drives an Inspector over c/asm until the user quits.
func Run(c *compiler.Compiler, asm string) error {
	insp := New(c, asm)
	return insp.app.SetRoot(insp.layout, true).Run()
}

func (insp *Inspector) initViews(c *compiler.Compiler, asm string) {
	insp.asmView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	insp.asmView.SetBorder(true).SetTitle(" Assembly ")
	insp.asmView.SetText(numberLines(asm))

	insp.stringView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	insp.stringView.SetBorder(true).SetTitle(" String Pool ")
	insp.stringView.SetText(stringPoolText(asm))

	insp.symView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	insp.symView.SetBorder(true).SetTitle(" Symbol Table ")
	insp.symView.SetText(symbolTableText(c.GlobalScope()))
}

func (insp *Inspector) buildLayout() {
	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(insp.stringView, 0, 1, false).
		AddItem(insp.symView, 0, 2, false)

	insp.layout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(insp.asmView, 0, 2, false).
		AddItem(right, 0, 1, false)
}

func (insp *Inspector) setupKeyBindings() {
	insp.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			insp.app.Stop()
			return nil
		}
		if event.Rune() == 'q' {
			insp.app.Stop()
			return nil
		}
		return event
	})
}

// numberLines prefixes every line of asm with a right-aligned line number,
// matching the read-only browsing use case (no editing, just navigation).
func numberLines(asm string) string {
	lines := strings.Split(asm, "\n")
	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "[gray]%4d[white] %s\n", i+1, line)
	}
	return sb.String()
}

// stringPoolText re-extracts the "strN: .ascii ..." lines Emitter wrote
// into the .data section, since the Emitter itself does not expose the pool
// outside of the assembled text.
func stringPoolText(asm string) string {
	idx := strings.Index(asm, "\n.data\n")
	if idx < 0 {
		return "(empty)\n"
	}
	return asm[idx+len("\n.data\n"):]
}

// symbolTableText walks the full scope tree and renders one line per symbol:
// name, kind, and level. Type and frame offset are not shown.
func symbolTableText(global *compiler.Scope) string {
	entries := xref.Collect(global)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Level != entries[j].Level {
			return entries[i].Level < entries[j].Level
		}
		return entries[i].Name < entries[j].Name
	})

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "[yellow]%-20s[white] %-10s level %d\n", e.Name, e.Kind, e.Level)
	}
	if sb.Len() == 0 {
		return "(no symbols)\n"
	}
	return sb.String()
}
