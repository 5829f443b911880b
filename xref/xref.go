// Package xref reports, for every symbol the compiler's symbol table
// produced, where it was declared and every position where it was
// subsequently looked up. There is no separate reference-collection pass
// here, since compiler.Scope.Lookup already appends every lookup position
// to Symbol.References as it parses.
package xref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuxpascal/tpc/compiler"
)

// Entry is one symbol's declaration site and the full list of positions
// where it was subsequently referenced.
type Entry struct {
	Name       string
	Kind       compiler.SymbolKind
	Level      int
	Declared   compiler.Position
	References []compiler.Position
}

// Collect walks the full scope tree rooted at global, depth-first, and
// returns one Entry per declared symbol.
func Collect(global *compiler.Scope) []Entry {
	var entries []Entry
	var walk func(s *compiler.Scope)
	walk = func(s *compiler.Scope) {
		for _, sym := range s.Symbols() {
			entries = append(entries, Entry{
				Name:       sym.Name,
				Kind:       sym.Kind,
				Level:      sym.Level,
				Declared:   sym.DeclPos,
				References: sym.References,
			})
		}
		for _, child := range s.Children {
			walk(child)
		}
	}
	walk(global)
	return entries
}

// Report formats the collected entries as sorted, per-symbol text blocks:
// name, kind, declaration site, and every reference position.
func Report(global *compiler.Scope) string {
	entries := Collect(global)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Level < entries[j].Level
	})

	var sb strings.Builder
	sb.WriteString("Symbol Cross-Reference\n")
	sb.WriteString("=======================\n\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%-24s [%s, level %d]\n", e.Name, e.Kind, e.Level))
		sb.WriteString(fmt.Sprintf("  declared:   %s\n", e.Declared))
		if len(e.References) == 0 {
			sb.WriteString("  referenced: (never)\n\n")
			continue
		}
		lines := make([]string, len(e.References))
		for i, pos := range e.References {
			lines[i] = fmt.Sprintf("%d:%d", pos.Line, pos.Column)
		}
		sb.WriteString(fmt.Sprintf("  referenced: %d time(s) at %s\n\n", len(e.References), strings.Join(lines, ", ")))
	}

	return sb.String()
}
