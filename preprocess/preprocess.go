// Package preprocess expands `{$I file}`/`{$INCLUDE file}` directives
// before the compiler package ever sees a source file: an include stack
// for circular-include detection, a base directory for resolving relative
// paths, and a line-oriented scan. This subset of Pascal has no
// conditional-assembly directives, so only the single include form is
// handled.
package preprocess

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tuxpascal/tpc/compiler"
)

const maxIncludeDepth = 8

// directivePrefix recognizes the start of an include directive so an
// unterminated one (missing closing '}') can be reported precisely instead
// of silently falling through to the lexer as an ordinary comment.
var directivePrefix = regexp.MustCompile(`(?i)^\{\$(i|include)\b`)

// includeDirective matches a complete, well-formed directive on one line:
// `{$I name}` or `{$INCLUDE name}`.
var includeDirective = regexp.MustCompile(`(?i)^\{\$(?:i|include)\s+([^}]+)\}\s*$`)

// Preprocessor expands include directives relative to a base directory,
// tracking an include stack to detect cycles.
type Preprocessor struct {
	baseDir      string
	includeStack []string
}

// NewPreprocessor creates a Preprocessor resolving relative includes against
// baseDir (or the working directory, if empty).
func NewPreprocessor(baseDir string) *Preprocessor {
	if baseDir == "" {
		baseDir = "."
	}
	return &Preprocessor{baseDir: baseDir}
}

// Expand scans source line by line, replacing every include directive with
// the (recursively expanded) contents of the named file, and returns the
// flattened result the compiler package parses.
func (p *Preprocessor) Expand(source, filename string) (string, error) {
	return p.expandFile(source, filename, 0)
}

func (p *Preprocessor) expandFile(source, filename string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", compiler.NewError(compiler.Position{Filename: filename, Line: 1, Column: 1}, compiler.ErrorPreprocessor, "include depth exceeded")
	}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		pos := compiler.Position{Filename: filename, Line: i + 1, Column: 1}
		trimmed := strings.TrimSpace(line)

		if !directivePrefix.MatchString(trimmed) {
			out = append(out, line)
			continue
		}

		m := includeDirective.FindStringSubmatch(trimmed)
		if m == nil {
			return "", compiler.NewError(pos, compiler.ErrorPreprocessor, "unterminated include directive")
		}

		incName := strings.TrimSpace(m[1])
		expanded, err := p.expandInclude(incName, pos, depth)
		if err != nil {
			return "", err
		}
		out = append(out, expanded)
	}

	return strings.Join(out, "\n"), nil
}

func (p *Preprocessor) expandInclude(name string, pos compiler.Position, depth int) (string, error) {
	path, err := filepath.Abs(filepath.Join(p.baseDir, name))
	if err != nil {
		return "", compiler.NewErrorGot(pos, compiler.ErrorPreprocessor, "unresolved include path", name)
	}

	for _, seen := range p.includeStack {
		if seen == path {
			return "", compiler.NewErrorGot(pos, compiler.ErrorPreprocessor, "circular include detected", name)
		}
	}

	content, err := os.ReadFile(path) // #nosec G304 -- user-provided include file path
	if err != nil {
		return "", compiler.NewErrorGot(pos, compiler.ErrorPreprocessor, "failed to read include file", name)
	}

	p.includeStack = append(p.includeStack, path)
	defer func() { p.includeStack = p.includeStack[:len(p.includeStack)-1] }()

	return p.expandFile(string(content), name, depth+1)
}
