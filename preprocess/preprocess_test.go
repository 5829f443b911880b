package preprocess

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandNoDirectives(t *testing.T) {
	p := NewPreprocessor(t.TempDir())
	src := "program p;\nbegin\nend.\n"
	out, err := p.Expand(src, "p.pas")
	if err != nil {
		t.Fatalf("Expand errored: %v", err)
	}
	if out != src {
		t.Errorf("expected source unchanged, got %q", out)
	}
}

func TestExpandIncludesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "const.inc"), []byte("const x = 1;"), 0644); err != nil {
		t.Fatalf("write include file: %v", err)
	}

	p := NewPreprocessor(dir)
	src := "program p;\n{$I const.inc}\nbegin\nend.\n"
	out, err := p.Expand(src, "p.pas")
	if err != nil {
		t.Fatalf("Expand errored: %v", err)
	}
	if !strings.Contains(out, "const x = 1;") {
		t.Errorf("expected included content in output, got %q", out)
	}
}

func TestExpandIncludeKeyword(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "const.inc"), []byte("const x = 1;"), 0644); err != nil {
		t.Fatalf("write include file: %v", err)
	}

	p := NewPreprocessor(dir)
	src := "program p;\n{$INCLUDE const.inc}\nbegin\nend.\n"
	out, err := p.Expand(src, "p.pas")
	if err != nil {
		t.Fatalf("Expand errored: %v", err)
	}
	if !strings.Contains(out, "const x = 1;") {
		t.Errorf("expected included content in output, got %q", out)
	}
}

func TestExpandCircularInclude(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.inc"), []byte("{$I b.inc}"), 0644); err != nil {
		t.Fatalf("write a.inc: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.inc"), []byte("{$I a.inc}"), 0644); err != nil {
		t.Fatalf("write b.inc: %v", err)
	}

	p := NewPreprocessor(dir)
	_, err := p.Expand("{$I a.inc}", "p.pas")
	if err == nil {
		t.Fatal("expected circular include error")
	}
	if !strings.Contains(err.Error(), "circular include") {
		t.Errorf("expected circular include error, got %v", err)
	}
}

func TestExpandDepthExceeded(t *testing.T) {
	dir := t.TempDir()

	name := func(i int) string { return fmt.Sprintf("inc%d.inc", i) }
	const chainLen = maxIncludeDepth + 3
	for i := 0; i < chainLen; i++ {
		content := fmt.Sprintf("{$I %s}", name(i+1))
		if i == chainLen-1 {
			content = "const done = 1;"
		}
		if err := os.WriteFile(filepath.Join(dir, name(i)), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name(i), err)
		}
	}

	p := NewPreprocessor(dir)
	_, err := p.Expand(fmt.Sprintf("{$I %s}", name(0)), "p.pas")
	if err == nil {
		t.Fatal("expected include depth exceeded error")
	}
	if !strings.Contains(err.Error(), "include depth exceeded") {
		t.Errorf("expected depth-exceeded error, got %v", err)
	}
}

func TestExpandUnresolvedPath(t *testing.T) {
	p := NewPreprocessor(t.TempDir())
	_, err := p.Expand("{$I missing.inc}", "p.pas")
	if err == nil {
		t.Fatal("expected an error for a missing include file")
	}
}

func TestExpandUnterminatedDirective(t *testing.T) {
	p := NewPreprocessor(t.TempDir())
	_, err := p.Expand("{$I missing_close\nbegin\nend.\n", "p.pas")
	if err == nil {
		t.Fatal("expected an unterminated directive error")
	}
	if !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("expected unterminated directive error, got %v", err)
	}
}
