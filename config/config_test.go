package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Toolchain.Assembler != "clang" {
		t.Errorf("Expected Assembler=clang, got %s", cfg.Toolchain.Assembler)
	}
	if len(cfg.Toolchain.ExtraFlags) != 2 || cfg.Toolchain.ExtraFlags[0] != "-arch" {
		t.Errorf("Expected ExtraFlags=[-arch arm64], got %v", cfg.Toolchain.ExtraFlags)
	}
	if cfg.Preprocessor.MaxDepth != 8 {
		t.Errorf("Expected MaxDepth=8, got %d", cfg.Preprocessor.MaxDepth)
	}
	if cfg.Inspect.NumberBase != "hex" {
		t.Errorf("Expected NumberBase=hex, got %s", cfg.Inspect.NumberBase)
	}
	if !cfg.Inspect.ColorOutput {
		t.Error("Expected ColorOutput=true")
	}
}

func TestLoadConfigNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig should not error on a missing file: %v", err)
	}
	if cfg.Toolchain.Assembler != "clang" {
		t.Error("expected default config when file doesn't exist")
	}
}

func TestLoadConfigEmptyPathFallsBackToDefault(t *testing.T) {
	tempDir := t.TempDir()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(oldwd)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") errored: %v", err)
	}
	if cfg.Preprocessor.MaxDepth != 8 {
		t.Error("expected default config when no .tpcrc.toml is present")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tpc.toml")

	contents := `
[toolchain]
assembler = "as"
extra_flags = ["-v"]

[preprocessor]
max_depth = 3

[inspect]
color_output = false
number_base = "dec"
`
	if err := os.WriteFile(configPath, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig errored: %v", err)
	}
	if cfg.Toolchain.Assembler != "as" {
		t.Errorf("expected assembler=as, got %s", cfg.Toolchain.Assembler)
	}
	if cfg.Preprocessor.MaxDepth != 3 {
		t.Errorf("expected max_depth=3, got %d", cfg.Preprocessor.MaxDepth)
	}
	if cfg.Inspect.ColorOutput {
		t.Error("expected color_output=false")
	}
	if cfg.Inspect.NumberBase != "dec" {
		t.Errorf("expected number_base=dec, got %s", cfg.Inspect.NumberBase)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[preprocessor]
max_depth = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected an error when loading malformed TOML")
	}
}
