// Package config provides the TOML-driven configuration layer for tpc: one
// layered Config with toolchain, preprocessor, and inspector sections. The
// tpc driver consults only the toolchain section; the preprocess and inspect
// packages do not read the preprocessor or inspector settings.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable tpc decodes from its configuration file.
type Config struct {
	Toolchain struct {
		Assembler  string   `toml:"assembler"`
		ExtraFlags []string `toml:"extra_flags"`
	} `toml:"toolchain"`

	Preprocessor struct {
		IncludePath []string `toml:"include_path"`
		MaxDepth    int      `toml:"max_depth"`
	} `toml:"preprocessor"`

	Inspect struct {
		ColorOutput bool   `toml:"color_output"`
		NumberBase  string `toml:"number_base"` // "hex" or "dec"
	} `toml:"inspect"`
}

// defaultConfigName is the project-local config file LoadConfig falls back
// to when no explicit path is given.
const defaultConfigName = ".tpcrc.toml"

// DefaultConfig returns a Config with every field set to tpc's built-in
// defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Toolchain.Assembler = "clang"
	cfg.Toolchain.ExtraFlags = []string{"-arch", "arm64"}

	cfg.Preprocessor.IncludePath = nil
	cfg.Preprocessor.MaxDepth = 8

	cfg.Inspect.ColorOutput = true
	cfg.Inspect.NumberBase = "hex"

	return cfg
}

// LoadConfig reads path if it is non-empty and exists; otherwise it looks
// for .tpcrc.toml in the working directory; otherwise it returns
// DefaultConfig(). A present-but-malformed file is always an error — only a
// missing file falls back silently.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	if path == "" {
		path = defaultConfigName
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
