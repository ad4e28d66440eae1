// Package tools wraps external bioinformatics command-line tools (FastQC,
// STAR, MultiQC, cutadapt, Trim Galore) behind a uniform surface:
//   - Locate: read-only probe for presence, path, and version
//   - Install: ordered installation strategies with aggregated diagnostics
//   - Run: synchronous subprocess execution with discrete argv tokens
//   - Adapters: per-tool command construction and result-path conventions
//
// The catalog of probe and install strategies is embedded at compile time
// so the binary behaves the same regardless of working directory.
package tools

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Sentinel errors surfaced across transports.
var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrNotInstalled  = errors.New("tool is not installed")
	ErrInvalidParams = errors.New("invalid tool parameters")
)

// InstallStrategy is one installation attempt: a package manager plus the
// arguments handed to it. The strategy only runs when the manager binary
// is present on PATH.
type InstallStrategy struct {
	Manager string   `yaml:"manager"`
	Args    []string `yaml:"args"`
}

// ToolDef describes how one tool is probed and installed.
type ToolDef struct {
	// Binary is the executable name looked up on PATH.
	Binary string `yaml:"binary"`

	// FallbackPaths are well-known absolute locations checked when the
	// PATH lookup fails (conda and Homebrew prefixes, mostly).
	FallbackPaths []string `yaml:"fallback_paths"`

	// VersionArgs are passed to the binary to obtain a version string.
	VersionArgs []string `yaml:"version_args"`

	// RequiresJava marks tools that need a JRE at run time (FastQC).
	RequiresJava bool `yaml:"requires_java"`

	Install     []InstallStrategy `yaml:"install"`
	Suggestions []string          `yaml:"suggestions"`
}

// Catalog holds the tool definitions parsed from the embedded catalog.
type Catalog struct {
	defs map[string]ToolDef
}

type catalogFile struct {
	Tools map[string]ToolDef `yaml:"tools"`
}

// LoadCatalog parses the embedded catalog. It fails only on a malformed
// embed, which is a build defect rather than a runtime condition.
func LoadCatalog() (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		return nil, fmt.Errorf("parse embedded tool catalog: %w", err)
	}
	if len(f.Tools) == 0 {
		return nil, fmt.Errorf("embedded tool catalog is empty")
	}
	return &Catalog{defs: f.Tools}, nil
}

// Lookup returns the definition for a logical tool name.
func (c *Catalog) Lookup(name string) (ToolDef, error) {
	def, ok := c.defs[normalizeToolName(name)]
	if !ok {
		return ToolDef{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return def, nil
}

// Names returns the known tool names, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.defs))
	for name := range c.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// normalizeToolName folds the aliases callers commonly use ("trim-galore",
// "Trim Galore") onto catalog keys.
func normalizeToolName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}
