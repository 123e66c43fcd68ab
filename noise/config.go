// ABOUTME: YAML-loadable tuning for the noise classifier signature tables
// ABOUTME: Compiled-in defaults mirror the known interactive-host noise sources

package noise

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config tunes the built-in signature tables. Empty lists fall back to the
// compiled-in defaults, so a config file only needs to override the tables
// it cares about.
type Config struct {
	// FrameTypePatterns are substrings of type names that mark stack-frame
	// and traceback-ish objects
	FrameTypePatterns []string `yaml:"frame_type_patterns"`

	// TraceNamespaces are namespace names owned by tracing/backtrace
	// machinery
	TraceNamespaces []string `yaml:"trace_namespaces"`

	// ConsoleTypePatterns are substrings marking interactive-console types
	ConsoleTypePatterns []string `yaml:"console_type_patterns"`

	// CompleterSuffixes are type-name suffixes of completion helpers
	CompleterSuffixes []string `yaml:"completer_suffixes"`

	// WorkerMarkers are substrings marking interpreter-thread workers,
	// checked against both type names and self-reported worker names
	WorkerMarkers []string `yaml:"worker_markers"`

	// SelfIdentifiers are this tool's own identifiers; containers whose
	// preview mentions one are treated as the traversal's own temporaries
	SelfIdentifiers []string `yaml:"self_identifiers"`

	// NamespaceDenylist names interactive/REPL namespaces whose binding
	// tables never count as genuine retainers
	NamespaceDenylist []string `yaml:"namespace_denylist"`
}

// DefaultConfig returns the compiled-in signature tables
func DefaultConfig() Config {
	return Config{
		FrameTypePatterns: []string{
			"runtime.Frame",
			"runtime.StackRecord",
			"Traceback",
			"StackSummary",
			"CallFrame",
		},
		TraceNamespaces: []string{"runtime", "traceback", "debug"},
		ConsoleTypePatterns: []string{
			"InteractiveConsole",
		},
		CompleterSuffixes: []string{"Completer"},
		WorkerMarkers:     []string{"Interpreter"},
		SelfIdentifiers: []string{
			"liveInstances",
			"queryReferrers",
			"walkReferrers",
		},
		NamespaceDenylist: []string{"main", "console", "repl", "completer"},
	}
}

// LoadConfig reads a YAML config file and merges it over the defaults
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read noise config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse noise config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// withDefaults fills empty tables from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.FrameTypePatterns) == 0 {
		c.FrameTypePatterns = def.FrameTypePatterns
	}
	if len(c.TraceNamespaces) == 0 {
		c.TraceNamespaces = def.TraceNamespaces
	}
	if len(c.ConsoleTypePatterns) == 0 {
		c.ConsoleTypePatterns = def.ConsoleTypePatterns
	}
	if len(c.CompleterSuffixes) == 0 {
		c.CompleterSuffixes = def.CompleterSuffixes
	}
	if len(c.WorkerMarkers) == 0 {
		c.WorkerMarkers = def.WorkerMarkers
	}
	if len(c.SelfIdentifiers) == 0 {
		c.SelfIdentifiers = def.SelfIdentifiers
	}
	if len(c.NamespaceDenylist) == 0 {
		c.NamespaceDenylist = def.NamespaceDenylist
	}
	return c
}
