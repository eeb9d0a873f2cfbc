package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// OptionType is the type an option's value must parse as.
type OptionType string

const (
	TypeString OptionType = "string"
	// TypeBool accepts true/false, yes/no, on/off and 1/0.
	TypeBool OptionType = "bool"
	TypeInt  OptionType = "int"
	// TypePathList is a list of paths separated by os.PathListSeparator.
	TypePathList OptionType = "path-list"
)

// Option declares one configuration option.
type Option struct {
	Name        string
	Type        OptionType
	Default     string
	Description string
	// EnvVar, if set, names an environment variable that overrides the
	// file.
	EnvVar string
}

// Schema is the set of known options.
type Schema struct {
	options []Option
	byName  map[string]int
}

// NewSchema returns a Schema holding opts. A later option replaces an
// earlier one of the same name.
func NewSchema(opts ...Option) *Schema {
	s := &Schema{byName: make(map[string]int)}
	for _, o := range opts {
		if i, ok := s.byName[o.Name]; ok {
			s.options[i] = o
			continue
		}
		s.byName[o.Name] = len(s.options)
		s.options = append(s.options, o)
	}
	return s
}

// Lookup returns the option called name.
func (s *Schema) Lookup(name string) (Option, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Option{}, false
	}
	return s.options[i], true
}

// Options returns every option in declaration order.
func (s *Schema) Options() []Option {
	return slices.Clone(s.options)
}

// Resolve returns the effective value of an option: its environment
// variable if set, else the value in c, else the default.
func (s *Schema) Resolve(c *Config, name string) string {
	opt, known := s.Lookup(name)
	if known && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if v, ok := c.Get(name); ok {
			return v
		}
	}
	return opt.Default
}

// ResolveInt is Resolve for TypeInt options. An unparsable value falls back
// to the default.
func (s *Schema) ResolveInt(c *Config, name string) int {
	if n, err := strconv.Atoi(s.Resolve(c, name)); err == nil {
		return n
	}
	opt, _ := s.Lookup(name)
	n, _ := strconv.Atoi(opt.Default)
	return n
}

// ResolveBool is Resolve for TypeBool options. An unparsable value falls
// back to the default.
func (s *Schema) ResolveBool(c *Config, name string) bool {
	if b, err := parseBool(s.Resolve(c, name)); err == nil {
		return b
	}
	opt, _ := s.Lookup(name)
	b, _ := parseBool(opt.Default)
	return b
}

// ResolvePathList is Resolve for TypePathList options. Empty elements are
// dropped and a leading ~ is expanded to the home directory.
func (s *Schema) ResolvePathList(c *Config, name string) []string {
	var out []string
	for _, p := range filepath.SplitList(s.Resolve(c, name)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, expandHome(p))
		}
	}
	return out
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// Validate reports unknown options and values that do not parse as their
// option's type, sorted.
func (s *Schema) Validate(c *Config) []string {
	var issues []string
	for _, name := range c.Names() {
		value := c.Options[name]
		opt, ok := s.Lookup(name)
		if !ok {
			issues = append(issues, fmt.Sprintf("unknown option: %q (value: %q)", name, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("option %q: %v", name, err))
		}
	}
	return issues
}

func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, TypePathList, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %s", s)
}

// FormatHelp describes every option, one per line.
func (s *Schema) FormatHelp() string {
	var b strings.Builder
	for _, o := range s.options {
		fmt.Fprintf(&b, "  %-22s %s", o.Name, o.Description)
		var parts []string
		if o.Type != "" && o.Type != TypeString {
			parts = append(parts, "type: "+string(o.Type))
		}
		if o.Default != "" {
			parts = append(parts, "default: "+o.Default)
		}
		if o.EnvVar != "" {
			parts = append(parts, "env: "+o.EnvVar)
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DefaultSchema declares the options jsrun understands.
func DefaultSchema() *Schema {
	return NewSchema(
		Option{Name: "log.level", Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "JSRUN_LOG_LEVEL"},
		Option{Name: "log.file", Type: TypeString, Description: "Log file path (JSON lines); logging is off when empty", EnvVar: "JSRUN_LOG_FILE"},
		Option{Name: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Log file size in MB that triggers rotation"},
		Option{Name: "log.max-files", Type: TypeInt, Default: "5", Description: "Rotated log files to keep"},
		Option{Name: "script.module-paths", Type: TypePathList, Description: "Extra folders searched by require()", EnvVar: "JSRUN_MODULE_PATHS"},
		Option{Name: "script.snapshot", Type: TypeString, Description: "Bootstrap script run in every context before user code"},
		Option{Name: "console.color", Type: TypeString, Default: "auto", Description: "Color console.warn and console.error: auto, always, never"},
		Option{Name: "repl.prompt", Type: TypeString, Default: "> ", Description: "REPL prompt prefix"},
		Option{Name: "repl.history-file", Type: TypeString, Default: "~/.jsrun/history", Description: "REPL history file; history is not kept when empty", EnvVar: "JSRUN_HISTORY_FILE"},
		Option{Name: "repl.history-size", Type: TypeInt, Default: "1000", Description: "REPL history entries to keep"},
	)
}
