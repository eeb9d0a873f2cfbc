// Package config loads the jsrun configuration file.
//
// The file uses a dnsmasq-style format: one option per line, the option
// name followed by a space and the rest of the line as its value. Lines
// starting with # are comments. A [section] header prefixes the options
// that follow it, so
//
//	[log]
//	level debug
//
// sets the option log.level.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
)

// Config is a parsed configuration file.
type Config struct {
	// Options maps full option names, e.g. "repl.prompt", to raw values.
	Options map[string]string
	// Warnings lists problems found while loading, such as unknown options.
	// They do not prevent the configuration from being used.
	Warnings []string
}

// NewConfig returns an empty Config.
func NewConfig() *Config {
	return &Config{Options: make(map[string]string)}
}

// Load loads the file at the path GetConfigPath reports.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the file at path. A missing file yields an empty
// Config. Symlinks are rejected.
func LoadFromPath(path string) (*Config, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return LoadFromReader(f)
}

// LoadFromReader parses a configuration and validates it against
// DefaultSchema.
func LoadFromReader(r io.Reader) (*Config, error) {
	c := NewConfig()
	scanner := bufio.NewScanner(r)

	var section string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("line %d: unterminated section header %q", lineNo, line)
			}
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		name, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)
		if section != "" {
			name = section + "." + name
		}
		if _, dup := c.Options[name]; dup {
			c.addWarning("option %q set more than once, line %d wins", name, lineNo)
		}
		c.Options[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	for _, issue := range DefaultSchema().Validate(c) {
		c.addWarning("%s", issue)
	}
	return c, nil
}

func (c *Config) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	slog.Warn("[config] " + msg)
}

// Get returns the raw value of an option.
func (c *Config) Get(name string) (string, bool) {
	v, ok := c.Options[name]
	return v, ok
}

// Set sets the raw value of an option.
func (c *Config) Set(name, value string) {
	c.Options[name] = value
}

// Names returns the names of every option set, sorted.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.Options))
}
