// FILE: lixenwraith/mongolog/utility.go
package mongolog

import (
	"fmt"
	"os"
	"strings"
)

const errPrefix = "mongolog: "

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, errPrefix) {
		format = errPrefix + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// internalLog writes package diagnostics to stderr when enabled
func internalLog(enabled bool, format string, args ...any) {
	if !enabled {
		return
	}

	// Ensure consistent prefix
	if !strings.HasPrefix(format, errPrefix) {
		format = errPrefix + format
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// lowerFirst lower-cases the leading ASCII letter of a Go identifier
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	c := s[0]
	if c >= 'A' && c <= 'Z' {
		return string(c+('a'-'A')) + s[1:]
	}
	return s
}
