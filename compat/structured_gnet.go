package compat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lixenwraith/mongolog"
	"github.com/panjf2000/gnet/v2/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
)

var _ logging.Logger = (*StructuredGnetAdapter)(nil)

// keyValuePattern detects common structured patterns like "key=%v" or "key: %v"
var keyValuePattern = regexp.MustCompile(`(\w+)\s*[:=]\s*%[vsdqxXeEfFgGpbcU]`)

// parseFormat extracts structured fields from printf-style format strings. The text around
// the fields becomes the message; the fields become the attribute document.
func parseFormat(format string, args []any) (string, bson.D) {
	matches := keyValuePattern.FindAllStringSubmatchIndex(format, -1)
	if len(matches) == 0 || countVerbs(format) != len(args) {
		// Fallback to simple message if pattern doesn't match
		return fmt.Sprintf(format, args...), nil
	}

	var msg []string
	fields := make(bson.D, 0, len(matches))
	lastEnd := 0
	argIndex := 0

	for _, match := range matches {
		// Plain text between fields, with its own verbs, stays in the message
		between := format[lastEnd:match[0]]
		n := countVerbs(between)
		if text := strings.TrimSpace(fmt.Sprintf(between, args[argIndex:argIndex+n]...)); text != "" {
			msg = append(msg, text)
		}
		argIndex += n

		key := format[match[2]:match[3]]
		fields = append(fields, bson.E{Key: key, Value: args[argIndex]})
		argIndex++
		lastEnd = match[1]
	}

	// Handle remaining format string and args
	if rest := strings.TrimSpace(fmt.Sprintf(format[lastEnd:], args[argIndex:]...)); rest != "" {
		msg = append(msg, rest)
	}
	if len(msg) == 0 {
		return fmt.Sprintf(format, args...), fields
	}

	return strings.Join(msg, " "), fields
}

// countVerbs counts formatting verbs, ignoring escaped percent signs
func countVerbs(format string) int {
	return strings.Count(strings.ReplaceAll(format, "%%", ""), "%")
}

// StructuredGnetAdapter provides structured logging for gnet: "key=%v" pairs in the
// format string are written to the attr document instead of the message
type StructuredGnetAdapter struct {
	*GnetAdapter
	extractFields bool
}

// NewStructuredGnetAdapter creates a gnet adapter with structured field extraction
func NewStructuredGnetAdapter(writer *mongolog.ComponentWriter, opts ...GnetOption) *StructuredGnetAdapter {
	return &StructuredGnetAdapter{
		GnetAdapter:   NewGnetAdapter(writer, opts...),
		extractFields: true,
	}
}

// Debugf logs with structured field extraction
func (a *StructuredGnetAdapter) Debugf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Debugf(format, args...)
		return
	}
	msg, attr := parseFormat(format, args)
	a.writer.Debug(a.id, a.logCtx, msg, attrOrNil(attr), 1)
}

// Infof logs with structured field extraction
func (a *StructuredGnetAdapter) Infof(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Infof(format, args...)
		return
	}
	msg, attr := parseFormat(format, args)
	a.writer.Info(a.id, a.logCtx, msg, attrOrNil(attr))
}

// Warnf logs with structured field extraction
func (a *StructuredGnetAdapter) Warnf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Warnf(format, args...)
		return
	}
	msg, attr := parseFormat(format, args)
	a.writer.Warn(a.id, a.logCtx, msg, attrOrNil(attr))
}

// Errorf logs with structured field extraction
func (a *StructuredGnetAdapter) Errorf(format string, args ...any) {
	if !a.extractFields {
		a.GnetAdapter.Errorf(format, args...)
		return
	}
	msg, attr := parseFormat(format, args)
	a.writer.Error(a.id, a.logCtx, msg, attrOrNil(attr))
}

// attrOrNil keeps an empty field set from producing an empty attr document
func attrOrNil(attr bson.D) any {
	if len(attr) == 0 {
		return nil
	}
	return attr
}
