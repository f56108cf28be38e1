// FILE: lixenwraith/mongolog/sanitizer/sanitizer.go
// Package sanitizer makes decoded log text safe to print on a terminal. Stored records are
// never sanitized; only their rendering is.
package sanitizer

import (
	"encoding/hex"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Character classes a rule can match
const (
	MatchNonPrintable uint64 = 1 << iota // Runes strconv.IsPrint rejects
	MatchControl                         // unicode.IsControl
	MatchEscape                          // ESC, the start of terminal control sequences
)

// Replacements applied to a matched rune
const (
	ReplaceDrop   uint64 = 1 << iota // Remove the rune
	ReplaceHex                       // "<XXYY>" of the rune's UTF-8 bytes
	ReplaceEscape                    // Go escape form such as \n or \x1b
)

// Policy is a named rule set
type Policy string

const (
	PolicyRaw      Policy = "raw"      // Passthrough
	PolicyTerminal Policy = "terminal" // Keep one record per line, neutralize escape sequences
	PolicyStrict   Policy = "strict"   // Hex-encode everything not printable
)

type rule struct {
	match   uint64
	replace uint64
}

var policies = map[Policy][]rule{
	PolicyRaw: nil,
	PolicyTerminal: {
		{match: MatchEscape | MatchControl, replace: ReplaceEscape},
		{match: MatchNonPrintable, replace: ReplaceHex},
	},
	PolicyStrict: {{match: MatchNonPrintable, replace: ReplaceHex}},
}

func matches(r rune, mask uint64) bool {
	if mask&MatchEscape != 0 && r == 0x1b {
		return true
	}
	if mask&MatchControl != 0 && unicode.IsControl(r) {
		return true
	}
	if mask&MatchNonPrintable != 0 && !strconv.IsPrint(r) {
		return true
	}
	return false
}

// Sanitizer rewrites strings rune by rune; the first matching rule wins
type Sanitizer struct {
	rules []rule
}

// New creates a passthrough Sanitizer
func New() *Sanitizer {
	return &Sanitizer{}
}

// Rule appends a rule
func (s *Sanitizer) Rule(match, replace uint64) *Sanitizer {
	s.rules = append(s.rules, rule{match: match, replace: replace})
	return s
}

// Policy appends the rules of a preset; unknown presets add nothing
func (s *Sanitizer) Policy(p Policy) *Sanitizer {
	s.rules = append(s.rules, policies[p]...)
	return s
}

// Sanitize returns data with every rule applied
func (s *Sanitizer) Sanitize(data string) string {
	if len(s.rules) == 0 {
		return data
	}

	buf := make([]byte, 0, len(data))
	for _, r := range data {
		replaced := false
		for _, rl := range s.rules {
			if matches(r, rl.match) {
				buf = replace(buf, r, rl.replace)
				replaced = true
				break
			}
		}
		if !replaced {
			buf = utf8.AppendRune(buf, r)
		}
	}
	return string(buf)
}

func replace(buf []byte, r rune, mode uint64) []byte {
	switch {
	case mode&ReplaceDrop != 0:
		return buf
	case mode&ReplaceHex != 0:
		var b [utf8.UTFMax]byte
		n := utf8.EncodeRune(b[:], r)
		buf = append(buf, '<')
		buf = hex.AppendEncode(buf, b[:n])
		return append(buf, '>')
	case mode&ReplaceEscape != 0:
		quoted := strconv.QuoteRune(r)
		return append(buf, quoted[1:len(quoted)-1]...)
	default:
		return utf8.AppendRune(buf, r)
	}
}
