package feedback

import (
	"strings"
	"unicode"
)

// RepairPass rewrites almost-JSON text. Passes ignore everything inside
// string literals and applying one twice changes nothing.
type RepairPass struct {
	Name  string
	Apply func(string) string
}

// RepairPasses run in order when the direct parse fails.
var RepairPasses = []RepairPass{
	{Name: "trailing_commas", Apply: stripTrailingCommas},
	{Name: "bare_keys", Apply: quoteBareKeys},
}

// Repair applies every pass in order.
func Repair(text string) string {
	for _, pass := range RepairPasses {
		text = pass.Apply(text)
	}
	return text
}

// scanner walks JSON-like text and tracks whether it is inside a string.
type scanner struct {
	src      []rune
	pos      int
	inString bool
	escaped  bool
}

// next returns the current rune and whether it is outside any string literal,
// then advances. Quote characters themselves count as outside.
func (s *scanner) next() (rune, bool) {
	r := s.src[s.pos]
	s.pos++

	if s.inString {
		switch {
		case s.escaped:
			s.escaped = false
		case r == '\\':
			s.escaped = true
		case r == '"':
			s.inString = false
			return r, true
		}
		return r, false
	}

	if r == '"' {
		s.inString = true
	}
	return r, true
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

// stripTrailingCommas drops commas directly followed (whitespace aside) by a
// closing brace or bracket.
func stripTrailingCommas(text string) string {
	s := &scanner{src: []rune(text)}
	var out strings.Builder
	out.Grow(len(text))

	for !s.done() {
		r, outside := s.next()
		if outside && r == ',' && closesNext(s.src[s.pos:]) {
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

func closesNext(rest []rune) bool {
	for _, r := range rest {
		if unicode.IsSpace(r) {
			continue
		}
		return r == '}' || r == ']'
	}
	return false
}

// quoteBareKeys wraps unquoted object keys in double quotes. A key is an
// identifier that follows '{' or ',' and precedes ':'.
func quoteBareKeys(text string) string {
	s := &scanner{src: []rune(text)}
	var out strings.Builder
	out.Grow(len(text) + 8)

	lastSignificant := rune(0)
	for !s.done() {
		r, outside := s.next()
		if !outside || r == '"' {
			out.WriteRune(r)
			if outside {
				lastSignificant = r
			}
			continue
		}

		if isIdentStart(r) && (lastSignificant == '{' || lastSignificant == ',') {
			end := s.pos
			for end < len(s.src) && isIdentPart(s.src[end]) {
				end++
			}
			colon := end
			for colon < len(s.src) && unicode.IsSpace(s.src[colon]) {
				colon++
			}
			if colon < len(s.src) && s.src[colon] == ':' {
				out.WriteByte('"')
				out.WriteRune(r)
				out.WriteString(string(s.src[s.pos:end]))
				out.WriteByte('"')
				s.pos = end
				lastSignificant = '"'
				continue
			}
		}

		out.WriteRune(r)
		if !unicode.IsSpace(r) {
			lastSignificant = r
		}
	}
	return out.String()
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
