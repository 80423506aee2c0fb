// Package filter implements the gateway's content filter. A Set is loaded
// once at startup from a word-per-line file and is immutable afterwards, so
// it is safe for concurrent use by both session tasks without locking.
package filter

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// Set is an immutable collection of forbidden tokens with a compiled
// matcher. The zero value (or an empty load) matches nothing.
type Set struct {
	tokens  map[string]struct{}
	matcher *regexp.Regexp
}

// Load reads forbidden tokens from a word-per-line file. Blank lines and
// lines starting with '#' are skipped. A missing or unreadable file is not
// fatal: the returned Set is empty and the error lets the caller log a
// warning and continue.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return New(nil), err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, word)
	}
	return New(words), scanner.Err()
}

// New builds a Set from the given tokens. Tokens are lowercased and matched
// case-insensitively as standalone words: a token only matches between word
// boundaries, so an entry "ass" never corrupts "class". Matching is a single
// compiled regexp of the form \b(tok1|tok2|...)\b.
func New(words []string) *Set {
	s := &Set{tokens: make(map[string]struct{})}

	var quoted []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := s.tokens[w]; dup {
			continue
		}
		s.tokens[w] = struct{}{}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	if len(quoted) > 0 {
		s.matcher = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	}
	return s
}

// Len returns the number of loaded tokens.
func (s *Set) Len() int {
	return len(s.tokens)
}

// Contains reports whether text holds at least one forbidden token.
func (s *Set) Contains(text string) bool {
	if s == nil || s.matcher == nil {
		return false
	}
	return s.matcher.MatchString(text)
}

// Clean replaces every forbidden token in text with a run of '*' of the
// same length, preserving the visual width of the line. The mask contains
// no word characters, so Clean is idempotent: cleaning cleaned text is a
// no-op.
func (s *Set) Clean(text string) string {
	if s == nil || s.matcher == nil {
		return text
	}
	return s.matcher.ReplaceAllStringFunc(text, func(match string) string {
		return strings.Repeat("*", len(match))
	})
}
