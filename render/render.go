// Package render formats operator-bound output for the narrowband link.
// It is stateless: every function maps input text plus a Budget to a
// bounded slice of lines.
package render

import "strings"

// TruncationMark is appended to the final line whenever content had to be
// dropped to honor the budget. The operator always sees that something was
// cut, it is never silent.
const TruncationMark = "+"

// Budget holds the per-event output limits. Immutable per session.
type Budget struct {
	MaxLineLen int // maximum bytes per line, including the truncation mark
	MaxLines   int // maximum lines emitted for one logical event
}

// Wrap breaks text into lines of at most MaxLineLen bytes, preferring to
// break at spaces, and caps the result at MaxLines. Excess content is cut
// and the final line gets the truncation mark.
func Wrap(text string, b Budget) []string {
	if b.MaxLineLen <= len(TruncationMark) || b.MaxLines <= 0 {
		return nil
	}

	var lines []string
	for _, src := range strings.Split(text, "\n") {
		for src != "" {
			if len(lines) == b.MaxLines {
				return markTruncated(lines, b)
			}
			if len(src) <= b.MaxLineLen {
				lines = append(lines, src)
				break
			}
			cut := b.MaxLineLen
			if i := strings.LastIndexByte(src[:cut], ' '); i > 0 {
				cut = i
			}
			lines = append(lines, strings.TrimRight(src[:cut], " "))
			src = strings.TrimLeft(src[cut:], " ")
		}
	}
	return lines
}

// Line truncates a single preformatted line to the budget width, marking
// the cut. It always returns exactly one line.
func Line(text string, b Budget) string {
	if b.MaxLineLen <= len(TruncationMark) {
		return text
	}
	if len(text) <= b.MaxLineLen {
		return text
	}
	return text[:b.MaxLineLen-len(TruncationMark)] + TruncationMark
}

// JoinNames renders a name listing as comma-joined lines with a prefix on
// the first line, packing as many names per line as the width allows. The
// line count cap applies; names that do not fit are dropped behind the
// truncation mark.
func JoinNames(prefix string, names []string, b Budget) []string {
	if len(names) == 0 {
		return []string{Line(prefix, b)}
	}
	return Wrap(prefix+strings.Join(names, ", "), b)
}

// markTruncated stamps the truncation mark onto the last emitted line,
// shortening it if the mark itself would not fit.
func markTruncated(lines []string, b Budget) []string {
	last := lines[len(lines)-1]
	if len(last)+len(TruncationMark) > b.MaxLineLen {
		last = last[:b.MaxLineLen-len(TruncationMark)]
	}
	lines[len(lines)-1] = last + TruncationMark
	return lines
}
