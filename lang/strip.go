package lang

import "strings"

// StripComments truncates every line of text at its first '#'.
//
// The scan is purely lexical. A '#' inside a [[...]] literal also starts a
// comment.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if idx := strings.Index(line, commentMarker); idx >= 0 {
			lines[i] = line[:idx]
		}
	}

	return strings.Join(lines, "\n")
}

// sourceLines returns the comment-stripped lines of text.
func sourceLines(text string) []string {
	return strings.Split(StripComments(text), "\n")
}
