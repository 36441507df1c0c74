package gherkin

import (
	"fmt"
	"strings"
)

// SyntaxError reports malformed scenario text: a keyword out of sequence, a
// ragged table, an unterminated doc string. It is document-scoped; parsing
// of the offending document stops, other documents are unaffected.
type SyntaxError struct {
	URI      string
	Line     int
	Column   int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	pos := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.URI != "" {
		pos = e.URI + ":" + pos
	}
	return fmt.Sprintf("%s: expected %s, found %s", pos, e.Expected, e.Found)
}

// Snippet renders the offending source line with a caret under the error
// column, given the source the document was parsed from.
func (e *SyntaxError) Snippet(src []byte) string {
	lines := strings.Split(string(src), "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return ""
	}
	content := strings.TrimSuffix(lines[e.Line-1], "\r")

	var b strings.Builder
	fmt.Fprintf(&b, "  --> %s\n", strings.TrimPrefix(e.Error(), e.URI+":"))
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%3d| %s\n", e.Line, content)
	b.WriteString("   | ")
	if e.Column > 0 && e.Column <= len([]rune(content))+1 {
		b.WriteString(strings.Repeat(" ", e.Column-1))
	}
	b.WriteString("^")
	return b.String()
}
