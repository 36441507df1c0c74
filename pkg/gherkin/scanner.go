package gherkin

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// line is one raw source line with the trivia the parser needs: its 1-based
// number, the trimmed text and the indentation the keyword column derives
// from.
type line struct {
	num    int
	raw    string
	text   string
	indent int
}

func (ln line) isBlank() bool    { return ln.text == "" }
func (ln line) isComment() bool  { return strings.HasPrefix(ln.text, "#") }
func (ln line) isTagLine() bool  { return strings.HasPrefix(ln.text, "@") }
func (ln line) isTableRow() bool { return strings.HasPrefix(ln.text, "|") }

// col is the 1-based column of the first non-blank rune.
func (ln line) col() int { return ln.indent + 1 }

func (ln line) docStringDelim() (string, bool) {
	switch {
	case strings.HasPrefix(ln.text, `"""`):
		return `"""`, true
	case strings.HasPrefix(ln.text, "```"):
		return "```", true
	}
	return "", false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func scanLines(src []byte) []line {
	src = bytes.TrimPrefix(src, utf8BOM)
	raw := strings.Split(string(src), "\n")
	lines := make([]line, len(raw))
	for i, r := range raw {
		r = strings.TrimSuffix(r, "\r")
		indent := 0
		for _, ch := range r {
			if ch != ' ' && ch != '\t' {
				break
			}
			indent++
		}
		lines[i] = line{num: i + 1, raw: r, text: strings.TrimSpace(r), indent: indent}
	}
	return lines
}

var languagePattern = regexp.MustCompile(`^#\s*language\s*:\s*([A-Za-z][A-Za-z0-9_-]*)\s*$`)

// splitTableCells splits a `| a | b |` line into trimmed cell values,
// honoring the \|, \\ and \n escapes. closed reports whether the row ends
// with an unescaped pipe.
func splitTableCells(text string) (cells []string, closed bool) {
	var cur strings.Builder
	escaped := false
	for _, r := range text[1:] {
		if escaped {
			switch r {
			case 'n':
				cur.WriteByte('\n')
			case '|', '\\':
				cur.WriteRune(r)
			default:
				cur.WriteByte('\\')
				cur.WriteRune(r)
			}
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	closed = !escaped && strings.TrimSpace(cur.String()) == ""
	return cells, closed
}

// dedent strips up to n leading blanks, the indentation of a doc string's
// opening delimiter.
func dedent(raw string, n int) string {
	i := 0
	for i < len(raw) && n > 0 && (raw[i] == ' ' || raw[i] == '\t') {
		i++
		n--
	}
	return raw[i:]
}

func unescapeDocString(s, delim string) string {
	return strings.ReplaceAll(s, `\`+delim, delim)
}

func foundText(text string) string {
	r := []rune(text)
	if len(r) > 40 {
		text = string(r[:40]) + "..."
	}
	return fmt.Sprintf("%q", text)
}
