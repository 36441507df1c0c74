package steps

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Capture is one argument extracted from a step's text by a pattern: the
// placeholder or group name and the raw matched text. Start and End are byte
// offsets into the step text, or -1 when the pattern cannot report them.
type Capture struct {
	Name  string
	Raw   string
	Start int
	End   int
}

// Pattern decides whether a step's text matches a definition and extracts
// its captures. The set of kinds is closed: Exact, Regex, Format and Custom.
type Pattern interface {
	// Source returns the literal the pattern was built from.
	Source() string
	// Kind names the pattern kind for error messages and listings.
	Kind() string

	compile() error
	match(text string) ([]Capture, bool)
	arity() int
}

// Exact matches the step text by string equality. No captures.
func Exact(text string) Pattern {
	return &exactPattern{text: text}
}

type exactPattern struct {
	text string
}

func (p *exactPattern) Source() string { return p.text }
func (p *exactPattern) Kind() string   { return "exact" }
func (p *exactPattern) compile() error { return nil }
func (p *exactPattern) arity() int     { return 0 }

func (p *exactPattern) match(text string) ([]Capture, bool) {
	return nil, text == p.text
}

// Regex matches the full step text against a regular expression. The
// expression is anchored on both ends. Captures come from the groups, named
// by (?P<name>...) or by their 1-based index when unnamed.
func Regex(expr string) Pattern {
	return &regexPattern{expr: expr}
}

type regexPattern struct {
	expr string
	re   *regexp.Regexp
}

func (p *regexPattern) Source() string { return p.expr }
func (p *regexPattern) Kind() string   { return "regexp" }

func (p *regexPattern) compile() error {
	re, err := regexp.Compile("^(?:" + p.expr + ")$")
	if err != nil {
		return fmt.Errorf("invalid step pattern %q: %w", p.expr, err)
	}
	p.re = re
	return nil
}

func (p *regexPattern) arity() int { return p.re.NumSubexp() }

func (p *regexPattern) match(text string) ([]Capture, bool) {
	idx := p.re.FindStringSubmatchIndex(text)
	if idx == nil {
		return nil, false
	}
	names := p.re.SubexpNames()
	captures := make([]Capture, 0, p.re.NumSubexp())
	for g := 1; g <= p.re.NumSubexp(); g++ {
		name := names[g]
		if name == "" {
			name = strconv.Itoa(g)
		}
		start, end := idx[2*g], idx[2*g+1]
		var raw string
		if start >= 0 {
			raw = text[start:end]
		}
		captures = append(captures, Capture{Name: name, Raw: raw, Start: start, End: end})
	}
	return captures, true
}

// formatKinds maps placeholder kind names to their capture regexes.
var formatKinds = map[string]string{
	"int":    `(-?\d+)`,
	"float":  `(-?\d*\.?\d+)`,
	"word":   `(\w+)`,
	"string": `"([^"]*)"`,
	"":       `(.*)`,
	"any":    `(.*)`,

	// Timezone: Z, UTC, offsets like +05:30/-0800, IANA names.
	"timezone": `(Z|UTC|[+-]\d{2}:?\d{2}|[A-Za-z_]+/[A-Za-z_]+)`,

	// Time: HH:MM[:SS[.mmm]] with optional AM/PM and optional timezone.
	"time": `(\d{1,2}:\d{2}(?::\d{2})?(?:\.\d{1,3})?(?:\s*[AaPp][Mm])?(?:\s*(?:Z|UTC|[+-]\d{2}:?\d{2}|[A-Za-z_]+/[A-Za-z_]+))?)`,

	// Date: ISO (2024-01-15), EU (15/01/2024, 15.01.2024) and written
	// forms (Jan 15, 2024 / 15 Jan 2024).
	"date": `(\d{4}[-/]\d{2}[-/]\d{2}|\d{1,2}[-/\.]\d{1,2}[-/\.]\d{2,4}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4})`,

	// Datetime: date plus time separated by space or T, optional timezone.
	"datetime": `(\d{4}[-/]\d{2}[-/]\d{2}[T\s]\d{1,2}:\d{2}(?::\d{2})?(?:\.\d{1,3})?(?:\s*[AaPp][Mm])?(?:\s*(?:Z|UTC|[+-]\d{2}:?\d{2}|[A-Za-z_]+/[A-Za-z_]+))?|\d{1,2}[-/\.]\d{1,2}[-/\.]\d{2,4}\s+\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AaPp][Mm])?(?:\s*(?:Z|UTC|[+-]\d{2}:?\d{2}|[A-Za-z_]+/[A-Za-z_]+))?)`,

	"email": `([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`,

	// Duration: Go time.Duration strings such as 5s, 1h30m, -500ms.
	"duration": `(-?(?:\d+\.?\d*(?:ns|us|µs|ms|s|m|h))+)`,

	"url": `(https?://[^\s]+)`,
}

// Format matches a placeholder pattern such as "I add {a:int} and {b:int}".
// Placeholders are written {name} or {name:kind}; a bare {name} captures any
// text. Literal braces are escaped as {{ and }}. The kind decides the capture
// regex only, never the handler parameter type.
func Format(expr string) Pattern {
	return &formatPattern{expr: expr}
}

type formatPattern struct {
	expr  string
	names []string
	re    *regexp.Regexp
}

func (p *formatPattern) Source() string { return p.expr }
func (p *formatPattern) Kind() string   { return "format" }
func (p *formatPattern) arity() int     { return len(p.names) }

func (p *formatPattern) compile() error {
	var sb strings.Builder
	sb.WriteString("^")
	p.names = p.names[:0]

	rest := p.expr
	for len(rest) > 0 {
		switch {
		case strings.HasPrefix(rest, "{{"):
			sb.WriteString(regexp.QuoteMeta("{"))
			rest = rest[2:]
		case strings.HasPrefix(rest, "}}"):
			sb.WriteString(regexp.QuoteMeta("}"))
			rest = rest[2:]
		case strings.HasPrefix(rest, "{"):
			end := strings.Index(rest, "}")
			if end < 0 {
				return fmt.Errorf("invalid step pattern %q: unclosed { placeholder", p.expr)
			}
			name, kind, _ := strings.Cut(rest[1:end], ":")
			if name == "" || !identPattern.MatchString(name) {
				return fmt.Errorf("invalid step pattern %q: bad placeholder name %q", p.expr, name)
			}
			capture, ok := formatKinds[kind]
			if !ok {
				return fmt.Errorf("invalid step pattern %q: unknown placeholder kind %q", p.expr, kind)
			}
			p.names = append(p.names, name)
			sb.WriteString(capture)
			rest = rest[end+1:]
		case strings.HasPrefix(rest, "}"):
			return fmt.Errorf("invalid step pattern %q: unmatched }", p.expr)
		default:
			n := strings.IndexAny(rest, "{}")
			if n < 0 {
				n = len(rest)
			}
			sb.WriteString(regexp.QuoteMeta(rest[:n]))
			rest = rest[n:]
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return fmt.Errorf("invalid step pattern %q: %w", p.expr, err)
	}
	p.re = re
	return nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (p *formatPattern) match(text string) ([]Capture, bool) {
	idx := p.re.FindStringSubmatchIndex(text)
	if idx == nil {
		return nil, false
	}
	captures := make([]Capture, len(p.names))
	for i, name := range p.names {
		start, end := idx[2*(i+1)], idx[2*(i+1)+1]
		var raw string
		if start >= 0 {
			raw = text[start:end]
		}
		captures[i] = Capture{Name: name, Raw: raw, Start: start, End: end}
	}
	return captures, true
}

// Custom wraps a caller-supplied match function. The function reports the
// named captures for a matching text; capture order follows sorted names so
// repeated matches stay deterministic. Offsets are not available.
func Custom(name string, fn func(text string) (map[string]string, bool)) Pattern {
	return &customPattern{name: name, fn: fn}
}

type customPattern struct {
	name string
	fn   func(text string) (map[string]string, bool)
}

func (p *customPattern) Source() string { return p.name }
func (p *customPattern) Kind() string   { return "custom" }
func (p *customPattern) arity() int     { return -1 }

func (p *customPattern) compile() error {
	if p.fn == nil {
		return fmt.Errorf("invalid step pattern %q: custom match function is nil", p.name)
	}
	return nil
}

func (p *customPattern) match(text string) ([]Capture, bool) {
	values, ok := p.fn(text)
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	captures := make([]Capture, len(names))
	for i, name := range names {
		captures[i] = Capture{Name: name, Raw: values[name], Start: -1, End: -1}
	}
	return captures, true
}
