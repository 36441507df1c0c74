// Package gherkin parses Gherkin scenario text into the scenario model.
// The parser is line-based: every line is classified against the active
// keyword dialect and fed through a recursive descent over the document
// structure. Comments and blank lines are preserved as trivia, never
// semantics. The first structural mistake stops the parse of that document;
// other documents of a run are unaffected.
package gherkin

import (
	"fmt"
	"io"
	"strings"

	"github.com/denizgursoy/tursu/pkg/model"
)

// DefaultLanguage is the dialect used when neither an option nor a
// "# language:" directive selects one.
const DefaultLanguage = "en"

type config struct {
	uri      string
	language string
	dialects *DialectRegistry
}

// Option adjusts a single Parse call.
type Option func(*config)

// WithURI records the source identity on the document and on error
// positions.
func WithURI(uri string) Option {
	return func(c *config) { c.uri = uri }
}

// WithLanguage selects the keyword dialect for sources that carry no
// "# language:" directive. A directive in the source wins.
func WithLanguage(tag string) Option {
	return func(c *config) { c.language = tag }
}

// WithDialects supplies a registry with custom dialects.
func WithDialects(r *DialectRegistry) Option {
	return func(c *config) { c.dialects = r }
}

// Parse turns Gherkin source text into a document. Malformed input returns
// a *SyntaxError carrying the offending position.
func Parse(src []byte, opts ...Option) (*model.Document, error) {
	cfg := config{language: DefaultLanguage, dialects: NewDialectRegistry()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &parser{uri: cfg.uri, lines: scanLines(src)}

	lang := cfg.language
	directiveLine := 0
	if tag, num, ok := p.languageDirective(); ok {
		lang, directiveLine = tag, num
	}
	dialect, ok := cfg.dialects.Lookup(lang)
	if !ok {
		if directiveLine > 0 {
			return nil, p.errAt(directiveLine, 1, "a known language", fmt.Sprintf("%q", lang))
		}
		return nil, fmt.Errorf("unknown language %q", lang)
	}
	p.c = dialect.compile()
	p.doc = &model.Document{URI: cfg.uri, Language: lang}

	return p.parseDocument()
}

// ParseReader reads the full source and parses it.
func ParseReader(r io.Reader, opts ...Option) (*model.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario source: %w", err)
	}
	return Parse(src, opts...)
}

type parser struct {
	uri   string
	lines []line
	pos   int
	c     *compiled
	doc   *model.Document

	// pending holds tags waiting for the declaration they belong to.
	pending    []model.Tag
	pendingSet bool
	pendingLoc model.Location
}

func (p *parser) eof() bool  { return p.pos >= len(p.lines) }
func (p *parser) peek() line { return p.lines[p.pos] }

func (p *parser) next() line {
	ln := p.lines[p.pos]
	p.pos++
	return ln
}

func (p *parser) errAt(lineNum, col int, expected, found string) *SyntaxError {
	return &SyntaxError{URI: p.uri, Line: lineNum, Column: col, Expected: expected, Found: found}
}

// languageDirective scans the preamble (comments and blanks before any
// content) for a "# language:" comment.
func (p *parser) languageDirective() (string, int, bool) {
	for _, ln := range p.lines {
		switch {
		case ln.isBlank():
		case ln.isComment():
			if m := languagePattern.FindStringSubmatch(ln.text); m != nil {
				return m[1], ln.num, true
			}
		default:
			return "", 0, false
		}
	}
	return "", 0, false
}

func (p *parser) recordComment(ln line) {
	p.doc.Comments = append(p.doc.Comments, &model.Comment{
		Text:     ln.text,
		Location: model.Location{Line: ln.num, Column: ln.col()},
	})
}

// collectTags parses one @tag line into the pending set. A trailing comment
// on the line is preserved.
func (p *parser) collectTags(ln line) error {
	runes := []rune(ln.text)
	i := 0
	for i < len(runes) {
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t') {
			i++
		}
		if i >= len(runes) {
			break
		}
		start := i
		for i < len(runes) && runes[i] != ' ' && runes[i] != '\t' {
			i++
		}
		word := string(runes[start:i])
		col := ln.col() + start
		if strings.HasPrefix(word, "#") {
			p.doc.Comments = append(p.doc.Comments, &model.Comment{
				Text:     string(runes[start:]),
				Location: model.Location{Line: ln.num, Column: col},
			})
			break
		}
		if !strings.HasPrefix(word, "@") || len(word) < 2 {
			return p.errAt(ln.num, col, "a tag beginning with '@'", fmt.Sprintf("%q", word))
		}
		if !p.pendingSet {
			p.pendingSet = true
			p.pendingLoc = model.Location{Line: ln.num, Column: col}
		}
		p.pending = append(p.pending, model.Tag{
			Name:     word[1:],
			Location: model.Location{Line: ln.num, Column: col},
		})
	}
	if !p.pendingSet {
		p.pendingSet = true
		p.pendingLoc = model.Location{Line: ln.num, Column: ln.col()}
	}
	return nil
}

func (p *parser) takePending() []model.Tag {
	tags := p.pending
	p.pending = nil
	p.pendingSet = false
	return tags
}

func (p *parser) parseDocument() (*model.Document, error) {
	for !p.eof() {
		ln := p.peek()
		switch {
		case ln.isBlank():
			p.next()
		case ln.isComment():
			p.recordComment(ln)
			p.next()
		case ln.isTagLine():
			if err := p.collectTags(ln); err != nil {
				return nil, err
			}
			p.next()
		case ln.isTableRow():
			return nil, p.errAt(ln.num, ln.col(), "a feature", "a table row")
		default:
			kind, keyword, title, ok := p.c.matchTitle(ln.text)
			if !ok {
				if _, stepKw, _, stepOK := p.c.matchStep(ln.text); stepOK {
					return nil, p.errAt(ln.num, ln.col(), "a feature", fmt.Sprintf("step keyword %q", stepKw))
				}
				return nil, p.errAt(ln.num, ln.col(), "a feature", foundText(ln.text))
			}
			if kind != titleFeature {
				return nil, p.errAt(ln.num, ln.col(), "a feature", "a "+kind.String())
			}
			if len(p.doc.Features) > 0 {
				return nil, p.errAt(ln.num, ln.col(), "end of file", "a second feature")
			}
			feature, err := p.parseFeature(p.next(), keyword, title)
			if err != nil {
				return nil, err
			}
			p.doc.Features = append(p.doc.Features, feature)
		}
	}
	if p.pendingSet {
		return nil, p.errAt(p.pendingLoc.Line, p.pendingLoc.Column, "a declaration to follow the tags", "end of file")
	}
	return p.doc, nil
}

func (p *parser) parseFeature(header line, keyword, name string) (*model.Feature, error) {
	f := &model.Feature{
		Keyword:  keyword,
		Name:     name,
		Tags:     p.takePending(),
		Location: model.Location{Line: header.num, Column: header.col()},
	}
	f.Description = p.parseDescription()

	for !p.eof() {
		ln := p.peek()
		switch {
		case ln.isBlank():
			p.next()
		case ln.isComment():
			p.recordComment(ln)
			p.next()
		case ln.isTagLine():
			if err := p.collectTags(ln); err != nil {
				return nil, err
			}
			p.next()
		case ln.isTableRow():
			return nil, p.errAt(ln.num, ln.col(), "a scenario", "a table row")
		default:
			if _, ok := ln.docStringDelim(); ok {
				return nil, p.errAt(ln.num, ln.col(), "a scenario", "a doc string")
			}
			kind, kw, title, ok := p.c.matchTitle(ln.text)
			if !ok {
				if _, stepKw, _, stepOK := p.c.matchStep(ln.text); stepOK {
					return nil, p.errAt(ln.num, ln.col(), "a background or scenario before steps", fmt.Sprintf("step keyword %q", stepKw))
				}
				return nil, p.errAt(ln.num, ln.col(), "a scenario", foundText(ln.text))
			}
			switch kind {
			case titleFeature:
				return nil, p.errAt(ln.num, ln.col(), "end of file", "a second feature")
			case titleBackground:
				if p.pendingSet {
					return nil, p.errAt(ln.num, ln.col(), "a scenario to follow the tags", "a background")
				}
				if f.Background != nil {
					return nil, p.errAt(ln.num, ln.col(), "a scenario", "a second background")
				}
				if len(f.Scenarios) > 0 {
					return nil, p.errAt(ln.num, ln.col(), "a scenario", "a background after the first scenario")
				}
				bg, err := p.parseBackground(p.next(), kw, title)
				if err != nil {
					return nil, err
				}
				f.Background = bg
			case titleScenario, titleOutline:
				sc, err := p.parseScenario(p.next(), kw, title, kind == titleOutline)
				if err != nil {
					return nil, err
				}
				f.Scenarios = append(f.Scenarios, sc)
			case titleExamples:
				return nil, p.errAt(ln.num, ln.col(), "a scenario outline", "examples outside a scenario outline")
			}
		}
	}
	return f, nil
}

func (p *parser) parseBackground(header line, keyword, name string) (*model.Background, error) {
	bg := &model.Background{
		Keyword:  keyword,
		Name:     name,
		Location: model.Location{Line: header.num, Column: header.col()},
	}
	bg.Description = p.parseDescription()

	steps, err := p.parseSteps()
	if err != nil {
		return nil, err
	}
	bg.Steps = steps
	return bg, nil
}

func (p *parser) parseScenario(header line, keyword, name string, outline bool) (*model.Scenario, error) {
	sc := &model.Scenario{
		Keyword:  keyword,
		Name:     name,
		Tags:     p.takePending(),
		Location: model.Location{Line: header.num, Column: header.col()},
	}
	sc.Description = p.parseDescription()

	steps, err := p.parseSteps()
	if err != nil {
		return nil, err
	}
	sc.Steps = steps

	for !p.eof() {
		ln := p.peek()
		switch {
		case ln.isBlank():
			p.next()
		case ln.isComment():
			p.recordComment(ln)
			p.next()
		case ln.isTagLine():
			if err := p.collectTags(ln); err != nil {
				return nil, err
			}
			p.next()
		default:
			kind, kw, title, ok := p.c.matchTitle(ln.text)
			if ok && kind == titleExamples {
				if !outline {
					return nil, p.errAt(ln.num, ln.col(), "a scenario outline", "examples under a plain scenario")
				}
				ex, err := p.parseExamples(p.next(), kw, title)
				if err != nil {
					return nil, err
				}
				sc.Examples = append(sc.Examples, ex)
				continue
			}
			if ok {
				// Next declaration; the scenario is complete. Pending
				// tags belong to it.
				return sc, nil
			}
			if _, stepKw, _, stepOK := p.c.matchStep(ln.text); stepOK {
				if p.pendingSet {
					return nil, p.errAt(ln.num, ln.col(), "a scenario or examples to follow the tags", fmt.Sprintf("step keyword %q", stepKw))
				}
				return nil, p.errAt(ln.num, ln.col(), "examples or a scenario", fmt.Sprintf("step keyword %q", stepKw))
			}
			return nil, p.errAt(ln.num, ln.col(), "examples or a scenario", foundText(ln.text))
		}
	}
	return sc, nil
}

// parseSteps consumes the step block of a background or scenario. It stops,
// without consuming, at tags and declarations; stray table rows and doc
// strings are errors because they must directly follow a step.
func (p *parser) parseSteps() ([]*model.Step, error) {
	var steps []*model.Step
	last := model.StepUnknown
	for !p.eof() {
		ln := p.peek()
		switch {
		case ln.isBlank():
			p.next()
		case ln.isComment():
			p.recordComment(ln)
			p.next()
		case ln.isTagLine():
			return steps, nil
		case ln.isTableRow():
			return nil, p.errAt(ln.num, ln.col(), "a step before its table", "a table row")
		default:
			if _, ok := ln.docStringDelim(); ok {
				return nil, p.errAt(ln.num, ln.col(), "a step before its doc string", "a doc string")
			}
			if _, _, _, ok := p.c.matchTitle(ln.text); ok {
				return steps, nil
			}
			kind, keyword, text, ok := p.c.matchStep(ln.text)
			if !ok {
				return steps, nil
			}
			step, err := p.parseStep(p.next(), kind, keyword, text, &last)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
	}
	return steps, nil
}

func (p *parser) parseStep(ln line, kind stepKind, keyword, text string, last *model.StepType) (*model.Step, error) {
	st := &model.Step{
		Keyword:  keyword,
		Text:     text,
		Location: model.Location{Line: ln.num, Column: ln.col()},
	}
	switch kind {
	case stepGiven:
		*last = model.StepContext
		st.Type = *last
	case stepWhen:
		*last = model.StepAction
		st.Type = *last
	case stepThen:
		*last = model.StepOutcome
		st.Type = *last
	default:
		// And/But/* inherit the preceding primary keyword. A leading
		// conjunction stays unknown and matches definitions of any
		// keyword.
		st.Type = *last
	}

	for !p.eof() && p.peek().isComment() {
		p.recordComment(p.next())
	}
	if p.eof() {
		return st, nil
	}
	if p.peek().isTableRow() {
		tbl, err := p.parseTable()
		if err != nil {
			return nil, err
		}
		st.DataTable = tbl
	} else if _, ok := p.peek().docStringDelim(); ok {
		doc, err := p.parseDocString(p.next())
		if err != nil {
			return nil, err
		}
		st.DocString = doc
	}
	return st, nil
}

func (p *parser) parseTable() (*model.DataTable, error) {
	first := p.peek()
	tbl := &model.DataTable{Location: model.Location{Line: first.num, Column: first.col()}}
	arity := -1
	for !p.eof() {
		ln := p.peek()
		switch {
		case ln.isComment():
			p.recordComment(ln)
			p.next()
		case ln.isTableRow():
			cells, closed := splitTableCells(ln.text)
			if !closed {
				return nil, p.errAt(ln.num, ln.col(), "a closing '|'", "end of row")
			}
			if arity == -1 {
				arity = len(cells)
			} else if len(cells) != arity {
				return nil, p.errAt(ln.num, ln.col(), fmt.Sprintf("a row of %d cells", arity), fmt.Sprintf("%d cells", len(cells)))
			}
			tbl.Rows = append(tbl.Rows, &model.TableRow{
				Cells:    cells,
				Location: model.Location{Line: ln.num, Column: ln.col()},
			})
			p.next()
		default:
			return tbl, nil
		}
	}
	return tbl, nil
}

func (p *parser) parseDocString(open line) (*model.DocString, error) {
	delim, _ := open.docStringDelim()
	doc := &model.DocString{
		Delimiter: delim,
		MediaType: strings.TrimSpace(strings.TrimPrefix(open.text, delim)),
		Location:  model.Location{Line: open.num, Column: open.col()},
	}
	var content []string
	for !p.eof() {
		ln := p.next()
		if ln.text == delim {
			doc.Content = strings.Join(content, "\n")
			return doc, nil
		}
		content = append(content, unescapeDocString(dedent(ln.raw, open.indent), delim))
	}
	return nil, p.errAt(open.num, open.col(), fmt.Sprintf("%s closing the doc string", delim), "end of file")
}

func (p *parser) parseExamples(header line, keyword, name string) (*model.Examples, error) {
	ex := &model.Examples{
		Keyword:  keyword,
		Name:     name,
		Tags:     p.takePending(),
		Location: model.Location{Line: header.num, Column: header.col()},
	}
	ex.Description = p.parseDescription()

	if p.eof() || !p.peek().isTableRow() {
		return ex, nil
	}
	tbl, err := p.parseTable()
	if err != nil {
		return nil, err
	}
	if len(tbl.Rows) == 0 {
		return ex, nil
	}
	ex.Header = tbl.Rows[0]
	ex.Rows = tbl.Rows[1:]
	seen := make(map[string]struct{}, len(ex.Header.Cells))
	for _, col := range ex.Header.Cells {
		if _, dup := seen[col]; dup {
			return nil, p.errAt(ex.Header.Location.Line, ex.Header.Location.Column, "unique column names", fmt.Sprintf("duplicate column %q", col))
		}
		seen[col] = struct{}{}
	}
	return ex, nil
}

// parseDescription collects the free text under a declaration header until
// the next structural line. Interior blank lines are kept, outer ones
// trimmed.
func (p *parser) parseDescription() string {
	var collected []string
	for !p.eof() {
		ln := p.peek()
		switch {
		case ln.isBlank():
			collected = append(collected, "")
			p.next()
		case ln.isComment():
			p.recordComment(ln)
			p.next()
		default:
			if p.isStructural(ln) {
				return joinDescription(collected)
			}
			collected = append(collected, ln.text)
			p.next()
		}
	}
	return joinDescription(collected)
}

func (p *parser) isStructural(ln line) bool {
	if ln.isTagLine() || ln.isTableRow() {
		return true
	}
	if _, ok := ln.docStringDelim(); ok {
		return true
	}
	if _, _, _, ok := p.c.matchTitle(ln.text); ok {
		return true
	}
	_, _, _, ok := p.c.matchStep(ln.text)
	return ok
}

func joinDescription(lines []string) string {
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
