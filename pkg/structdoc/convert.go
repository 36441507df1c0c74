// Package structdoc converts decoded structured documents into the scenario
// model. The input is the generic tree a JSON, YAML or similar decoder
// produces (nested maps, lists and scalars); decoding itself stays with the
// caller. The output is indistinguishable from the Gherkin parser's for
// equivalent logical content, so every downstream stage is format-agnostic.
//
// Conventional shape: a root mapping with a "feature" mapping (or a
// "features" sequence), scenarios under "scenarios", steps as either the
// shorthand {given: text} or the explicit {keyword: given, text: text},
// with optional "table", "docstring", "tags", "background" and "examples"
// nodes. Unknown keys are ignored.
package structdoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/denizgursoy/tursu/pkg/model"
)

type config struct {
	uri string
}

// Option adjusts a single Convert call.
type Option func(*config)

// WithURI records the source identity on the document and on error paths.
func WithURI(uri string) Option {
	return func(c *config) { c.uri = uri }
}

// Convert maps a decoded tree onto a document. Trees that do not fit the
// conventional shape return a *SchemaError naming the offending path.
func Convert(tree any, opts ...Option) (*model.Document, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &converter{uri: cfg.uri}

	root, ok := asMap(tree)
	if !ok {
		return nil, c.schemaErr("document", "expected a mapping at the root, got "+typeName(tree))
	}

	doc := &model.Document{URI: cfg.uri, Language: "en"}
	lang, err := c.optString(root, "language", "document")
	if err != nil {
		return nil, err
	}
	if lang != "" {
		doc.Language = lang
	}

	if v, ok := root["feature"]; ok {
		f, err := c.feature(v, "feature")
		if err != nil {
			return nil, err
		}
		doc.Features = append(doc.Features, f)
		return doc, nil
	}
	v, ok := root["features"]
	if !ok {
		return nil, c.schemaErr("document", `missing "feature" or "features"`)
	}
	list, ok := asList(v)
	if !ok {
		return nil, c.schemaErr("features", "expected a sequence, got "+typeName(v))
	}
	for i, item := range list {
		f, err := c.feature(item, fmt.Sprintf("features[%d]", i))
		if err != nil {
			return nil, err
		}
		doc.Features = append(doc.Features, f)
	}
	return doc, nil
}

type converter struct {
	uri string
}

func (c *converter) schemaErr(path, reason string) *SchemaError {
	return &SchemaError{URI: c.uri, Path: path, Reason: reason}
}

func (c *converter) feature(v any, path string) (*model.Feature, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, c.schemaErr(path, "expected a mapping, got "+typeName(v))
	}
	f := &model.Feature{Keyword: "Feature"}
	var err error
	if f.Name, err = c.optString(m, "name", path); err != nil {
		return nil, err
	}
	if f.Description, err = c.optString(m, "description", path); err != nil {
		return nil, err
	}
	if f.Tags, err = c.tags(m, path); err != nil {
		return nil, err
	}
	if kw, err := c.optString(m, "keyword", path); err != nil {
		return nil, err
	} else if kw != "" {
		f.Keyword = kw
	}

	if bv, ok := m["background"]; ok {
		bg, err := c.background(bv, path+".background")
		if err != nil {
			return nil, err
		}
		f.Background = bg
	}
	if sv, ok := m["scenarios"]; ok {
		list, ok := asList(sv)
		if !ok {
			return nil, c.schemaErr(path+".scenarios", "expected a sequence, got "+typeName(sv))
		}
		for i, item := range list {
			sc, err := c.scenario(item, fmt.Sprintf("%s.scenarios[%d]", path, i))
			if err != nil {
				return nil, err
			}
			f.Scenarios = append(f.Scenarios, sc)
		}
	}
	return f, nil
}

// background accepts either a mapping with a "steps" key or, as a
// shorthand, the bare step sequence.
func (c *converter) background(v any, path string) (*model.Background, error) {
	bg := &model.Background{Keyword: "Background"}
	if list, ok := asList(v); ok {
		steps, err := c.steps(list, path)
		if err != nil {
			return nil, err
		}
		bg.Steps = steps
		return bg, nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil, c.schemaErr(path, "expected a mapping or a step sequence, got "+typeName(v))
	}
	var err error
	if bg.Name, err = c.optString(m, "name", path); err != nil {
		return nil, err
	}
	if bg.Description, err = c.optString(m, "description", path); err != nil {
		return nil, err
	}
	if sv, ok := m["steps"]; ok {
		list, ok := asList(sv)
		if !ok {
			return nil, c.schemaErr(path+".steps", "expected a sequence, got "+typeName(sv))
		}
		if bg.Steps, err = c.steps(list, path+".steps"); err != nil {
			return nil, err
		}
	}
	return bg, nil
}

func (c *converter) scenario(v any, path string) (*model.Scenario, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, c.schemaErr(path, "expected a mapping, got "+typeName(v))
	}
	sc := &model.Scenario{}
	var err error
	if sc.Name, err = c.optString(m, "name", path); err != nil {
		return nil, err
	}
	if sc.Description, err = c.optString(m, "description", path); err != nil {
		return nil, err
	}
	if sc.Tags, err = c.tags(m, path); err != nil {
		return nil, err
	}
	if sv, ok := m["steps"]; ok {
		list, ok := asList(sv)
		if !ok {
			return nil, c.schemaErr(path+".steps", "expected a sequence, got "+typeName(sv))
		}
		if sc.Steps, err = c.steps(list, path+".steps"); err != nil {
			return nil, err
		}
	}
	if ev, ok := m["examples"]; ok {
		list, ok := asList(ev)
		if !ok {
			return nil, c.schemaErr(path+".examples", "expected a sequence, got "+typeName(ev))
		}
		for i, item := range list {
			ex, err := c.examples(item, fmt.Sprintf("%s.examples[%d]", path, i))
			if err != nil {
				return nil, err
			}
			sc.Examples = append(sc.Examples, ex)
		}
	}

	sc.Keyword = "Scenario"
	if sc.IsOutline() {
		sc.Keyword = "Scenario Outline"
	}
	if kw, err := c.optString(m, "keyword", path); err != nil {
		return nil, err
	} else if kw != "" {
		sc.Keyword = kw
	}
	return sc, nil
}

func (c *converter) examples(v any, path string) (*model.Examples, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, c.schemaErr(path, "expected a mapping, got "+typeName(v))
	}
	ex := &model.Examples{Keyword: "Examples"}
	var err error
	if ex.Name, err = c.optString(m, "name", path); err != nil {
		return nil, err
	}
	if ex.Description, err = c.optString(m, "description", path); err != nil {
		return nil, err
	}
	if ex.Tags, err = c.tags(m, path); err != nil {
		return nil, err
	}
	if kw, err := c.optString(m, "keyword", path); err != nil {
		return nil, err
	} else if kw != "" {
		ex.Keyword = kw
	}

	tv, ok := m["table"]
	if !ok {
		return ex, nil
	}
	tbl, err := c.table(tv, path+".table")
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
			return nil, c.schemaErr(path+".table[0]", fmt.Sprintf("duplicate column %q", col))
		}
		seen[col] = struct{}{}
	}
	return ex, nil
}

func (c *converter) steps(list []any, path string) ([]*model.Step, error) {
	last := model.StepUnknown
	var steps []*model.Step
	for i, item := range list {
		st, err := c.step(item, fmt.Sprintf("%s[%d]", path, i), &last)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func (c *converter) step(v any, path string, last *model.StepType) (*model.Step, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, c.schemaErr(path, "expected a mapping, got "+typeName(v))
	}

	keyword, text := "", ""
	haveShorthand := false
	for key, val := range m {
		canon, ok := canonicalKeyword(key)
		if !ok {
			continue
		}
		if haveShorthand {
			return nil, c.schemaErr(path, "more than one step keyword")
		}
		s, ok := val.(string)
		if !ok {
			return nil, c.schemaErr(path+"."+strings.ToLower(key), "expected a string, got "+typeName(val))
		}
		keyword, text, haveShorthand = canon, s, true
	}

	if kw, err := c.optString(m, "keyword", path); err != nil {
		return nil, err
	} else if kw != "" {
		if haveShorthand {
			return nil, c.schemaErr(path, "both a step shorthand and an explicit keyword")
		}
		canon, ok := canonicalKeyword(kw)
		if !ok {
			return nil, c.schemaErr(path+".keyword", fmt.Sprintf("unknown keyword %q", kw))
		}
		keyword = canon
		tv, ok := m["text"]
		if !ok {
			return nil, c.schemaErr(path, `missing "text"`)
		}
		s, ok := tv.(string)
		if !ok {
			return nil, c.schemaErr(path+".text", "expected a string, got "+typeName(tv))
		}
		text = s
	}
	if keyword == "" {
		return nil, c.schemaErr(path, "missing step keyword: use given/when/then/and/but or keyword+text")
	}

	st := &model.Step{Keyword: keyword, Text: text}
	switch keyword {
	case "Given":
		*last = model.StepContext
		st.Type = *last
	case "When":
		*last = model.StepAction
		st.Type = *last
	case "Then":
		*last = model.StepOutcome
		st.Type = *last
	default:
		st.Type = *last
	}

	if tv, ok := m["table"]; ok {
		tbl, err := c.table(tv, path+".table")
		if err != nil {
			return nil, err
		}
		st.DataTable = tbl
	}
	if dv, ok := m["docstring"]; ok {
		if st.DataTable != nil {
			return nil, c.schemaErr(path, "a step takes a table or a doc string, not both")
		}
		ds, err := c.docString(dv, path+".docstring")
		if err != nil {
			return nil, err
		}
		st.DocString = ds
	}
	return st, nil
}

func (c *converter) table(v any, path string) (*model.DataTable, error) {
	list, ok := asList(v)
	if !ok {
		return nil, c.schemaErr(path, "expected a sequence of rows, got "+typeName(v))
	}
	tbl := &model.DataTable{}
	arity := -1
	for i, rowV := range list {
		rowList, ok := asList(rowV)
		if !ok {
			return nil, c.schemaErr(fmt.Sprintf("%s[%d]", path, i), "expected a sequence of cells, got "+typeName(rowV))
		}
		cells := make([]string, len(rowList))
		for j, cellV := range rowList {
			s, err := scalarString(cellV)
			if err != nil {
				return nil, c.schemaErr(fmt.Sprintf("%s[%d][%d]", path, i, j), err.Error())
			}
			cells[j] = s
		}
		if arity == -1 {
			arity = len(cells)
		} else if len(cells) != arity {
			return nil, c.schemaErr(fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("expected %d cells, got %d", arity, len(cells)))
		}
		tbl.Rows = append(tbl.Rows, &model.TableRow{Cells: cells})
	}
	return tbl, nil
}

// docString accepts a bare string or a {content, media_type} mapping.
func (c *converter) docString(v any, path string) (*model.DocString, error) {
	if s, ok := v.(string); ok {
		return &model.DocString{Content: s, Delimiter: `"""`}, nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil, c.schemaErr(path, "expected a string or a mapping, got "+typeName(v))
	}
	cv, ok := m["content"]
	if !ok {
		return nil, c.schemaErr(path, `missing "content"`)
	}
	content, ok := cv.(string)
	if !ok {
		return nil, c.schemaErr(path+".content", "expected a string, got "+typeName(cv))
	}
	media, err := c.optString(m, "media_type", path)
	if err != nil {
		return nil, err
	}
	return &model.DocString{Content: content, MediaType: media, Delimiter: `"""`}, nil
}

func (c *converter) tags(m map[string]any, path string) ([]model.Tag, error) {
	v, ok := m["tags"]
	if !ok {
		return nil, nil
	}
	list, ok := asList(v)
	if !ok {
		return nil, c.schemaErr(path+".tags", "expected a sequence, got "+typeName(v))
	}
	var out []model.Tag
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, c.schemaErr(fmt.Sprintf("%s.tags[%d]", path, i), "expected a string, got "+typeName(item))
		}
		name := strings.TrimPrefix(strings.TrimSpace(s), "@")
		if name == "" {
			return nil, c.schemaErr(fmt.Sprintf("%s.tags[%d]", path, i), "empty tag")
		}
		out = append(out, model.Tag{Name: name})
	}
	return out, nil
}

func (c *converter) optString(m map[string]any, key, path string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", c.schemaErr(path+"."+key, "expected a string, got "+typeName(v))
	}
	return s, nil
}

func canonicalKeyword(k string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(k)) {
	case "given":
		return "Given", true
	case "when":
		return "When", true
	case "then":
		return "Then", true
	case "and":
		return "And", true
	case "but":
		return "But", true
	case "*":
		return "*", true
	}
	return "", false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case bool:
		return strconv.FormatBool(s), nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case uint64:
		return strconv.FormatUint(s, 10), nil
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("expected a scalar cell, got %s", typeName(v))
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any, map[any]any:
		return "a mapping"
	case []any:
		return "a sequence"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, int64, uint64, float32, float64:
		return "a number"
	}
	return fmt.Sprintf("%T", v)
}
