// Package outline turns scenarios into concrete, individually runnable
// scenario instances. Plain scenarios pass through one-to-one; outlines
// yield one instance per examples row with every <placeholder> in step
// text, table cells and doc strings replaced by the row's values.
//
// Expansion is a pure function over the immutable feature: the returned
// sequence is lazy and restartable, and re-iterating yields the same
// instances in the same order.
package outline

import (
	"fmt"
	"iter"
	"regexp"

	"github.com/denizgursoy/tursu/pkg/model"
)

// ConcreteScenario is one expanded scenario instance. Every instance owns
// fresh copies of its steps; nothing is shared with the source model or
// with sibling instances.
type ConcreteScenario struct {
	// ID is stable across re-expansions of the same document: the source
	// URI plus the scenario position, plus table and row indexes for
	// outline rows.
	ID string

	// Name is the display name: the scenario name (placeholders
	// substituted for outline rows), with the examples name and 1-based
	// row number appended for outline rows, e.g. "Add many numbers (#2)".
	Name string

	// Tags is the accumulated set: feature tags, scenario tags and, for
	// outline rows, the examples table tags. Duplicates collapse.
	Tags []model.Tag

	// Steps are the scenario's own steps, substituted. Background steps
	// are not included; the materializer prepends them per unit.
	Steps []*model.Step

	// URI is the source document's identity, "" when expanding a bare
	// feature.
	URI string

	Feature *model.Feature
	Source  *model.Scenario

	// ExamplesIndex and RowIndex locate the originating examples table
	// and row (0-based). Both are -1 for plain scenarios.
	ExamplesIndex int
	RowIndex      int
}

// IsOutlineRow reports whether the instance came from an examples row.
func (cs *ConcreteScenario) IsOutlineRow() bool {
	return cs.RowIndex >= 0
}

// UnresolvedPlaceholderError reports a <placeholder> with no matching
// column in the examples row used to expand it. It is scenario-scoped: the
// offending row fails, siblings keep expanding.
type UnresolvedPlaceholderError struct {
	URI         string
	Scenario    string
	Placeholder string
	Location    model.Location
}

func (e *UnresolvedPlaceholderError) Error() string {
	pos := fmt.Sprintf("%d:%d", e.Location.Line, e.Location.Column)
	if e.URI != "" {
		pos = e.URI + ":" + pos
	}
	return fmt.Sprintf("%s: scenario %q: no examples column for placeholder <%s>", pos, e.Scenario, e.Placeholder)
}

// Placeholder names are word-like: they start with a letter or underscore
// and may contain spaces, dots and dashes. A bare "a < b" comparison in
// step text never reads as a placeholder.
var placeholderPattern = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_ .\-]*)>`)

// Expand yields the concrete scenarios of a feature in authored order:
// plain scenarios as a single instance, outlines row by row across every
// examples table, tables in declared order. A row whose substitution fails
// yields an *UnresolvedPlaceholderError and expansion continues with the
// next row.
func Expand(f *model.Feature) iter.Seq2[*ConcreteScenario, error] {
	return ExpandFeature(f, "")
}

// ExpandDocument flattens the expansion of every feature in the document,
// stamping instances with the document URI.
func ExpandDocument(d *model.Document) iter.Seq2[*ConcreteScenario, error] {
	return func(yield func(*ConcreteScenario, error) bool) {
		for _, f := range d.Features {
			for cs, err := range ExpandFeature(f, d.URI) {
				if !yield(cs, err) {
					return
				}
			}
		}
	}
}

// ExpandFeature is Expand with an explicit source URI for the instances.
func ExpandFeature(f *model.Feature, uri string) iter.Seq2[*ConcreteScenario, error] {
	return func(yield func(*ConcreteScenario, error) bool) {
		for _, sc := range f.Scenarios {
			if !sc.IsOutline() {
				if !yield(passThrough(f, sc, uri), nil) {
					return
				}
				continue
			}
			for ei, ex := range sc.Examples {
				for ri, row := range ex.Rows {
					cs, err := expandRow(f, sc, ex, row, uri, ei, ri)
					if !yield(cs, err) {
						return
					}
				}
			}
		}
	}
}

func passThrough(f *model.Feature, sc *model.Scenario, uri string) *ConcreteScenario {
	return &ConcreteScenario{
		ID:            instanceID(uri, sc.Location, -1, -1),
		Name:          sc.Name,
		Tags:          model.UnionTags(f.Tags, sc.Tags),
		Steps:         model.CloneSteps(sc.Steps),
		URI:           uri,
		Feature:       f,
		Source:        sc,
		ExamplesIndex: -1,
		RowIndex:      -1,
	}
}

func expandRow(f *model.Feature, sc *model.Scenario, ex *model.Examples, row *model.TableRow, uri string, ei, ri int) (*ConcreteScenario, error) {
	values := make(map[string]string, len(row.Cells))
	if ex.Header != nil {
		for i, col := range ex.Header.Cells {
			if i < len(row.Cells) {
				values[col] = row.Cells[i]
			}
		}
	}

	fail := func(placeholder string, loc model.Location) error {
		return &UnresolvedPlaceholderError{
			URI:         uri,
			Scenario:    sc.Name,
			Placeholder: placeholder,
			Location:    loc,
		}
	}

	steps := make([]*model.Step, len(sc.Steps))
	for i, src := range sc.Steps {
		st := src.Clone()
		text, missing := substitute(st.Text, values)
		if missing != "" {
			return nil, fail(missing, st.Location)
		}
		st.Text = text

		if st.DataTable != nil {
			for _, r := range st.DataTable.Rows {
				for ci, cell := range r.Cells {
					sub, missing := substitute(cell, values)
					if missing != "" {
						return nil, fail(missing, r.Location)
					}
					r.Cells[ci] = sub
				}
			}
		}
		if st.DocString != nil {
			sub, missing := substitute(st.DocString.Content, values)
			if missing != "" {
				return nil, fail(missing, st.DocString.Location)
			}
			st.DocString.Content = sub
		}
		steps[i] = st
	}

	name, _ := substitute(sc.Name, values)

	return &ConcreteScenario{
		ID:            instanceID(uri, sc.Location, ei, ri),
		Name:          rowName(name, ex.Name, ri),
		Tags:          model.UnionTags(f.Tags, sc.Tags, ex.Tags),
		Steps:         steps,
		URI:           uri,
		Feature:       f,
		Source:        sc,
		ExamplesIndex: ei,
		RowIndex:      ri,
	}, nil
}

// substitute replaces every known <placeholder> and reports the first
// unknown one, leaving unknown tokens literal. Step content treats a
// missing placeholder as fatal; scenario names substitute best-effort.
func substitute(text string, values map[string]string) (string, string) {
	missing := ""
	out := placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := values[name]; ok {
			return v
		}
		if missing == "" {
			missing = name
		}
		return token
	})
	return out, missing
}

func rowName(scenario, examples string, ri int) string {
	if examples != "" {
		return fmt.Sprintf("%s -- %s (#%d)", scenario, examples, ri+1)
	}
	return fmt.Sprintf("%s (#%d)", scenario, ri+1)
}

func instanceID(uri string, loc model.Location, ei, ri int) string {
	id := fmt.Sprintf("%d:%d", loc.Line, loc.Column)
	if uri != "" {
		id = uri + ":" + id
	}
	if ei >= 0 {
		id = fmt.Sprintf("%s/%d.%d", id, ei, ri)
	}
	return id
}
