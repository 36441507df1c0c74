// Package model holds the scenario model shared by every producer and
// consumer in tursu: the Gherkin parser and the structured-source converter
// both emit it, the outline expander and the materializer consume it.
// Nodes are plain data, immutable once produced, and carry the source
// position needed for reporting.
package model

// Location is a 1-based position in the source a node was read from.
type Location struct {
	Line   int
	Column int
}

// StepType is a step's resolved primary keyword, independent of the
// localized literal it was written with. And/But/* steps inherit the type
// of the nearest preceding primary step.
type StepType int

const (
	// StepUnknown marks a conjunction step with no preceding primary
	// step to inherit from. Such steps still parse; they match step
	// definitions of any keyword.
	StepUnknown StepType = iota

	// StepContext is a Given step.
	StepContext

	// StepAction is a When step.
	StepAction

	// StepOutcome is a Then step.
	StepOutcome
)

func (t StepType) String() string {
	switch t {
	case StepContext:
		return "Given"
	case StepAction:
		return "When"
	case StepOutcome:
		return "Then"
	default:
		return "Unknown"
	}
}

// Document is the root of one parsed source.
type Document struct {
	// URI identifies the source: a file path or a logical name.
	URI string

	// Language is the keyword dialect the source was written in
	// (IETF-ish tag, e.g. "en", "tr").
	Language string

	Features []*Feature

	// Comments holds every comment line of the source in order.
	// Comments are non-semantic and excluded from structural equality.
	Comments []*Comment
}

// Feature groups related scenarios behind shared tags and an optional
// background.
type Feature struct {
	// Keyword is the localized literal as authored (e.g. "Feature").
	Keyword     string
	Name        string
	Description string

	// Tags are the tags written directly above the feature.
	Tags []Tag

	Background *Background
	Scenarios  []*Scenario

	Location Location
}

// Background holds steps that run before every scenario of its feature.
// It is logically prepended to each scenario at materialization time and
// never copied into the scenario nodes themselves. A background may carry
// a name and description but never tags.
type Background struct {
	Keyword     string
	Name        string
	Description string
	Steps       []*Step
	Location    Location
}

// Scenario is one ordered sequence of steps. A scenario with one or more
// Examples tables is an outline: its steps may contain <placeholder>
// tokens substituted per example row during expansion.
type Scenario struct {
	// Keyword is the localized literal as authored
	// (e.g. "Scenario", "Scenario Outline").
	Keyword     string
	Name        string
	Description string

	// Tags are the tags written directly above the scenario. The
	// effective set used for filtering is the union with the feature's
	// (and, per row, the examples table's) tags, computed at expansion.
	Tags []Tag

	Steps    []*Step
	Examples []*Examples

	Location Location
}

// IsOutline reports whether the scenario carries examples tables and
// therefore expands per row instead of passing through unchanged.
func (s *Scenario) IsOutline() bool {
	return len(s.Examples) > 0
}

// Examples is one parameter table attached to a scenario outline: a header
// row naming the placeholders plus zero or more value rows of the same
// arity. Header names are unique within one table.
type Examples struct {
	Keyword     string
	Name        string
	Description string

	// Tags are the tags written directly above the table. They join the
	// accumulated tag set of every scenario expanded from this table.
	Tags []Tag

	Header *TableRow
	Rows   []*TableRow

	Location Location
}

// Step is one line of behavior plus its optional block argument. At most
// one of DataTable and DocString is set.
type Step struct {
	// Keyword is the literal as authored, without trailing space
	// (e.g. "Given", "And", "*").
	Keyword string

	// Type is the resolved primary keyword used for matching.
	Type StepType

	Text string

	DataTable *DataTable
	DocString *DocString

	Location Location
}

// DataTable is a table argument attached to a step. Unlike an examples
// table it has no header semantics of its own; interpretation is the step
// definition's business.
type DataTable struct {
	Rows     []*TableRow
	Location Location
}

// Cells returns the table content as a row-major string matrix.
func (t *DataTable) Cells() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, len(r.Cells))
		copy(row, r.Cells)
		out[i] = row
	}
	return out
}

// TableRow is one row of cells in a data table or examples table.
type TableRow struct {
	Cells    []string
	Location Location
}

// DocString is a multi-line text argument attached to a step.
type DocString struct {
	Content string

	// MediaType is the optional content hint following the opening
	// delimiter (e.g. "json").
	MediaType string

	// Delimiter is the fence the source used (`"""` or a backtick fence).
	Delimiter string

	Location Location
}

// Tag is a bare selection label. Names are stored without the leading "@"
// and compared case-sensitively.
type Tag struct {
	Name     string
	Location Location
}

// Comment is one preserved comment line, including its leading "#".
type Comment struct {
	Text     string
	Location Location
}
