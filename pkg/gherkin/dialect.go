package gherkin

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect maps the logical Gherkin keywords to the literals a locale writes
// them with. A keyword class may carry several literals; the longest literal
// wins when more than one would match. The "*" step keyword is implicit in
// every dialect.
type Dialect struct {
	// Name is the language tag the dialect is looked up by, e.g. "en".
	Name string

	// Native is the language's own name, for display only.
	Native string

	Feature         []string
	Background      []string
	Scenario        []string
	ScenarioOutline []string
	Examples        []string

	Given []string
	When  []string
	Then  []string
	And   []string
	But   []string
}

// DialectRegistry resolves language tags to dialects. A registry is seeded
// with the built-in dialects; callers may register their own before parsing.
type DialectRegistry struct {
	dialects map[string]*Dialect
}

// NewDialectRegistry returns a registry holding the built-in dialects.
func NewDialectRegistry() *DialectRegistry {
	r := &DialectRegistry{dialects: make(map[string]*Dialect)}
	for _, d := range builtinDialects {
		r.dialects[d.Name] = d
	}
	return r
}

// Register adds or replaces a dialect. The dialect must carry a name and at
// least one literal for every keyword class.
func (r *DialectRegistry) Register(d *Dialect) error {
	if d.Name == "" {
		return fmt.Errorf("dialect has no name")
	}
	for class, literals := range map[string][]string{
		"feature":          d.Feature,
		"background":       d.Background,
		"scenario":         d.Scenario,
		"scenario outline": d.ScenarioOutline,
		"examples":         d.Examples,
		"given":            d.Given,
		"when":             d.When,
		"then":             d.Then,
		"and":              d.And,
		"but":              d.But,
	} {
		if len(literals) == 0 {
			return fmt.Errorf("dialect %q has no %s keyword", d.Name, class)
		}
	}
	r.dialects[d.Name] = d
	return nil
}

// Lookup returns the dialect registered under the tag.
func (r *DialectRegistry) Lookup(tag string) (*Dialect, bool) {
	d, ok := r.dialects[tag]
	return d, ok
}

type titleKind int

const (
	titleFeature titleKind = iota
	titleBackground
	titleScenario
	titleOutline
	titleExamples
)

func (k titleKind) String() string {
	switch k {
	case titleFeature:
		return "feature"
	case titleBackground:
		return "background"
	case titleScenario:
		return "scenario"
	case titleOutline:
		return "scenario outline"
	default:
		return "examples"
	}
}

type titleLiteral struct {
	literal string
	kind    titleKind
}

type stepLiteral struct {
	literal string
	kind    stepKind
}

type stepKind int

const (
	stepGiven stepKind = iota
	stepWhen
	stepThen
	stepConj // And, But and "*": inherit the preceding primary keyword
)

// compiled is a dialect flattened into longest-first literal lists for the
// scanner's prefix matching.
type compiled struct {
	titles []titleLiteral
	steps  []stepLiteral
}

func (d *Dialect) compile() *compiled {
	c := &compiled{}
	add := func(kind titleKind, literals []string) {
		for _, l := range literals {
			c.titles = append(c.titles, titleLiteral{literal: l, kind: kind})
		}
	}
	add(titleFeature, d.Feature)
	add(titleBackground, d.Background)
	add(titleScenario, d.Scenario)
	add(titleOutline, d.ScenarioOutline)
	add(titleExamples, d.Examples)

	addStep := func(kind stepKind, literals []string) {
		for _, l := range literals {
			c.steps = append(c.steps, stepLiteral{literal: l, kind: kind})
		}
	}
	addStep(stepGiven, d.Given)
	addStep(stepWhen, d.When)
	addStep(stepThen, d.Then)
	addStep(stepConj, d.And)
	addStep(stepConj, d.But)
	addStep(stepConj, []string{"*"})

	sort.SliceStable(c.titles, func(i, j int) bool {
		return len(c.titles[i].literal) > len(c.titles[j].literal)
	})
	sort.SliceStable(c.steps, func(i, j int) bool {
		return len(c.steps[i].literal) > len(c.steps[j].literal)
	})
	return c
}

// matchTitle matches `<literal>:` at the start of text and returns the kind,
// the literal as authored and the title after the colon.
func (c *compiled) matchTitle(text string) (titleKind, string, string, bool) {
	for _, t := range c.titles {
		rest, ok := strings.CutPrefix(text, t.literal)
		if !ok || !strings.HasPrefix(rest, ":") {
			continue
		}
		return t.kind, t.literal, strings.TrimSpace(rest[1:]), true
	}
	return 0, "", "", false
}

// matchStep matches a step keyword at the start of text. Keywords bind to a
// following space; literals ending in an apostrophe bind directly.
func (c *compiled) matchStep(text string) (stepKind, string, string, bool) {
	for _, s := range c.steps {
		rest, ok := strings.CutPrefix(text, s.literal)
		if !ok {
			continue
		}
		switch {
		case rest == "":
			return s.kind, s.literal, "", true
		case strings.HasSuffix(s.literal, "'") || s.literal == "*":
			return s.kind, s.literal, strings.TrimSpace(rest), true
		case rest[0] == ' ' || rest[0] == '\t':
			return s.kind, s.literal, strings.TrimSpace(rest), true
		}
	}
	return 0, "", "", false
}

var builtinDialects = []*Dialect{
	{
		Name:            "en",
		Native:          "English",
		Feature:         []string{"Feature", "Business Need", "Ability"},
		Background:      []string{"Background"},
		Scenario:        []string{"Scenario", "Example"},
		ScenarioOutline: []string{"Scenario Outline", "Scenario Template"},
		Examples:        []string{"Examples", "Scenarios"},
		Given:           []string{"Given"},
		When:            []string{"When"},
		Then:            []string{"Then"},
		And:             []string{"And"},
		But:             []string{"But"},
	},
	{
		Name:            "tr",
		Native:          "Türkçe",
		Feature:         []string{"Özellik"},
		Background:      []string{"Geçmiş"},
		Scenario:        []string{"Senaryo", "Örnek"},
		ScenarioOutline: []string{"Senaryo taslağı"},
		Examples:        []string{"Örnekler"},
		Given:           []string{"Diyelim ki"},
		When:            []string{"Eğer ki"},
		Then:            []string{"O zaman"},
		And:             []string{"Ve"},
		But:             []string{"Fakat", "Ama"},
	},
	{
		Name:            "de",
		Native:          "Deutsch",
		Feature:         []string{"Funktionalität", "Funktion"},
		Background:      []string{"Grundlage", "Hintergrund"},
		Scenario:        []string{"Szenario", "Beispiel"},
		ScenarioOutline: []string{"Szenariogrundriss", "Szenarien"},
		Examples:        []string{"Beispiele"},
		Given:           []string{"Angenommen", "Gegeben sei", "Gegeben seien"},
		When:            []string{"Wenn"},
		Then:            []string{"Dann"},
		And:             []string{"Und"},
		But:             []string{"Aber"},
	},
	{
		Name:            "fr",
		Native:          "français",
		Feature:         []string{"Fonctionnalité"},
		Background:      []string{"Contexte"},
		Scenario:        []string{"Scénario", "Exemple"},
		ScenarioOutline: []string{"Plan du scénario", "Plan du Scénario"},
		Examples:        []string{"Exemples"},
		Given:           []string{"Étant donné que", "Étant donné", "Etant donné que", "Etant donné", "Sachant que", "Sachant qu'", "Soit"},
		When:            []string{"Quand", "Lorsque", "Lorsqu'"},
		Then:            []string{"Alors", "Donc"},
		And:             []string{"Et que", "Et qu'", "Et"},
		But:             []string{"Mais que", "Mais qu'", "Mais"},
	},
}
