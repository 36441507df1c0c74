// Package steps holds the caller-facing step definition registry and the
// matcher that resolves each step of a scenario to exactly one definition.
//
// A registry has two phases. While open, callers register definitions with
// Register or the Given/When/Then/Any shorthands. Seal freezes it; matching
// only runs against a sealed registry and is then safe for concurrent use
// without locking.
package steps

import (
	"context"
	"fmt"
	"reflect"

	"github.com/denizgursoy/tursu/pkg/model"
)

// Definition is one registered step definition: a keyword constraint, a
// pattern and an optional handler. A nil handler makes the definition
// match-only, which is enough for static checking of a suite.
type Definition struct {
	Keyword model.StepType
	Pattern Pattern
	Handler any

	converters    map[string]ConvertFunc
	fixtureNames  []string
	targetFixture string
	bind          *binding
}

// String renders the definition the way it was registered, for listings and
// ambiguity reports.
func (d *Definition) String() string {
	return fmt.Sprintf("%s %s %q", keywordLabel(d.Keyword), d.Pattern.Kind(), d.Pattern.Source())
}

// Match is the resolved binding of one step occurrence to one definition,
// with arguments extracted and converted. Locs holds start/end byte offset
// pairs per capture for reporters, -1 where the pattern cannot say.
type Match struct {
	Step       *model.Step
	Definition *Definition
	Arguments  []Argument
	Locs       []int
}

// Invoke runs the matched handler. The returned context, when non-nil,
// replaces the caller's context for subsequent steps.
func (m *Match) Invoke(ctx context.Context, fx *Fixtures) (context.Context, error) {
	return m.Definition.invoke(ctx, m.Arguments, fx, m.Step)
}

type defKey struct {
	keyword model.StepType
	source  string
}

// Registry accumulates step definitions and resolves steps against them.
type Registry struct {
	defs   []*Definition
	seen   map[defKey]bool
	sealed bool
}

// NewRegistry creates an empty, open registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[defKey]bool)}
}

// Register adds a definition for the given keyword constraint.
// model.StepUnknown means the definition applies to every keyword. The
// handler may be nil for match-only definitions; otherwise its signature is
// validated now so a bad registration fails at startup, not mid-run.
func (r *Registry) Register(keyword model.StepType, pattern Pattern, handler any, opts ...Option) error {
	if r.sealed {
		return ErrSealed
	}
	if pattern == nil {
		return fmt.Errorf("step pattern must not be nil")
	}
	key := defKey{keyword: keyword, source: pattern.Source()}
	if r.seen[key] {
		return fmt.Errorf("duplicate step pattern: %s %q", keywordLabel(keyword), pattern.Source())
	}
	if err := pattern.compile(); err != nil {
		return err
	}

	d := &Definition{Keyword: keyword, Pattern: pattern, Handler: handler}
	for _, opt := range opts {
		opt(d)
	}
	if handler == nil {
		if len(d.fixtureNames) > 0 || d.targetFixture != "" {
			return fmt.Errorf("register %s: fixture options need a handler", d)
		}
	} else {
		bind, err := newBinding(d)
		if err != nil {
			return fmt.Errorf("register %s: %w", d, err)
		}
		d.bind = bind
	}

	r.defs = append(r.defs, d)
	r.seen[key] = true
	return nil
}

// Given registers a definition constrained to context steps.
func (r *Registry) Given(pattern Pattern, handler any, opts ...Option) error {
	return r.Register(model.StepContext, pattern, handler, opts...)
}

// When registers a definition constrained to action steps.
func (r *Registry) When(pattern Pattern, handler any, opts ...Option) error {
	return r.Register(model.StepAction, pattern, handler, opts...)
}

// Then registers a definition constrained to outcome steps.
func (r *Registry) Then(pattern Pattern, handler any, opts ...Option) error {
	return r.Register(model.StepOutcome, pattern, handler, opts...)
}

// Any registers a definition that applies to every keyword.
func (r *Registry) Any(pattern Pattern, handler any, opts ...Option) error {
	return r.Register(model.StepUnknown, pattern, handler, opts...)
}

// Seal freezes the registry. Registrations after Seal fail with ErrSealed.
// Seal returns the registry so it can close a registration chain.
func (r *Registry) Seal() *Registry {
	r.sealed = true
	return r
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	out := make([]*Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Match resolves a step against the sealed registry.
//
// Definitions whose keyword constraint rejects the step's resolved type are
// filtered first; a step of unknown type accepts every definition. Every
// remaining pattern is tried against the full step text. Zero matches yield
// an UndefinedStepError, two or more an AmbiguousStepError listing all
// candidates. On exactly one match the captures are extracted and converted
// to the handler's declared parameter types, or through the definition's
// registered converters.
func (r *Registry) Match(step *model.Step) (*Match, error) {
	if !r.sealed {
		return nil, ErrNotSealed
	}

	var (
		matched  []*Definition
		captures []Capture
	)
	for _, d := range r.defs {
		if !keywordAccepts(d.Keyword, step.Type) {
			continue
		}
		caps, ok := d.Pattern.match(step.Text)
		if !ok {
			continue
		}
		matched = append(matched, d)
		captures = caps
	}

	switch len(matched) {
	case 0:
		return nil, &UndefinedStepError{Step: step}
	case 1:
	default:
		return nil, &AmbiguousStepError{Step: step, Candidates: matched}
	}

	d := matched[0]
	if d.bind != nil && len(captures) != len(d.bind.captures) {
		return nil, fmt.Errorf("step %q: pattern %q yielded %d captures, step handler takes %d",
			step.Text, d.Pattern.Source(), len(captures), len(d.bind.captures))
	}

	args := make([]Argument, len(captures))
	locs := make([]int, 0, 2*len(captures))
	for i, c := range captures {
		var target reflect.Type
		if d.bind != nil {
			target = d.bind.captures[i]
		}
		v, err := convertCapture(c, target, d.converters[c.Name])
		if err != nil {
			return nil, err
		}
		args[i] = Argument{Name: c.Name, Raw: c.Raw, Value: v}
		locs = append(locs, c.Start, c.End)
	}

	return &Match{Step: step, Definition: d, Arguments: args, Locs: locs}, nil
}

func keywordAccepts(def, step model.StepType) bool {
	return def == model.StepUnknown || step == model.StepUnknown || def == step
}
