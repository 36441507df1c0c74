// Package suite turns parsed documents into executable units: it expands
// outlines, filters by tag expression, prepends background steps and resolves
// every step against the sealed registry, all before anything runs. Matching
// problems surface here as guaranteed-failing units, never mid-run.
package suite

import (
	"errors"
	"fmt"

	tagexpressions "github.com/cucumber/tag-expressions/go/v6"
	"github.com/google/uuid"

	"github.com/denizgursoy/tursu/pkg/events"
	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/outline"
	"github.com/denizgursoy/tursu/pkg/steps"
)

// Options configures materialization.
type Options struct {
	// Tags is a boolean tag expression such as "@smoke and not @slow".
	// Empty selects every scenario. Tag names carry their @ prefix.
	Tags string

	// StrictUndefined makes Plan.Err report undefined or ambiguous steps
	// as a plan-level error instead of only failing their units.
	StrictUndefined bool

	// Sink receives step resolution events during materialization.
	Sink events.Sink
}

// Plan is the materialized run: every surviving unit in document order, plus
// the matching problems found on the way.
type Plan struct {
	Units     []*Unit
	Undefined []*steps.UndefinedStepError
	Ambiguous []*steps.AmbiguousStepError

	strict bool
}

// Err summarizes the plan's matching problems when strict checking is on.
func (p *Plan) Err() error {
	if !p.strict || (len(p.Undefined) == 0 && len(p.Ambiguous) == 0) {
		return nil
	}
	return fmt.Errorf("plan has %d undefined and %d ambiguous steps", len(p.Undefined), len(p.Ambiguous))
}

type stepMatch struct {
	match *steps.Match
	err   error
}

// Materialize builds the executable plan for the given documents against a
// sealed registry.
//
// Tag filtering runs before a unit is created, on the accumulated tag set of
// each expanded instance, so excluded scenarios never reach the host. An
// empty result is valid. Expansion and matching errors are scenario-scoped:
// they attach to that scenario's unit as Unit.Err while sibling scenarios
// materialize normally.
func Materialize(docs []*model.Document, reg *steps.Registry, opts Options) (*Plan, error) {
	if reg == nil {
		return nil, fmt.Errorf("step registry is required")
	}
	if !reg.Sealed() {
		return nil, steps.ErrNotSealed
	}
	sink := opts.Sink
	if sink == nil {
		sink = events.NopSink{}
	}

	var filter tagexpressions.Evaluatable
	if opts.Tags != "" {
		parsed, err := tagexpressions.Parse(opts.Tags)
		if err != nil {
			return nil, fmt.Errorf("invalid tag expression %q: %w", opts.Tags, err)
		}
		filter = parsed
	}

	plan := &Plan{strict: opts.StrictUndefined}
	matches := make(map[*model.Step]stepMatch)

	for _, doc := range docs {
		for _, feature := range doc.Features {
			begin := len(plan.Units)
			for cs, expandErr := range outline.ExpandFeature(feature, doc.URI) {
				if expandErr != nil {
					// A broken row is included regardless of the tag
					// filter so the problem cannot hide.
					plan.Units = append(plan.Units, failedUnit(doc, feature, expandErr))
					continue
				}
				if filter != nil && !filter.Evaluate(atNames(cs.Tags)) {
					continue
				}
				plan.Units = append(plan.Units, materializeUnit(cs, feature, reg, matches, sink, plan))
			}
			if end := len(plan.Units); end > begin {
				plan.Units[begin].StartsFeature = true
				plan.Units[end-1].EndsFeature = true
			}
		}
	}

	return plan, nil
}

func materializeUnit(cs *outline.ConcreteScenario, feature *model.Feature, reg *steps.Registry,
	matches map[*model.Step]stepMatch, sink events.Sink, plan *Plan) *Unit {

	unit := &Unit{
		ID:       uuid.NewString(),
		Name:     cs.Name,
		Feature:  feature.Name,
		URI:      cs.URI,
		Scenario: cs,
	}

	var all []*model.Step
	if feature.Background != nil {
		all = append(all, feature.Background.Steps...)
	}
	all = append(all, cs.Steps...)

	unit.Invocations = make([]StepInvocation, 0, len(all))
	for _, st := range all {
		unit.Invocations = append(unit.Invocations, bindStep(st, unit, reg, matches, sink, plan))
	}
	return unit
}

// bindStep resolves one step occurrence, consulting the registry once per
// occurrence even when a background step repeats across units.
func bindStep(st *model.Step, unit *Unit, reg *steps.Registry,
	matches map[*model.Step]stepMatch, sink events.Sink, plan *Plan) StepInvocation {

	res, ok := matches[st]
	if !ok {
		m, err := reg.Match(st)
		res = stepMatch{match: m, err: err}
		matches[st] = res
	}

	inv := StepInvocation{Step: st}
	if res.err != nil {
		inv.Err = res.err
		if unit.Err == nil {
			unit.Err = res.err
		}
		recordMatchError(st, unit, res.err, sink, plan)
		return inv
	}

	m := res.match
	inv.Match = m
	inv.Call = m.Invoke
	sink.Emit(events.StepMatched{
		Unit:       unit.ID,
		Text:       st.Text,
		Definition: m.Definition.String(),
		Locs:       m.Locs,
	})
	return inv
}

func recordMatchError(st *model.Step, unit *Unit, err error, sink events.Sink, plan *Plan) {
	var undefined *steps.UndefinedStepError
	var ambiguous *steps.AmbiguousStepError
	switch {
	case errors.As(err, &undefined):
		plan.Undefined = append(plan.Undefined, undefined)
		sink.Emit(events.StepUndefined{Unit: unit.ID, Text: st.Text, Location: st.Location})
	case errors.As(err, &ambiguous):
		plan.Ambiguous = append(plan.Ambiguous, ambiguous)
		names := make([]string, len(ambiguous.Candidates))
		for i, d := range ambiguous.Candidates {
			names[i] = d.String()
		}
		sink.Emit(events.StepAmbiguous{Unit: unit.ID, Text: st.Text, Candidates: names})
	}
}

func failedUnit(doc *model.Document, feature *model.Feature, err error) *Unit {
	unit := &Unit{
		ID:      uuid.NewString(),
		Feature: feature.Name,
		URI:     doc.URI,
		Err:     err,
	}
	var unresolved *outline.UnresolvedPlaceholderError
	if errors.As(err, &unresolved) {
		unit.Name = unresolved.Scenario
	}
	return unit
}

func atNames(tags []model.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = "@" + tag.Name
	}
	return names
}
