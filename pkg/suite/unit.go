package suite

import (
	"context"

	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/outline"
	"github.com/denizgursoy/tursu/pkg/steps"
)

// Phase names a lifecycle hook slot. The materializer records where hooks
// attach; the host runtime invokes them.
type Phase int

const (
	BeforeFeature Phase = iota
	BeforeScenario
	BeforeStep
	AfterStep
	AfterScenario
	AfterFeature
)

func (p Phase) String() string {
	switch p {
	case BeforeFeature:
		return "before feature"
	case BeforeScenario:
		return "before scenario"
	case BeforeStep:
		return "before step"
	case AfterStep:
		return "after step"
	case AfterScenario:
		return "after scenario"
	case AfterFeature:
		return "after feature"
	default:
		return "unknown"
	}
}

// StepInvocation is one resolved step of a unit. Call is the argument-bound
// closure the host invokes; it is nil when Err is set.
type StepInvocation struct {
	Step  *model.Step
	Match *steps.Match
	Err   error
	Call  func(ctx context.Context, fx *steps.Fixtures) (context.Context, error)
}

// Unit is one executable test case: one concrete scenario with its
// background steps prepended and every step bound to its definition.
//
// A unit with Err set is guaranteed-failing: something about the scenario
// (expansion, matching, argument conversion) broke before execution, and the
// host must report the error instead of invoking steps.
type Unit struct {
	ID      string
	Name    string
	Feature string
	URI     string

	// Scenario is the expanded instance, nil when expansion itself failed.
	Scenario *outline.ConcreteScenario

	Invocations []StepInvocation
	Err         error

	// StartsFeature and EndsFeature mark the units at feature boundaries,
	// where the host fires the feature-level hooks.
	StartsFeature bool
	EndsFeature   bool
}

// Row returns the 1-based examples row number, 0 for plain scenarios and
// failed expansions.
func (u *Unit) Row() int {
	if u.Scenario == nil || !u.Scenario.IsOutlineRow() {
		return 0
	}
	return u.Scenario.RowIndex + 1
}

// HookPoints lists the scenario-boundary hook slots of this unit in firing
// order. BeforeStep and AfterStep apply per invocation and are not listed.
func (u *Unit) HookPoints() []Phase {
	pts := make([]Phase, 0, 4)
	if u.StartsFeature {
		pts = append(pts, BeforeFeature)
	}
	pts = append(pts, BeforeScenario, AfterScenario)
	if u.EndsFeature {
		pts = append(pts, AfterFeature)
	}
	return pts
}
