package runner

import (
	"sort"

	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/suite"
)

// Feature is the metadata handed to feature-level hooks.
type Feature struct {
	Name string
	URI  string
}

// Hooks holds lifecycle hooks for a run. Every registered hook set is
// executed, sorted by Order.
type Hooks struct {
	// Order determines execution order (lower = runs first).
	// Default is 0. Hooks with same Order run in registration order.
	Order int

	// BeforeFeature runs before the first unit of each feature.
	BeforeFeature func(Feature)

	// AfterFeature runs after the last unit of each feature.
	AfterFeature func(Feature)

	// BeforeScenario runs before each unit.
	BeforeScenario func(*suite.Unit)

	// AfterScenario runs after each unit. The error is nil when the unit
	// passed, non-nil on failure.
	AfterScenario func(*suite.Unit, error)

	// BeforeStep runs before each step invocation.
	BeforeStep func(*model.Step)

	// AfterStep runs after each step invocation. The error is nil when the
	// step passed, non-nil on failure.
	AfterStep func(*model.Step, error)
}

// SortHooks sorts hooks by Order (ascending). Hooks with the same Order
// keep their relative order (stable sort).
func SortHooks(hooks []*Hooks) []*Hooks {
	sorted := make([]*Hooks, len(hooks))
	copy(sorted, hooks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	return sorted
}

// HookExecutor manages execution of multiple hook sets.
type HookExecutor struct {
	hooks []*Hooks // sorted by Order
}

// NewHookExecutor creates a HookExecutor with sorted hooks, dropping nils.
func NewHookExecutor(hooks ...*Hooks) *HookExecutor {
	validHooks := make([]*Hooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			validHooks = append(validHooks, h)
		}
	}

	return &HookExecutor{
		hooks: SortHooks(validHooks),
	}
}

// ExecuteBeforeFeature executes all BeforeFeature hooks in order.
func (e *HookExecutor) ExecuteBeforeFeature(feature Feature) {
	for _, h := range e.hooks {
		if h.BeforeFeature != nil {
			h.BeforeFeature(feature)
		}
	}
}

// ExecuteAfterFeature executes all AfterFeature hooks in order.
func (e *HookExecutor) ExecuteAfterFeature(feature Feature) {
	for _, h := range e.hooks {
		if h.AfterFeature != nil {
			h.AfterFeature(feature)
		}
	}
}

// ExecuteBeforeScenario executes all BeforeScenario hooks in order.
func (e *HookExecutor) ExecuteBeforeScenario(unit *suite.Unit) {
	for _, h := range e.hooks {
		if h.BeforeScenario != nil {
			h.BeforeScenario(unit)
		}
	}
}

// ExecuteAfterScenario executes all AfterScenario hooks in order.
func (e *HookExecutor) ExecuteAfterScenario(unit *suite.Unit, err error) {
	for _, h := range e.hooks {
		if h.AfterScenario != nil {
			h.AfterScenario(unit, err)
		}
	}
}

// ExecuteBeforeStep executes all BeforeStep hooks in order.
func (e *HookExecutor) ExecuteBeforeStep(step *model.Step) {
	for _, h := range e.hooks {
		if h.BeforeStep != nil {
			h.BeforeStep(step)
		}
	}
}

// ExecuteAfterStep executes all AfterStep hooks in order.
func (e *HookExecutor) ExecuteAfterStep(step *model.Step, err error) {
	for _, h := range e.hooks {
		if h.AfterStep != nil {
			h.AfterStep(step, err)
		}
	}
}
