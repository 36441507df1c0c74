// Package runner drives materialized units through testing.T or a plain
// context. It decides nothing about matching; it only invokes what the
// materializer resolved and fires hooks around it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/denizgursoy/tursu/internal/loader"
	"github.com/denizgursoy/tursu/pkg/events"
	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/steps"
	"github.com/denizgursoy/tursu/pkg/suite"
)

// ErrSkip marks a scenario as skipped when a step returns it. The host
// reports the unit as skipped instead of failed.
var ErrSkip = errors.New("scenario skipped")

// Runner binds feature sources to a sealed registry and executes the
// resulting units.
type Runner struct {
	featureDirectories []string
	documents          []*model.Document
	registry           *steps.Registry
	options            suite.Options
	hooks              []*Hooks
	sink               events.Sink
	language           string
}

// New creates an empty Runner. Configure it with the With* methods, then
// call Run or Plan.
func New() *Runner {
	return &Runner{}
}

// WithFeatureDirectories sets the directories searched for feature files.
// Defaults to the working directory when no documents are given either.
func (r *Runner) WithFeatureDirectories(directories ...string) *Runner {
	r.featureDirectories = directories

	return r
}

// WithDocuments adds already-parsed documents to the run.
func (r *Runner) WithDocuments(documents ...*model.Document) *Runner {
	r.documents = append(r.documents, documents...)

	return r
}

// WithRegistry sets the sealed step registry units are matched against.
func (r *Runner) WithRegistry(registry *steps.Registry) *Runner {
	r.registry = registry

	return r
}

// WithOptions sets the materialization options.
func (r *Runner) WithOptions(options suite.Options) *Runner {
	r.options = options

	return r
}

// WithHooks adds lifecycle hooks to the run.
func (r *Runner) WithHooks(hooks ...*Hooks) *Runner {
	r.hooks = append(r.hooks, hooks...)

	return r
}

// WithSink sets the event sink for lifecycle records.
func (r *Runner) WithSink(sink events.Sink) *Runner {
	r.sink = sink

	return r
}

// WithLanguage sets the default dialect for feature files without a
// language directive.
func (r *Runner) WithLanguage(tag string) *Runner {
	r.language = tag

	return r
}

// Plan loads the feature sources and materializes them against the
// registry. The returned load errors are document-scoped; documents that
// loaded are part of the plan regardless.
func (r *Runner) Plan() (*suite.Plan, []error, error) {
	if r.registry == nil {
		return nil, nil, errors.New("runner has no step registry")
	}

	documents := append([]*model.Document(nil), r.documents...)
	var loadErrs []error

	dirs := r.featureDirectories
	if len(dirs) == 0 && len(documents) == 0 {
		dirs = []string{"."}
	}
	if len(dirs) > 0 {
		var opts []loader.Option
		if r.language != "" {
			opts = append(opts, loader.WithLanguage(r.language))
		}
		result, err := loader.LoadDirs(dirs, opts...)
		if err != nil {
			return nil, nil, err
		}
		documents = append(documents, result.Documents...)
		loadErrs = result.Errors
	}

	options := r.options
	if r.sink != nil {
		options.Sink = r.sink
	}
	plan, err := suite.Materialize(documents, r.registry, options)
	if err != nil {
		return nil, nil, err
	}

	return plan, loadErrs, nil
}

// Run plans and executes every unit as a subtest of t. Unit failures fail
// their subtest; the returned error carries load errors and, under strict
// options, the plan's matching problems.
func (r *Runner) Run(t *testing.T) error {
	plan, loadErrs, err := r.Plan()
	if err != nil {
		return err
	}

	executor := NewHookExecutor(r.hooks...)
	sink := r.eventSink()
	ctx := context.Background()

	for _, unit := range plan.Units {
		t.Run(unit.Name, func(t *testing.T) {
			err := r.runUnit(ctx, unit, executor, sink)
			switch {
			case errors.Is(err, ErrSkip):
				t.Skip(err)
			case err != nil:
				t.Fatal(err)
			}
		})
	}

	return errors.Join(append(loadErrs, plan.Err())...)
}

// RunUnits executes units outside of a testing host. Every unit runs; the
// returned error joins the failures.
func (r *Runner) RunUnits(ctx context.Context, units []*suite.Unit) error {
	executor := NewHookExecutor(r.hooks...)
	sink := r.eventSink()

	var errs []error
	for _, unit := range units {
		err := r.runUnit(ctx, unit, executor, sink)
		if err != nil && !errors.Is(err, ErrSkip) {
			errs = append(errs, fmt.Errorf("%s: %w", unit.Name, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Runner) eventSink() events.Sink {
	if r.sink != nil {
		return r.sink
	}
	if r.options.Sink != nil {
		return r.options.Sink
	}
	return events.NopSink{}
}

func (r *Runner) runUnit(ctx context.Context, unit *suite.Unit, executor *HookExecutor, sink events.Sink) error {
	feature := Feature{Name: unit.Feature, URI: unit.URI}

	if unit.StartsFeature {
		sink.Emit(events.FeatureStarted{URI: unit.URI, Name: unit.Feature})
		executor.ExecuteBeforeFeature(feature)
	}
	sink.Emit(events.ScenarioStarted{
		Unit:    unit.ID,
		Feature: unit.Feature,
		Name:    unit.Name,
		Row:     unit.Row(),
	})
	executor.ExecuteBeforeScenario(unit)

	outcome, err := r.runSteps(ctx, unit, executor)

	sink.Emit(events.ScenarioFinished{
		Unit:    unit.ID,
		Outcome: outcome,
		Err:     errString(err),
	})
	executor.ExecuteAfterScenario(unit, err)
	if unit.EndsFeature {
		executor.ExecuteAfterFeature(feature)
	}

	return err
}

// runSteps invokes the unit's steps in order against a fresh fixture
// store. The first failing step ends the unit; the remaining steps are not
// invoked and their hooks do not fire.
func (r *Runner) runSteps(ctx context.Context, unit *suite.Unit, executor *HookExecutor) (events.Outcome, error) {
	if unit.Err != nil {
		return events.OutcomeFailed, unit.Err
	}

	fx := steps.NewFixtures()
	for i := range unit.Invocations {
		inv := &unit.Invocations[i]

		executor.ExecuteBeforeStep(inv.Step)
		next, err := inv.Call(ctx, fx)
		executor.ExecuteAfterStep(inv.Step, err)

		if err != nil {
			if errors.Is(err, ErrSkip) {
				return events.OutcomeSkipped, err
			}
			loc := inv.Step.Location
			return events.OutcomeFailed, fmt.Errorf("%s:%d:%d: step %q: %w",
				unit.URI, loc.Line, loc.Column, inv.Step.Text, err)
		}
		if next != nil {
			ctx = next
		}
	}

	return events.OutcomePassed, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
