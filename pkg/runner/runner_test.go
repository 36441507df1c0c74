package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/tursu/pkg/events"
	"github.com/denizgursoy/tursu/pkg/gherkin"
	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/steps"
	"github.com/denizgursoy/tursu/pkg/suite"
)

const checkoutSrc = `Feature: Checkout

  Background:
    Given an empty cart

  @fast
  Scenario: add one item
    When I add a "pen"
    Then the cart has 1 items

  @slow
  Scenario: add two items
    When I add a "pen"
    And I add a "pad"
    Then the cart has 2 items
`

type cart struct {
	items []string
}

// recordingSink collects every emitted event.
type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Emit(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) outcomes() []events.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Outcome
	for _, e := range s.events {
		if fin, ok := e.(events.ScenarioFinished); ok {
			out = append(out, fin.Outcome)
		}
	}
	return out
}

func parseDoc(t *testing.T, src, uri string) *model.Document {
	t.Helper()
	doc, err := gherkin.Parse([]byte(src), gherkin.WithURI(uri))
	require.NoError(t, err)
	return doc
}

// cartRegistry tracks executed step texts through the executed callback.
func cartRegistry(t *testing.T, executed func(string)) *steps.Registry {
	t.Helper()
	if executed == nil {
		executed = func(string) {}
	}

	reg := steps.NewRegistry()
	require.NoError(t, reg.Given(steps.Exact("an empty cart"), func() *cart {
		executed("an empty cart")
		return &cart{}
	}, steps.WithTargetFixture("cart")))
	require.NoError(t, reg.When(steps.Format("I add a {item:string}"), func(item string, c *cart) {
		executed("I add a " + item)
		c.items = append(c.items, item)
	}, steps.WithFixtures("cart")))
	require.NoError(t, reg.Then(steps.Format("the cart has {n:int} items"), func(n int, c *cart) error {
		executed(fmt.Sprintf("the cart has %d items", n))
		if len(c.items) != n {
			return fmt.Errorf("cart has %d items, want %d", len(c.items), n)
		}
		return nil
	}, steps.WithFixtures("cart")))
	return reg.Seal()
}

func TestRunnerRun(t *testing.T) {
	t.Run("executes every unit as a subtest with isolated fixtures", func(t *testing.T) {
		var executed []string
		runner := New().
			WithDocuments(parseDoc(t, checkoutSrc, "checkout.feature")).
			WithRegistry(cartRegistry(t, func(s string) { executed = append(executed, s) }))

		err := runner.Run(t)

		require.NoError(t, err)
		require.Equal(t, []string{
			"an empty cart", "I add a pen", "the cart has 1 items",
			"an empty cart", "I add a pen", "I add a pad", "the cart has 2 items",
		}, executed)
	})

	t.Run("filters units by tag expression", func(t *testing.T) {
		var executed []string
		runner := New().
			WithDocuments(parseDoc(t, checkoutSrc, "checkout.feature")).
			WithRegistry(cartRegistry(t, func(s string) { executed = append(executed, s) })).
			WithOptions(suite.Options{Tags: "@fast"})

		err := runner.Run(t)

		require.NoError(t, err)
		require.Equal(t, []string{"an empty cart", "I add a pen", "the cart has 1 items"}, executed)
	})

	t.Run("a step returning ErrSkip skips the unit", func(t *testing.T) {
		src := `Feature: f
  Scenario: skipped midway
    Given an empty cart
    When nothing else applies
    Then the cart has 9 items
`
		var executed []string
		reg := steps.NewRegistry()
		require.NoError(t, reg.Given(steps.Exact("an empty cart"), func() {
			executed = append(executed, "an empty cart")
		}))
		require.NoError(t, reg.When(steps.Exact("nothing else applies"), func() error {
			executed = append(executed, "nothing else applies")
			return ErrSkip
		}))
		require.NoError(t, reg.Then(steps.Exact("the cart has 9 items"), func() error {
			executed = append(executed, "the cart has 9 items")
			return fmt.Errorf("must not run")
		}))
		reg.Seal()

		sink := &recordingSink{}
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(reg).
			WithSink(sink)

		err := runner.Run(t)

		require.NoError(t, err)
		require.Equal(t, []string{"an empty cart", "nothing else applies"}, executed)
		require.Equal(t, []events.Outcome{events.OutcomeSkipped}, sink.outcomes())
	})

	t.Run("emits lifecycle events in order", func(t *testing.T) {
		src := `Feature: f
  Scenario: s
    Given an empty cart
`
		sink := &recordingSink{}
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(cartRegistry(t, nil)).
			WithSink(sink)

		err := runner.Run(t)
		require.NoError(t, err)

		types := make([]string, len(sink.events))
		for i, e := range sink.events {
			types[i] = fmt.Sprintf("%T", e)
		}
		require.Equal(t, []string{
			"events.StepMatched",
			"events.FeatureStarted",
			"events.ScenarioStarted",
			"events.ScenarioFinished",
		}, types)
		require.Equal(t, []events.Outcome{events.OutcomePassed}, sink.outcomes())
	})

	t.Run("load errors fail the run while loaded features still execute", func(t *testing.T) {
		var executed []string
		runner := New().
			WithFeatureDirectories("testdata/mixed").
			WithRegistry(cartRegistry(t, func(s string) { executed = append(executed, s) }))

		err := runner.Run(t)

		require.Error(t, err)
		require.Contains(t, err.Error(), "broken.feature")
		require.Equal(t, []string{"an empty cart"}, executed)
	})

	t.Run("hook sets fire in order across the lifecycle", func(t *testing.T) {
		var trail []string
		record := func(prefix string, order int) *Hooks {
			return &Hooks{
				Order:          order,
				BeforeFeature:  func(Feature) { trail = append(trail, prefix+":beforeFeature") },
				AfterFeature:   func(Feature) { trail = append(trail, prefix+":afterFeature") },
				BeforeScenario: func(*suite.Unit) { trail = append(trail, prefix+":beforeScenario") },
				AfterScenario:  func(*suite.Unit, error) { trail = append(trail, prefix+":afterScenario") },
				BeforeStep:     func(*model.Step) { trail = append(trail, prefix+":beforeStep") },
				AfterStep:      func(*model.Step, error) { trail = append(trail, prefix+":afterStep") },
			}
		}

		src := `Feature: f
  Scenario: one
    Given an empty cart

  Scenario: two
    Given an empty cart
`
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(cartRegistry(t, nil)).
			WithHooks(record("h2", 2), record("h1", 1)) // intentionally reversed to verify sorting

		err := runner.Run(t)
		require.NoError(t, err)

		expected := []string{
			"h1:beforeFeature", "h2:beforeFeature",
			"h1:beforeScenario", "h2:beforeScenario",
			"h1:beforeStep", "h2:beforeStep",
			"h1:afterStep", "h2:afterStep",
			"h1:afterScenario", "h2:afterScenario",
			"h1:beforeScenario", "h2:beforeScenario",
			"h1:beforeStep", "h2:beforeStep",
			"h1:afterStep", "h2:afterStep",
			"h1:afterScenario", "h2:afterScenario",
			"h1:afterFeature", "h2:afterFeature",
		}
		require.Equal(t, expected, trail)
	})
}

func TestRunnerPlan(t *testing.T) {
	t.Run("requires a registry", func(t *testing.T) {
		_, _, err := New().Plan()

		require.Error(t, err)
		require.Contains(t, err.Error(), "no step registry")
	})

	t.Run("collects load errors per file while materializing the rest", func(t *testing.T) {
		runner := New().
			WithFeatureDirectories("testdata/mixed").
			WithRegistry(cartRegistry(t, nil))

		plan, loadErrs, err := runner.Plan()

		require.NoError(t, err)
		require.Len(t, loadErrs, 1)
		require.Len(t, plan.Units, 1)
		require.Equal(t, "the good one", plan.Units[0].Name)
	})

	t.Run("strict undefined shows up on the plan", func(t *testing.T) {
		src := `Feature: f
  Scenario: s
    Given a step nobody wrote
`
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(cartRegistry(t, nil)).
			WithOptions(suite.Options{StrictUndefined: true})

		plan, _, err := runner.Plan()

		require.NoError(t, err)
		require.Error(t, plan.Err())
		require.Contains(t, plan.Err().Error(), "1 undefined")
	})
}

func TestRunUnits(t *testing.T) {
	t.Run("joins unit failures under their names", func(t *testing.T) {
		src := `Feature: f
  Scenario: short cart
    Given an empty cart
    Then the cart has 3 items

  Scenario: fine
    Given an empty cart
`
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(cartRegistry(t, nil))
		plan, _, err := runner.Plan()
		require.NoError(t, err)

		err = runner.RunUnits(context.Background(), plan.Units)

		require.Error(t, err)
		require.Contains(t, err.Error(), "short cart")
		require.Contains(t, err.Error(), "cart has 0 items, want 3")
		require.Contains(t, err.Error(), "f.feature:4:5")
	})

	t.Run("a guaranteed-failing unit fails without running steps", func(t *testing.T) {
		src := `Feature: f
  Scenario: s
    Given a step nobody wrote
`
		var beforeScenario, beforeStep int
		hooks := &Hooks{
			BeforeScenario: func(*suite.Unit) { beforeScenario++ },
			BeforeStep:     func(*model.Step) { beforeStep++ },
		}
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(cartRegistry(t, nil)).
			WithHooks(hooks)

		plan, _, err := runner.Plan()
		require.NoError(t, err)

		err = runner.RunUnits(context.Background(), plan.Units)

		require.Error(t, err)
		require.Contains(t, err.Error(), "no step definition matches")
		require.Equal(t, 1, beforeScenario)
		require.Zero(t, beforeStep)
	})

	t.Run("skipped units are not failures", func(t *testing.T) {
		src := `Feature: f
  Scenario: s
    Given nothing to do
`
		reg := steps.NewRegistry()
		require.NoError(t, reg.Given(steps.Exact("nothing to do"), func() error {
			return ErrSkip
		}))
		reg.Seal()

		sink := &recordingSink{}
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(reg).
			WithSink(sink)

		plan, _, err := runner.Plan()
		require.NoError(t, err)

		err = runner.RunUnits(context.Background(), plan.Units)

		require.NoError(t, err)
		require.Equal(t, []events.Outcome{events.OutcomeSkipped}, sink.outcomes())
	})

	t.Run("fixtures do not leak across units", func(t *testing.T) {
		src := `Feature: f
  Scenario: fills the cart
    Given an empty cart
    When I add a "pen"

  Scenario: expects its own cart
    When I add a "pad"
`
		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(cartRegistry(t, nil))

		plan, _, err := runner.Plan()
		require.NoError(t, err)

		err = runner.RunUnits(context.Background(), plan.Units)

		require.Error(t, err)
		require.Contains(t, err.Error(), "expects its own cart")
		require.Contains(t, err.Error(), `fixture "cart" is not set`)
	})

	t.Run("a returned context threads through the following steps", func(t *testing.T) {
		type key struct{}
		src := `Feature: f
  Scenario: s
    Given a session
    Then the session is visible
`
		reg := steps.NewRegistry()
		require.NoError(t, reg.Given(steps.Exact("a session"), func(ctx context.Context) (context.Context, error) {
			return context.WithValue(ctx, key{}, "open"), nil
		}))
		require.NoError(t, reg.Then(steps.Exact("the session is visible"), func(ctx context.Context) error {
			if ctx.Value(key{}) != "open" {
				return fmt.Errorf("session not in context")
			}
			return nil
		}))
		reg.Seal()

		runner := New().
			WithDocuments(parseDoc(t, src, "f.feature")).
			WithRegistry(reg)

		plan, _, err := runner.Plan()
		require.NoError(t, err)

		require.NoError(t, runner.RunUnits(context.Background(), plan.Units))
	})
}
