package steps

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/tursu/pkg/model"
)

func step(typ model.StepType, text string) *model.Step {
	return &model.Step{
		Keyword:  "Given",
		Type:     typ,
		Text:     text,
		Location: model.Location{Line: 7, Column: 5},
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Run("rejects duplicate keyword and pattern pairs", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Given(Exact("I do a thing"), nil))

		err := reg.Given(Exact("I do a thing"), nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate step pattern")

		// Same pattern under another keyword is a different definition.
		require.NoError(t, reg.When(Exact("I do a thing"), nil))
	})

	t.Run("rejects registrations after Seal", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Given(Exact("a"), nil))
		reg.Seal()

		err := reg.Given(Exact("b"), nil)
		require.ErrorIs(t, err, ErrSealed)
		require.Equal(t, 1, reg.Len())
	})

	t.Run("rejects invalid patterns and handlers", func(t *testing.T) {
		reg := NewRegistry()

		require.Error(t, reg.Given(Regex("[oops"), nil))
		require.Error(t, reg.Given(nil, nil))

		err := reg.Given(Exact("x"), "not a function")
		require.Error(t, err)
		require.Contains(t, err.Error(), "must be a function")
	})

	t.Run("validates capture arity against the handler", func(t *testing.T) {
		reg := NewRegistry()

		err := reg.When(Format("I add {a:int} and {b:int}"), func(a int) error { return nil })
		require.Error(t, err)
		require.Contains(t, err.Error(), "pattern captures 2")
	})

	t.Run("fixture options need a handler", func(t *testing.T) {
		reg := NewRegistry()

		err := reg.Given(Exact("x"), nil, WithTargetFixture("calc"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "need a handler")
	})
}

func TestRegistryMatch(t *testing.T) {
	t.Run("matching needs a sealed registry", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Given(Exact("a calculator"), nil))

		_, err := reg.Match(step(model.StepContext, "a calculator"))
		require.ErrorIs(t, err, ErrNotSealed)

		m, err := reg.Seal().Match(step(model.StepContext, "a calculator"))
		require.NoError(t, err)
		require.NotNil(t, m)
	})

	t.Run("keyword constraint filters candidates", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Given(Exact("the door is open"), nil))
		reg.Seal()

		_, err := reg.Match(step(model.StepAction, "the door is open"))
		var undefined *UndefinedStepError
		require.ErrorAs(t, err, &undefined)

		m, err := reg.Match(step(model.StepContext, "the door is open"))
		require.NoError(t, err)
		require.Equal(t, model.StepContext, m.Definition.Keyword)
	})

	t.Run("any definitions and unknown steps cross the keyword filter", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Any(Exact("anything goes"), nil))
		require.NoError(t, reg.Then(Exact("the result is shown"), nil))
		reg.Seal()

		_, err := reg.Match(step(model.StepOutcome, "anything goes"))
		require.NoError(t, err)

		// A leading And/But step has no resolved keyword and accepts all.
		_, err = reg.Match(step(model.StepUnknown, "the result is shown"))
		require.NoError(t, err)
	})

	t.Run("an unmatched step reports UndefinedStepError", func(t *testing.T) {
		reg := NewRegistry().Seal()

		_, err := reg.Match(step(model.StepAction, "I frobnicate"))
		var undefined *UndefinedStepError
		require.ErrorAs(t, err, &undefined)
		require.Equal(t, "I frobnicate", undefined.Step.Text)
		require.EqualError(t, err, `no step definition matches when "I frobnicate" at 7:5`)
	})

	t.Run("two definitions matching the same text report both and run neither", func(t *testing.T) {
		reg := NewRegistry()
		ran := 0
		require.NoError(t, reg.Given(Exact("I do a thing"), func() { ran++ }))
		require.NoError(t, reg.Given(Regex("I do a (thing|widget)"), func(what string) { ran++ }))
		reg.Seal()

		_, err := reg.Match(step(model.StepContext, "I do a thing"))
		var ambiguous *AmbiguousStepError
		require.ErrorAs(t, err, &ambiguous)
		require.Len(t, ambiguous.Candidates, 2)
		require.Contains(t, err.Error(), `given exact "I do a thing"`)
		require.Contains(t, err.Error(), `given regexp "I do a (thing|widget)"`)
		require.Zero(t, ran)
	})

	t.Run("a single match extracts converted arguments", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.When(Format("I add {a:int} and {b:int}"), func(a, b int) error { return nil }))
		reg.Seal()

		m, err := reg.Match(step(model.StepAction, "I add 2 and 40"))
		require.NoError(t, err)
		require.Len(t, m.Arguments, 2)
		require.Equal(t, Argument{Name: "a", Raw: "2", Value: 2}, m.Arguments[0])
		require.Equal(t, Argument{Name: "b", Raw: "40", Value: 40}, m.Arguments[1])
		require.Equal(t, []int{6, 7, 12, 14}, m.Locs)
	})

	t.Run("match-only definitions keep raw string arguments", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.When(Format("I add {a:int} and {b:int}"), nil))
		reg.Seal()

		m, err := reg.Match(step(model.StepAction, "I add 2 and 40"))
		require.NoError(t, err)
		require.Equal(t, "2", m.Arguments[0].Value)
		require.Nil(t, m.Definition.Handler)
	})

	t.Run("a registered converter wins over the declared type", func(t *testing.T) {
		type color string
		reg := NewRegistry()
		require.NoError(t, reg.Given(
			Format("the light is {c:word}"),
			func(c color) error { return nil },
			WithConverter("c", func(raw string) (any, error) { return color(raw), nil }),
		))
		reg.Seal()

		m, err := reg.Match(step(model.StepContext, "the light is green"))
		require.NoError(t, err)
		require.Equal(t, color("green"), m.Arguments[0].Value)
	})

	t.Run("a failed conversion reports ArgumentConversionError", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.When(Regex(`I take (\w+) apples`), func(n int) error { return nil }))
		reg.Seal()

		_, err := reg.Match(step(model.StepAction, "I take five apples"))
		var conv *ArgumentConversionError
		require.ErrorAs(t, err, &conv)
		require.Equal(t, "1", conv.Argument)
		require.Equal(t, "five", conv.Raw)
		require.Equal(t, "int", conv.Target.String())
	})

	t.Run("custom patterns must capture what the handler takes", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Given(
			Custom("everything", func(text string) (map[string]string, bool) {
				return map[string]string{"all": text}, true
			}),
			func(a, b string) error { return nil },
		))
		reg.Seal()

		_, err := reg.Match(step(model.StepContext, "whatever"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "yielded 1 captures, step handler takes 2")
	})

	t.Run("definitions are listed in registration order", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Given(Exact("first"), nil))
		require.NoError(t, reg.When(Exact("second"), nil))

		defs := reg.Definitions()
		require.Len(t, defs, 2)
		require.Equal(t, `given exact "first"`, defs[0].String())
		require.Equal(t, `when exact "second"`, defs[1].String())
		require.False(t, reg.Sealed())
	})
}
