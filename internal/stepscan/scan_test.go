package stepscan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/tursu/pkg/model"
)

func TestScan(t *testing.T) {
	t.Run("collects step comments from a directory tree", func(t *testing.T) {
		result, err := Scan("testdata/steps")

		require.NoError(t, err)
		require.Len(t, result.Steps, 4)

		byFunc := make(map[string]StepComment)
		for _, sc := range result.Steps {
			byFunc[sc.Func] = sc
		}

		empty := byFunc["AnEmptyCart"]
		require.Equal(t, model.StepContext, empty.Keyword)
		require.Equal(t, "an empty cart", empty.Pattern)
		require.Equal(t, "cartsteps", empty.Package)
		require.Contains(t, empty.Position, "cart.go:")

		require.Equal(t, model.StepAction, byFunc["AddItem"].Keyword)
		require.Equal(t, "I add a {item:string}", byFunc["AddItem"].Pattern)
		require.Equal(t, model.StepOutcome, byFunc["CartHasItems"].Keyword)
		require.Equal(t, model.StepUnknown, byFunc["Anything"].Keyword)

		_, found := byFunc["helper"]
		require.False(t, found)
	})

	t.Run("rejects markers with unknown keywords", func(t *testing.T) {
		_, err := Scan("testdata/malformed")

		require.Error(t, err)
		require.Contains(t, err.Error(), `unknown step keyword "sometimes"`)
		require.Contains(t, err.Error(), "bad.go")
		require.Contains(t, err.Error(), "BadKeyword")
	})

	t.Run("a missing directory is an error", func(t *testing.T) {
		_, err := Scan("no-such-dir")

		require.Error(t, err)
	})
}

func TestResultRegistry(t *testing.T) {
	t.Run("builds a sealed match-only registry", func(t *testing.T) {
		result, err := Scan("testdata/steps")
		require.NoError(t, err)

		reg, err := result.Registry()

		require.NoError(t, err)
		require.True(t, reg.Sealed())
		require.Equal(t, 4, reg.Len())

		match, err := reg.Match(&model.Step{Type: model.StepAction, Text: `I add a "pen"`})
		require.NoError(t, err)
		require.Equal(t, "pen", match.Arguments[0].Raw)
		require.Nil(t, match.Definition.Handler)
	})

	t.Run("duplicate patterns surface as errors", func(t *testing.T) {
		result, err := Scan("testdata/duplicate")
		require.NoError(t, err)

		_, err = result.Registry()

		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate step pattern")
		require.Contains(t, err.Error(), "SecondDefinition")
	})
}
