package codegen

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/steps"
)

func undefined(keyword model.StepType, text string) *steps.UndefinedStepError {
	return &steps.UndefinedStepError{Step: &model.Step{Type: keyword, Text: text}}
}

func requireParses(t *testing.T, src []byte) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, parser.ParseComments)
	require.NoError(t, err)
}

func TestSnippets(t *testing.T) {
	t.Run("derives placeholders from the step text", func(t *testing.T) {
		src, err := Snippets("kitchen", []*steps.UndefinedStepError{
			undefined(model.StepContext, "I have 5 cukes"),
			undefined(model.StepAction, `I move them to "the fridge"`),
			undefined(model.StepOutcome, "the total is 7.5 euros"),
		})

		require.NoError(t, err)
		out := string(src)
		require.Contains(t, out, "package kitchen")
		require.Contains(t, out, "// @tursu given `I have {n:int} cukes`")
		require.Contains(t, out, "func IHaveCukes(n int) error")
		require.Contains(t, out, "// @tursu when `I move them to {s:string}`")
		require.Contains(t, out, "func IMoveThemTo(s string) error")
		require.Contains(t, out, "// @tursu then `the total is {f:float} euros`")
		require.Contains(t, out, "func TheTotalIsEuros(f float64) error")
		require.Contains(t, out, `errors.New("step not implemented")`)
		requireParses(t, src)
	})

	t.Run("steps deriving the same pattern collapse into one stub", func(t *testing.T) {
		src, err := Snippets("kitchen", []*steps.UndefinedStepError{
			undefined(model.StepContext, "I have 5 cukes"),
			undefined(model.StepContext, "I have 12 cukes"),
		})

		require.NoError(t, err)
		out := string(src)
		require.Equal(t, 1, strings.Count(out, "I have {n:int} cukes"))
		require.Equal(t, 1, strings.Count(out, "func IHaveCukes"))
	})

	t.Run("stubs sharing literal words get numbered names", func(t *testing.T) {
		src, err := Snippets("kitchen", []*steps.UndefinedStepError{
			undefined(model.StepContext, "I add 5 cukes"),
			undefined(model.StepContext, `I add "gherkins" cukes`),
		})

		require.NoError(t, err)
		out := string(src)
		require.Contains(t, out, "func IAddCukes(n int) error")
		require.Contains(t, out, "func IAddCukes2(s string) error")
		requireParses(t, src)
	})

	t.Run("empty package name defaults to steps", func(t *testing.T) {
		src, err := Snippets("", []*steps.UndefinedStepError{
			undefined(model.StepContext, "something happens"),
		})

		require.NoError(t, err)
		require.Contains(t, string(src), "package steps")
	})

	t.Run("no undefined steps yields no file", func(t *testing.T) {
		src, err := Snippets("kitchen", nil)

		require.NoError(t, err)
		require.Nil(t, src)
	})
}

func TestDerivePattern(t *testing.T) {
	tests := []struct {
		text    string
		pattern string
	}{
		{"I have 5 cukes", "I have {n:int} cukes"},
		{`I move them to "the fridge"`, "I move them to {s:string}"},
		{"the total is 7.5 euros", "the total is {f:float} euros"},
		{"I add 1 and 2", "I add {n:int} and {n2:int}"},
		{"the balance is -3", "the balance is {n:int}"},
		{`"a" then "b"`, "{s:string} then {s2:string}"},
		{"use {braces} literally", "use {{braces}} literally"},
		{"plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			pattern, _ := derivePattern(tt.text)
			require.Equal(t, tt.pattern, pattern)
		})
	}

	t.Run("reports parameter names and kinds", func(t *testing.T) {
		_, params := derivePattern(`I trade 3 cukes for "beans" at 0.5 rate`)

		require.Len(t, params, 3)
		require.Equal(t, stubParam{name: "n", kind: "int"}, params[0])
		require.Equal(t, stubParam{name: "s", kind: "string"}, params[1])
		require.Equal(t, stubParam{name: "f", kind: "float"}, params[2])
	})
}

func TestHarness(t *testing.T) {
	t.Run("wires the runner to a sealed registry", func(t *testing.T) {
		src, err := Harness("checkout", []string{"features"})

		require.NoError(t, err)
		out := string(src)
		require.Contains(t, out, "package checkout")
		require.Contains(t, out, "func TestTursu(t *testing.T)")
		require.Contains(t, out, "registry := steps.NewRegistry()")
		require.Contains(t, out, `WithFeatureDirectories("features")`)
		require.Contains(t, out, "WithRegistry(registry.Seal())")
		require.Contains(t, out, "Run(t)")
		require.Contains(t, out, "t.Fatal(err)")
		requireParses(t, src)
	})

	t.Run("omits directory wiring when none are given", func(t *testing.T) {
		src, err := Harness("", nil)

		require.NoError(t, err)
		out := string(src)
		require.Contains(t, out, "package main")
		require.NotContains(t, out, "WithFeatureDirectories")
		requireParses(t, src)
	})
}
