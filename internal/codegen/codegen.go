// Package codegen renders Go source for the CLI: stub definitions for
// undefined steps and a test harness that wires a runner to a registry.
package codegen

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/steps"
)

const (
	stepsPackage  = "github.com/denizgursoy/tursu/pkg/steps"
	runnerPackage = "github.com/denizgursoy/tursu/pkg/runner"
)

// Snippets renders stub step functions for undefined steps, each with a
// @tursu marker whose pattern is derived from the step text: quoted
// strings become {s:string}, integers {n:int} and floats {f:float}
// placeholders. Steps deriving the same keyword and pattern produce one
// stub. Returns nil bytes when there is nothing to generate.
func Snippets(pkg string, undefined []*steps.UndefinedStepError) ([]byte, error) {
	if pkg == "" {
		pkg = "steps"
	}

	file := jen.NewFile(pkg)
	file.HeaderComment("Stubs for undefined steps. Move them beside the code they drive and fill in the bodies.")

	seen := make(map[string]bool)
	names := make(map[string]int)
	emitted := 0
	for _, u := range undefined {
		keyword := keywordName(u.Step.Type)
		pattern, params := derivePattern(u.Step.Text)
		if seen[keyword+" "+pattern] {
			continue
		}
		seen[keyword+" "+pattern] = true

		name := funcName(pattern)
		names[name]++
		if n := names[name]; n > 1 {
			name = fmt.Sprintf("%s%d", name, n)
		}

		if emitted > 0 {
			file.Line()
		}
		file.Commentf("%s implements %q.", name, u.Step.Text)
		file.Commentf("@tursu %s `%s`", keyword, pattern)
		file.Func().Id(name).ParamsFunc(func(g *jen.Group) {
			for _, p := range params {
				g.Id(p.name).Add(paramType(p.kind))
			}
		}).Error().Block(
			jen.Return(jen.Qual("errors", "New").Call(jen.Lit("step not implemented"))),
		)
		emitted++
	}
	if emitted == 0 {
		return nil, nil
	}

	return render(file)
}

// Harness renders a tursu_test.go that runs the feature directories
// against a registry sealed in the test. Registrations are left to the
// author; the generated file compiles and reports every step undefined
// until they are added.
func Harness(pkg string, featureDirs []string) ([]byte, error) {
	if pkg == "" {
		pkg = "main"
	}

	file := jen.NewFile(pkg)

	chain := jen.Err().Op(":=").Qual(runnerPackage, "New").Call().Id(".").Line()
	if len(featureDirs) > 0 {
		dirs := make([]jen.Code, 0, len(featureDirs))
		for _, dir := range featureDirs {
			dirs = append(dirs, jen.Lit(dir))
		}
		chain.Id("WithFeatureDirectories").Call(dirs...).Id(".").Line()
	}
	chain.Id("WithRegistry").Call(jen.Id("registry").Dot("Seal").Call()).Id(".").Line()
	chain.Id("Run").Call(jen.Id("t"))

	file.Func().Id("TestTursu").Params(
		jen.Id("t").Op("*").Qual("testing", "T"),
	).Block(
		jen.Id("registry").Op(":=").Qual(stepsPackage, "NewRegistry").Call(),
		jen.Line(),
		jen.Comment("register step definitions on registry before it is sealed"),
		jen.Line(),
		chain,
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("t").Dot("Fatal").Call(jen.Err()),
		),
	)

	return render(file)
}

func render(file *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := file.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type stubParam struct {
	name string
	kind string
}

var (
	intWord   = regexp.MustCompile(`^-?\d+$`)
	floatWord = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// derivePattern turns literal step text into a Format pattern by replacing
// quoted strings and bare numbers with placeholders. Literal braces are
// escaped so the result always compiles as a pattern.
func derivePattern(text string) (string, []stubParam) {
	var (
		sb     strings.Builder
		params []stubParam
		counts = make(map[string]int)
	)

	capture := func(base, kind string) {
		name := base
		counts[base]++
		if n := counts[base]; n > 1 {
			name = fmt.Sprintf("%s%d", base, n)
		}
		params = append(params, stubParam{name: name, kind: kind})
		sb.WriteString("{" + name + ":" + kind + "}")
	}

	rest := text
	for len(rest) > 0 {
		if rest[0] == '"' {
			if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
				capture("s", "string")
				rest = rest[end+2:]
				continue
			}
		}

		word := rest
		next := ""
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			word, next = rest[:i], rest[i+1:]
		}
		switch {
		case intWord.MatchString(word):
			capture("n", "int")
		case floatWord.MatchString(word):
			capture("f", "float")
		default:
			sb.WriteString(escapeBraces(word))
		}
		if len(word) < len(rest) {
			sb.WriteByte(' ')
		}
		rest = next
	}

	return sb.String(), params
}

func escapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

// funcName builds an exported identifier from the pattern's literal words.
func funcName(pattern string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(pattern) {
		if strings.HasPrefix(word, "{") && !strings.HasPrefix(word, "{{") {
			continue
		}
		first := true
		for _, r := range word {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				continue
			}
			if first {
				r = unicode.ToUpper(r)
				first = false
			}
			sb.WriteRune(r)
		}
	}

	name := sb.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "Step" + name
	}
	return name
}

func paramType(kind string) *jen.Statement {
	switch kind {
	case "int":
		return jen.Int()
	case "float":
		return jen.Float64()
	default:
		return jen.String()
	}
}

func keywordName(t model.StepType) string {
	switch t {
	case model.StepContext:
		return "given"
	case model.StepAction:
		return "when"
	case model.StepOutcome:
		return "then"
	default:
		return "any"
	}
}
