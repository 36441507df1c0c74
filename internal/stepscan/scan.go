// Package stepscan builds a static view of a project's step definitions by
// reading @tursu markers from Go source, without compiling or executing
// anything. The CLI matches features against the resulting registry to
// find undefined and ambiguous steps ahead of a real run.
//
// A marker is a doc comment line of the form:
//
//	// @tursu given `I have {count:int} cukes`
//	func IHaveCukes(count int) { ... }
//
// with given, when, then or any as the keyword and a step pattern between
// backticks.
package stepscan

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/denizgursoy/tursu/pkg/model"
	"github.com/denizgursoy/tursu/pkg/steps"
)

// Marker starts a step definition comment.
const Marker = "@tursu"

// StepComment is one scanned step definition.
type StepComment struct {
	Keyword  model.StepType
	Pattern  string
	Func     string
	Package  string
	Position string
}

// Result holds every step comment found, in file walk order.
type Result struct {
	Steps []StepComment
}

// Scan parses all Go files under dir and collects @tursu step comments.
// Malformed markers are errors; functions without markers are ignored.
func Scan(dir string) (*Result, error) {
	fset := token.NewFileSet()
	result := &Result{}

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			name := entry.Name()
			if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(entry.Name(), ".go") || strings.HasPrefix(entry.Name(), "_") {
			return nil
		}

		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return fmt.Errorf("could not parse %s: %w", path, err)
		}
		return collectSteps(fset, file, result)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Registry builds a sealed, match-only registry from the scanned steps.
// Patterns use the {name:kind} format syntax; duplicates and malformed
// patterns surface as errors.
func (r *Result) Registry() (*steps.Registry, error) {
	reg := steps.NewRegistry()
	for _, sc := range r.Steps {
		if err := reg.Register(sc.Keyword, steps.Format(sc.Pattern), nil); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", sc.Position, sc.Func, err)
		}
	}
	return reg.Seal(), nil
}

func collectSteps(fset *token.FileSet, file *ast.File, result *Result) error {
	for _, dec := range file.Decls {
		decl, ok := dec.(*ast.FuncDecl)
		if !ok || decl.Doc == nil {
			continue
		}
		for _, comment := range decl.Doc.List {
			marker, ok := markerLine(comment.Text)
			if !ok {
				continue
			}

			keyword, pattern, err := parseMarker(marker)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", fset.Position(comment.Pos()), decl.Name.Name, err)
			}

			result.Steps = append(result.Steps, StepComment{
				Keyword:  keyword,
				Pattern:  pattern,
				Func:     decl.Name.Name,
				Package:  file.Name.Name,
				Position: fset.Position(decl.Pos()).String(),
			})
		}
	}
	return nil
}

// markerLine strips the comment syntax and reports whether the line is a
// step marker.
func markerLine(text string) (string, bool) {
	rest, ok := strings.CutPrefix(text, "//")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	rest, ok = strings.CutPrefix(rest, Marker)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func parseMarker(marker string) (model.StepType, string, error) {
	word, rest, _ := strings.Cut(marker, " ")

	var keyword model.StepType
	switch word {
	case "given":
		keyword = model.StepContext
	case "when":
		keyword = model.StepAction
	case "then":
		keyword = model.StepOutcome
	case "any":
		keyword = model.StepUnknown
	default:
		return model.StepUnknown, "", fmt.Errorf("unknown step keyword %q: want given, when, then or any", word)
	}

	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '`' || rest[len(rest)-1] != '`' {
		return model.StepUnknown, "", fmt.Errorf("step pattern must be wrapped in backticks, got %q", rest)
	}
	pattern := rest[1 : len(rest)-1]
	if pattern == "" {
		return model.StepUnknown, "", fmt.Errorf("step pattern is empty")
	}

	return keyword, pattern, nil
}
