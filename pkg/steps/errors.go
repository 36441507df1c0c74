package steps

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/denizgursoy/tursu/pkg/model"
)

// ErrSealed is returned by Register once the registry has been sealed.
var ErrSealed = errors.New("step registry is sealed")

// ErrNotSealed is returned by Match before the registry has been sealed.
var ErrNotSealed = errors.New("step registry is not sealed yet")

// UndefinedStepError reports a step no registered definition matches.
// It is fatal for the scenario that contains the step, not for the run.
type UndefinedStepError struct {
	Step *model.Step
}

func (e *UndefinedStepError) Error() string {
	return fmt.Sprintf("no step definition matches %s %q at %d:%d",
		keywordLabel(e.Step.Type), e.Step.Text, e.Step.Location.Line, e.Step.Location.Column)
}

// AmbiguousStepError reports a step matched by two or more definitions.
// Every candidate is listed; the matcher never silently picks one.
type AmbiguousStepError struct {
	Step       *model.Step
	Candidates []*Definition
}

func (e *AmbiguousStepError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "step %q at %d:%d matches %d definitions:",
		e.Step.Text, e.Step.Location.Line, e.Step.Location.Column, len(e.Candidates))
	for _, d := range e.Candidates {
		sb.WriteString("\n\t")
		sb.WriteString(d.String())
	}
	return sb.String()
}

// ArgumentConversionError reports a captured argument that could not be
// converted to the handler's declared parameter type.
type ArgumentConversionError struct {
	Argument string
	Raw      string
	Target   reflect.Type
	Err      error
}

func (e *ArgumentConversionError) Error() string {
	return fmt.Sprintf("cannot convert argument %s=%q to %s: %v", e.Argument, e.Raw, e.Target, e.Err)
}

func (e *ArgumentConversionError) Unwrap() error { return e.Err }

// keywordLabel renders a keyword constraint the way callers registered it.
func keywordLabel(t model.StepType) string {
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
