// Package events defines the lifecycle records the engine emits while
// materializing and running scenarios, and the sink interface reporters
// implement. The engine only emits; formatting and transport stay outside.
package events

//go:generate mockgen -source=events.go -destination=events_mock.go -package=events

import (
	"github.com/denizgursoy/tursu/pkg/model"
)

// Outcome is the terminal state of a scenario.
type Outcome int

const (
	OutcomePassed Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Event is one lifecycle record. The concrete types in this package are the
// complete set.
type Event interface {
	event()
}

// FeatureStarted is emitted before the first scenario of a feature runs.
type FeatureStarted struct {
	URI  string
	Name string
}

// ScenarioStarted is emitted when a unit begins. Row is the 1-based examples
// row for expanded outlines and 0 for plain scenarios.
type ScenarioStarted struct {
	Unit    string
	Feature string
	Name    string
	Row     int
}

// ScenarioFinished is emitted when a unit ends. Err carries the failure
// message when Outcome is OutcomeFailed.
type ScenarioFinished struct {
	Unit    string
	Outcome Outcome
	Err     string
}

// StepMatched is emitted at materialization time for every step resolved to
// exactly one definition. Locs holds the capture start/end byte offsets.
type StepMatched struct {
	Unit       string
	Text       string
	Definition string
	Locs       []int
}

// StepUndefined is emitted for a step no definition matches.
type StepUndefined struct {
	Unit     string
	Text     string
	Location model.Location
}

// StepAmbiguous is emitted for a step matched by several definitions.
type StepAmbiguous struct {
	Unit       string
	Text       string
	Candidates []string
}

func (FeatureStarted) event()   {}
func (ScenarioStarted) event()  {}
func (ScenarioFinished) event() {}
func (StepMatched) event()      {}
func (StepUndefined) event()    {}
func (StepAmbiguous) event()    {}

// Sink consumes lifecycle events. Emit must be safe for concurrent use; the
// host may run units in parallel.
type Sink interface {
	Emit(e Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(Event) {}
