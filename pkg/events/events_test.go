package events

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/tursu/pkg/model"
)

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "passed", OutcomePassed.String())
	require.Equal(t, "failed", OutcomeFailed.String())
	require.Equal(t, "skipped", OutcomeSkipped.String())
	require.Equal(t, "unknown", Outcome(99).String())
}

func TestSlogSink(t *testing.T) {
	newSink := func() (*SlogSink, *bytes.Buffer) {
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return NewSlogSink(log), &buf
	}

	t.Run("logs scenario lifecycle with attributes", func(t *testing.T) {
		sink, buf := newSink()

		sink.Emit(FeatureStarted{URI: "addition.feature", Name: "Addition"})
		sink.Emit(ScenarioStarted{Unit: "u1", Feature: "Addition", Name: "Add two numbers", Row: 0})
		sink.Emit(ScenarioFinished{Unit: "u1", Outcome: OutcomePassed})

		out := buf.String()
		require.Contains(t, out, "feature started")
		require.Contains(t, out, "uri=addition.feature")
		require.Contains(t, out, `name="Add two numbers"`)
		require.Contains(t, out, "outcome=passed")
	})

	t.Run("failures and match problems log at error", func(t *testing.T) {
		sink, buf := newSink()

		sink.Emit(ScenarioFinished{Unit: "u1", Outcome: OutcomeFailed, Err: "boom"})
		sink.Emit(StepUndefined{Unit: "u1", Text: "I frob", Location: model.Location{Line: 3, Column: 5}})
		sink.Emit(StepAmbiguous{Unit: "u1", Text: "I do a thing", Candidates: []string{"a", "b"}})

		out := buf.String()
		require.Contains(t, out, "level=ERROR")
		require.Contains(t, out, "scenario failed")
		require.Contains(t, out, "error=boom")
		require.Contains(t, out, "step undefined")
		require.Contains(t, out, "line=3")
		require.Contains(t, out, "step ambiguous")
	})

	t.Run("matched steps log at debug", func(t *testing.T) {
		sink, buf := newSink()

		sink.Emit(StepMatched{Unit: "u1", Text: "I add 1 and 2", Definition: `when format "I add {a:int} and {b:int}"`})
		require.Contains(t, buf.String(), "level=DEBUG")
	})

	t.Run("a nil logger falls back to the default", func(t *testing.T) {
		require.NotNil(t, NewSlogSink(nil).log)
	})
}
