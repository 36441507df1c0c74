package events

import "log/slog"

// SlogSink writes events to a structured logger. Matched steps log at debug,
// undefined and ambiguous steps at error, everything else at info.
type SlogSink struct {
	log *slog.Logger
}

// NewSlogSink wraps a logger. A nil logger falls back to slog.Default.
func NewSlogSink(log *slog.Logger) *SlogSink {
	if log == nil {
		log = slog.Default()
	}
	return &SlogSink{log: log}
}

func (s *SlogSink) Emit(e Event) {
	switch e := e.(type) {
	case FeatureStarted:
		s.log.Info("feature started", "uri", e.URI, "name", e.Name)
	case ScenarioStarted:
		s.log.Info("scenario started", "unit", e.Unit, "feature", e.Feature, "name", e.Name, "row", e.Row)
	case ScenarioFinished:
		if e.Outcome == OutcomeFailed {
			s.log.Error("scenario failed", "unit", e.Unit, "error", e.Err)
			return
		}
		s.log.Info("scenario finished", "unit", e.Unit, "outcome", e.Outcome.String())
	case StepMatched:
		s.log.Debug("step matched", "unit", e.Unit, "text", e.Text, "definition", e.Definition)
	case StepUndefined:
		s.log.Error("step undefined", "unit", e.Unit, "text", e.Text,
			"line", e.Location.Line, "column", e.Location.Column)
	case StepAmbiguous:
		s.log.Error("step ambiguous", "unit", e.Unit, "text", e.Text, "candidates", e.Candidates)
	}
}
