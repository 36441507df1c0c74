package structdoc

import "fmt"

// SchemaError reports a structured-source tree whose shape does not fit the
// conventional scenario layout. Path addresses the offending node the way
// the document was written, e.g. "feature.scenarios[2].steps[0].table[1]".
// It is document-scoped; conversion of the offending document stops.
type SchemaError struct {
	URI    string
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.URI == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.URI, e.Path, e.Reason)
}
