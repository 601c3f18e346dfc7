package generators

import "fmt"

// UpstreamError wraps a search, scrape or LLM provider failure.
// The stage aborts; artifacts from earlier stages are kept.
type UpstreamError struct {
	Stage string
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("stage %s: upstream unavailable: %v", e.Stage, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// MissingDependencyError indicates a hard-required upstream artifact was
// neither supplied nor auto-loadable. Raised before any LLM call is made.
type MissingDependencyError struct {
	Stage      string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("stage %s: required %s missing: not supplied and none found in storage", e.Stage, e.Dependency)
}

// SchemaParseError indicates the LLM output did not conform to the stage's
// schema even after the corrective retry.
type SchemaParseError struct {
	Stage string
	Cause error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("stage %s: response failed schema validation after retry: %v", e.Stage, e.Cause)
}

func (e *SchemaParseError) Unwrap() error {
	return e.Cause
}

// RequestError indicates a malformed request, rejected before any stage runs.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}
