package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, carried through context for the lifetime of a request
// or background task.
const (
	FieldRequestID = "request_id"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldProfileID = "profile_id"
	FieldMatchKey  = "match_key"
	FieldJobKey    = "job_key"
)

// Metric fields, attached per log line through the Entry API.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
	FieldAttempt    = "attempt"
)
