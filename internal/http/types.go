package http

// ReflectRequest is the request body for POST /api/v1/reflect.
type ReflectRequest struct {
	Persona      string   `json:"persona"`
	Task         string   `json:"task"`
	Context      string   `json:"context,omitempty"`
	OutputFormat string   `json:"output_format,omitempty"`
	Criteria     []string `json:"criteria,omitempty"`
}

// ReflectResponse is the response body for POST /api/v1/reflect.
//
// Result is the revised text; Draft and Critique expose the first two
// pipeline stages so callers can inspect the full run.
type ReflectResponse struct {
	ID         string `json:"id"`
	Result     string `json:"result"`
	Draft      string `json:"draft"`
	Critique   string `json:"critique"`
	DurationMS int64  `json:"duration_ms"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts reports pipeline runs served since startup.
type StatusCounts struct {
	Runs     int64 `json:"runs"`
	Failures int64 `json:"failures"`
}
