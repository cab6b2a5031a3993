package types

// GenerateRequest is the KoboldAI generation payload. Every sampling field is
// optional; nil means "use the server default".
type GenerateRequest struct {
	// Prompt text to continue. CRLF line endings are normalized to LF.
	// example: You are a helpful assistant.\nUser: Hello\nAssistant:
	Prompt string `json:"prompt" example:"Hello"`
	// Number of tokens to generate.
	// example: 80
	MaxLength *int `json:"max_length,omitempty" example:"80"`
	// Total context window passed to the runner.
	// example: 1024
	MaxContextLength *int `json:"max_context_length,omitempty" example:"1024"`
	// Sampling temperature.
	// example: 0.8
	Temperature *float64 `json:"temperature,omitempty" example:"0.8"`
	// Repetition penalty.
	// example: 1.1
	RepPen *float64 `json:"rep_pen,omitempty" example:"1.1"`
	// Number of recent tokens the repetition penalty looks back over.
	// example: 1024
	RepPenRange *int `json:"rep_pen_range,omitempty" example:"1024"`
	// Top-K sampling.
	// example: 40
	TopK *int `json:"top_k,omitempty" example:"40"`
	// Nucleus sampling probability. Values <= 0 are clamped to 0.001.
	// example: 0.9
	TopP *float64 `json:"top_p,omitempty" example:"0.9"`
	// Tail free sampling.
	// example: 1.0
	TFS *float64 `json:"tfs,omitempty" example:"1.0"`
	// Locally typical sampling.
	// example: 1.0
	Typical *float64 `json:"typical,omitempty" example:"1.0"`
}

// GenerateResult is one generated continuation.
type GenerateResult struct {
	// Generated text with the echoed prompt removed.
	Text string `json:"text" example:" Hi there!"`
}

// GenerateResponse is returned by POST /api/v1/generate/.
type GenerateResponse struct {
	Results []GenerateResult `json:"results"`
}

// ErrorDetail carries the message and machine readable type of a failure.
type ErrorDetail struct {
	// example: Server is busy; please try again later.
	Msg string `json:"msg" example:"Server is busy; please try again later."`
	// example: service_unavailable
	Type string `json:"type" example:"service_unavailable"`
}

// ErrorResponse is the KoboldAI error envelope.
type ErrorResponse struct {
	Detail ErrorDetail `json:"detail"`
}

// ResultResponse wraps a single string result (model name, version).
type ResultResponse struct {
	// example: Pygmalion/pygmalion-6b
	Result string `json:"result" example:"Pygmalion/pygmalion-6b"`
}

// IntValueResponse wraps an integer config value.
type IntValueResponse struct {
	// example: 1024
	Value int `json:"value" example:"1024"`
}

// StringValueResponse wraps a string config value.
type StringValueResponse struct {
	Value string `json:"value"`
}

// ValuesResponse wraps a list of config values.
type ValuesResponse struct {
	Values []string `json:"values"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Whether a generation is currently running.
	Busy bool `json:"busy"`
	// Runner variant in use.
	// example: llama-cli
	Variant string `json:"variant" example:"llama-cli"`
	// Announced model name.
	Model string `json:"model"`
	// Last generation error observed, if any.
	LastError string `json:"last_error,omitempty"`
	// Total generations completed successfully.
	GenerationsTotal uint64 `json:"generations_total"`
	// Total generations that failed or timed out.
	FailuresTotal uint64 `json:"failures_total"`
	// Total requests rejected because the server was busy.
	RejectionsTotal uint64 `json:"rejections_total"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
