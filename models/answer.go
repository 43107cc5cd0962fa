package models

// AnswerResult is the unit returned to the caller. It is immutable once
// built and has no further lifecycle.
//
// Invariant: every entry in Citations corresponds to a source present in
// the RetrievalResult the synthesizer saw for this request.
type AnswerResult struct {
	RequestID string `json:"request_id"`

	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`

	// Confidence is advisory, in [0,1]. It labels the answer, it never
	// gates whether one is returned.
	Confidence float64       `json:"confidence"`
	Category   AgentCategory `json:"category"`

	// Degraded marks results produced after a stage failure (retrieval
	// unavailable, generation retries exhausted). Note carries the
	// user-facing explanation.
	Degraded bool   `json:"degraded,omitempty"`
	Note     string `json:"note,omitempty"`

	LatencyMs int `json:"latency_ms"`
}
