// Package models defines the request, response and evaluation records
// exchanged over the trivia queues. All types are plain JSON-serializable
// values; the queue wire format is their JSON encoding.
package models

import (
	"time"

	"github.com/google/uuid"
)

// TriviaRequest is a question submitted to the agent.
type TriviaRequest struct {
	Question string `json:"question"`
}

// TriviaResponse is the agent's answer to a TriviaRequest.
type TriviaResponse struct {
	Answer string `json:"answer" jsonschema:"description=The answer to the trivia question, kept short"`
}

// AgentRequest is the queue envelope for a regular question. ID is the
// correlation identifier the reply must carry back; ReplyTo names the
// dedicated reply queue, empty for fire-and-forget submissions.
type AgentRequest struct {
	ID        uuid.UUID     `json:"id"`
	Request   TriviaRequest `json:"request"`
	ReplyTo   string        `json:"reply_to,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewAgentRequest builds an envelope with a fresh identifier.
func NewAgentRequest(req TriviaRequest) AgentRequest {
	return AgentRequest{
		ID:        uuid.New(),
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}
}

// AgentResult is the worker's reply to an AgentRequest. Exactly one of
// Output or Error is meaningful: a non-empty Error reports a failed run.
type AgentResult struct {
	RequestID  uuid.UUID       `json:"request_id"`
	Output     *TriviaResponse `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	LatencyMS  int64           `json:"latency_ms"`
	BundlePath string          `json:"bundle_path,omitempty"`
}

// Sample pairs a question with the expected answer substring for evaluation.
type Sample struct {
	ID       string        `json:"id"`
	Input    TriviaRequest `json:"input"`
	Expected string        `json:"expected"`
}

// Experiment groups evaluation runs for reporting.
type Experiment struct {
	Name         string `json:"name"`
	Owner        string `json:"owner,omitempty"`
	Description  string `json:"description,omitempty"`
	OverridesTag string `json:"overrides_tag,omitempty"`
}

// EvalRequest is the queue envelope for an evaluation case. The sample ID is
// the correlation identifier for the result.
type EvalRequest struct {
	Sample     Sample     `json:"sample"`
	Experiment Experiment `json:"experiment"`
	ReplyTo    string     `json:"reply_to,omitempty"`
}

// Score is the graded outcome of one evaluation.
type Score struct {
	Value  float64 `json:"value"`
	Passed bool    `json:"passed"`
	Reason string  `json:"reason"`
}

// EvalResult is the evaluator's reply to an EvalRequest.
type EvalResult struct {
	SampleID   string `json:"sample_id"`
	Score      Score  `json:"score"`
	Error      string `json:"error,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
	BundlePath string `json:"bundle_path,omitempty"`
}
