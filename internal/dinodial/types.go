package dinodial

import "encoding/json"

// envelope is the {status, data} wrapper every proxy endpoint responds with.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Error   string          `json:"error"`
}

// CallRequest describes an outbound voice call.
type CallRequest struct {
	Prompt         string `json:"prompt"`
	EvaluationTool any    `json:"evaluation_tool"`
	VADEngine      string `json:"vad_engine"`
}

// CallHandle identifies a call accepted by the provider.
type CallHandle struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// CallDetail is the provider's view of a finished (or in-flight) call.
// EvaluationResult is the structured outcome payload; older proxy versions
// nest it under call_details.callOutcomesData instead.
type CallDetail struct {
	ID               int64           `json:"id"`
	Status           string          `json:"status"`
	Duration         int             `json:"duration"`
	RecordingURL     string          `json:"recording_url"`
	PhoneNumber      string          `json:"phone_number"`
	EvaluationResult json.RawMessage `json:"evaluation_result"`
	CallDetails      json.RawMessage `json:"call_details"`
}

// Recording carries the recording location for a call.
type Recording struct {
	CallID       int64  `json:"call_id"`
	RecordingURL string `json:"recording_url"`
}

// CallSummary is one row of the provider's call list.
type CallSummary struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Status      string `json:"status"`
	Duration    int    `json:"duration"`
}

type tokenData struct {
	Token string `json:"token"`
}
