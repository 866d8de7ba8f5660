package domain

import (
	"encoding/json"
	"time"
)

// Status classifies how a tool call resolved. Every status still produces a
// text result for the caller.
type Status string

const (
	StatusOK           Status = "ok"
	StatusEmpty        Status = "empty"         // valid response with nothing to report
	StatusInvalidInput Status = "invalid_input" // rejected before any network call
	StatusUnavailable  Status = "unavailable"   // upstream fetch failed
	StatusMalformed    Status = "malformed"     // upstream document missing expected keys
)

// Report is the text result of an operation together with its status.
type Report struct {
	Text   string
	Status Status
}

// Invocation is the audit record of a single tool call.
type Invocation struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Status    Status          `json:"status"`
	Duration  time.Duration   `json:"duration_ns"`
	InvokedAt time.Time       `json:"invoked_at"`
}

// NewInvocation stamps an audit record with the package clock.
func NewInvocation(tool string, args json.RawMessage, status Status, duration time.Duration) Invocation {
	return Invocation{
		Tool:      tool,
		Arguments: args,
		Status:    status,
		Duration:  duration,
		InvokedAt: clock.Now().UTC(),
	}
}
