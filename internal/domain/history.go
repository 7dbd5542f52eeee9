package domain

import "time"

// RunState is the turn controller state.
type RunState string

const (
	StateThinking      RunState = "thinking"
	StateActingPending RunState = "acting_pending"
	StateObserving     RunState = "observing"
	StateDone          RunState = "done"
	StateAborted       RunState = "aborted"
)

// AbortReason labels why a run ended without an output step.
type AbortReason string

const (
	AbortNone         AbortReason = ""
	AbortParseError   AbortReason = "parse_error"
	AbortUnknownTool  AbortReason = "unknown_tool"
	AbortMaxSteps     AbortReason = "max_steps"
	AbortBackendError AbortReason = "backend_error"
)

// Message is one conversation entry sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RunRecord captures one persisted agent run.
type RunRecord struct {
	ID          string      `json:"id"`
	Query       string      `json:"query"`
	Model       string      `json:"model"`
	State       RunState    `json:"state"`
	AbortReason AbortReason `json:"abort_reason,omitempty"`
	Output      string      `json:"output,omitempty"`
	Error       string      `json:"error,omitempty"`
	Turns       int         `json:"turns"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	Messages    []Message   `json:"messages,omitempty"`
}
