// Package agent wraps the hosted agent orchestration platform. The platform
// owns conversation threads, tool-call dispatch, and model invocation; this
// package only issues requests to it.
package agent

import (
	"context"
	"time"
)

// ConversationAgent is the port to the hosted agent platform. Satisfied by
// the Azure adapter in production and by a mock in tests.
type ConversationAgent interface {
	// CreateAgent registers an agent definition and returns its ID.
	CreateAgent(ctx context.Context, def Definition) (string, error)

	// CreateThread starts a new conversation thread and returns its ID.
	CreateThread(ctx context.Context) (string, error)

	// Invoke posts prompt as a user message on the thread and processes a
	// run with the given agent until it reaches a terminal state,
	// dispatching the agent's registered function tools along the way.
	Invoke(ctx context.Context, threadID, agentID, prompt string) (*RunResult, error)

	// ListMessages returns the thread's messages oldest-first.
	ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)
}

// Definition describes an agent to create on the platform.
type Definition struct {
	Model        string
	Name         string
	Description  string
	Instructions string
	Toolset      *ToolSet // nil for tool-less agents
}

// RunStatus is the platform-reported state of a run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether the run has finished, successfully or not.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// RunResult is the outcome of a processed run.
type RunResult struct {
	ID        string
	Status    RunStatus
	LastError string
}

// ThreadMessage is one message of a conversation thread.
type ThreadMessage struct {
	Role      string // "user" or "assistant"
	Content   string
	AgentID   string // set on assistant messages
	CreatedAt time.Time
}
