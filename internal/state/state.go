// Package state holds the per-run conversation record passed between workflow nodes.
// It is created fresh for each run and discarded when the run ends.
package state

import (
	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

// Label returns the display name used in reports.
func (r Role) Label() string {
	switch r {
	case RoleHuman:
		return "Human"
	case RoleAI:
		return "AI"
	default:
		return string(r)
	}
}

// Message is one entry in the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Human builds a human-role message.
func Human(content string) Message { return Message{Role: RoleHuman, Content: content} }

// AI builds an ai-role message.
func AI(content string) Message { return Message{Role: RoleAI, Content: content} }

// TestInfo is mock test metadata injected by the init step.
type TestInfo struct {
	Name string `json:"name"`
	Log  string `json:"log"`
}

// FileInfo is mock file metadata injected by the init step.
type FileInfo struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// AgentState is the conversation state owned by a single workflow run.
type AgentState struct {
	RunID    string
	Messages []Message // oldest first, append-only
	Output   string
	Test     *TestInfo
	File     *FileInfo
}

// New creates a state with a fresh run id and the given initial messages.
func New(messages ...Message) *AgentState {
	return &AgentState{
		RunID:    uuid.NewString(),
		Messages: append([]Message(nil), messages...),
	}
}

// AddMessage appends m to the history.
func (s *AgentState) AddMessage(m Message) {
	s.Messages = append(s.Messages, m)
}

// History returns a copy of the messages so callers cannot reorder the record.
func (s *AgentState) History() []Message {
	return append([]Message(nil), s.Messages...)
}
