// Package model defines the chat domain types shared across packages.
package model

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Session is a named, ordered conversation thread.
type Session struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one entry in a session's ledger: user input, assistant
// reply, or a session-scoped system instruction.
//
// TurnIndex establishes conversational order within a session. A user
// message at index t is answered by an assistant message at t+1; system
// instructions sit at SystemTurnIndex so they always sort first.
type Message struct {
	ID        int64             `json:"id"`
	SessionID int64             `json:"session_id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	ReplyTo   *int64            `json:"reply_to,omitempty"`
	TurnIndex int               `json:"turn_index"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SystemTurnIndex is the reserved turn index for system instructions.
// It is below every real turn index, so ordering by (turn_index, id)
// places system rows ahead of the conversation regardless of when they
// were inserted.
const SystemTurnIndex = -1
