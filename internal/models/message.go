package models

// Message roles in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is a single chat turn. The sequence is append-only
// within a session and capped at the most recent entries for persistence.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CapHistory returns the last max messages, preserving order. The input is
// never mutated.
func CapHistory(history []ConversationMessage, max int) []ConversationMessage {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}
