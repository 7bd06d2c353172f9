package domain

import "time"

// Message roles in a conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultHistoryCapacity bounds a session transcript; the oldest turn is
// evicted when a new one would exceed it.
const DefaultHistoryCapacity = 7

// AppendBounded appends msg to history, evicting the oldest entries so the
// result never exceeds capacity.
func AppendBounded(history []Message, msg Message, capacity int) []Message {
	history = append(history, msg)
	if capacity > 0 && len(history) > capacity {
		history = history[len(history)-capacity:]
	}
	return history
}
