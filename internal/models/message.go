package models

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is one entry in a session. Messages are append-only.
type Message struct {
	ID                int64     `json:"id"`
	SessionID         int64     `json:"session_id"`
	Sender            Sender    `json:"sender"`
	Text              string    `json:"text"`
	EmotionalAnalysis *string   `json:"emotional_analysis"`
	CreatedAt         time.Time `json:"created_at"`
}
