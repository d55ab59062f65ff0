package completion

import (
	"fmt"
	"strings"
)

// Kind selects what the upstream model is asked to produce.
type Kind string

const (
	KindReply   Kind = "reply"
	KindSummary Kind = "summary"
)

// ParseKind maps the request "type" field onto a Kind. An empty value means reply.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindReply:
		return KindReply, nil
	case KindSummary:
		return KindSummary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// ChatMessage is one entry of an OpenAI-compatible messages array.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const replyPrompt = `
Act as a compassionate mental health assistant. Given a user's message, provide:
- A thoughtful response
- A brief emotional analysis of the user's state

Respond in this JSON format:
{
  "response": "<your reply>",
  "emotional_analysis": "<your brief analysis>"
}
`

const summaryPromptHeader = `
You are a compassionate mental health assistant.
Analyze the following conversation history and summarize the user's emotional state and behavior in 3-4 sentences.
Use clear, non-technical, and supportive language.
Here is the message history:
`

// BuildPrompt returns the system instruction for kind. For summaries the
// transcript is embedded in the instruction itself.
func BuildPrompt(kind Kind, text string) string {
	if kind == KindSummary {
		return summaryPromptHeader + text + "\n"
	}
	return replyPrompt
}

// BuildMessages returns the messages array sent upstream: the system prompt,
// followed by the user's text verbatim for replies.
func BuildMessages(kind Kind, text string) []ChatMessage {
	messages := []ChatMessage{{Role: RoleSystem, Content: BuildPrompt(kind, text)}}
	if kind == KindReply {
		messages = append(messages, ChatMessage{Role: RoleUser, Content: text})
	}
	return messages
}
