package conversation

import (
	"context"
	"errors"
	"strings"

	"mindhaven/internal/completion"
	"mindhaven/internal/models"
)

// Exchange is the result of one chat turn. UserMessage is set whenever the
// user's text was stored, even if the reply failed.
type Exchange struct {
	UserMessage      *models.Message `json:"user_message"`
	AssistantMessage *models.Message `json:"assistant_message"`
}

// SendMessage stores the user's text, asks the completer for a reply and
// stores the reply with its emotional analysis. If the completion fails the
// user message stays stored and is returned alongside the error.
func (s *Service) SendMessage(ctx context.Context, ownerID, sessionID int64, text string) (*Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if s.completer == nil {
		return nil, errors.New("completer not configured")
	}
	userMsg, err := s.AppendMessage(ctx, ownerID, sessionID, models.SenderUser, text, nil)
	if err != nil {
		return nil, err
	}
	exchange := &Exchange{UserMessage: userMsg}

	res, err := s.completer.Complete(ctx, completion.Request{Kind: completion.KindReply, Text: text})
	if err != nil {
		s.log.Warn("reply failed after user message stored", "session_id", sessionID, "message_id", userMsg.ID, "error", err)
		return exchange, err
	}
	analysis := res.EmotionalAnalysis
	assistantMsg, err := s.AppendMessage(ctx, ownerID, sessionID, models.SenderAssistant, res.Response, &analysis)
	if err != nil {
		return exchange, err
	}
	exchange.AssistantMessage = assistantMsg
	return exchange, nil
}

// Summarize asks the completer for a summary of the session. A session with
// no messages yields an empty summary without contacting the upstream.
func (s *Service) Summarize(ctx context.Context, ownerID, sessionID int64) (*completion.Result, error) {
	messages, err := s.ListMessages(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return &completion.Result{Kind: completion.KindSummary}, nil
	}
	if s.completer == nil {
		return nil, errors.New("completer not configured")
	}
	return s.completer.Complete(ctx, completion.Request{Kind: completion.KindSummary, Text: Transcript(messages)})
}

// Transcript renders messages as "User: ..." and "AI: ..." lines.
func Transcript(messages []*models.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		prefix := "User: "
		if m.Sender == models.SenderAssistant {
			prefix = "AI: "
		}
		lines = append(lines, prefix+m.Text)
	}
	return strings.Join(lines, "\n")
}
