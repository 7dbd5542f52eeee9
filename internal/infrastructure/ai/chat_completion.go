package ai

import (
	"strings"

	"github.com/doeshing/shai-agent/internal/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	TopP           float64         `json:"top_p,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c chatCompletionResponse) FirstMessage() (string, bool) {
	if len(c.Choices) == 0 {
		return "", false
	}
	return strings.TrimSpace(c.Choices[0].Message.Content), true
}

func toChatMessages(messages []domain.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, chatMessage{Role: strings.ToLower(msg.Role), Content: msg.Content})
	}
	return out
}
