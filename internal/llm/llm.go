package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Chat roles used in transcripts sent to providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one message in a conversation transcript.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateInput captures the inputs needed to produce a tailored resume.
type GenerateInput struct {
	Identity       string
	ResumeText     string
	ProfileText    string
	JobDescription string
}

// Client abstracts LLM providers for resume generation and chat.
type Client interface {
	// GenerateResume returns a JSON object describing the tailored resume.
	GenerateResume(ctx context.Context, input GenerateInput) (json.RawMessage, error)
	// AnswerChat returns the assistant reply for the given transcript.
	AnswerChat(ctx context.Context, turns []ChatTurn) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is a stub implementation for unconfigured providers.
type PlaceholderClient struct{}

func (PlaceholderClient) GenerateResume(ctx context.Context, input GenerateInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}

func (PlaceholderClient) AnswerChat(ctx context.Context, turns []ChatTurn) (string, error) {
	_ = ctx
	_ = turns
	return "", ErrNotConfigured
}
