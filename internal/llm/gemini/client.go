package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tailor-backend/internal/llm"
)

// Client implements llm.Client using Google Gemini.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient constructs a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-1.5-flash"
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{client: cl, model: model}, nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GenerateResume requests a tailored resume as a JSON object.
func (c *Client) GenerateResume(ctx context.Context, input llm.GenerateInput) (json.RawMessage, error) {
	turns := llm.BuildGenerateTurns(input)
	m := c.newModel(turns)
	m.ResponseMIMEType = "application/json"

	raw, err := c.generate(ctx, m, lastUserContent(turns))
	if err != nil {
		return nil, err
	}
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw), nil
	}

	fix := llm.BuildFixJSONTurns([]byte(raw))
	m = c.newModel(fix)
	m.ResponseMIMEType = "application/json"
	raw, err = c.generate(ctx, m, lastUserContent(fix))
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("invalid JSON from Gemini")
	}
	return json.RawMessage(raw), nil
}

// AnswerChat returns the assistant reply for a conversation transcript.
func (c *Client) AnswerChat(ctx context.Context, turns []llm.ChatTurn) (string, error) {
	if len(turns) == 0 {
		return "", fmt.Errorf("empty transcript")
	}
	m := c.newModel(turns)

	history, last := splitHistory(turns)
	session := m.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}
	answer := strings.TrimSpace(collectText(resp))
	if answer == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return answer, nil
}

// newModel builds a GenerativeModel with the transcript's system turns
// folded into the system instruction.
func (c *Client) newModel(turns []llm.ChatTurn) *genai.GenerativeModel {
	m := c.client.GenerativeModel(c.model)
	var system []string
	for _, t := range turns {
		if t.Role == llm.RoleSystem {
			system = append(system, t.Content)
		}
	}
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}
	return m
}

func (c *Client) generate(ctx context.Context, m *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(collectText(resp))
	if text == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return text, nil
}

// splitHistory converts all but the final user turn into genai chat
// history. System turns are excluded; they live in SystemInstruction.
func splitHistory(turns []llm.ChatTurn) ([]*genai.Content, string) {
	last := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == llm.RoleUser {
			last = turns[i].Content
			turns = turns[:i]
			break
		}
	}
	history := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == llm.RoleAssistant {
			role = "model"
		} else if t.Role == llm.RoleSystem {
			continue
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Content)},
		})
	}
	return history, last
}

func lastUserContent(turns []llm.ChatTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == llm.RoleUser {
			return turns[i].Content
		}
	}
	return ""
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

var _ llm.Client = (*Client)(nil)
