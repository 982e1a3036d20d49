package chat

import (
	"strings"
	"testing"
)

func TestNewTranscriptSeedsSystemPrompt(t *testing.T) {
	transcript := NewTranscript("my resume", "my profile", "backend role")
	if len(transcript) != 1 {
		t.Fatalf("expected 1 seed turn, got %d", len(transcript))
	}
	seed := transcript[0]
	if seed.Role != RoleSystem {
		t.Fatalf("expected system role, got %q", seed.Role)
	}
	for _, want := range []string{"my resume", "my profile", "backend role"} {
		if !strings.Contains(seed.Content, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
}

func TestVisibleFiltersSystemTurns(t *testing.T) {
	transcript := Transcript{
		{Role: RoleSystem, Content: "context"},
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "answer"},
	}
	visible := transcript.Visible()
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible turns, got %d", len(visible))
	}
	if visible[0].Role != RoleUser || visible[1].Role != RoleAssistant {
		t.Fatalf("unexpected visible order: %+v", visible)
	}
}
