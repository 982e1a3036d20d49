package chat

import "fmt"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Transcript []Turn

const systemPromptTemplate = `You are a helpful assistant specialized in career assistance. Your goal is to provide clear,
actionable, and practical advice to help users present themselves at their best,
land interviews, and succeed in their career transitions.
Take the following information as reference for the candidate and opportunity.

--- Candidate Resume ---
%s

--- Professional Profile ---
%s

--- Job Description ---
%s
`

// NewTranscript seeds a conversation with the career assistant system
// prompt built from the session's documents and job description.
func NewTranscript(resumeText, profileText, jobDescription string) Transcript {
	return Transcript{{
		Role:    RoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, resumeText, profileText, jobDescription),
	}}
}

// Visible returns the transcript without system turns, the view shown
// to the user.
func (t Transcript) Visible() Transcript {
	out := make(Transcript, 0, len(t))
	for _, turn := range t {
		if turn.Role == RoleSystem {
			continue
		}
		out = append(out, turn)
	}
	return out
}
