package llm

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed prompts/resume_gen_v1.txt
	resumeGenPromptV1 string
)

// ResumeGenPromptV1 returns the system prompt used to generate tailored resume JSON.
func ResumeGenPromptV1() string {
	return resumeGenPromptV1
}

// BuildGenerateTurns assembles the conversation for a resume generation request.
func BuildGenerateTurns(input GenerateInput) []ChatTurn {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n\n", input.Identity)
	fmt.Fprintf(&b, "--- Candidate Resume ---\n%s\n\n", input.ResumeText)
	fmt.Fprintf(&b, "--- Professional Profile Export ---\n%s\n\n", input.ProfileText)
	fmt.Fprintf(&b, "--- Job Description ---\n%s\n", input.JobDescription)
	return []ChatTurn{
		{Role: RoleSystem, Content: ResumeGenPromptV1()},
		{Role: RoleUser, Content: b.String()},
	}
}

// BuildFixJSONTurns asks the provider to repair invalid JSON output.
func BuildFixJSONTurns(raw []byte) []ChatTurn {
	return []ChatTurn{
		{Role: RoleSystem, Content: "You repair malformed JSON. Return only the corrected JSON object, with no commentary."},
		{Role: RoleUser, Content: string(raw)},
	}
}
