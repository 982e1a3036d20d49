package session

import (
	"encoding/json"

	"tailor-backend/internal/chat"
)

// State is the full workflow state of one session. It is owned by a
// single session and mutated only under the session's lock.
type State struct {
	SessionID      string
	Stage          Stage
	UserID         string
	UserExists     bool
	ResumeText     string
	ProfileText    string
	JobID          int64
	JobDescription string
	Result         json.RawMessage
	Transcript     chat.Transcript

	// identity check cache, one lookup per typed value
	checkedIdentity string
	checkedCount    int
	identityChecked bool
}

// Reset returns the state to the start stage, keeping only the session
// identifier.
func (s *State) Reset() {
	*s = State{SessionID: s.SessionID}
}
