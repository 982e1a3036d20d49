package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"tailor-backend/internal/chat"
	"tailor-backend/internal/extract"
	"tailor-backend/internal/jobs"
	"tailor-backend/internal/llm"
	"tailor-backend/internal/render"
	"tailor-backend/internal/shared/metrics"
	"tailor-backend/internal/shared/storage/object"
	"tailor-backend/internal/shared/telemetry"
	"tailor-backend/internal/users"
)

// Machine drives a session's state through the tailoring workflow.
// All trigger methods enforce the transition table: a trigger fired in
// the wrong stage returns InvalidTriggerError and leaves the state and
// all collaborators untouched.
type Machine struct {
	Users    users.Repo
	Jobs     jobs.Repo
	ChatRepo chat.Repo
	LLM      llm.Client
	Renderer *render.Renderer
	Store    object.ObjectStore
}

// Upload carries one uploaded document into the profile creation path.
type Upload struct {
	Data     []byte
	MimeType string
	FileName string
}

func (m *Machine) guard(st *State, trigger string, allowed Stage) error {
	if st.Stage != allowed {
		return &InvalidTriggerError{Trigger: trigger, Stage: st.Stage}
	}
	return nil
}

// ResolveIdentity records the typed identity and reports whether it is
// already known. The existence lookup is cached per typed value, so
// re-submitting the same identity does not hit the store again.
func (m *Machine) ResolveIdentity(ctx context.Context, st *State, identity string) (bool, error) {
	if err := m.guard(st, "resolve_identity", StageStart); err != nil {
		return false, err
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return false, &ValidationError{Msg: "identity is required"}
	}

	if !st.identityChecked || st.checkedIdentity != identity {
		count, err := m.Users.Exists(ctx, identity)
		if err != nil {
			return false, &PersistenceError{Op: "check user exists", Err: err}
		}
		st.checkedIdentity = identity
		st.checkedCount = count
		st.identityChecked = true
	}

	st.UserID = identity
	st.UserExists = st.checkedCount > 0
	return st.UserExists, nil
}

// ConfirmExistingUser loads the stored documents for a resolved,
// existing identity and moves the session to the job description stage.
func (m *Machine) ConfirmExistingUser(ctx context.Context, st *State) error {
	if err := m.guard(st, "confirm_user", StageStart); err != nil {
		return err
	}
	if st.UserID == "" {
		return &ValidationError{Msg: "identity must be resolved first"}
	}
	if !st.UserExists {
		return &ValidationError{Msg: "identity is not a known user"}
	}

	user, err := m.Users.GetByID(ctx, st.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return &ValidationError{Msg: "identity is not a known user"}
		}
		return &PersistenceError{Op: "load user", Err: err}
	}

	st.ResumeText = user.ResumeText
	st.ProfileText = user.ProfileText
	m.transition(st, StageWaitingJob)
	return nil
}

// CreateProfile extracts both uploaded documents, persists the new
// user, and moves the session to the job description stage. Extraction
// failures are validation errors; nothing is persisted until both
// documents yield text.
func (m *Machine) CreateProfile(ctx context.Context, st *State, resume, profile Upload) error {
	if err := m.guard(st, "create_profile", StageStart); err != nil {
		return err
	}
	if st.UserID == "" {
		return &ValidationError{Msg: "identity must be resolved first"}
	}
	if st.UserExists {
		return &ValidationError{Msg: "user already exists, confirm instead"}
	}

	resumeText, err := extract.TextFromBytes(ctx, resume.Data, resume.MimeType, resume.FileName)
	if err != nil {
		return &ValidationError{Msg: "resume document: " + err.Error()}
	}
	profileText, err := extract.TextFromBytes(ctx, profile.Data, profile.MimeType, profile.FileName)
	if err != nil {
		return &ValidationError{Msg: "profile document: " + err.Error()}
	}

	err = m.Users.Create(ctx, users.User{
		ID:          st.UserID,
		ResumeText:  resumeText,
		ProfileText: profileText,
	})
	if err != nil {
		return &PersistenceError{Op: "create user", Err: err}
	}

	m.archiveUpload(ctx, st.UserID, resume)
	m.archiveUpload(ctx, st.UserID, profile)

	st.ResumeText = resumeText
	st.ProfileText = profileText
	st.UserExists = true
	st.checkedCount = 1
	m.transition(st, StageWaitingJob)
	return nil
}

// archiveUpload keeps the raw uploaded document next to the extracted
// text, under the user's storage namespace. The workflow only depends
// on the extracted text, so an archive failure is logged, not raised.
func (m *Machine) archiveUpload(ctx context.Context, userID string, up Upload) {
	if m.Store == nil {
		return
	}
	key, size, mimeType, err := m.Store.Save(ctx, userID, up.FileName, bytes.NewReader(up.Data))
	if err != nil {
		telemetry.Error("profile.archive", map[string]any{
			"user_id": userID,
			"file":    up.FileName,
			"error":   err.Error(),
		})
		return
	}
	telemetry.Info("profile.archive", map[string]any{
		"user_id":     userID,
		"storage_key": key,
		"size_bytes":  size,
		"mime_type":   mimeType,
	})
}

// ListJobs returns the saved jobs for the session identity.
func (m *Machine) ListJobs(ctx context.Context, st *State) ([]jobs.Summary, error) {
	if err := m.guard(st, "list_jobs", StageWaitingJob); err != nil {
		return nil, err
	}
	summaries, err := m.Jobs.ListByUser(ctx, st.UserID)
	if err != nil {
		return nil, &PersistenceError{Op: "list jobs", Err: err}
	}
	return summaries, nil
}

// CreateJob saves a pasted job description and moves the session to
// the processing stage.
func (m *Machine) CreateJob(ctx context.Context, st *State, description string) (int64, error) {
	if err := m.guard(st, "create_job", StageWaitingJob); err != nil {
		return 0, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, &ValidationError{Msg: "job description is required"}
	}

	jobID, err := m.Jobs.Create(ctx, st.UserID, description)
	if err != nil {
		return 0, &PersistenceError{Op: "create job", Err: err}
	}

	st.JobID = jobID
	st.JobDescription = description
	m.transition(st, StageProcessing)
	return jobID, nil
}

// SelectJob picks a previously saved job and moves the session to the
// processing stage.
func (m *Machine) SelectJob(ctx context.Context, st *State, jobID int64) error {
	if err := m.guard(st, "select_job", StageWaitingJob); err != nil {
		return err
	}
	if jobID <= 0 {
		return &ValidationError{Msg: "job id is required"}
	}

	job, err := m.Jobs.GetByID(ctx, st.UserID, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return &ValidationError{Msg: "job not found for this user"}
		}
		return &PersistenceError{Op: "load job", Err: err}
	}

	st.JobID = job.ID
	st.JobDescription = job.Description
	m.transition(st, StageProcessing)
	return nil
}

// Process runs the full tailoring pipeline: generate, persist the
// result, render the document. The three steps are all or nothing; any
// failure reverts the session to the job description stage with the
// selected job kept, so the user can retry without re-entering it.
func (m *Machine) Process(ctx context.Context, st *State) error {
	if err := m.guard(st, "process", StageProcessing); err != nil {
		return err
	}

	metrics.IncPipelineStarted()
	started := time.Now()

	result, err := m.LLM.GenerateResume(ctx, llm.GenerateInput{
		Identity:       st.UserID,
		ResumeText:     st.ResumeText,
		ProfileText:    st.ProfileText,
		JobDescription: st.JobDescription,
	})
	if err != nil {
		m.revert(st, "generate", err)
		return &GenerationError{Err: err}
	}

	if err := m.Jobs.SaveResult(ctx, st.UserID, st.JobID, result); err != nil {
		m.revert(st, "persist result", err)
		return &PersistenceError{Op: "save generated result", Err: err}
	}

	if _, err := m.Renderer.Render(ctx, st.UserID, st.JobID, result); err != nil {
		m.revert(st, "render", err)
		return &RenderingError{Err: err}
	}

	st.Result = result
	m.transition(st, StageExploration)
	metrics.IncPipelineCompleted()
	metrics.ObservePipelineDurationMs(float64(time.Since(started).Milliseconds()))
	return nil
}

// Chat runs one chat round-trip. The transcript is seeded from the
// stored history, or from the session documents on first contact. The
// user and assistant turns are committed to the session only after the
// updated transcript has been persisted.
func (m *Machine) Chat(ctx context.Context, st *State, message string) (string, error) {
	if err := m.guard(st, "chat", StageExploration); err != nil {
		return "", err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", &ValidationError{Msg: "message is required"}
	}

	transcript := st.Transcript
	if len(transcript) == 0 {
		stored, err := m.ChatRepo.Get(ctx, st.UserID, st.JobID)
		switch {
		case err == nil:
			transcript = stored
		case errors.Is(err, chat.ErrNotFound):
			transcript = chat.NewTranscript(st.ResumeText, st.ProfileText, st.JobDescription)
		default:
			return "", &PersistenceError{Op: "load chat history", Err: err}
		}
	}

	candidate := make(chat.Transcript, len(transcript), len(transcript)+2)
	copy(candidate, transcript)
	candidate = append(candidate, chat.Turn{Role: chat.RoleUser, Content: message})

	answer, err := m.LLM.AnswerChat(ctx, toLLMTurns(candidate))
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	candidate = append(candidate, chat.Turn{Role: chat.RoleAssistant, Content: answer})

	if err := m.ChatRepo.Save(ctx, st.UserID, st.JobID, candidate); err != nil {
		return "", &PersistenceError{Op: "save chat history", Err: err}
	}

	st.Transcript = candidate
	metrics.IncChatTurn()
	return answer, nil
}

// OpenDocument streams the rendered resume for the session's job.
func (m *Machine) OpenDocument(ctx context.Context, st *State) (io.ReadCloser, string, error) {
	if err := m.guard(st, "download", StageExploration); err != nil {
		return nil, "", err
	}
	rc, err := m.Renderer.Open(ctx, st.UserID, st.JobID)
	if err != nil {
		return nil, "", &RenderingError{Err: err}
	}
	return rc, render.DocumentKey(st.UserID, st.JobID), nil
}

// Menu resets the session to the start stage.
func (m *Machine) Menu(st *State) error {
	if err := m.guard(st, "menu", StageExploration); err != nil {
		return err
	}
	from := st.Stage
	st.Reset()
	telemetry.Info("session.transition", map[string]any{
		"session_id": st.SessionID,
		"from":       from.String(),
		"to":         st.Stage.String(),
		"trigger":    "menu",
	})
	return nil
}

func (m *Machine) transition(st *State, to Stage) {
	from := st.Stage
	st.Stage = to
	telemetry.Info("session.transition", map[string]any{
		"session_id": st.SessionID,
		"user_id":    st.UserID,
		"job_id":     st.JobID,
		"from":       from.String(),
		"to":         to.String(),
	})
}

// revert is the declared recovery edge of the pipeline: back to the
// job description stage, keeping the selected job, clearing any result.
func (m *Machine) revert(st *State, step string, cause error) {
	metrics.IncPipelineFailed()
	st.Result = nil
	from := st.Stage
	st.Stage = StageWaitingJob
	telemetry.Error("session.pipeline", map[string]any{
		"session_id": st.SessionID,
		"user_id":    st.UserID,
		"job_id":     st.JobID,
		"step":       step,
		"from":       from.String(),
		"to":         st.Stage.String(),
		"error":      cause.Error(),
	})
}

func toLLMTurns(transcript chat.Transcript) []llm.ChatTurn {
	out := make([]llm.ChatTurn, 0, len(transcript))
	for _, turn := range transcript {
		out = append(out, llm.ChatTurn{Role: turn.Role, Content: turn.Content})
	}
	return out
}
