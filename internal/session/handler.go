package session

import (
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"tailor-backend/internal/shared/server/respond"
)

const maxUploadBytes = 10 << 20

// Handler exposes the state machine over HTTP. Handlers only translate
// requests to triggers and machine errors to response codes; all
// workflow rules live in the machine.
type Handler struct {
	Machine  *Machine
	Registry *Registry
}

func NewHandler(machine *Machine, registry *Registry) *Handler {
	return &Handler{Machine: machine, Registry: registry}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/:id", h.view)
	rg.POST("/sessions/:id/identity", h.identity)
	rg.POST("/sessions/:id/profile", h.profile)
	rg.GET("/sessions/:id/jobs", h.listJobs)
	rg.POST("/sessions/:id/jobs", h.createJob)
	rg.POST("/sessions/:id/jobs/select", h.selectJob)
	rg.POST("/sessions/:id/process", h.process)
	rg.GET("/sessions/:id/document", h.document)
	rg.POST("/sessions/:id/chat", h.chat)
	rg.POST("/sessions/:id/menu", h.menu)
}

func (h *Handler) create(c *gin.Context) {
	s := h.Registry.Create()
	respond.JSON(c, http.StatusCreated, gin.H{
		"sessionId": s.State.SessionID,
		"stage":     s.State.Stage.String(),
	})
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	s, ok := h.Registry.Get(c.Param("id"))
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		return nil, false
	}
	return s, true
}

func (h *Handler) view(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var view gin.H
	_ = s.Do(func(st *State) error {
		view = gin.H{
			"sessionId":  st.SessionID,
			"stage":      st.Stage.String(),
			"userId":     st.UserID,
			"jobId":      st.JobID,
			"hasResult":  len(st.Result) > 0,
			"transcript": st.Transcript.Visible(),
		}
		return nil
	})
	respond.OK(c, view)
}

func (h *Handler) identity(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Identity string `json:"identity"`
		Confirm  bool   `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	var exists bool
	var stage string
	err := s.Do(func(st *State) error {
		var err error
		exists, err = h.Machine.ResolveIdentity(c.Request.Context(), st, req.Identity)
		if err != nil {
			return err
		}
		if req.Confirm && exists {
			if err := h.Machine.ConfirmExistingUser(c.Request.Context(), st); err != nil {
				return err
			}
		}
		stage = st.Stage.String()
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"exists": exists, "stage": stage})
}

func (h *Handler) profile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	resume, err := readUpload(c, "resume")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	profile, err := readUpload(c, "profile")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	var stage string
	err = s.Do(func(st *State) error {
		if err := h.Machine.CreateProfile(c.Request.Context(), st, resume, profile); err != nil {
			return err
		}
		stage = st.Stage.String()
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"stage": stage})
}

func (h *Handler) listJobs(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var out any
	err := s.Do(func(st *State) error {
		summaries, err := h.Machine.ListJobs(c.Request.Context(), st)
		if err != nil {
			return err
		}
		if summaries == nil {
			out = gin.H{"jobs": []any{}}
		} else {
			out = gin.H{"jobs": summaries}
		}
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) createJob(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	var jobID int64
	var stage string
	err := s.Do(func(st *State) error {
		var err error
		jobID, err = h.Machine.CreateJob(c.Request.Context(), st, req.Description)
		if err != nil {
			return err
		}
		stage = st.Stage.String()
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"jobId": jobID, "stage": stage})
}

func (h *Handler) selectJob(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		JobID int64 `json:"jobId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	var stage string
	err := s.Do(func(st *State) error {
		if err := h.Machine.SelectJob(c.Request.Context(), st, req.JobID); err != nil {
			return err
		}
		stage = st.Stage.String()
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"jobId": req.JobID, "stage": stage})
}

func (h *Handler) process(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var stage string
	err := s.Do(func(st *State) error {
		if err := h.Machine.Process(c.Request.Context(), st); err != nil {
			stage = st.Stage.String()
			annotate(c, st)
			return err
		}
		stage = st.Stage.String()
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"stage": stage})
}

func (h *Handler) document(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var rc io.ReadCloser
	var key string
	err := s.Do(func(st *State) error {
		var err error
		rc, key, err = h.Machine.OpenDocument(c.Request.Context(), st)
		if err != nil {
			return err
		}
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) chat(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	var answer string
	err := s.Do(func(st *State) error {
		var err error
		answer, err = h.Machine.Chat(c.Request.Context(), st, req.Message)
		if err != nil {
			return err
		}
		annotate(c, st)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"answer": answer})
}

func (h *Handler) menu(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var stage string
	err := s.Do(func(st *State) error {
		if err := h.Machine.Menu(st); err != nil {
			return err
		}
		stage = st.Stage.String()
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{"stage": stage})
}

func (h *Handler) fail(c *gin.Context, err error) {
	var invalidTrigger *InvalidTriggerError
	var validation *ValidationError
	var persistence *PersistenceError
	var generation *GenerationError
	var rendering *RenderingError
	switch {
	case errors.As(err, &invalidTrigger):
		respond.Error(c, http.StatusConflict, "invalid_trigger", invalidTrigger.Error(), gin.H{
			"stage": invalidTrigger.Stage.String(),
		})
	case errors.As(err, &validation):
		respond.Error(c, http.StatusBadRequest, "validation_error", validation.Msg, nil)
	case errors.As(err, &generation):
		respond.Error(c, http.StatusBadGateway, "generation_error", "resume generation failed", nil)
	case errors.As(err, &persistence):
		respond.Error(c, http.StatusBadGateway, "persistence_error", "storage operation failed", nil)
	case errors.As(err, &rendering):
		respond.Error(c, http.StatusInternalServerError, "rendering_error", "document rendering failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}

// annotate exposes state identifiers to the logging middleware.
func annotate(c *gin.Context, st *State) {
	c.Set("sessionId", st.SessionID)
	c.Set("userId", st.UserID)
	c.Set("jobId", st.JobID)
	c.Set("stageTransition", st.Stage.String())
}

func readUpload(c *gin.Context, field string) (Upload, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return Upload{}, errors.New(field + " file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return Upload{}, errors.New(field + " file exceeds the upload limit")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return Upload{}, errors.New("failed to read " + field + " file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return Upload{}, errors.New("failed to read " + field + " file")
	}
	if len(data) > maxUploadBytes {
		return Upload{}, errors.New(field + " file exceeds the upload limit")
	}
	return Upload{
		Data:     data,
		MimeType: fileHeader.Header.Get("Content-Type"),
		FileName: fileHeader.Filename,
	}, nil
}
