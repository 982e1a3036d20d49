package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"

	"tailor-backend/internal/shared/storage/object"
	"tailor-backend/internal/shared/util"
)

//go:embed templates/resume.html
var templateFS embed.FS

var resumeTemplate = template.Must(template.ParseFS(templateFS, "templates/resume.html"))

// Renderer fills the resume template with a generated result and writes
// the document through the object store.
type Renderer struct {
	Store object.ObjectStore
}

func NewRenderer(store object.ObjectStore) *Renderer {
	return &Renderer{Store: store}
}

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// DocumentKey derives the storage key for a rendered resume. The key is
// deterministic so the exploration stage can re-derive it for download.
func DocumentKey(userID string, jobID int64) string {
	return fmt.Sprintf("resumes/%s/Resume_%d.html", util.HashUserKey(userID), jobID)
}

// Render writes the generated result to the store at the deterministic
// key. A rerun for the same job overwrites the previous document.
func (r *Renderer) Render(ctx context.Context, userID string, jobID int64, result json.RawMessage) (string, error) {
	if r == nil || r.Store == nil {
		return "", errors.New("renderer not configured")
	}
	var data map[string]any
	if err := json.Unmarshal(result, &data); err != nil {
		return "", fmt.Errorf("decode generated result: %w", err)
	}

	var buf bytes.Buffer
	if err := resumeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute resume template: %w", err)
	}

	saver, ok := r.Store.(keySaver)
	if !ok {
		return "", errors.New("object store does not support SaveWithKey")
	}
	key := DocumentKey(userID, jobID)
	if _, err := saver.SaveWithKey(ctx, key, "text/html; charset=utf-8", &buf); err != nil {
		return "", fmt.Errorf("save rendered resume: %w", err)
	}
	return key, nil
}

// Open streams a previously rendered document.
func (r *Renderer) Open(ctx context.Context, userID string, jobID int64) (io.ReadCloser, error) {
	if r == nil || r.Store == nil {
		return nil, errors.New("renderer not configured")
	}
	return r.Store.Open(ctx, DocumentKey(userID, jobID))
}
