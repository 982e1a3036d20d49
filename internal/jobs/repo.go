package jobs

import (
	"context"
	"encoding/json"
)

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "job not found" }

type Repo interface {
	Create(ctx context.Context, userID, description string) (int64, error)
	GetByID(ctx context.Context, userID string, jobID int64) (Job, error)
	ListByUser(ctx context.Context, userID string) ([]Summary, error)
	SaveResult(ctx context.Context, userID string, jobID int64, result json.RawMessage) error
}
