package chat

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "chat history not found" }

type Repo interface {
	Get(ctx context.Context, userID string, jobID int64) (Transcript, error)
	Save(ctx context.Context, userID string, jobID int64, transcript Transcript) error
}
