package chat

import (
	"context"
	"sync"
)

type memoryKey struct {
	userID string
	jobID  int64
}

type MemoryRepo struct {
	mu      sync.RWMutex
	history map[memoryKey]Transcript
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{history: make(map[memoryKey]Transcript)}
}

func (r *MemoryRepo) Get(ctx context.Context, userID string, jobID int64) (Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	transcript, ok := r.history[memoryKey{userID: userID, jobID: jobID}]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(Transcript, len(transcript))
	copy(out, transcript)
	return out, nil
}

func (r *MemoryRepo) Save(ctx context.Context, userID string, jobID int64, transcript Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make(Transcript, len(transcript))
	copy(stored, transcript)
	r.history[memoryKey{userID: userID, jobID: jobID}] = stored
	return nil
}
