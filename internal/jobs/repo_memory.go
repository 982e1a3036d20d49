package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	jobs   map[int64]Job
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{jobs: make(map[int64]Job)}
}

func (r *MemoryRepo) Create(ctx context.Context, userID, description string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now().UTC()
	job := Job{
		ID:          r.nextID,
		UserID:      userID,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.jobs[job.ID] = job
	return job.ID, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string, jobID int64) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok || job.UserID != userID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Summary
	for _, job := range r.jobs {
		if job.UserID != userID {
			continue
		}
		out = append(out, Summary{
			ID:          job.ID,
			Description: job.Description,
			HasResult:   len(job.Result) > 0,
			UpdatedAt:   job.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *MemoryRepo) SaveResult(ctx context.Context, userID string, jobID int64, result json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.UserID != userID {
		return ErrNotFound
	}
	job.Result = append(json.RawMessage(nil), result...)
	job.UpdatedAt = time.Now().UTC()
	r.jobs[jobID] = job
	return nil
}
