package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, userID, description string) (int64, error) {
	const query = `
INSERT INTO jobs (user_id, description, created_at, updated_at)
VALUES ($1, $2, now(), now())
RETURNING id`
	var id int64
	if err := r.DB.QueryRowContext(ctx, query, userID, description).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string, jobID int64) (Job, error) {
	const query = `
SELECT id, user_id, description, generated_result, created_at, updated_at
FROM jobs
WHERE user_id = $1 AND id = $2
LIMIT 1`
	var job Job
	var result []byte
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID, jobID).Scan(
		&job.ID,
		&job.UserID,
		&job.Description,
		&result,
		&job.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}
	if updatedAt.Valid {
		job.UpdatedAt = updatedAt.Time
	} else {
		job.UpdatedAt = time.Now().UTC()
	}
	return job, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	const query = `
SELECT id, description, generated_result IS NOT NULL, updated_at
FROM jobs
WHERE user_id = $1
ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Description, &s.HasResult, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveResult is last write wins; a rerun of the pipeline overwrites the
// previous generated result for the same job.
func (r *PGRepo) SaveResult(ctx context.Context, userID string, jobID int64, result json.RawMessage) error {
	const query = `
UPDATE jobs
SET generated_result = $3, updated_at = now()
WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, jobID, []byte(result))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
