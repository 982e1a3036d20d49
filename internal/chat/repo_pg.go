package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, userID string, jobID int64) (Transcript, error) {
	const query = `
SELECT transcript
FROM chat_histories
WHERE user_id = $1 AND job_id = $2
LIMIT 1`
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, userID, jobID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var transcript Transcript
	if err := json.Unmarshal(raw, &transcript); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return transcript, nil
}

func (r *PGRepo) Save(ctx context.Context, userID string, jobID int64, transcript Transcript) error {
	raw, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	const query = `
INSERT INTO chat_histories (user_id, job_id, transcript, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id, job_id) DO UPDATE SET
  transcript = EXCLUDED.transcript,
  updated_at = now()`
	_, err = r.DB.ExecContext(ctx, query, userID, jobID, raw)
	return err
}
