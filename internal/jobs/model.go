package jobs

import (
	"encoding/json"
	"time"
)

type Job struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"userId"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Summary is the listing view used when a returning user picks a job.
type Summary struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	HasResult   bool      `json:"hasResult"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
