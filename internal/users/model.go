package users

import "time"

type User struct {
	ID          string    `json:"id"`
	ResumeText  string    `json:"resumeText"`
	ProfileText string    `json:"profileText"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the listing view shown before a user signs in.
type Summary struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}
