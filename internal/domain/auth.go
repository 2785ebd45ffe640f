package domain

import "time"

// Actor identifies who performed an operation, for audit attribution.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
