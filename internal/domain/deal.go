package domain

import "time"

// Deal is a pipeline record; the core tracks only its stage transitions.
type Deal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StageID   string    `json:"stage_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy safe to hand to readers.
func (d *Deal) Clone() *Deal {
	cp := *d
	return &cp
}
