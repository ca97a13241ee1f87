package model

import "time"

// Skill is one entry in the shared skill taxonomy.
//
// Names keep the case they were created with, but uniqueness is enforced
// case-insensitively at the store — "Python" and "python" are the same
// skill. Lookups by name are likewise case-insensitive.
type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
