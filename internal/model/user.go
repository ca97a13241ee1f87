// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either by email/password registration or by a first
// OAuth login. The two are mutually exclusive at the storage level:
// PasswordHash is set iff OAuthProvider is empty. OAuth accounts have no
// local credential, so login for them always goes through the provider.
//
// TeachSkills and LearnSkills hold canonical skill IDs only — skill names
// never appear in the user record. Points is the trade balance; every new
// account receives a one-time starter grant, recorded by FreePointsGranted
// so the grant can never be repeated.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`                       // empty for OAuth accounts
	OAuthProvider     string    `json:"oauthProvider,omitempty"` // e.g. "google", empty for password accounts
	TeachSkills       []string  `json:"teachSkills"`
	LearnSkills       []string  `json:"learnSkills"`
	Points            int       `json:"points"`
	FreePointsGranted bool      `json:"freePointsGranted"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
