package model

import "time"

// Message is a direct message between two connected users.
//
// Messages are append-only: once stored they are never updated or deleted.
// The Read flag is written at creation time; real-time delivery (the chat
// registry) is advisory and plays no part in durability.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}
