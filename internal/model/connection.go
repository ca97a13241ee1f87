package model

import "time"

// Connection statuses. A connection record moves pending → accepted or
// pending → rejected; cancel (by the requester, while pending) and remove
// (by either party, while accepted) delete the record outright. Rejected
// records are retained and block any new request for the pair.
const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusRejected = "rejected"
	// ConnectionStatusBlocked is a valid stored status and filter value, but
	// no operation currently sets it.
	ConnectionStatusBlocked = "blocked"
)

// Relationship labels derived from a connection's status relative to the
// querying user. See ConnectionService.StatusBetween.
const (
	RelationshipNone            = "none"
	RelationshipConnected       = "connected"
	RelationshipRequestSent     = "request_sent"
	RelationshipRequestReceived = "request_received"
	RelationshipRejected        = "rejected"
)

// MaxConnectionMessageLength bounds the optional note attached to a request.
const MaxConnectionMessageLength = 500

// Connection is a directed connection request between two users.
//
// The record is directed (requester vs recipient decides who may accept,
// reject or cancel), but the relationship it represents is undirected: at
// most one Connection exists for any pair of users, regardless of which of
// the two sent the request.
type Connection struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requesterId"`
	RecipientID string    `json:"recipientId"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Involves reports whether userID is one of the two parties.
func (c *Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}

// OtherParty returns the counterpart of userID on this connection.
// Returns "" if userID is not a party.
func (c *Connection) OtherParty(userID string) string {
	switch userID {
	case c.RequesterID:
		return c.RecipientID
	case c.RecipientID:
		return c.RequesterID
	}
	return ""
}
