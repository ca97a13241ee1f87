package sqlite

import (
	"context"
	"testing"

	"github.com/tahmid/skillswap/internal/model"
	"github.com/tahmid/skillswap/internal/repository"
)

func createTestMessage(t *testing.T, m *MessageStore, senderID, recipientID, content string) *model.Message {
	t.Helper()
	msg := &model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := m.Create(context.Background(), msg); err != nil {
		t.Fatalf("failed to create test message: %v", err)
	}
	return msg
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestMessageCreate(t *testing.T) {
	db := newTestDB(t)
	a, b := twoUsers(t, db)

	msg := &model.Message{SenderID: a, RecipientID: b, Content: "hello"}
	if err := db.Messages().Create(context.Background(), msg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if msg.ID == "" {
		t.Error("Create() did not set msg.ID")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Create() did not set msg.CreatedAt")
	}
}

// =========================================================================
// CONVERSATION TESTS
// =========================================================================

func TestMessageListConversation(t *testing.T) {
	db := newTestDB(t)
	m := db.Messages()
	alice := createTestUser(t, db.Users(), "Alice", "alice@example.com")
	bob := createTestUser(t, db.Users(), "Bob", "bob@example.com")
	carol := createTestUser(t, db.Users(), "Carol", "carol@example.com")

	createTestMessage(t, m, alice.ID, bob.ID, "first")
	createTestMessage(t, m, bob.ID, alice.ID, "second")
	createTestMessage(t, m, alice.ID, carol.ID, "unrelated")

	msgs, err := m.ListConversation(context.Background(), alice.ID, bob.ID, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListConversation() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("ListConversation() returned %d messages, want 2", len(msgs))
	}
	// Newest first, both directions included.
	if msgs[0].Content != "second" || msgs[1].Content != "first" {
		t.Errorf("messages = [%q, %q], want newest first", msgs[0].Content, msgs[1].Content)
	}
}

func TestMessageListConversation_Paging(t *testing.T) {
	db := newTestDB(t)
	m := db.Messages()
	a, b := twoUsers(t, db)

	for _, content := range []string{"one", "two", "three"} {
		createTestMessage(t, m, a, b, content)
	}

	page, err := m.ListConversation(context.Background(), a, b, repository.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListConversation() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("first page has %d messages, want 2", len(page))
	}

	rest, err := m.ListConversation(context.Background(), a, b, repository.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListConversation() with offset error = %v", err)
	}
	if len(rest) != 1 || rest[0].Content != "one" {
		t.Errorf("second page = %v, want just the oldest message", rest)
	}
}

// =========================================================================
// UNREAD COUNT TESTS
// =========================================================================

func TestMessageCountUnread(t *testing.T) {
	db := newTestDB(t)
	m := db.Messages()
	a, b := twoUsers(t, db)

	createTestMessage(t, m, a, b, "one")
	createTestMessage(t, m, a, b, "two")
	createTestMessage(t, m, b, a, "reply")

	count, err := m.CountUnread(context.Background(), b)
	if err != nil {
		t.Fatalf("CountUnread() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountUnread(b) = %d, want 2", count)
	}

	count, err = m.CountUnread(context.Background(), a)
	if err != nil {
		t.Fatalf("CountUnread() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountUnread(a) = %d, want 1", count)
	}
}
