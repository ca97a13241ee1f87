// Package chat tracks which users currently hold an open delivery stream
// and fans stored messages out to them.
//
// The registry is process-local, ephemeral state: populated when a client
// subscribes, purged when it disconnects, and empty again after a restart.
// It is never a durability source — messages are persisted before they are
// offered here, and an offline recipient simply reads them from the store
// later.
package chat

import (
	"log/slog"
	"sync"

	"github.com/rs/xid"

	"github.com/tahmid/skillswap/internal/model"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing real-time events (not messages —
// those are already stored).
const subscriberBuffer = 32

type subscriber struct {
	id string
	ch chan model.Message
}

// Registry maps online user IDs to their delivery channels. A user may hold
// several subscriptions at once (one per tab).
type Registry struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		subs:   make(map[string][]*subscriber),
		logger: logger,
	}
}

// Subscribe registers a delivery stream for userID and returns a handle to
// pass to Unsubscribe, plus the channel carrying incoming messages.
func (r *Registry) Subscribe(userID string) (string, <-chan model.Message) {
	sub := &subscriber{
		id: xid.New().String(),
		ch: make(chan model.Message, subscriberBuffer),
	}

	r.mu.Lock()
	r.subs[userID] = append(r.subs[userID], sub)
	r.mu.Unlock()

	r.logger.Debug("chat subscriber registered",
		slog.String("user", userID),
		slog.String("subscriber", sub.id),
	)
	return sub.id, sub.ch
}

// Unsubscribe removes the subscription and closes its channel. Safe to call
// with a handle that was already removed.
func (r *Registry) Unsubscribe(userID, subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subs[userID]
	for i, sub := range subs {
		if sub.id != subscriberID {
			continue
		}
		r.subs[userID] = append(subs[:i], subs[i+1:]...)
		if len(r.subs[userID]) == 0 {
			delete(r.subs, userID)
		}
		close(sub.ch)

		r.logger.Debug("chat subscriber removed",
			slog.String("user", userID),
			slog.String("subscriber", subscriberID),
		)
		return
	}
}

// Notify offers a message to every live subscription for userID. The send
// never blocks: a full subscriber buffer drops the event for that
// subscriber and the message stays available in the store.
func (r *Registry) Notify(userID string, msg *model.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs[userID] {
		select {
		case sub.ch <- *msg:
		default:
			r.logger.Warn("chat subscriber buffer full, dropping event",
				slog.String("user", userID),
				slog.String("subscriber", sub.id),
			)
		}
	}
}

// Online reports whether userID has at least one live subscription.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[userID]) > 0
}
