// Package notify is the notification context: an entity store of in-app
// notifications ordered newest-first, with a memoized unread count.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/idgen"
	"github.com/brocode/spot/internal/kv"
	"github.com/brocode/spot/internal/model"
	"github.com/brocode/spot/internal/store"
)

// Key is the backing-store key notifications are persisted under.
const Key = "spot.notifications"

// TransitionMarkRead flips a notification to read. It is the only
// transition a notification supports; read never goes back to false.
const TransitionMarkRead = "markRead"

// Store wraps the generic entity store with notification intents.
type Store struct {
	entities *store.Store[model.Notification]
	unread   *store.Derived[model.Notification, int]
}

// Open loads the notification store from the backing store.
func Open(ctx context.Context, backing kv.Store, publisher events.Publisher, origin string, logger *slog.Logger) *Store {
	transitions := map[string]store.TransitionFunc[model.Notification]{
		TransitionMarkRead: func(n model.Notification, _ json.RawMessage) (model.Notification, error) {
			n.Read = true
			return n, nil
		},
	}
	entities := store.Open(ctx, store.Options{
		Kind:    model.KindNotification,
		Key:     Key,
		Prepend: true,
		Origin:  origin,
	}, backing, publisher, transitions, logger)

	s := &Store{entities: entities}
	s.unread = store.Derive(entities, func(items []model.Notification) int {
		n := 0
		for _, item := range items {
			if !item.Read {
				n++
			}
		}
		return n
	})
	return s
}

// Notify creates a new unread notification at the head of the list.
func (s *Store) Notify(ctx context.Context, title, message string) (model.Notification, error) {
	id, err := idgen.Notification()
	if err != nil {
		return model.Notification{}, err
	}
	return s.entities.Create(ctx, model.Notification{
		ID:        id,
		Title:     title,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// MarkRead marks one notification as read. Returns store.ErrNotFound
// (wrapped) for an unknown ID.
func (s *Store) MarkRead(ctx context.Context, id string) (model.Notification, error) {
	return s.entities.Apply(ctx, id, TransitionMarkRead, nil)
}

// MarkAllRead marks every notification as read in one atomic batch.
func (s *Store) MarkAllRead(ctx context.Context) error {
	return s.entities.ApplyAll(ctx, TransitionMarkRead, nil)
}

// All returns the current immutable collection, newest first.
func (s *Store) All() []model.Notification {
	return s.entities.Snapshot()
}

// Get returns one notification by ID.
func (s *Store) Get(id string) (model.Notification, bool) {
	return s.entities.Get(id)
}

// UnreadCount returns the memoized number of unread notifications.
func (s *Store) UnreadCount() int {
	return s.unread.Value()
}

// ApplyRemote merges an inbound mutation from the sync channel.
func (s *Store) ApplyRemote(ctx context.Context, m model.Mutation) (bool, error) {
	return s.entities.ApplyRemote(ctx, m)
}
