// Package payments is the payment-status context: one status per roster
// member for the upcoming spot, toggled by admin intents at the boundary.
//
// The store itself performs no authorization and does not verify roster
// membership; both belong to the caller (see internal/roster and the HTTP
// layer). Statuses are only ever created by the explicit EnsureMember
// intent, never implicitly by SetPaid.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/kv"
	"github.com/brocode/spot/internal/model"
	"github.com/brocode/spot/internal/store"
)

// Key is the backing-store key payment statuses are persisted under.
const Key = "spot.payments"

// TransitionSetPaid toggles a member's paid flag. Unlike markRead it is
// bidirectional: admins can undo a payment.
const TransitionSetPaid = "setPaid"

// setPaidPayload is the transition argument on the wire.
type setPaidPayload struct {
	Paid bool `json:"paid"`
}

// Store wraps the generic entity store with payment intents.
type Store struct {
	entities   *store.Store[model.PaymentStatus]
	completion *store.Derived[model.PaymentStatus, float64]
}

// Open loads the payment-status store from the backing store.
func Open(ctx context.Context, backing kv.Store, publisher events.Publisher, origin string, logger *slog.Logger) *Store {
	transitions := map[string]store.TransitionFunc[model.PaymentStatus]{
		TransitionSetPaid: func(p model.PaymentStatus, payload json.RawMessage) (model.PaymentStatus, error) {
			var arg setPaidPayload
			if err := json.Unmarshal(payload, &arg); err != nil {
				return p, fmt.Errorf("decoding setPaid payload: %w", err)
			}
			p.Paid = arg.Paid
			return p, nil
		},
	}
	entities := store.Open(ctx, store.Options{
		Kind:   model.KindPayment,
		Key:    Key,
		Origin: origin,
	}, backing, publisher, transitions, logger)

	s := &Store{entities: entities}
	s.completion = store.Derive(entities, func(items []model.PaymentStatus) float64 {
		if len(items) == 0 {
			return 0
		}
		paid := 0
		for _, item := range items {
			if item.Paid {
				paid++
			}
		}
		return float64(paid) / float64(len(items))
	})
	return s
}

// EnsureMember creates an unpaid status for a roster member if one does not
// exist yet. Creation is explicit: loading the roster calls this once per
// member.
func (s *Store) EnsureMember(ctx context.Context, memberID string) error {
	if _, ok := s.entities.Get(memberID); ok {
		return nil
	}
	_, err := s.entities.Create(ctx, model.PaymentStatus{MemberID: memberID})
	return err
}

// SetPaid records whether a member has paid. Returns store.ErrNotFound
// (wrapped) when no status exists for the member; roster validation is the
// caller's job.
func (s *Store) SetPaid(ctx context.Context, memberID string, paid bool) (model.PaymentStatus, error) {
	payload, err := json.Marshal(setPaidPayload{Paid: paid})
	if err != nil {
		return model.PaymentStatus{}, err
	}
	return s.entities.Apply(ctx, memberID, TransitionSetPaid, payload)
}

// Statuses returns the current immutable collection.
func (s *Store) Statuses() []model.PaymentStatus {
	return s.entities.Snapshot()
}

// Get returns one member's status.
func (s *Store) Get(memberID string) (model.PaymentStatus, bool) {
	return s.entities.Get(memberID)
}

// Completion returns the memoized ratio of paid members to total members
// (0 when no statuses exist).
func (s *Store) Completion() float64 {
	return s.completion.Value()
}

// ApplyRemote merges an inbound mutation from the sync channel.
func (s *Store) ApplyRemote(ctx context.Context, m model.Mutation) (bool, error) {
	return s.entities.ApplyRemote(ctx, m)
}
