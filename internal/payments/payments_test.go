package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/kv"
	"github.com/brocode/spot/internal/model"
	"github.com/brocode/spot/internal/store"
)

func openTestStore(t *testing.T, backing kv.Store) *Store {
	t.Helper()
	if backing == nil {
		backing = kv.NewMemory()
	}
	return Open(context.Background(), backing, &events.NoopPublisher{}, "test", nil)
}

func seedMembers(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.EnsureMember(context.Background(), id); err != nil {
			t.Fatalf("EnsureMember(%s) error: %v", id, err)
		}
	}
}

func TestSetPaid_CompletionRatio(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()
	seedMembers(t, s, "m1", "m2")

	if got := s.Completion(); got != 0 {
		t.Errorf("Completion() = %v with no payments, want 0", got)
	}

	updated, err := s.SetPaid(ctx, "m1", true)
	if err != nil {
		t.Fatalf("SetPaid() error: %v", err)
	}
	if !updated.Paid {
		t.Error("SetPaid(true) did not mark paid")
	}

	m1, _ := s.Get("m1")
	m2, _ := s.Get("m2")
	if !m1.Paid || m2.Paid {
		t.Errorf("statuses = m1.Paid=%v m2.Paid=%v, want true/false", m1.Paid, m2.Paid)
	}
	if got := s.Completion(); got != 0.5 {
		t.Errorf("Completion() = %v, want 0.5", got)
	}
}

func TestSetPaid_Undo(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()
	seedMembers(t, s, "m1")

	if _, err := s.SetPaid(ctx, "m1", true); err != nil {
		t.Fatalf("SetPaid(true) error: %v", err)
	}
	undone, err := s.SetPaid(ctx, "m1", false)
	if err != nil {
		t.Fatalf("SetPaid(false) error: %v", err)
	}
	if undone.Paid {
		t.Error("SetPaid(false) did not undo the payment")
	}
}

func TestSetPaid_UnknownMember(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.SetPaid(context.Background(), "m-ghost", true)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("SetPaid() error = %v, want store.ErrNotFound", err)
	}
}

func TestEnsureMember_Idempotent(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	seedMembers(t, s, "m1")
	if _, err := s.SetPaid(ctx, "m1", true); err != nil {
		t.Fatalf("SetPaid() error: %v", err)
	}

	// Re-ensuring must not reset an existing status.
	if err := s.EnsureMember(ctx, "m1"); err != nil {
		t.Fatalf("EnsureMember() again error: %v", err)
	}
	got, _ := s.Get("m1")
	if !got.Paid {
		t.Error("EnsureMember() reset an existing paid status")
	}
	if len(s.Statuses()) != 1 {
		t.Errorf("Statuses() has %d entries, want 1", len(s.Statuses()))
	}
}

func TestCompletion_Memoized(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()
	seedMembers(t, s, "m1", "m2", "m3", "m4")

	if _, err := s.SetPaid(ctx, "m1", true); err != nil {
		t.Fatalf("SetPaid() error: %v", err)
	}
	if got := s.Completion(); got != 0.25 {
		t.Errorf("Completion() = %v, want 0.25", got)
	}
	if _, err := s.SetPaid(ctx, "m2", true); err != nil {
		t.Fatalf("SetPaid() error: %v", err)
	}
	if got := s.Completion(); got != 0.5 {
		t.Errorf("Completion() = %v, want 0.5", got)
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	backing := kv.NewMemory()
	ctx := context.Background()

	s := openTestStore(t, backing)
	seedMembers(t, s, "m1", "m2")
	if _, err := s.SetPaid(ctx, "m1", true); err != nil {
		t.Fatalf("SetPaid() error: %v", err)
	}

	reloaded := openTestStore(t, backing)
	m1, ok := reloaded.Get("m1")
	if !ok || !m1.Paid {
		t.Errorf("Get(m1) after reload = %+v ok=%v, want paid", m1, ok)
	}
	if got := reloaded.Completion(); got != 0.5 {
		t.Errorf("Completion() after reload = %v, want 0.5", got)
	}
}

func TestApplyRemote_SetPaid(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()
	seedMembers(t, s, "m1")

	m := model.Mutation{
		EntityKind: model.KindPayment,
		EntityID:   "m1",
		Transition: TransitionSetPaid,
		Payload:    []byte(`{"paid":true}`),
		Revision:   2,
	}
	applied, err := s.ApplyRemote(ctx, m)
	if err != nil {
		t.Fatalf("ApplyRemote() error: %v", err)
	}
	if !applied {
		t.Fatal("remote setPaid not applied")
	}
	got, _ := s.Get("m1")
	if !got.Paid {
		t.Error("remote setPaid did not take effect")
	}

	// Duplicate delivery is a no-op but leaves the same state.
	applied, err = s.ApplyRemote(ctx, m)
	if err != nil {
		t.Fatalf("ApplyRemote() duplicate error: %v", err)
	}
	if applied {
		t.Error("duplicate delivery reported as applied")
	}
	got, _ = s.Get("m1")
	if !got.Paid {
		t.Error("duplicate delivery changed state")
	}
}
