package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/kv"
	"github.com/brocode/spot/internal/store"
)

func openTestStore(t *testing.T, backing kv.Store) *Store {
	t.Helper()
	if backing == nil {
		backing = kv.NewMemory()
	}
	return Open(context.Background(), backing, &events.NoopPublisher{}, "test", nil)
}

func TestNotify_OrderAndUnreadCount(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	a, err := s.Notify(ctx, "Spot scheduled", "Saturday 7pm at the usual place")
	if err != nil {
		t.Fatalf("Notify() error: %v", err)
	}
	b, err := s.Notify(ctx, "Payment due", "Your share is 300")
	if err != nil {
		t.Fatalf("Notify() error: %v", err)
	}

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("All() returned %d notifications, want 2", len(all))
	}
	if all[0].ID != b.ID || all[1].ID != a.ID {
		t.Errorf("order = [%s, %s], want newest first [%s, %s]", all[0].ID, all[1].ID, b.ID, a.ID)
	}
	if got := s.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount() = %d, want 2", got)
	}

	updated, err := s.MarkRead(ctx, a.ID)
	if err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	if !updated.Read {
		t.Error("MarkRead() did not set read")
	}

	all = s.All()
	if all[0].ID != b.ID || all[1].ID != a.ID {
		t.Error("MarkRead() changed ordering")
	}
	if all[0].Read {
		t.Error("MarkRead() touched the wrong notification")
	}
	if !all[1].Read {
		t.Error("MarkRead() result not visible in the next read")
	}
	if got := s.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount() = %d, want 1", got)
	}
}

func TestNotify_FieldsAndDefaults(t *testing.T) {
	s := openTestStore(t, nil)

	n, err := s.Notify(context.Background(), "title", "message")
	if err != nil {
		t.Fatalf("Notify() error: %v", err)
	}
	if n.ID == "" {
		t.Error("Notify() did not allocate an ID")
	}
	if n.Title != "title" || n.Message != "message" {
		t.Errorf("Notify() = %+v, want the given title and message", n)
	}
	if n.Timestamp.IsZero() {
		t.Error("Notify() did not set a timestamp")
	}
	if n.Read {
		t.Error("Notify() created a notification already marked read")
	}
}

func TestMarkRead_Idempotent(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	n, _ := s.Notify(ctx, "t", "m")
	first, err := s.MarkRead(ctx, n.ID)
	if err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	second, err := s.MarkRead(ctx, n.ID)
	if err != nil {
		t.Fatalf("MarkRead() second error: %v", err)
	}
	if first.Read != second.Read || s.UnreadCount() != 0 {
		t.Error("MarkRead() twice diverged from once")
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	s := openTestStore(t, nil)

	_, err := s.MarkRead(context.Background(), "nt-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("MarkRead() error = %v, want store.ErrNotFound", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	s := openTestStore(t, nil)
	ctx := context.Background()

	const n, k = 7, 3
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		created, err := s.Notify(ctx, "t", "m")
		if err != nil {
			t.Fatalf("Notify() error: %v", err)
		}
		ids = append(ids, created.ID)
	}
	for i := 0; i < k; i++ {
		if _, err := s.MarkRead(ctx, ids[i]); err != nil {
			t.Fatalf("MarkRead() error: %v", err)
		}
	}
	if got := s.UnreadCount(); got != n-k {
		t.Errorf("UnreadCount() = %d, want %d", got, n-k)
	}

	if err := s.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead() error: %v", err)
	}
	for _, item := range s.All() {
		if !item.Read {
			t.Errorf("notification %s still unread after MarkAllRead()", item.ID)
		}
	}
	if got := s.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount() = %d after MarkAllRead(), want 0", got)
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	backing := kv.NewMemory()
	ctx := context.Background()

	s := openTestStore(t, backing)
	a, _ := s.Notify(ctx, "first", "m1")
	b, _ := s.Notify(ctx, "second", "m2")
	if _, err := s.MarkRead(ctx, a.ID); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}

	reloaded := openTestStore(t, backing)
	all := reloaded.All()
	if len(all) != 2 {
		t.Fatalf("reloaded %d notifications, want 2", len(all))
	}
	if all[0].ID != b.ID || all[1].ID != a.ID {
		t.Error("ordering not preserved across reload")
	}
	if !all[1].Read || all[0].Read {
		t.Error("read flags not preserved across reload")
	}
	if !all[1].Timestamp.Equal(a.Timestamp) {
		t.Errorf("timestamp = %v after reload, want %v", all[1].Timestamp, a.Timestamp)
	}
	if got := reloaded.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount() = %d after reload, want 1", got)
	}
}
