package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/model"
)

func TestMatchTopicPattern(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"spot.notification.create", "spot.notification.create", true},
		{"spot.notification.create", "spot.notification.markRead", false},
		{"spot.*.create", "spot.notification.create", true},
		{"spot.*.create", "spot.payment.create", true},
		{"spot.*.create", "spot.payment.setPaid", false},
		{"spot.>", "spot.notification.create", true},
		{"spot.>", "spot.payment.setPaid", true},
		{"spot.>", "spot", false},
		{"spot.notification.>", "spot.payment.create", false},
		{"*", "spot", true},
		{"*", "spot.notification", false},
	}
	for _, tt := range tests {
		if got := matchTopicPattern(tt.pattern, tt.topic); got != tt.want {
			t.Errorf("matchTopicPattern(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}

func TestHubBroadcastAndFilter(t *testing.T) {
	hub := NewHub()

	all := hub.subscribe(nil)
	defer hub.unsubscribe(all)
	onlyPayments := hub.subscribe([]string{"spot.payment.>"})
	defer hub.unsubscribe(onlyPayments)

	m := model.Mutation{
		EntityKind: model.KindNotification,
		EntityID:   "nt-1",
		Transition: "markRead",
		Revision:   2,
	}
	if err := hub.Publish(context.Background(), events.Topic(m.EntityKind, m.Transition), m); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case evt := <-all.ch:
		var got model.Mutation
		if err := json.Unmarshal(evt.Data, &got); err != nil {
			t.Fatalf("unmarshaling event: %v", err)
		}
		if got.EntityID != "nt-1" || got.Revision != 2 {
			t.Errorf("got mutation %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("unfiltered client received nothing")
	}

	select {
	case evt := <-onlyPayments.ch:
		t.Fatalf("filtered client received %s", evt.Topic)
	default:
	}
}

func TestHubReplaySince(t *testing.T) {
	hub := NewHub()

	for i := range 5 {
		hub.broadcast("spot.notification.create", []byte{byte('0' + i)})
	}

	replayed := hub.eventsSince(2)
	if len(replayed) != 3 {
		t.Fatalf("replayed %d events, want 3", len(replayed))
	}
	if replayed[0].ID != 3 || replayed[2].ID != 5 {
		t.Errorf("replayed IDs %d..%d, want 3..5", replayed[0].ID, replayed[2].ID)
	}

	if got := hub.eventsSince(10); got != nil {
		t.Errorf("eventsSince past the end = %v, want nil", got)
	}
}

func TestHubRingBufferWraps(t *testing.T) {
	hub := NewHub()

	total := sseRingBufferSize + 10
	for range total {
		hub.broadcast("spot.notification.create", []byte("x"))
	}

	replayed := hub.eventsSince(0)
	if len(replayed) != sseRingBufferSize {
		t.Fatalf("replayed %d events, want %d", len(replayed), sseRingBufferSize)
	}
	// Oldest surviving event is total - sseRingBufferSize + 1.
	if want := uint64(total - sseRingBufferSize + 1); replayed[0].ID != want {
		t.Errorf("oldest ID = %d, want %d", replayed[0].ID, want)
	}
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()

	slow := hub.subscribe(nil)
	defer hub.unsubscribe(slow)

	// Overflow the client's channel; broadcast must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			hub.broadcast("spot.notification.create", []byte("x"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}
