// Package events is the remote sync channel: a push-capable connection to
// the shared backend over which mutation deltas travel. The channel is a
// capability with two variants — connected (NATS) and disconnected (noop) —
// so call sites never null-check a missing backend.
//
// Delivery is best-effort and ordered per publisher only. Consumers must
// apply mutations idempotently (see model.Mutation).
package events

import (
	"context"
	"fmt"
)

// Topic prefix for all mutation subjects.
const topicPrefix = "spot"

// TopicAll subscribes to every mutation subject.
const TopicAll = "spot.>"

// Topic returns the subject a mutation is published on,
// e.g. Topic("notification", "markRead") == "spot.notification.markRead".
func Topic(entityKind, transition string) string {
	return fmt.Sprintf("%s.%s.%s", topicPrefix, entityKind, transition)
}

// Publisher is the interface for emitting mutation events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the sync channel.
type Subscriber interface {
	// Subscribe delivers raw event payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// Multi fans a publish out to several publishers. Used by the daemon to
// publish to NATS and the local SSE hub in one call.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, topic string, event any) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, topic, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) Close() error {
	var firstErr error
	for _, p := range m {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
