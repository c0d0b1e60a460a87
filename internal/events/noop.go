package events

import "context"

// NoopPublisher is the disconnected variant of the sync channel: publish is
// a no-op (used when SPOT_NATS_URL is not configured or the client is
// offline).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
