package model

import "encoding/json"

// Entity kinds carried on the wire.
const (
	KindNotification = "notification"
	KindPayment      = "payment"
)

// Mutation is the minimal delta published to the sync channel for every
// state change, mirroring what remote peers need to re-apply it. It must be
// idempotently re-appliable: Revision increases monotonically per entity,
// and an apply with a revision at or below the locally recorded one is a
// no-op.
type Mutation struct {
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id"`
	Transition string          `json:"transition_kind"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Revision   uint64          `json:"revision"`

	// Origin identifies the publishing process so a subscriber can skip
	// events it published itself.
	Origin string `json:"origin,omitempty"`
}
