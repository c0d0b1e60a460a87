// Package store implements the local-first entity store shared by the
// notification and payment contexts: an in-memory collection that is read
// instantly, persisted synchronously to the backing store on every change,
// and reconciled with remote peers through idempotent mutation deltas.
//
// All mutation goes through enumerated transitions registered at
// construction; there is no free-form field patch, so the set of reachable
// states stays finite and auditable. Collections are currently unbounded —
// no retention policy is defined for either entity kind.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brocode/spot/internal/events"
	"github.com/brocode/spot/internal/kv"
	"github.com/brocode/spot/internal/model"
)

// ErrNotFound is returned when a transition targets an unknown entity ID.
// It reports a stale reference to the caller; it never indicates corruption
// and state is left untouched.
var ErrNotFound = errors.New("not found")

// TransitionCreate is the transition published when an entity is inserted.
// Its payload is the full entity, so peers that missed the insert can
// reconstruct it.
const TransitionCreate = "create"

// Entity is a record held by a Store.
type Entity interface {
	EntityID() string
}

// TransitionFunc applies one enumerated mutation to an entity and returns
// the updated copy. The payload carries transition arguments (may be nil).
type TransitionFunc[E Entity] func(e E, payload json.RawMessage) (E, error)

// Options configures a store instance.
type Options struct {
	Kind    string // entity kind on the wire, e.g. "notification"
	Key     string // backing-store key the snapshot is saved under
	Prepend bool   // insert new entities at the head (newest-first ordering)
	Origin  string // origin stamped on published mutations
}

// Store holds an ordered in-memory collection of entities. It has exactly
// one writer path (its own intent methods); readers receive copy-on-write
// snapshots that are never mutated after being returned.
type Store[E Entity] struct {
	opts        Options
	backing     kv.Store
	publisher   events.Publisher
	logger      *slog.Logger
	transitions map[string]TransitionFunc[E]

	mu    sync.RWMutex
	items []E            // replaced wholesale on every write
	index map[string]int // entity ID -> position in items
	revs  map[string]uint64
	gen   uint64 // bumped on every change; keys derived-value memoization
}

// snapshotFile is the persisted form: the item collection plus the
// per-entity revisions needed to deduplicate remote mutations after a
// reload.
type snapshotFile[E Entity] struct {
	Items     []E               `json:"items"`
	Revisions map[string]uint64 `json:"revisions,omitempty"`
}

// Open constructs a store and loads its snapshot from the backing store.
// An absent, unreadable, or malformed snapshot degrades to an empty
// collection; construction never fails on bad local state.
func Open[E Entity](ctx context.Context, opts Options, backing kv.Store, publisher events.Publisher, transitions map[string]TransitionFunc[E], logger *slog.Logger) *Store[E] {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store[E]{
		opts:        opts,
		backing:     backing,
		publisher:   publisher,
		logger:      logger,
		transitions: transitions,
		index:       make(map[string]int),
		revs:        make(map[string]uint64),
	}

	data, ok, err := backing.Load(ctx, opts.Key)
	if err != nil {
		logger.Warn("snapshot load failed, starting empty", "key", opts.Key, "error", err)
		return s
	}
	if !ok {
		return s
	}

	var snap snapshotFile[E]
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("malformed snapshot, starting empty", "key", opts.Key, "error", err)
		return s
	}
	s.items = snap.Items
	for i, e := range snap.Items {
		s.index[e.EntityID()] = i
	}
	if snap.Revisions != nil {
		s.revs = snap.Revisions
	}
	return s
}

// Create inserts a new entity, persists the snapshot, and publishes a
// create mutation carrying the full entity. The entity's ID must be unique
// for the lifetime of the store.
func (s *Store[E]) Create(ctx context.Context, e E) (E, error) {
	var zero E
	id := e.EntityID()
	if id == "" {
		return zero, fmt.Errorf("%s: entity ID is required", s.opts.Kind)
	}

	s.mu.Lock()
	if _, exists := s.index[id]; exists {
		s.mu.Unlock()
		return zero, fmt.Errorf("%s %s already exists", s.opts.Kind, id)
	}
	s.insertLocked(e)
	s.revs[id] = 1
	s.gen++
	s.persistLocked(ctx)
	s.mu.Unlock()

	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("marshaling create payload failed", "kind", s.opts.Kind, "entity_id", id, "error", err)
		return e, nil
	}
	s.publish(ctx, TransitionCreate, id, payload, 1)
	return e, nil
}

// Apply runs one enumerated transition against the entity with the given
// ID. Returns ErrNotFound (wrapped) for an unknown ID, leaving state
// untouched.
func (s *Store[E]) Apply(ctx context.Context, id, transition string, payload json.RawMessage) (E, error) {
	var zero E
	fn, ok := s.transitions[transition]
	if !ok {
		return zero, fmt.Errorf("unknown transition %q for %s", transition, s.opts.Kind)
	}

	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return zero, fmt.Errorf("%s %s: %w", s.opts.Kind, id, ErrNotFound)
	}
	updated, err := fn(s.items[i], payload)
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}
	items := make([]E, len(s.items))
	copy(items, s.items)
	items[i] = updated
	s.items = items
	rev := s.revs[id] + 1
	s.revs[id] = rev
	s.gen++
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(ctx, transition, id, payload, rev)
	return updated, nil
}

// ApplyAll runs the same transition against every entity in one atomic
// batch: readers observe either the old collection or the fully updated
// one, never a partial application.
func (s *Store[E]) ApplyAll(ctx context.Context, transition string, payload json.RawMessage) error {
	fn, ok := s.transitions[transition]
	if !ok {
		return fmt.Errorf("unknown transition %q for %s", transition, s.opts.Kind)
	}

	type delta struct {
		id  string
		rev uint64
	}

	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil
	}
	items := make([]E, len(s.items))
	deltas := make([]delta, 0, len(s.items))
	for i, e := range s.items {
		updated, err := fn(e, payload)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("applying %s to %s: %w", transition, e.EntityID(), err)
		}
		items[i] = updated
		id := updated.EntityID()
		deltas = append(deltas, delta{id: id, rev: s.revs[id] + 1})
	}
	s.items = items
	for _, d := range deltas {
		s.revs[d.id] = d.rev
	}
	s.gen++
	s.persistLocked(ctx)
	s.mu.Unlock()

	for _, d := range deltas {
		s.publish(ctx, transition, d.id, payload, d.rev)
	}
	return nil
}

// ApplyRemote merges an inbound mutation from the sync channel. The merge
// is last-write-wins by revision: a mutation whose revision is not newer
// than the locally recorded one is a no-op, which makes duplicate delivery
// and redelivery after reconnect safe. Remote applies are never
// republished.
//
// Returns whether the mutation changed state. Mutations for a different
// entity kind are ignored.
func (s *Store[E]) ApplyRemote(ctx context.Context, m model.Mutation) (bool, error) {
	if m.EntityKind != s.opts.Kind {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Transition == TransitionCreate {
		if _, exists := s.index[m.EntityID]; exists {
			return false, nil
		}
		var e E
		if err := json.Unmarshal(m.Payload, &e); err != nil {
			return false, fmt.Errorf("decoding %s create payload: %w", s.opts.Kind, err)
		}
		if e.EntityID() != m.EntityID {
			return false, fmt.Errorf("create payload ID %q does not match mutation ID %q", e.EntityID(), m.EntityID)
		}
		s.insertLocked(e)
		s.revs[m.EntityID] = m.Revision
		s.gen++
		s.persistLocked(ctx)
		return true, nil
	}

	fn, ok := s.transitions[m.Transition]
	if !ok {
		return false, fmt.Errorf("unknown transition %q for %s", m.Transition, s.opts.Kind)
	}
	i, ok := s.index[m.EntityID]
	if !ok {
		return false, fmt.Errorf("%s %s: %w", s.opts.Kind, m.EntityID, ErrNotFound)
	}
	if m.Revision <= s.revs[m.EntityID] {
		// Stale or duplicate delivery.
		return false, nil
	}
	updated, err := fn(s.items[i], m.Payload)
	if err != nil {
		return false, err
	}
	items := make([]E, len(s.items))
	copy(items, s.items)
	items[i] = updated
	s.items = items
	s.revs[m.EntityID] = m.Revision
	s.gen++
	s.persistLocked(ctx)
	return true, nil
}

// Snapshot returns the current immutable collection. The slice is replaced,
// never mutated, on writes, so callers may hold it indefinitely but must
// not modify it.
func (s *Store[E]) Snapshot() []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// Get returns the entity with the given ID.
func (s *Store[E]) Get(id string) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		var zero E
		return zero, false
	}
	return s.items[i], true
}

// Len returns the number of entities.
func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision returns the locally recorded revision for an entity (0 if the
// entity is unknown).
func (s *Store[E]) Revision(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revs[id]
}

// snapshotGen returns the current collection together with its generation
// counter, for derived-value memoization.
func (s *Store[E]) snapshotGen() ([]E, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items, s.gen
}

// insertLocked adds e to the collection honoring the ordering policy.
// Caller holds s.mu.
func (s *Store[E]) insertLocked(e E) {
	id := e.EntityID()
	if s.opts.Prepend {
		items := make([]E, 0, len(s.items)+1)
		items = append(items, e)
		items = append(items, s.items...)
		s.items = items
		for existing, idx := range s.index {
			s.index[existing] = idx + 1
		}
		s.index[id] = 0
		return
	}
	items := make([]E, 0, len(s.items)+1)
	items = append(items, s.items...)
	items = append(items, e)
	s.items = items
	s.index[id] = len(items) - 1
}

// persistLocked writes the full snapshot to the backing store. A failed
// write is logged and left to the next mutation, which writes the complete
// latest snapshot again; the in-memory state stays authoritative for the
// running session and is never rolled back. Caller holds s.mu.
func (s *Store[E]) persistLocked(ctx context.Context) {
	data, err := json.Marshal(snapshotFile[E]{Items: s.items, Revisions: s.revs})
	if err != nil {
		s.logger.Warn("marshaling snapshot failed", "key", s.opts.Key, "error", err)
		return
	}
	if err := s.backing.Save(ctx, s.opts.Key, data); err != nil {
		s.logger.Warn("snapshot save failed, will retry on next mutation", "key", s.opts.Key, "error", err)
	}
}

// publish sends the minimal mutation delta to the sync channel,
// best-effort: a failed or disconnected publish never affects local state.
func (s *Store[E]) publish(ctx context.Context, transition, id string, payload json.RawMessage, rev uint64) {
	m := model.Mutation{
		EntityKind: s.opts.Kind,
		EntityID:   id,
		Transition: transition,
		Payload:    payload,
		Revision:   rev,
		Origin:     s.opts.Origin,
	}
	topic := events.Topic(s.opts.Kind, transition)
	if err := s.publisher.Publish(ctx, topic, m); err != nil {
		s.logger.Warn("mutation publish failed", "topic", topic, "entity_id", id, "error", err)
	}
}
