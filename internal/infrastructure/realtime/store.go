package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the client surface of the push-capable document store backing the
// blog. Collections hold JSON documents addressed by store-assigned keys.
// Subscribe delivers the entire collection on every change anywhere in it.
type Store interface {
	// Subscribe registers fn to receive the full current collection,
	// immediately on registration and again after every change. The returned
	// unsubscribe func is idempotent; after it returns, fn is not invoked again.
	Subscribe(collection string, fn SnapshotFunc) (func(), error)

	// Get is a one-shot read of a single document, independent of any
	// subscription. Returns ErrKeyNotFound for absent keys.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Set writes a full document under key, creating or replacing it.
	Set(ctx context.Context, collection, key string, doc []byte) error

	// Patch merges fields into an existing document at the field level.
	// Fields not named keep their stored values.
	Patch(ctx context.Context, collection, key string, fields map[string]interface{}) error

	// Delete removes a document. Deleting an absent key is a no-op.
	Delete(ctx context.Context, collection, key string) error

	// NewKey allocates a fresh collection key. Keys sort lexically in
	// allocation order, so a key-ordered snapshot is a creation-ordered one.
	NewKey() string
}

// Status reports the health of the change feed behind a snapshot.
type Status int

const (
	// StatusLive marks a snapshot read from a connected feed.
	StatusLive Status = iota
	// StatusDisconnected marks a delivery made while the feed is down; Docs
	// carry the last state observed before the disconnect.
	StatusDisconnected
)

// Doc is one document of a collection snapshot.
type Doc struct {
	Key  string
	Data []byte
}

// Snapshot is the full contents of a collection at delivery time, in
// creation order.
type Snapshot struct {
	Status Status
	Docs   []Doc
}

// SnapshotFunc receives collection snapshots.
type SnapshotFunc func(Snapshot)

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = errors.New("realtime: key not found")

// NewPushKey builds a key whose lexical order matches allocation order:
// a fixed-width millisecond timestamp followed by a random suffix.
func NewPushKey(t time.Time) string {
	return fmt.Sprintf("%013x-%s", t.UnixMilli(), uuid.NewString()[:8])
}

// observer fans one collection's snapshots out to its subscribers.
// Modeled as channels-free callback fan-out; delivery happens on the
// publisher's goroutine, one subscriber at a time.
type observer struct {
	mu   sync.Mutex
	next int
	subs map[int]SnapshotFunc
}

func newObserver() *observer {
	return &observer{subs: make(map[int]SnapshotFunc)}
}

// add registers fn and returns its unsubscribe func. Unsubscribing twice is
// harmless; once it runs, fn receives no further snapshots.
func (o *observer) add(fn SnapshotFunc) func() {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// publish delivers snap to every registered subscriber. Membership is
// re-checked per subscriber so an unsubscribe between deliveries sticks.
func (o *observer) publish(snap Snapshot) {
	o.mu.Lock()
	ids := make([]int, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	for _, id := range ids {
		o.mu.Lock()
		fn, ok := o.subs[id]
		o.mu.Unlock()
		if ok {
			fn(snap)
		}
	}
}

func (o *observer) empty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs) == 0
}
