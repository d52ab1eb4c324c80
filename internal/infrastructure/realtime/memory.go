package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. It backs tests and the
// -storage=in-memory development mode; semantics match the Redis store,
// with snapshots published synchronously from the mutating call.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]map[string][]byte // collection -> key -> document
	order     map[string][]string          // collection -> keys in insertion order
	observers map[string]*observer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]map[string][]byte),
		order:     make(map[string][]string),
		observers: make(map[string]*observer),
	}
}

func (s *MemoryStore) Subscribe(collection string, fn SnapshotFunc) (func(), error) {
	s.mu.Lock()
	obs, ok := s.observers[collection]
	if !ok {
		obs = newObserver()
		s.observers[collection] = obs
	}
	s.mu.Unlock()

	unsubscribe := obs.add(fn)

	// Initial delivery carries the current state, like the live feed does.
	fn(s.snapshot(collection))

	return unsubscribe, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[collection][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, key string, doc []byte) error {
	s.mu.Lock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string][]byte)
	}
	if _, exists := s.docs[collection][key]; !exists {
		s.order[collection] = append(s.order[collection], key)
	}
	stored := make([]byte, len(doc))
	copy(stored, doc)
	s.docs[collection][key] = stored
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Patch(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	s.mu.Lock()
	doc, ok := s.docs[collection][key]
	if !ok {
		s.mu.Unlock()
		return ErrKeyNotFound
	}

	merged := make(map[string]interface{})
	if err := json.Unmarshal(doc, &merged); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("decode stored document: %w", err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode patched document: %w", err)
	}
	s.docs[collection][key] = out
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, key string) error {
	s.mu.Lock()
	if _, ok := s.docs[collection][key]; !ok {
		s.mu.Unlock()
		return nil // deleting an absent key is a no-op
	}
	delete(s.docs[collection], key)
	keys := s.order[collection]
	for i, k := range keys {
		if k == key {
			s.order[collection] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) NewKey() string {
	return NewPushKey(time.Now())
}

func (s *MemoryStore) snapshot(collection string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, len(s.order[collection]))
	copy(keys, s.order[collection])
	sort.Strings(keys)

	docs := make([]Doc, 0, len(keys))
	for _, k := range keys {
		data := make([]byte, len(s.docs[collection][k]))
		copy(data, s.docs[collection][k])
		docs = append(docs, Doc{Key: k, Data: data})
	}
	return Snapshot{Status: StatusLive, Docs: docs}
}

func (s *MemoryStore) notify(collection string) {
	s.mu.RLock()
	obs, ok := s.observers[collection]
	s.mu.RUnlock()
	if !ok || obs.empty() {
		return
	}
	obs.publish(s.snapshot(collection))
}
