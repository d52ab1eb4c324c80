package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore implements Store over Redis: each collection is a hash, change
// pushes travel over a pub/sub channel, and every push triggers a full
// re-read of the hash so subscribers always see a causally-consistent
// snapshot. One pump goroutine per collection is the canonical subscription
// source for the whole process.
type RedisStore struct {
	client *redis.Client

	mu        sync.Mutex
	observers map[string]*observer
	pumps     map[string]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRedisStore(host, password string, db int) *RedisStore {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:         host,
			Password:     password,
			DB:           db,
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
		observers: make(map[string]*observer),
		pumps:     make(map[string]context.CancelFunc),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect verifies the connection with a ping.
func (s *RedisStore) Connect(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close stops all pumps and releases the client.
func (s *RedisStore) Close() error {
	s.cancel()
	return s.client.Close()
}

func (s *RedisStore) hashKey(collection string) string {
	return "rt:" + collection
}

func (s *RedisStore) channel(collection string) string {
	return "rt:" + collection + ":events"
}

func (s *RedisStore) Subscribe(collection string, fn SnapshotFunc) (func(), error) {
	s.mu.Lock()
	obs, ok := s.observers[collection]
	if !ok {
		obs = newObserver()
		s.observers[collection] = obs
		pumpCtx, cancel := context.WithCancel(s.ctx)
		s.pumps[collection] = cancel
		go s.pump(pumpCtx, collection, obs)
	}
	s.mu.Unlock()

	unsubscribe := obs.add(fn)

	snap, err := s.readSnapshot(s.ctx, collection)
	if err != nil {
		unsubscribe()
		return nil, fmt.Errorf("initial snapshot read: %w", err)
	}
	fn(snap)

	return unsubscribe, nil
}

// pump is the long-lived feed listener for one collection. Every published
// change key triggers a snapshot re-read; feed errors surface to
// subscribers as a StatusDisconnected delivery and the pump reconnects
// with backoff.
func (s *RedisStore) pump(ctx context.Context, collection string, obs *observer) {
	var last []Doc
	backoff := time.Second

	for {
		pubsub := s.client.Subscribe(ctx, s.channel(collection))
		// Confirm the subscription before trusting the channel.
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("collection", collection).Msg("Feed subscribe failed")
			obs.publish(Snapshot{Status: StatusDisconnected, Docs: last})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		// Resynchronize after (re)connecting.
		if snap, err := s.readSnapshot(ctx, collection); err == nil {
			last = snap.Docs
			obs.publish(snap)
		}

		ch := pubsub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case _, ok := <-ch:
				if !ok {
					break recv
				}
				snap, err := s.readSnapshot(ctx, collection)
				if err != nil {
					if ctx.Err() != nil {
						_ = pubsub.Close()
						return
					}
					log.Warn().Err(err).Str("collection", collection).Msg("Snapshot read failed")
					continue
				}
				last = snap.Docs
				obs.publish(snap)
			}
		}

		_ = pubsub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn().Str("collection", collection).Msg("Feed disconnected, reconnecting")
		obs.publish(Snapshot{Status: StatusDisconnected, Docs: last})
	}
}

func (s *RedisStore) readSnapshot(ctx context.Context, collection string) (Snapshot, error) {
	raw, err := s.client.HGetAll(ctx, s.hashKey(collection)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("read collection %s: %w", collection, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// Push keys are timestamp-prefixed, so lexical order is creation order.
	sort.Strings(keys)

	docs := make([]Doc, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, Doc{Key: k, Data: []byte(raw[k])})
	}
	return Snapshot{Status: StatusLive, Docs: docs}, nil
}

func (s *RedisStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	doc, err := s.client.HGet(ctx, s.hashKey(collection), key).Result()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", collection, key, err)
	}
	return []byte(doc), nil
}

func (s *RedisStore) Set(ctx context.Context, collection, key string, doc []byte) error {
	if err := s.client.HSet(ctx, s.hashKey(collection), key, doc).Err(); err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, key, err)
	}
	return s.publishChange(ctx, collection, key)
}

// Patch runs the read-merge-write inside a WATCH/MULTI transaction so two
// concurrent patchers can never lose each other's fields; a concurrent write
// to the collection aborts the transaction and the merge is retried against
// the fresh document.
func (s *RedisStore) Patch(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	hashKey := s.hashKey(collection)

	merge := func(tx *redis.Tx) error {
		stored, err := tx.HGet(ctx, hashKey, key).Result()
		if err == redis.Nil {
			return ErrKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("read %s/%s: %w", collection, key, err)
		}

		merged := make(map[string]interface{})
		if err := json.Unmarshal([]byte(stored), &merged); err != nil {
			return fmt.Errorf("decode stored document %s/%s: %w", collection, key, err)
		}
		for k, v := range fields {
			merged[k] = v
		}
		out, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode patched document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hashKey, key, out)
			return nil
		})
		return err
	}

	const maxRetries = 5
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.client.Watch(ctx, merge, hashKey)
		if err == nil {
			return s.publishChange(ctx, collection, key)
		}
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return fmt.Errorf("patch %s/%s: %w", collection, key, redis.TxFailedErr)
}

func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	removed, err := s.client.HDel(ctx, s.hashKey(collection), key).Result()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	if removed == 0 {
		return nil // already absent
	}
	return s.publishChange(ctx, collection, key)
}

func (s *RedisStore) NewKey() string {
	return NewPushKey(time.Now())
}

func (s *RedisStore) publishChange(ctx context.Context, collection, key string) error {
	if err := s.client.Publish(ctx, s.channel(collection), key).Err(); err != nil {
		return fmt.Errorf("publish change for %s/%s: %w", collection, key, err)
	}
	return nil
}
