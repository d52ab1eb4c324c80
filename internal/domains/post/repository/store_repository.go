package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"autoblog-backend/internal/domains/post"
	"autoblog-backend/internal/infrastructure/realtime"
)

// storeRepository implements post.Repository over the realtime store.
type storeRepository struct {
	store realtime.Store
}

// NewStoreRepository creates the post repository backed by store.
func NewStoreRepository(store realtime.Store) post.Repository {
	return &storeRepository{store: store}
}

func (r *storeRepository) Subscribe(fn post.SnapshotFunc) (func(), error) {
	unsubscribe, err := r.store.Subscribe(post.Collection, func(snap realtime.Snapshot) {
		fn(decodeSnapshot(snap))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", post.Collection, err)
	}
	return unsubscribe, nil
}

func (r *storeRepository) Create(ctx context.Context, f post.Fields) (post.Post, error) {
	key := r.store.NewKey()
	p := post.New(f, time.Now())

	doc, err := json.Marshal(p)
	if err != nil {
		return post.Post{}, fmt.Errorf("%w: %v", post.ErrWriteFailed, err)
	}
	if err := r.store.Set(ctx, post.Collection, key, doc); err != nil {
		return post.Post{}, fmt.Errorf("%w: %v", post.ErrWriteFailed, err)
	}

	p.ID = key
	return p, nil
}

func (r *storeRepository) Update(ctx context.Context, id string, f post.Fields) error {
	// Existence check first so a bad id surfaces as not-found, not as a
	// blind partial write creating a half-formed document.
	if _, err := r.store.Get(ctx, post.Collection, id); err != nil {
		if errors.Is(err, realtime.ErrKeyNotFound) {
			return post.ErrPostNotFound
		}
		return fmt.Errorf("%w: %v", post.ErrWriteFailed, err)
	}

	// Field-level overwrite: date is deliberately absent so the publish
	// date set at creation survives every edit.
	fields := map[string]interface{}{
		"title":    f.Title,
		"content":  f.Content,
		"category": f.Category,
		"imageUrl": f.ImageURL,
		"excerpt":  post.MakeExcerpt(f.Content),
	}
	if err := r.store.Patch(ctx, post.Collection, id, fields); err != nil {
		if errors.Is(err, realtime.ErrKeyNotFound) {
			return post.ErrPostNotFound
		}
		return fmt.Errorf("%w: %v", post.ErrWriteFailed, err)
	}
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	// The store treats deleting an absent key as a no-op, and so do we.
	if err := r.store.Delete(ctx, post.Collection, id); err != nil {
		return fmt.Errorf("%w: %v", post.ErrWriteFailed, err)
	}
	return nil
}

func (r *storeRepository) Get(ctx context.Context, id string) (post.Post, error) {
	doc, err := r.store.Get(ctx, post.Collection, id)
	if err != nil {
		if errors.Is(err, realtime.ErrKeyNotFound) {
			return post.Post{}, post.ErrPostNotFound
		}
		return post.Post{}, fmt.Errorf("%w: %v", post.ErrLoadFailed, err)
	}

	var p post.Post
	if err := json.Unmarshal(doc, &p); err != nil {
		return post.Post{}, fmt.Errorf("%w: %v", post.ErrLoadFailed, err)
	}
	p.ID = id
	return p, nil
}

// decodeSnapshot turns raw store docs into posts, keeping delivery order.
// A document that fails to decode is skipped and logged rather than taking
// the whole snapshot down.
func decodeSnapshot(snap realtime.Snapshot) post.Snapshot {
	posts := make([]post.Post, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var p post.Post
		if err := json.Unmarshal(doc.Data, &p); err != nil {
			log.Warn().Err(err).Str("key", doc.Key).Msg("Skipping undecodable post document")
			continue
		}
		p.ID = doc.Key
		posts = append(posts, p)
	}
	return post.Snapshot{
		Posts: posts,
		Live:  snap.Status == realtime.StatusLive,
	}
}
