package post

import "context"

// Snapshot is the full post collection as delivered by the change feed,
// in creation order. Live is false while the feed is disconnected, in which
// case Posts carry the last state observed before the disconnect.
type Snapshot struct {
	Posts []Post
	Live  bool
}

// SnapshotFunc receives collection snapshots.
type SnapshotFunc func(Snapshot)

// Repository is the write path and the live view of the post collection.
// Mutations go to the store and are confirmed only by the snapshot push that
// follows; there is no optimistic local state.
type Repository interface {
	// Subscribe registers fn to receive the entire collection, immediately
	// and after every change anywhere in it. The unsubscribe func is
	// idempotent and guarantees no further delivery once it returns.
	Subscribe(fn SnapshotFunc) (func(), error)

	// Create allocates a key, derives excerpt and date, and writes the post.
	// Returns the stored post with its new ID. Fails with ErrWriteFailed.
	Create(ctx context.Context, f Fields) (Post, error)

	// Update overwrites the author-supplied fields of an existing post and
	// recomputes the excerpt; the publish date is left untouched. Fails with
	// ErrPostNotFound or ErrWriteFailed.
	Update(ctx context.Context, id string, f Fields) error

	// Delete removes a post. Deleting an absent post is a no-op. Fails with
	// ErrWriteFailed on store errors.
	Delete(ctx context.Context, id string) error

	// Get is a one-shot read used to load the edit form; it is independent
	// of the subscription. Fails with ErrPostNotFound or ErrLoadFailed.
	Get(ctx context.Context, id string) (Post, error)
}
