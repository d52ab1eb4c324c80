package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog-backend/internal/domains/post"
)

func drainSnapshots(ch chan snapshotMessage) []snapshotMessage {
	out := make([]snapshotMessage, 0, cap(ch))
	for {
		select {
		case msg := <-ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestEnqueueLatest_FitsInBuffer(t *testing.T) {
	send := make(chan snapshotMessage, 2)

	enqueueLatest(send, snapshotMessage{Posts: []post.Post{{Title: "one"}}})
	enqueueLatest(send, snapshotMessage{Posts: []post.Post{{Title: "two"}}})

	got := drainSnapshots(send)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Posts[0].Title)
	assert.Equal(t, "two", got[1].Posts[0].Title)
}

func TestEnqueueLatest_FullBufferKeepsNewestSnapshot(t *testing.T) {
	send := make(chan snapshotMessage, 2)

	enqueueLatest(send, snapshotMessage{Posts: []post.Post{{Title: "one"}}})
	enqueueLatest(send, snapshotMessage{Posts: []post.Post{{Title: "two"}}})
	enqueueLatest(send, snapshotMessage{Posts: []post.Post{{Title: "three"}}})

	got := drainSnapshots(send)
	require.Len(t, got, 2)
	// the oldest delivery was evicted; the newest always lands
	assert.Equal(t, "two", got[0].Posts[0].Title)
	assert.Equal(t, "three", got[1].Posts[0].Title)
}
