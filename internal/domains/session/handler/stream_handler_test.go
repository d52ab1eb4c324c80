package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog-backend/internal/domains/session"
)

func drainMessages(ch chan sessionMessage) []sessionMessage {
	out := make([]sessionMessage, 0, cap(ch))
	for {
		select {
		case msg := <-ch:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestEnqueueLatest_FullBufferKeepsNewestState(t *testing.T) {
	send := make(chan sessionMessage, 2)

	enqueueLatest(send, sessionMessage{State: session.StatePending.String()})
	enqueueLatest(send, sessionMessage{State: session.StateDenied.String()})
	enqueueLatest(send, sessionMessage{State: session.StateGranted.String()})

	got := drainMessages(send)
	require.Len(t, got, 2)
	assert.Equal(t, "denied", got[0].State)
	assert.Equal(t, "granted", got[1].State)
}

func TestEnqueueLatest_RedirectSurvivesEviction(t *testing.T) {
	send := make(chan sessionMessage, 1)

	enqueueLatest(send, sessionMessage{
		State:    session.StateDenied.String(),
		Redirect: session.SignInPath,
	})
	// the denied delivery is still buffered when the next update lands; the
	// redirect must ride forward instead of vanishing with the eviction
	enqueueLatest(send, sessionMessage{State: session.StateDenied.String()})

	got := drainMessages(send)
	require.Len(t, got, 1)
	assert.Equal(t, session.SignInPath, got[0].Redirect)
}

func TestEnqueueLatest_OwnRedirectWins(t *testing.T) {
	send := make(chan sessionMessage, 1)

	enqueueLatest(send, sessionMessage{Redirect: "/somewhere-old"})
	enqueueLatest(send, sessionMessage{Redirect: session.SignInPath})

	got := drainMessages(send)
	require.Len(t, got, 1)
	assert.Equal(t, session.SignInPath, got[0].Redirect)
}
