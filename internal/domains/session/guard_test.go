package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog-backend/internal/infrastructure/identity"
)

type recordingNavigator struct {
	redirects []string
}

func (n *recordingNavigator) Redirect(path string) {
	n.redirects = append(n.redirects, path)
}

func TestEvaluate(t *testing.T) {
	user := &identity.User{Email: "user@example.com"}

	tests := []struct {
		name    string
		session Session
		want    State
	}{
		{"loading without user", Session{Loading: true}, StatePending},
		{"loading with user", Session{User: user, Loading: true}, StatePending},
		{"no user", Session{}, StateDenied},
		{"user without admin", Session{User: user}, StateDenied},
		{"admin user", Session{User: user, IsAdmin: true}, StateGranted},
		{"admin flag without user", Session{IsAdmin: true}, StateDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.session))
		})
	}
}

func TestWatcher_RedirectsOncePerDeniedTransition(t *testing.T) {
	nav := &recordingNavigator{}
	w := NewWatcher(nav)
	user := &identity.User{Email: "user@example.com"}

	assert.Equal(t, StatePending, w.Observe(Session{Loading: true}))
	assert.Empty(t, nav.redirects, "pending never redirects")

	assert.Equal(t, StateDenied, w.Observe(Session{}))
	assert.Equal(t, []string{SignInPath}, nav.redirects)

	// staying denied does not re-fire
	w.Observe(Session{})
	w.Observe(Session{User: user})
	assert.Len(t, nav.redirects, 1)

	// leaving and re-entering denied fires again
	assert.Equal(t, StateGranted, w.Observe(Session{User: user, IsAdmin: true}))
	assert.Equal(t, StateDenied, w.Observe(Session{}))
	assert.Len(t, nav.redirects, 2)
}

func TestWatcher_ImmediateDenialRedirects(t *testing.T) {
	nav := &recordingNavigator{}
	w := NewWatcher(nav)

	// first observation is already denied; there is no prior state, the
	// transition into denied still counts
	assert.Equal(t, StateDenied, w.Observe(Session{}))
	assert.Equal(t, []string{SignInPath}, nav.redirects)
}

func TestWatcher_SignOutWhileGranted(t *testing.T) {
	nav := &recordingNavigator{}
	w := NewWatcher(nav)
	user := &identity.User{Email: "admin@example.com"}

	w.Observe(Session{Loading: true})
	w.Observe(Session{User: user, IsAdmin: true})
	require.Empty(t, nav.redirects)

	w.Observe(Anonymous())
	assert.Equal(t, []string{SignInPath}, nav.redirects)
}

func TestWatcher_WatchFollowsServiceFeed(t *testing.T) {
	provider := newFakeProvider()
	provider.claims = identity.Claims{Admin: true}
	svc := NewService(provider, notAdminEmail)

	nav := &recordingNavigator{}
	w := NewWatcher(nav)
	unsubscribe := w.Watch(svc)
	defer unsubscribe()

	// initial state is loading; no redirect yet
	require.Empty(t, nav.redirects)

	svc.Start()
	assert.Equal(t, []string{SignInPath}, nav.redirects, "anonymous resolution denies once")

	updates, feedUnsub := collectFeed(t, svc)
	defer feedUnsub()
	waitSession(t, updates)

	_, err := svc.SignIn(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	waitSession(t, updates)
	waitSession(t, updates)
	assert.Len(t, nav.redirects, 1, "pending then granted adds no redirect")

	require.NoError(t, svc.SignOut(context.Background()))
	waitSession(t, updates)
	assert.Len(t, nav.redirects, 2, "sign-out transitions granted to denied")
}
