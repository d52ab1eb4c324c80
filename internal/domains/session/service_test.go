package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog-backend/internal/infrastructure/identity"
)

// fakeProvider scripts identity responses. claimsGate, when set, holds
// FetchClaims until closed so tests can order the two sign-in stages.
type fakeProvider struct {
	mu           sync.Mutex
	user         identity.User
	authErr      error
	claims       identity.Claims
	claimsErr    error
	claimsGate   chan struct{}
	signOutCalls int
}

func (f *fakeProvider) Authenticate(ctx context.Context, email, password string) (identity.User, string, error) {
	if f.authErr != nil {
		return identity.User{}, "", f.authErr
	}
	u := f.user
	u.Email = email
	return u, "token-for-" + email, nil
}

func (f *fakeProvider) Register(ctx context.Context, email, password, name string) (identity.User, string, error) {
	return f.Authenticate(ctx, email, password)
}

func (f *fakeProvider) SignOut(ctx context.Context, token string) error {
	f.mu.Lock()
	f.signOutCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeProvider) FetchClaims(ctx context.Context, token string) (identity.Claims, error) {
	if f.claimsGate != nil {
		<-f.claimsGate
	}
	return f.claims, f.claimsErr
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		user: identity.User{
			ID:    uuid.New(),
			Email: "user@example.com",
			Name:  "User",
		},
	}
}

func notAdminEmail(string) bool { return false }

// collectFeed subscribes a channel-backed recorder to the service.
func collectFeed(t *testing.T, svc *Service) (<-chan Session, func()) {
	t.Helper()
	updates := make(chan Session, 16)
	unsubscribe := svc.Subscribe(func(s Session) {
		updates <- s
	})
	return updates, unsubscribe
}

func waitSession(t *testing.T, updates <-chan Session) Session {
	t.Helper()
	select {
	case s := <-updates:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session update")
		return Session{}
	}
}

func assertNoUpdate(t *testing.T, updates <-chan Session) {
	t.Helper()
	select {
	case s := <-updates:
		t.Fatalf("unexpected session update: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestService_StartResolvesToAnonymous(t *testing.T) {
	svc := NewService(newFakeProvider(), notAdminEmail)

	assert.True(t, svc.Current().Loading, "loading until first resolution")

	updates, unsubscribe := collectFeed(t, svc)
	defer unsubscribe()
	require.True(t, waitSession(t, updates).Loading)

	svc.Start()
	got := waitSession(t, updates)
	assert.False(t, got.Loading)
	assert.Nil(t, got.User)
	assert.False(t, got.IsAdmin)
}

func TestService_SignInResolvesInTwoStages(t *testing.T) {
	provider := newFakeProvider()
	provider.claims = identity.Claims{Admin: true}
	svc := NewService(provider, notAdminEmail)
	svc.Start()

	updates, unsubscribe := collectFeed(t, svc)
	defer unsubscribe()
	waitSession(t, updates) // initial anonymous state

	token, err := svc.SignIn(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "token-for-user@example.com", token)

	first := waitSession(t, updates)
	require.NotNil(t, first.User)
	assert.Equal(t, provider.user.Email, first.User.Email)
	assert.True(t, first.Loading, "admin flag still resolving")
	assert.False(t, first.IsAdmin, "never report admin before the claims fetch lands")

	second := waitSession(t, updates)
	assert.False(t, second.Loading)
	assert.True(t, second.IsAdmin)
	assert.Equal(t, token, svc.Token())
}

func TestService_AdminFlagIsTwoSourceOr(t *testing.T) {
	tests := []struct {
		name      string
		allowList bool
		claim     bool
		want      bool
	}{
		{"neither source", false, false, false},
		{"allow-list only", true, false, true},
		{"claim only", false, true, true},
		{"both sources", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			provider.claims = identity.Claims{Admin: tt.claim}
			svc := NewService(provider, func(string) bool { return tt.allowList })
			svc.Start()

			updates, unsubscribe := collectFeed(t, svc)
			defer unsubscribe()
			waitSession(t, updates)

			_, err := svc.SignIn(context.Background(), "user@example.com", "secret")
			require.NoError(t, err)
			waitSession(t, updates) // loading stage

			resolved := waitSession(t, updates)
			assert.Equal(t, tt.want, resolved.IsAdmin)
		})
	}
}

func TestService_ClaimsFetchFailureDegradesToAllowList(t *testing.T) {
	provider := newFakeProvider()
	provider.claimsErr = identity.ErrInvalidToken
	svc := NewService(provider, func(email string) bool { return email == "user@example.com" })
	svc.Start()

	updates, unsubscribe := collectFeed(t, svc)
	defer unsubscribe()
	waitSession(t, updates)

	_, err := svc.SignIn(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	waitSession(t, updates) // loading stage

	resolved := waitSession(t, updates)
	assert.False(t, resolved.Loading)
	assert.True(t, resolved.IsAdmin, "allow-list decides when the fetch fails")
}

func TestService_SignInFailureLeavesStateUntouched(t *testing.T) {
	provider := newFakeProvider()
	provider.authErr = identity.ErrInvalidCredentials
	svc := NewService(provider, notAdminEmail)
	svc.Start()

	updates, unsubscribe := collectFeed(t, svc)
	defer unsubscribe()
	waitSession(t, updates)

	token, err := svc.SignIn(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Empty(t, token)
	assertNoUpdate(t, updates)
	assert.Nil(t, svc.Current().User)
}

func TestService_SignOutDiscardsPendingClaims(t *testing.T) {
	provider := newFakeProvider()
	provider.claims = identity.Claims{Admin: true}
	provider.claimsGate = make(chan struct{})
	svc := NewService(provider, notAdminEmail)
	svc.Start()

	updates, unsubscribe := collectFeed(t, svc)
	defer unsubscribe()
	waitSession(t, updates)

	_, err := svc.SignIn(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	waitSession(t, updates) // loading stage, claims fetch still gated

	require.NoError(t, svc.SignOut(context.Background()))
	signedOut := waitSession(t, updates)
	assert.Nil(t, signedOut.User)
	assert.False(t, signedOut.Loading)

	// release the stale fetch; its result belongs to a dead sign-in
	close(provider.claimsGate)
	assertNoUpdate(t, updates)
	assert.Nil(t, svc.Current().User)
	assert.Empty(t, svc.Token())
}

func TestService_SignInReturnsCallersOwnToken(t *testing.T) {
	svc := NewService(newFakeProvider(), notAdminEmail)
	svc.Start()

	aliceToken, err := svc.SignIn(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	bobToken, err := svc.SignIn(context.Background(), "bob@example.com", "secret")
	require.NoError(t, err)

	// the singleton has moved on to bob, but alice's return value must still
	// be the token issued for her
	assert.Equal(t, "token-for-alice@example.com", aliceToken)
	assert.Equal(t, "token-for-bob@example.com", bobToken)
	assert.Equal(t, bobToken, svc.Token())
}

func TestService_SubscribeDeliversCurrentStateImmediately(t *testing.T) {
	svc := NewService(newFakeProvider(), notAdminEmail)
	svc.Start()

	var got []Session
	unsubscribe := svc.Subscribe(func(s Session) {
		got = append(got, s)
	})
	defer unsubscribe()

	require.Len(t, got, 1)
	assert.False(t, got[0].Loading)
	assert.Nil(t, got[0].User)
}

func TestService_UnsubscribeIsIdempotent(t *testing.T) {
	provider := newFakeProvider()
	svc := NewService(provider, notAdminEmail)
	svc.Start()

	calls := 0
	unsubscribe := svc.Subscribe(func(Session) { calls++ })
	require.Equal(t, 1, calls)

	other, otherUnsub := collectFeed(t, svc)
	defer otherUnsub()
	waitSession(t, other)

	unsubscribe()
	unsubscribe()

	_, err := svc.SignIn(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	waitSession(t, other)
	waitSession(t, other)

	assert.Equal(t, 1, calls, "no delivery after unsubscribe")
}
