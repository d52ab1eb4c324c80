package session

import "autoblog-backend/internal/infrastructure/identity"

// Session is the viewer's authentication state as one continuously-updated
// triple. Loading stays true from a sign-in until the claims fetch settles,
// so IsAdmin can never be read as a stale false while the second stage is
// still in flight.
type Session struct {
	User    *identity.User
	Loading bool
	IsAdmin bool
}

// Anonymous is the resolved signed-out state.
func Anonymous() Session {
	return Session{User: nil, Loading: false, IsAdmin: false}
}
