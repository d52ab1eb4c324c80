package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"autoblog-backend/internal/infrastructure/identity"
)

// Service owns the process-wide session: one canonical state, mutated only
// by provider results, fanned out to every subscriber. Sign-in resolves in
// two stages: the base identity lands first (still Loading), then a remote
// claims fetch settles the admin flag and clears Loading.
type Service struct {
	provider     identity.Provider
	isAdminEmail func(string) bool

	mu      sync.Mutex
	current Session
	token   string
	seq     int // invalidates claim fetches that outlive their sign-in
	nextSub int
	subs    map[int]func(Session)
}

// NewService creates the session service. The state is Loading until Start
// resolves it.
func NewService(provider identity.Provider, isAdminEmail func(string) bool) *Service {
	return &Service{
		provider:     provider,
		isAdminEmail: isAdminEmail,
		current:      Session{Loading: true},
		subs:         make(map[int]func(Session)),
	}
}

// Start performs the first state resolution. There is no persisted session
// to restore, so the process begins signed out.
func (s *Service) Start() {
	s.push(Anonymous())
}

// Current returns the session as of the latest feed delivery.
func (s *Service) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the provider token of the signed-in session, empty when
// signed out.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers fn on the session feed. fn receives the current state
// immediately and every update after. The returned unsubscribe func is
// idempotent; after it returns, fn is not invoked again.
func (s *Service) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SignIn authenticates against the provider and returns the issued token.
// On failure the session state is left untouched and the error propagates;
// on success the update arrives through the feed: first the base identity
// (Loading still true), then the resolved admin flag once the claims fetch
// lands. Callers respond with the returned token, never with Token(): the
// singleton state may already belong to a later sign-in.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	user, token, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	s.establish(user, token)
	return token, nil
}

// SignUp registers a new account; a successful registration signs the
// account in, exactly like SignIn.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (string, error) {
	user, token, err := s.provider.Register(ctx, email, password, name)
	if err != nil {
		return "", err
	}
	s.establish(user, token)
	return token, nil
}

// SignOut tears the session down at the provider and resets the state to
// unauthenticated. A pending claims fetch from the previous sign-in is
// discarded, never applied.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token != "" {
		if err := s.provider.SignOut(ctx, token); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.seq++
	s.token = ""
	s.mu.Unlock()
	s.push(Anonymous())
	return nil
}

// establish publishes the base identity and kicks off the claims fetch.
func (s *Service) establish(user identity.User, token string) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.token = token
	s.mu.Unlock()

	s.push(Session{User: &user, Loading: true})

	go s.resolveClaims(seq, user, token)
}

// resolveClaims is the second stage of sign-in: the remote claims fetch.
// The admin flag is a two-source OR of the static allow-list and the token
// claim; a failed fetch degrades to the allow-list alone rather than
// blocking the session forever.
func (s *Service) resolveClaims(seq int, user identity.User, token string) {
	claims, err := s.provider.FetchClaims(context.Background(), token)
	if err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("Claims fetch failed, using allow-list only")
	}

	s.mu.Lock()
	if s.seq != seq {
		// The session changed while the fetch was in flight; the result
		// belongs to a dead sign-in and must not be applied.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	admin := s.isAdminEmail(user.Email) || claims.Admin
	s.push(Session{User: &user, Loading: false, IsAdmin: admin})
}

// push installs the new state and delivers it to every subscriber, checking
// membership per subscriber so unsubscribes between deliveries stick.
func (s *Service) push(next Session) {
	s.mu.Lock()
	s.current = next
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.mu.Lock()
		fn, ok := s.subs[id]
		s.mu.Unlock()
		if ok {
			fn(next)
		}
	}
}
