package session

import "sync"

// State is the access-guard decision for a protected view.
type State int

const (
	// StatePending: the session is still resolving; show a loading
	// indicator, perform no redirect.
	StatePending State = iota
	// StateDenied: no user, or the user lacks admin; redirect to sign-in
	// exactly once per transition into this state.
	StateDenied
	// StateGranted: an admin user is present; render protected content.
	StateGranted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDenied:
		return "denied"
	case StateGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// SignInPath is where denied viewers are sent.
const SignInPath = "/login"

// Evaluate is the pure guard decision for a session. The redirect side
// effect lives in Watcher so this stays testable without any rendering or
// navigation environment.
func Evaluate(s Session) State {
	if s.Loading {
		return StatePending
	}
	if s.User == nil || !s.IsAdmin {
		return StateDenied
	}
	return StateGranted
}

// Navigator performs the redirect side effect on behalf of a Watcher.
type Navigator interface {
	Redirect(path string)
}

// Watcher re-evaluates the guard on every session update and redirects to
// the sign-in page exactly once per transition into StateDenied. Staying
// denied never re-fires; a sign-out while granted transitions
// GRANTED -> DENIED and redirects immediately.
type Watcher struct {
	nav Navigator

	mu     sync.Mutex
	last   State
	primed bool
}

func NewWatcher(nav Navigator) *Watcher {
	return &Watcher{nav: nav}
}

// Observe feeds one session update through the guard and returns the
// resulting state.
func (w *Watcher) Observe(s Session) State {
	state := Evaluate(s)

	w.mu.Lock()
	entered := state == StateDenied && (!w.primed || w.last != StateDenied)
	w.last = state
	w.primed = true
	w.mu.Unlock()

	if entered {
		w.nav.Redirect(SignInPath)
	}
	return state
}

// Watch wires the watcher to a session feed; the returned unsubscribe func
// is idempotent.
func (w *Watcher) Watch(svc *Service) func() {
	return svc.Subscribe(func(s Session) {
		w.Observe(s)
	})
}
