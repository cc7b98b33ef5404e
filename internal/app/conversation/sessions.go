package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// State is where a session is in its request/response cycle.
type State string

const (
	StateIdle               State = "idle"
	StateAwaitingUserInput  State = "awaiting_user_input"
	StateClassifying        State = "classifying"
	StateRespondingPrimary  State = "responding_primary"
	StateRespondingFollowUp State = "responding_follow_up"
)

// liveSession is the in-process side of a chat session: its cancellation
// scope and current state. It is never persisted.
type liveSession struct {
	id     domain.SessionID
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
}

func (l *liveSession) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// transition moves to next only if the session is still in from.
func (l *liveSession) transition(from, next State) {
	l.mu.Lock()
	if l.state == from {
		l.state = next
	}
	l.mu.Unlock()
}

func (l *liveSession) currentState() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// registry tracks live sessions with an idle TTL. Removing an entry for any
// reason cancels its context.
type registry struct {
	mu    sync.Mutex
	root  context.Context
	cache *cache.Cache
}

func newRegistry(root context.Context, idleTTL time.Duration) *registry {
	cleanup := idleTTL / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}

	c := cache.New(idleTTL, cleanup)
	c.OnEvicted(func(_ string, v interface{}) {
		if live, ok := v.(*liveSession); ok {
			live.cancel()
		}
	})

	return &registry{root: root, cache: c}
}

// acquire returns the live session for id, creating it when absent or
// expired, and refreshes its idle TTL.
func (r *registry) acquire(id domain.SessionID) *liveSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := string(id)
	if v, ok := r.cache.Get(key); ok {
		live := v.(*liveSession)
		r.cache.Set(key, live, cache.DefaultExpiration)
		return live
	}

	// An expired entry may still sit in the map until the janitor runs;
	// Delete fires OnEvicted so its context is cancelled before replacement.
	r.cache.Delete(key)

	ctx, cancel := context.WithCancel(r.root)
	live := &liveSession{id: id, ctx: ctx, cancel: cancel, state: StateIdle}
	r.cache.Set(key, live, cache.DefaultExpiration)
	return live
}

func (r *registry) get(id domain.SessionID) (*liveSession, bool) {
	v, ok := r.cache.Get(string(id))
	if !ok {
		return nil, false
	}
	return v.(*liveSession), true
}

// end removes the session and reports whether it was live.
func (r *registry) end(id domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, live := r.cache.Get(string(id))
	r.cache.Delete(string(id))
	return live
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.DeleteExpired()
	for key := range r.cache.Items() {
		r.cache.Delete(key)
	}
}
