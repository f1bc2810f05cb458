package dashboard

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Session is the state of one interactive browsing session: the current
// filter, the titles already rendered and the last view shown for that
// filter. The seen set only grows.
type Session struct {
	ID string

	mu     sync.Mutex
	filter Filter
	seen   map[string]struct{}
	last   *View
}

func newSession(id string) *Session {
	return &Session{
		ID:   id,
		seen: make(map[string]struct{}),
	}
}

// MarkSeen records title and reports whether it was not seen before.
func (s *Session) MarkSeen(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[title]; ok {
		return false
	}
	s.seen[title] = struct{}{}
	return true
}

// Seen reports whether title was already rendered in this session.
func (s *Session) Seen(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[title]
	return ok
}

// SeenCount returns the size of the seen-titles set.
func (s *Session) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Filter returns the last selection applied to the session.
func (s *Session) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// applyFilter switches the session to f. When f is the current selection and
// a view was remembered for it, that view is returned with ok set.
func (s *Session) applyFilter(f Filter) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter == f && s.last != nil {
		return s.last.clone(), true
	}
	s.filter = f
	s.last = nil
	return View{}, false
}

// remember keeps v as the view for the current selection. Views for a
// selection that has since changed are ignored.
func (s *Session) remember(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter != v.Filter {
		return
	}
	c := v.clone()
	s.last = &c
}

// SessionStore keeps sessions in memory, bounded by count and idle time.
// Evicted sessions start over with an empty seen set.
type SessionStore struct {
	cache *expirable.LRU[string, *Session]
}

// NewSessionStore creates a store holding at most size sessions, each
// expiring after ttl without use.
func NewSessionStore(size int, ttl time.Duration) *SessionStore {
	if size <= 0 {
		size = 1
	}
	return &SessionStore{
		cache: expirable.NewLRU[string, *Session](size, nil, ttl),
	}
}

// Get returns a live session and refreshes its expiry.
func (s *SessionStore) Get(id string) (*Session, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	s.cache.Add(id, sess)
	return sess, true
}

// Create starts a new session with a random id.
func (s *SessionStore) Create() *Session {
	sess := newSession(uuid.NewString())
	s.cache.Add(sess.ID, sess)
	return sess
}

// Resolve returns the session for id, creating a fresh one when id is
// unknown or expired. created reports which happened.
func (s *SessionStore) Resolve(id string) (sess *Session, created bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	return s.Create(), true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.cache.Len()
}
