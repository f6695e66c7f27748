package session

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/research-copilot/backend/pkg/arxiv"
)

// historyLimit caps the rolling chat history per session at 10 exchanges
// (one user line plus one assistant line each).
const historyLimit = 20

// Session ties a research topic, its source papers and the synthesized
// report to a rolling chat history. Sessions are owned by the Store;
// callers only ever see copies.
type Session struct {
	ID      string
	Topic   string
	Papers  []arxiv.Paper
	Report  string
	History []string

	createdAt time.Time
	expiresAt time.Time
}

// Config controls store capacity. Zero values fall back to the defaults.
type Config struct {
	// TTL is the idle lifetime of a session; chat activity refreshes it.
	TTL time.Duration
	// MaxSessions bounds the store; the oldest sessions are evicted past it.
	MaxSessions int
}

const (
	defaultTTL         = time.Hour
	defaultMaxSessions = 1000
)

// Store is an in-memory session store safe for concurrent use. It is
// constructed once at process start and handed to request handlers; state
// lives for the process lifetime only.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
}

// NewStore creates a session store with the given capacity configuration.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	return &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// Create inserts a new session with an empty history and returns its id.
// Ids carry the creation time with a random suffix so concurrent requests
// in the same millisecond cannot collide.
func (s *Store) Create(topic string, papers []arxiv.Paper, reportText string) string {
	now := time.Now()
	suffix, _ := gonanoid.New()
	id := fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	s.sessions[id] = &Session{
		ID:      id,
		Topic:   topic,
		Papers:  papers,
		Report:  reportText,
		History: []string{},

		createdAt: now,
		expiresAt: now.Add(s.cfg.TTL),
	}

	return id
}

// Get returns a copy of the session, or false when the id is unknown or
// the session has expired. Expired sessions are removed on sight.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.sessions, id)
		return Session{}, false
	}

	return s.copyLocked(sess), true
}

// AppendTurn appends one user message and one assistant reply to the
// session history, trimming to the newest entries when the cap is
// exceeded, and refreshes the session TTL. It reports whether the session
// existed.
func (s *Store) AppendTurn(id string, userMessage string, assistantReply string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}

	sess.History = append(sess.History,
		"User: "+userMessage,
		"Assistant: "+assistantReply,
	)
	if len(sess.History) > historyLimit {
		sess.History = sess.History[len(sess.History)-historyLimit:]
	}
	sess.expiresAt = time.Now().Add(s.cfg.TTL)

	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// sweepLocked drops expired sessions, then evicts the oldest-created ones
// until the store fits one more entry. Callers must hold the write lock.
func (s *Store) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
		}
	}

	for len(s.sessions) >= s.cfg.MaxSessions {
		oldestID := ""
		var oldest time.Time
		for id, sess := range s.sessions {
			if oldestID == "" || sess.createdAt.Before(oldest) {
				oldestID = id
				oldest = sess.createdAt
			}
		}
		if oldestID == "" {
			return
		}
		delete(s.sessions, oldestID)
	}
}

func (s *Store) copyLocked(sess *Session) Session {
	out := *sess
	out.Papers = append([]arxiv.Paper(nil), sess.Papers...)
	out.History = append([]string(nil), sess.History...)
	return out
}
