// Package session keeps the short-lived streaming sessions created by the
// dispatcher and consumed by the stream emitter.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/mcp-weather-server/internal/query"
)

const (
	// DefaultTTL is how long a session can wait for its stream connection.
	DefaultTTL = 60 * time.Second
	// DefaultRetention is how long a session record is kept after creation.
	DefaultRetention = 5 * time.Minute

	maxIDAttempts = 8
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrExpired          = errors.New("session expired")
	ErrAlreadyConsumed  = errors.New("session already consumed")
	ErrIDSpaceExhausted = errors.New("session id space exhausted")
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusExpired
	StatusConsumed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusExpired:
		return "expired"
	case StatusConsumed:
		return "consumed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// terminal reports whether no further claim can succeed.
func (s Status) terminal() bool {
	return s == StatusExpired || s == StatusConsumed
}

// Session binds a generated id to a previously interpreted query.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	Status    Status
	Query     query.Interpreted
}

// SweepStats reports what a Sweep pass did.
type SweepStats struct {
	Expired int
	Removed int
}

// Registry is a concurrency-safe in-memory session registry.
// A single mutex guards every record, which makes Claim exactly-once.
type Registry struct {
	mu sync.Mutex

	// key: session id
	sessions map[string]*Session

	ttl       time.Duration
	retention time.Duration

	now   func() time.Time
	newID func() (string, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIDGenerator replaces the random id source.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *Registry) {
		r.newID = gen
	}
}

// NewRegistry creates a registry. A non-positive ttl or retention falls back
// to the defaults; retention is never shorter than ttl.
func NewRegistry(ttl, retention time.Duration, options ...Option) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if retention < ttl {
		retention = ttl
	}

	r := &Registry{
		sessions:  make(map[string]*Session),
		ttl:       ttl,
		retention: retention,
		now:       time.Now,
		newID:     randomID,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// randomID returns 128 random bits as 32 hex characters.
func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

// Create registers a pending session for q and returns its id.
func (r *Registry) Create(q query.Interpreted) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return "", err
		}
		if _, taken := r.sessions[id]; taken {
			continue
		}

		r.sessions[id] = &Session{
			ID:        id,
			CreatedAt: now,
			ExpiresAt: now.Add(r.ttl),
			Status:    StatusPending,
			Query:     q,
		}
		return id, nil
	}
	return "", ErrIDSpaceExhausted
}

// Claim consumes the session and returns its query. Only the first caller for
// a given id succeeds; later callers get ErrAlreadyConsumed.
func (r *Registry) Claim(id string) (query.Interpreted, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return query.Interpreted{}, ErrNotFound
	}

	switch s.Status {
	case StatusConsumed:
		return query.Interpreted{}, ErrAlreadyConsumed
	case StatusExpired:
		return query.Interpreted{}, ErrExpired
	}

	if !r.now().Before(s.ExpiresAt) {
		s.Status = StatusExpired
		return query.Interpreted{}, ErrExpired
	}

	s.Status = StatusConsumed
	return s.Query, nil
}

// Lookup returns a copy of the session record.
func (r *Registry) Lookup(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Sweep expires overdue sessions and drops records older than the retention
// window. The lock is held for the duration of the pass only.
func (r *Registry) Sweep(now time.Time) SweepStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats SweepStats
	for id, s := range r.sessions {
		if !s.Status.terminal() && !now.Before(s.ExpiresAt) {
			s.Status = StatusExpired
			stats.Expired++
		}
		if now.Sub(s.CreatedAt) >= r.retention {
			delete(r.sessions, id)
			stats.Removed++
		}
	}
	return stats
}
