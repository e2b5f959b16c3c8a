package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bgaming-proxy/internal/models"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// SessionCache is the fast-lookup index in front of the durable store.
// Entries may be forgotten after the configured TTL; that is a cache
// eviction, not a session expiry.
type SessionCache interface {
	Get(tokenInternal string) (*models.Session, bool)
	Put(tokenInternal string, session *models.Session)
	Del(tokenInternal string)
}

// SessionStore keeps every session for the process lifetime and serializes
// mutations per internal token. The durable backing is an in-process map;
// sessions are never physically deleted, expiry is a state transition.
// Records in the map are read and written only under mu; the keyed locks
// additionally order mutations of the same token.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	locks    map[string]*sync.Mutex

	cache       SessionCache
	broadcaster Broadcaster
}

func NewSessionStore(cache SessionCache, broadcaster Broadcaster) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*models.Session),
		locks:       make(map[string]*sync.Mutex),
		cache:       cache,
		broadcaster: broadcaster,
	}
}

func (s *SessionStore) lockFor(tokenInternal string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[tokenInternal]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[tokenInternal] = lock
	}
	return lock
}

type CreateSessionParams struct {
	PlayerID   string
	OperatorID string
	GameID     string
	GameGID    string
	Currency   string
	Provider   string
	Mode       string
}

// Create allocates a fresh internal token, stores the session in state
// SESSION_INIT and seeds the fast-lookup cache.
func (s *SessionStore) Create(params CreateSessionParams) *models.Session {
	now := time.Now()
	session := &models.Session{
		PlayerID:       params.PlayerID,
		OperatorID:     params.OperatorID,
		GameID:         params.GameID,
		GameIDOriginal: params.GameGID,
		Currency:       params.Currency,
		TokenInternal:  models.GenerateInternalToken(),
		ExtraMeta: models.ExtraMeta{
			Provider: params.Provider,
			Mode:     params.Mode,
		},
		State:     models.StateInit,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.TokenInternal] = session
	s.mu.Unlock()

	s.cache.Put(session.TokenInternal, copySession(session))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastSessionState(session.PlayerID, session.TokenInternal, session.State)
	}

	return copySession(session)
}

// Find looks up a session by its composite key, cache first. A cache miss
// falls back to the durable store; a record inside its TTL window is always
// reachable.
func (s *SessionStore) Find(playerID, tokenInternal string) (*models.Session, error) {
	if cached, ok := s.cache.Get(tokenInternal); ok && cached.PlayerID == playerID {
		return cached, nil
	}

	s.mu.Lock()
	session, ok := s.sessions[tokenInternal]
	if !ok || session.PlayerID != playerID {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	dup := copySession(session)
	s.mu.Unlock()

	return dup, nil
}

// Update applies mutate to the matching session, refreshes updated_at and
// re-puts the cache entry so the TTL window restarts atomically with the
// mutation. The keyed lock orders mutations of the same session; the mutation
// itself runs under the store mutex so durable-map readers never see a
// half-applied write. The cache write happens outside the store mutex: a
// Redis Put must not stall every other lookup.
func (s *SessionStore) Update(playerID, tokenInternal string, mutate func(*models.Session)) (*models.Session, error) {
	lock := s.lockFor(tokenInternal)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	session, ok := s.sessions[tokenInternal]
	if !ok || session.PlayerID != playerID {
		s.mu.Unlock()
		// Drop any stale cached copy rather than leave it dangling.
		s.cache.Del(tokenInternal)
		return nil, ErrSessionNotFound
	}

	mutate(session)
	session.UpdatedAt = time.Now()
	dup := copySession(session)
	s.mu.Unlock()

	s.cache.Put(tokenInternal, copySession(dup))

	return dup, nil
}

// UpdateState performs a lifecycle transition, rejecting anything the state
// machine does not permit.
func (s *SessionStore) UpdateState(playerID, tokenInternal string, next models.SessionState) (*models.Session, error) {
	var transitionErr error
	session, err := s.Update(playerID, tokenInternal, func(sess *models.Session) {
		if !validTransition(sess.State, next) {
			transitionErr = fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.State, next)
			return
		}
		sess.State = next
		if next.Terminal() && next != models.StateFailed {
			sess.Expired = true
		}
	})
	if err != nil {
		return nil, err
	}
	if transitionErr != nil {
		return nil, transitionErr
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastSessionState(playerID, tokenInternal, next)
	}
	return session, nil
}

func validTransition(from, to models.SessionState) bool {
	switch from {
	case models.StateInit:
		return to == models.StateEntry || to == models.StateExpired || to == models.StateOverruleInvalidation
	case models.StateEntry:
		return to == models.StateStarted || to == models.StateFailed ||
			to == models.StateExpired || to == models.StateOverruleInvalidation
	}
	return false
}

// InvalidatePrevious overrules every still-INIT session for the player and
// operator before a new one is created. Best effort: it is not atomic with
// the creation that follows.
func (s *SessionStore) InvalidatePrevious(playerID, operatorID string) {
	s.mu.Lock()
	var stale []string
	for _, session := range s.sessions {
		if session.PlayerID == playerID && session.OperatorID == operatorID &&
			!session.Expired && session.State == models.StateInit {
			stale = append(stale, session.TokenInternal)
		}
	}
	s.mu.Unlock()

	for _, token := range stale {
		if _, err := s.UpdateState(playerID, token, models.StateOverruleInvalidation); err != nil {
			log.Printf("Failed to invalidate session %s: %v", token, err)
		}
	}
}

// FindPreviousActive returns the upstream-assigned token of another live
// session for the same player and game, used to carry the upstream session
// across re-entries.
func (s *SessionStore) FindPreviousActive(tokenInternal string) (string, error) {
	current, ok := s.cache.Get(tokenInternal)
	if !ok {
		s.mu.Lock()
		stored, found := s.sessions[tokenInternal]
		if found {
			current = copySession(stored)
		}
		s.mu.Unlock()
		if !found {
			return "", ErrSessionNotFound
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.PlayerID == current.PlayerID &&
			session.GameID == current.GameID &&
			session.TokenInternal != tokenInternal &&
			!session.Expired && session.TokenOriginal != "" {
			return session.TokenOriginal, nil
		}
	}
	return "", ErrSessionNotFound
}

// FindByOriginalToken resolves a gameplay callback to its session via the
// upstream-assigned token bound at entry.
func (s *SessionStore) FindByOriginalToken(tokenOriginal string) (*models.Session, error) {
	if tokenOriginal == "" {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.TokenOriginal == tokenOriginal && !session.Expired {
			return copySession(session), nil
		}
	}
	return nil, ErrSessionNotFound
}

// Expire forces a session into SESSION_EXPIRED.
func (s *SessionStore) Expire(tokenInternal string) error {
	s.mu.Lock()
	session, ok := s.sessions[tokenInternal]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	playerID := session.PlayerID
	s.mu.Unlock()

	_, err := s.UpdateState(playerID, tokenInternal, models.StateExpired)
	return err
}

// ExpireStale transitions sessions that never progressed past entry and have
// been idle longer than maxAge into SESSION_EXPIRED. Started sessions are
// left alone.
func (s *SessionStore) ExpireStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	type sessionKey struct {
		playerID string
		token    string
	}

	s.mu.Lock()
	var stale []sessionKey
	for _, session := range s.sessions {
		if (session.State == models.StateInit || session.State == models.StateEntry) &&
			session.UpdatedAt.Before(cutoff) {
			stale = append(stale, sessionKey{session.PlayerID, session.TokenInternal})
		}
	}
	s.mu.Unlock()

	expired := 0
	for _, key := range stale {
		if _, err := s.UpdateState(key.playerID, key.token, models.StateExpired); err == nil {
			expired++
		}
	}
	return expired
}

func copySession(session *models.Session) *models.Session {
	dup := *session
	return &dup
}
