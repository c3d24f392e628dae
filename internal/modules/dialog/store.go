// README: In-memory session map with a Redis mirror and expiry sweeping.
package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "dialog:session:%s"

// Store owns all live sessions. The in-memory map is authoritative; Redis
// holds a best-effort mirror so operators can inspect sessions and a restart
// can rehydrate recent conversations.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	mirror   *redis.Client
	ttl      time.Duration
	maxTurns int
	log      *zap.Logger
}

func NewStore(mirror *redis.Client, ttl time.Duration, maxTurns int, log *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		mirror:   mirror,
		ttl:      ttl,
		maxTurns: maxTurns,
		log:      log,
	}
}

// GetOrCreate returns the session for id, creating it on first turn. An
// empty id gets a fresh UUID.
func (s *Store) GetOrCreate(ctx context.Context, id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	if sess := s.rehydrate(ctx, id); sess != nil {
		s.sessions[id] = sess
		return sess
	}
	now := time.Now()
	sess := &Session{
		ID:        id,
		State:     StateIdle,
		Slots:     Slots{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = sess
	return sess
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Save mirrors the session to Redis. Mirror failures are logged, never
// surfaced: the in-memory copy stays authoritative.
func (s *Store) Save(ctx context.Context, sess *Session) {
	if s.mirror == nil {
		return
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		s.log.Warn("session mirror marshal failed", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	if err := s.mirror.Set(ctx, sessionKey(sess.ID), payload, s.ttl).Err(); err != nil {
		s.log.Warn("session mirror write failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// Delete discards the session on explicit end-of-conversation.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if s.mirror != nil {
		if err := s.mirror.Del(ctx, sessionKey(id)).Err(); err != nil {
			s.log.Warn("session mirror delete failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}

func (s *Store) rehydrate(ctx context.Context, id string) *Session {
	if s.mirror == nil {
		return nil
	}
	val, err := s.mirror.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		s.log.Warn("session mirror read failed", zap.String("session_id", id), zap.Error(err))
		return nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		s.log.Warn("session mirror decode failed", zap.String("session_id", id), zap.Error(err))
		return nil
	}
	return &sess
}

// CleanupExpired drops sessions idle past the TTL or over the turn budget.
// Returns how many were removed.
func (s *Store) CleanupExpired(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl || sess.TurnCount >= s.maxTurns {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, id := range expired {
		if s.mirror != nil {
			_ = s.mirror.Del(ctx, sessionKey(id)).Err()
		}
	}
	if len(expired) > 0 {
		s.log.Info("expired sessions removed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunCleanup sweeps expired sessions until ctx is cancelled.
func (s *Store) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired(ctx, time.Now())
		}
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf(sessionKeyPrefix, id)
}
