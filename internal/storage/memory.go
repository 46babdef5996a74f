package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/homedesigner/auth_service/internal/models"
)

// MemoryStorage is a process-local SessionStore. Sessions are lost on restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

func (m *MemoryStorage) SetRefreshToken(_ context.Context, userID, token string) error {
	const op = "storage.SetRefreshToken"

	if userID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyUserID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		sess = models.Session{UserID: userID, CreatedAt: m.now().UTC()}
	}
	sess.RefreshToken = token
	m.sessions[userID] = sess

	return nil
}

func (m *MemoryStorage) GetRefreshToken(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[userID].RefreshToken, nil
}

// Session returns a copy of the stored record.
func (m *MemoryStorage) Session(userID string) (models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[userID]
	return sess, ok
}

func (m *MemoryStorage) Close() error { return nil }
