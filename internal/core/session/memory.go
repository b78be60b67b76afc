package session

import (
	"context"
	"sync"
	"time"

	"supplysphere/internal/domain"
)

// MemoryStore 单进程会话（本地开发/测试）
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*Session
	byUser map[string]map[string]struct{}
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   map[string]*Session{},
		byUser: map[string]map[string]struct{}{},
		now:    time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	cp := *s
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = &cp
	set, ok := m.byUser[s.User.ID]
	if !ok {
		set = map[string]struct{}{}
		m.byUser[s.User.ID] = set
	}
	set[s.ID] = struct{}{}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok || !s.ExpiresAt.After(m.now()) {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(id)
	return nil
}

func (m *MemoryStore) deleteLocked(id string) {
	s, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	if set := m.byUser[s.User.ID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(m.byUser, s.User.ID)
		}
	}
}

func (m *MemoryStore) DeleteUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id := range m.byUser[userID] {
		delete(m.byID, id)
		n++
	}
	delete(m.byUser, userID)
	return n, nil
}

// Count 同时清理过期会话
func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, s := range m.byID {
		if !s.ExpiresAt.After(now) {
			m.deleteLocked(id)
		}
	}
	return int64(len(m.byID)), nil
}
