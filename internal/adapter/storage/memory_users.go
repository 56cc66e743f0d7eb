package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/rl1809/shop-api/internal/core/domain"
)

type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *MemoryUsers) Create(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := emailKey(user.Email)
	if _, taken := m.byEmail[key]; taken {
		return domain.ErrEmailTaken
	}

	m.byID[user.ID] = user
	m.byEmail[key] = user.ID
	return nil
}

func (m *MemoryUsers) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[emailKey(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryUsers) GetByID(ctx context.Context, userID string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
