package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory keeps items in a map.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]Item
	byEmail map[string]string
	now     func() time.Time
}

var _ ItemStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]Item),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (m *Memory) Create(_ context.Context, in ItemInput) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(in)
}

func (m *Memory) CreateFirst(_ context.Context, in ItemInput) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.byID) > 0 {
		return nil, ErrNotEmpty
	}
	return m.createLocked(in)
}

func (m *Memory) createLocked(in ItemInput) (*Item, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	if _, exists := m.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	item := Item{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: in.PasswordHash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    m.now().UTC(),
	}
	m.byID[item.ID] = item
	m.byEmail[email] = item.ID
	return &item, nil
}

func (m *Memory) Get(_ context.Context, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	item := m.byID[id]
	return &item, nil
}

func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
