// Package storetest provides an in-memory store.UserStore for tests.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryStore keeps copies of users keyed by ID and enforces the unique
// email index the same way the database does.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User

	// Err, when set, is returned by every write.
	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[uuid.UUID]models.User)}
}

func (m *MemoryStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if err := user.BeforeSave(nil); err != nil {
		return err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey)
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if err := user.BeforeSave(nil); err != nil {
		return err
	}
	if _, ok := m.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == models.NormalizeEmail(email) })
}

func (m *MemoryStore) FindByResetLink(_ context.Context, link string) (*models.User, error) {
	if link == "" {
		return nil, store.ErrNotFound
	}
	return m.find(func(u models.User) bool { return u.ResetPasswordLink == link })
}

func (m *MemoryStore) SetResetLink(_ context.Context, id uuid.UUID, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.ResetPasswordLink = link
	m.users[id] = u
	return nil
}

// Count returns the number of stored users.
func (m *MemoryStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// Put stores user as-is, bypassing uniqueness checks. Used to seed fixtures.
func (m *MemoryStore) Put(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MemoryStore) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

var _ store.UserStore = (*MemoryStore)(nil)
