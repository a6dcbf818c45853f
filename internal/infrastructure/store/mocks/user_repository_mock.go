package mocks

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/user"
)

// MockUserRepository is a mock implementation of user.Repository for testing
type MockUserRepository struct {
	mu      sync.RWMutex
	users   map[string]*user.User
	byEmail map[string]string

	// For tracking calls in tests
	CreateCalls []*user.User
	CreateErr   error
	GetErr      error
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:       make(map[string]*user.User),
		byEmail:     make(map[string]string),
		CreateCalls: make([]*user.User, 0),
	}
}

// Create stores a user in memory
func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Record the call
	m.CreateCalls = append(m.CreateCalls, u)

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.byEmail[u.Email]; exists {
		return user.ErrEmailTaken
	}

	stored := *u
	m.users[u.ID] = &stored
	m.byEmail[u.Email] = u.ID
	return nil
}

// GetByID returns a user by id
func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// GetByEmail returns a user by email
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	out := *m.users[id]
	return &out, nil
}

// Delete removes a user, simulating an account deleted after its token was issued
func (m *MockUserRepository) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.users, id)
	}
}

// Reset clears all users and recorded calls
func (m *MockUserRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]*user.User)
	m.byEmail = make(map[string]string)
	m.CreateCalls = make([]*user.User, 0)
	m.CreateErr = nil
	m.GetErr = nil
}
