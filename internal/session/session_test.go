package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthClient struct {
	mu          sync.Mutex
	loginToken  string
	loginErr    error
	registerErr error
	users       map[string]*User
	userErr     error
	calls       []string
	block       chan struct{}
	started     chan struct{}
}

func newFakeAuthClient() *fakeAuthClient {
	return &fakeAuthClient{
		loginToken: "tok-1",
		users: map[string]*User{
			"tok-1": {ID: "u1", Name: "Ada", Email: "ada@example.com"},
		},
	}
}

func (f *fakeAuthClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAuthClient) Login(ctx context.Context, email, password string) (string, error) {
	f.record("login")
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.loginToken, nil
}

func (f *fakeAuthClient) Register(ctx context.Context, name, email, password string) (string, error) {
	f.record("register")
	if f.registerErr != nil {
		return "", f.registerErr
	}
	return f.loginToken, nil
}

func (f *fakeAuthClient) CurrentUser(ctx context.Context, token string) (*User, error) {
	f.record("user")
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[token]
	if !ok {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid token"}
	}
	return u, nil
}

type failingStore struct {
	MemoryCredentialStore
}

func (f *failingStore) Save(ctx context.Context, token string) error {
	return errors.New("disk full")
}

// ============================================
// Bootstrap Tests
// ============================================

func TestSession_Bootstrap_RestoresStoredCredential(t *testing.T) {
	client := newFakeAuthClient()
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Save(context.Background(), "tok-1"))

	s := New(client, store, nil)
	s.Bootstrap(context.Background())

	assert.True(t, s.Authenticated())
	assert.Equal(t, "tok-1", s.Token())
	assert.Equal(t, "Ada", s.User().Name)
}

func TestSession_LoginThenBootstrapInNewInstance(t *testing.T) {
	client := newFakeAuthClient()
	store := NewMemoryCredentialStore()

	first := New(client, store, nil)
	require.NoError(t, first.Login(context.Background(), "ada@example.com", "secret123"))

	second := New(client, store, nil)
	second.Bootstrap(context.Background())

	assert.Equal(t, first.User(), second.User())
	assert.Equal(t, first.Token(), second.Token())
	assert.Equal(t, []string{"login", "user", "user"}, client.calls)
}

func TestSession_Bootstrap_RejectedCredentialIsCleared(t *testing.T) {
	client := newFakeAuthClient()
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Save(context.Background(), "expired"))

	s := New(client, store, nil)
	s.Bootstrap(context.Background())

	assert.False(t, s.Authenticated())
	assert.Nil(t, s.User())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestSession_Bootstrap_NoCredential(t *testing.T) {
	client := newFakeAuthClient()
	s := New(client, NewMemoryCredentialStore(), nil)

	s.Bootstrap(context.Background())

	assert.False(t, s.Authenticated())
	assert.Empty(t, client.calls)
}

// ============================================
// Login / Register Tests
// ============================================

func TestSession_Login_Success(t *testing.T) {
	client := newFakeAuthClient()
	store := NewMemoryCredentialStore()
	s := New(client, store, nil)

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret123"))

	assert.True(t, s.Authenticated())
	assert.Equal(t, "u1", s.User().ID)
	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", stored)
	assert.Equal(t, []string{"login", "user"}, client.calls)
}

func TestSession_Login_ServerMessage(t *testing.T) {
	client := newFakeAuthClient()
	client.loginErr = &APIError{StatusCode: http.StatusBadRequest, Message: "Invalid credentials"}
	s := New(client, NewMemoryCredentialStore(), nil)

	err := s.Login(context.Background(), "ada@example.com", "wrong")

	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, "Invalid credentials", sessErr.Message)
	assert.Equal(t, "login", sessErr.Op)
	assert.False(t, s.Authenticated())
}

func TestSession_Login_FallbackMessage(t *testing.T) {
	client := newFakeAuthClient()
	client.loginErr = errors.New("connection refused")
	s := New(client, NewMemoryCredentialStore(), nil)

	err := s.Login(context.Background(), "ada@example.com", "secret123")

	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, "Login failed", sessErr.Message)
}

func TestSession_Register_FallbackMessage(t *testing.T) {
	client := newFakeAuthClient()
	client.registerErr = &APIError{StatusCode: http.StatusInternalServerError}
	s := New(client, NewMemoryCredentialStore(), nil)

	err := s.Register(context.Background(), "Ada", "ada@example.com", "secret123")

	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, "Registration failed", sessErr.Message)
}

func TestSession_Register_Success(t *testing.T) {
	client := newFakeAuthClient()
	s := New(client, NewMemoryCredentialStore(), nil)

	require.NoError(t, s.Register(context.Background(), "Ada", "ada@example.com", "secret123"))

	assert.True(t, s.Authenticated())
	assert.Equal(t, []string{"register", "user"}, client.calls)
}

func TestSession_Login_NoUserReturned(t *testing.T) {
	client := newFakeAuthClient()
	client.users["tok-1"] = nil
	store := NewMemoryCredentialStore()
	s := New(client, store, nil)

	err := s.Login(context.Background(), "ada@example.com", "secret123")

	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Equal(t, "Login failed", sessErr.Message)
	assert.False(t, s.Authenticated())
	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestSession_Bootstrap_NoUserReturned(t *testing.T) {
	client := newFakeAuthClient()
	client.users["tok-1"] = nil
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Save(context.Background(), "tok-1"))
	s := New(client, store, nil)

	s.Bootstrap(context.Background())

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestSession_Login_PersistFailureKeepsSession(t *testing.T) {
	client := newFakeAuthClient()
	s := New(client, &failingStore{}, nil)

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret123"))

	assert.True(t, s.Authenticated())
}

func TestSession_Login_RejectsConcurrentCall(t *testing.T) {
	client := newFakeAuthClient()
	client.block = make(chan struct{})
	client.started = make(chan struct{}, 1)
	s := New(client, NewMemoryCredentialStore(), nil)

	done := make(chan error, 1)
	go func() {
		done <- s.Login(context.Background(), "ada@example.com", "secret123")
	}()
	<-client.started

	assert.ErrorIs(t, s.Login(context.Background(), "ada@example.com", "secret123"), ErrInFlight)
	assert.ErrorIs(t, s.Register(context.Background(), "Ada", "ada@example.com", "secret123"), ErrInFlight)

	close(client.block)
	require.NoError(t, <-done)
	assert.True(t, s.Authenticated())
}

// ============================================
// Logout / Authorize Tests
// ============================================

func TestSession_Logout(t *testing.T) {
	client := newFakeAuthClient()
	store := NewMemoryCredentialStore()
	s := New(client, store, nil)
	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret123"))

	s.Logout(context.Background())

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestSession_Authorize(t *testing.T) {
	client := newFakeAuthClient()
	s := New(client, NewMemoryCredentialStore(), nil)

	req, _ := http.NewRequest(http.MethodGet, "http://localhost/api/test", nil)
	s.Authorize(req)
	assert.Empty(t, req.Header.Get("Authorization"))

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret123"))
	s.Authorize(req)
	assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
}

// ============================================
// Validation Tests
// ============================================

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name      string
		fullName  string
		email     string
		password  string
		confirm   string
		wantField string
	}{
		{"valid", "Ada", "ada@example.com", "secret123", "secret123", ""},
		{"missing name", " ", "ada@example.com", "secret123", "secret123", "name"},
		{"missing email", "Ada", "", "secret123", "secret123", "email"},
		{"missing password", "Ada", "ada@example.com", "", "", "password"},
		{"mismatch", "Ada", "ada@example.com", "secret123", "secret124", "confirmPassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.fullName, tt.email, tt.password, tt.confirm)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}
