package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-2"})
	})
	mux.HandleFunc("/api/auth/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid token"})
			return
		}
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Name: "Ada", Email: "ada@example.com"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPAuthClient_Login(t *testing.T) {
	srv := newAuthServer(t)
	c := NewHTTPAuthClient(srv.URL+"/api/", time.Second)

	token, err := c.Login(context.Background(), "ada@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestHTTPAuthClient_Login_InvalidCredentials(t *testing.T) {
	srv := newAuthServer(t)
	c := NewHTTPAuthClient(srv.URL+"/api", time.Second)

	_, err := c.Login(context.Background(), "ada@example.com", "nope")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestHTTPAuthClient_Register(t *testing.T) {
	srv := newAuthServer(t)
	c := NewHTTPAuthClient(srv.URL+"/api", time.Second)

	token, err := c.Register(context.Background(), "Ada", "ada@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
}

func TestHTTPAuthClient_CurrentUser(t *testing.T) {
	srv := newAuthServer(t)
	c := NewHTTPAuthClient(srv.URL+"/api", time.Second)

	user, err := c.CurrentUser(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = c.CurrentUser(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid token", apiErr.Message)
}

func TestHTTPAuthClient_WithSession(t *testing.T) {
	srv := newAuthServer(t)
	s := New(NewHTTPAuthClient(srv.URL+"/api", time.Second), NewMemoryCredentialStore(), nil)

	err := s.Login(context.Background(), "ada@example.com", "nope")
	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, "Invalid credentials", sessErr.Message)

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret123"))
	assert.Equal(t, "Ada", s.User().Name)
}
