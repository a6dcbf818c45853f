package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/user"
	"go.uber.org/zap"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users  *user.Service
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(users *user.Service, tokens *auth.TokenService, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{
		users:  users,
		tokens: tokens,
		logger: logger.Named("auth"),
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login
type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	newUser, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			respondMessage(w, "User already exists", http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidEmail):
			respondMessage(w, "A valid email is required", http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidName):
			respondMessage(w, "Name is required", http.StatusBadRequest)
		case errors.Is(err, auth.ErrPasswordTooShort):
			respondMessage(w, "Password must be at least 8 characters", http.StatusBadRequest)
		case errors.Is(err, auth.ErrPasswordTooLong):
			respondMessage(w, "Password must be at most 72 bytes", http.StatusBadRequest)
		default:
			h.logger.Error("registration failed", zap.Error(err))
			respondMessage(w, "Server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("user registered", zap.String("user_id", newUser.ID))
	h.respondToken(w, http.StatusCreated, newUser)
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			respondMessage(w, "Invalid credentials", http.StatusBadRequest)
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		respondMessage(w, "Server error", http.StatusInternalServerError)
		return
	}

	h.respondToken(w, http.StatusOK, u)
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondMessage(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			respondMessage(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error("user lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		respondMessage(w, "Server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
}

func (h *AuthHandlers) respondToken(w http.ResponseWriter, status int, u *user.User) {
	token, _, err := h.tokens.GenerateToken(u.ID, u.Email, u.Name)
	if err != nil {
		h.logger.Error("token signing failed", zap.String("user_id", u.ID), zap.Error(err))
		respondMessage(w, "Server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, status, TokenResponse{Token: token})
}
