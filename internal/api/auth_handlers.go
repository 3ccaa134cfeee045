package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/session"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	sessions   *session.Store
	jwtService *auth.JWTService
	validate   *validator.Validate
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(sessions *session.Store, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		sessions:   sessions,
		jwtService: jwtService,
		validate:   validator.New(),
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Address  string `json:"address"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest represents the profile update request body.
// An empty password keeps the current one.
type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// SessionResponse represents the signed-in user in responses
type SessionResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

// Register handles user sign-up
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := h.sessions.SignUp(r.Context(), req.Name, req.Email, req.Password, req.Address)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrDuplicateEmail):
			respondJSONError(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, session.ErrWeakPassword):
			respondJSONError(w, "Password does not meet the requirements", http.StatusBadRequest)
		default:
			respondJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.setAuthCookie(w, current, r)

	respondJSON(w, http.StatusCreated, SessionResponse{
		Name:    current.Name,
		Email:   current.Email,
		Message: "Registration successful",
	})
}

// Login handles user sign-in
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := h.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.setAuthCookie(w, current, r)

	respondJSON(w, http.StatusOK, SessionResponse{
		Name:    current.Name,
		Email:   current.Email,
		Message: "Login successful",
	})
}

// Logout handles user sign-out
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.clearAuthCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Me returns the current signed-in user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	current, ok, err := h.sessions.Current(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		respondJSONError(w, "Not signed in", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{
		Name:  current.Name,
		Email: current.Email,
	})
}

// UpdateProfile handles profile update requests. Email cannot change.
func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := h.sessions.UpdateProfile(r.Context(), req.Name, req.Address, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotAuthenticated):
			respondJSONError(w, "Not signed in", http.StatusUnauthorized)
		case errors.Is(err, session.ErrWeakPassword):
			respondJSONError(w, "Password does not meet the requirements", http.StatusBadRequest)
		default:
			respondJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// Re-issue the token: the name claim may have changed.
	h.setAuthCookie(w, current, r)

	respondJSON(w, http.StatusOK, SessionResponse{
		Name:    current.Name,
		Email:   current.Email,
		Message: "Profile updated",
	})
}

// Helper methods

func (h *AuthHandlers) setAuthCookie(w http.ResponseWriter, current session.Session, r *http.Request) {
	accessToken, expiry, _ := h.jwtService.GenerateToken(current.Name, current.Email)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
