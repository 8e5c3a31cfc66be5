package transport

import (
	"net/http"

	"stockwave/internal/domain"
	"stockwave/internal/middleware"
	"stockwave/internal/service"
	"stockwave/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OnboardingRequest carries the store profile. Absent fields are cleared.
type OnboardingRequest struct {
	StoreName *string `json:"storeName" validate:"omitempty,max=255"`
	Niche     *string `json:"niche" validate:"omitempty,max=255"`
}

// UserResponse wraps a user profile
type UserResponse struct {
	User *domain.User `json:"user"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// UserHandler handles HTTP requests for account operations
type UserHandler struct {
	userService   service.UserService
	sessions      *session.Maker
	secureCookies bool
	logger        *zap.Logger
}

// NewUserHandler creates a new UserHandler. secureCookies marks the session
// cookie Secure and should be set outside development.
func NewUserHandler(userService service.UserService, sessions *session.Maker, secureCookies bool, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:   userService,
		sessions:      sessions,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RegisterRoutes registers all account routes. authLimiter may be nil.
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware, authLimiter func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		if authLimiter != nil {
			r.Use(authLimiter)
		}
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.Me)
		r.Post("/onboarding", h.CompleteOnboarding)
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to register user")
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, UserResponse{User: user})
}

// Login authenticates the user and sets the session cookie
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	token, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		respondWithServiceError(w, h.logger, err, "failed to login")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.sessions.TTL().Seconds())))

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{User: user, Token: token})
}

// Logout clears the session cookie
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// Me returns the authenticated user's profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get user profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{User: user})
}

// CompleteOnboarding stores the store profile and marks onboarding done
func (h *UserHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req OnboardingRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.CompleteOnboarding(r.Context(), userID, req.StoreName, req.Niche)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to complete onboarding")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
