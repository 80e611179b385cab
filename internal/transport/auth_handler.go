package transport

import (
	"net/http"

	"robohub/internal/domain"
	"robohub/internal/middleware"
	"robohub/internal/session"
	"robohub/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	From     string `json:"from,omitempty"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	From            string `json:"from,omitempty"`
}

// AuthView is the sign-in / sign-up view.
type AuthView struct {
	From string `json:"from"`
}

// AuthHandler serves the sign-in view and the session actions.
type AuthHandler struct {
	store  *session.Store
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(store *session.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: store, logger: logger}
}

// RegisterRoutes registers the sign-in view and session actions
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auth", h.View)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/logout", h.Logout)
}

// View renders the sign-in view, or sends a signed-in user on to "from".
func (h *AuthHandler) View(w http.ResponseWriter, r *http.Request) {
	from := middleware.AfterLogin(r.URL.Query().Get("from"))
	if h.store.IsAuthenticated() {
		middleware.RespondWithRedirect(w, from, nil)
		return
	}
	renderPage(w, h.logger, h.store, "auth", AuthView{From: from}, nil, nil)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	user, err := h.store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ActionResponse{
		Data:     user,
		Redirect: middleware.AfterLogin(req.From),
		Notice:   view.Success("Welcome back to RoboHub!"),
	})
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	form := session.RegisterForm{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}
	if err := form.Validate(); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	user, err := h.store.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, ActionResponse{
		Data:     user,
		Redirect: middleware.AfterLogin(req.From),
		Notice:   view.Success("Welcome to RoboHub! Account created successfully."),
	})
}

// Logout forgets the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		// the in-memory session is already gone
		h.logger.Warn("Logout could not clear persisted token", zap.Error(err))
	}
	middleware.RespondWithJSON(w, http.StatusOK, ActionResponse{
		Redirect: "/",
		Notice:   view.Info("Signed out"),
	})
}

func userOf(r *http.Request) domain.User {
	user, _ := middleware.GetUser(r.Context())
	if user == nil {
		return domain.User{}
	}
	return *user
}
