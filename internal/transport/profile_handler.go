package transport

import (
	"net/http"

	"robohub/internal/orders"
	"robohub/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileHandler serves the account and order history view.
type ProfileHandler struct {
	reader  *orders.Reader
	session session.Reader
	logger  *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(reader *orders.Reader, sess session.Reader, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{reader: reader, session: sess, logger: logger}
}

// RegisterRoutes registers the profile view behind requireSession
func (h *ProfileHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.With(requireSession).Get("/profile", h.View)
}

// View renders the account tab and the order history
func (h *ProfileHandler) View(w http.ResponseWriter, r *http.Request) {
	profile, err := h.reader.Profile(r.Context(), userOf(r))
	renderPage(w, h.logger, h.session, "profile", profile, err, nil)
}
