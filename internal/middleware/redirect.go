package middleware

import (
	"net/http"

	"robohub/internal/view"
)

// RedirectResponse is the body of every gateway redirect, so a renderer can
// follow it without parsing headers.
type RedirectResponse struct {
	Redirect string       `json:"redirect"`
	Notice   *view.Notice `json:"notice,omitempty"`
}

// RespondWithRedirect sends a 302 to location with an optional notice.
func RespondWithRedirect(w http.ResponseWriter, location string, notice *view.Notice) {
	w.Header().Set("Location", location)
	RespondWithJSON(w, http.StatusFound, RedirectResponse{Redirect: location, Notice: notice})
}
