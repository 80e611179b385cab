package transport

import (
	"net/http"

	"robohub/internal/domain"
	"robohub/internal/middleware"
	"robohub/internal/session"
	"robohub/internal/view"

	"go.uber.org/zap"
)

// Page is the JSON view model every gateway view returns.
type Page[T any] struct {
	View    string        `json:"view"`
	User    *domain.User  `json:"user"`
	Content view.State[T] `json:"content"`
	Notice  *view.Notice  `json:"notice,omitempty"`
}

// renderPage writes a view. A failed load still renders the page, with the
// error in its content, so the renderer can show a placeholder and a retry.
func renderPage[T any](w http.ResponseWriter, logger *zap.Logger, reader session.Reader, name string, data T, err error, notice *view.Notice) {
	page := Page[T]{
		View:    name,
		User:    reader.CurrentUser(),
		Content: view.From(data, err),
		Notice:  notice,
	}

	status := http.StatusOK
	if err != nil {
		status = middleware.StatusFor(err)
		page.Notice = view.ErrorNotice(err)
		if status >= http.StatusInternalServerError && !domain.IsNetwork(err) {
			logger.Error("View failed", zap.String("view", name), zap.Error(err))
		} else {
			logger.Debug("View failed", zap.String("view", name), zap.Error(err))
		}
	}
	middleware.RespondWithJSON(w, status, page)
}

// ActionResponse is returned by gateway actions.
type ActionResponse struct {
	Data     interface{}  `json:"data,omitempty"`
	Redirect string       `json:"redirect,omitempty"`
	Notice   *view.Notice `json:"notice,omitempty"`
}
