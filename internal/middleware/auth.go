package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"robohub/internal/domain"
	"robohub/internal/session"
	"robohub/internal/view"

	"go.uber.org/zap"
)

type contextKey string

const UserKey contextKey = "user"

const (
	// AuthPath is the sign-in view gated requests are sent to.
	AuthPath = "/auth"

	signInMessage = "Please sign in to continue"
)

// RequireSession lets a request through only when the session has a user.
// Views (GET/HEAD) are redirected to the sign-in view with the original path
// in "from"; actions get a 401.
func RequireSession(reader session.Reader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := reader.CurrentUser()
			if user == nil {
				logger.Debug("Gated view requested without a session",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)

				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					RespondWithRedirect(w, SignInURL(r.URL.RequestURI()), view.Info(signInMessage))
					return
				}
				RespondWithError(w, http.StatusUnauthorized, signInMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// SignInURL is the sign-in view remembering where to return to.
func SignInURL(from string) string {
	return AuthPath + "?" + url.Values{"from": {from}}.Encode()
}

// AfterLogin returns the local path to continue to after signing in. Anything
// that is not a local path falls back to "/".
func AfterLogin(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	if u.Path == AuthPath {
		return "/"
	}
	return from
}

// WithUser stores the signed-in user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser extracts the signed-in user from request context
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}
