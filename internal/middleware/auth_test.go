package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"robohub/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSession struct {
	user *domain.User
}

func (f fakeSession) CurrentUser() *domain.User { return f.user }
func (f fakeSession) Token() string             { return "" }
func (f fakeSession) IsAuthenticated() bool     { return f.user != nil }
func (f fakeSession) IsLoading() bool           { return false }

func gated(reader fakeSession) http.Handler {
	return RequireSession(reader, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Write([]byte(user.ID))
	}))
}

func TestProperty_GatedViewsRedirectToSignIn(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("anonymous views redirect to /auth remembering the path", prop.ForAll(
		func(view string, query string) bool {
			target := view
			if query != "" {
				target += "?q=" + query
			}

			req := httptest.NewRequest(http.MethodGet, target, nil)
			w := httptest.NewRecorder()
			gated(fakeSession{}).ServeHTTP(w, req)

			if w.Code != http.StatusFound {
				return false
			}
			loc, err := url.Parse(w.Header().Get("Location"))
			if err != nil || loc.Path != AuthPath {
				return false
			}
			return loc.Query().Get("from") == target
		},
		gen.OneConstOf("/cart", "/checkout", "/profile"),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_AnonymousActionsAreUnauthorized(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-view methods get 401 instead of a redirect", prop.ForAll(
		func(method string) bool {
			req := httptest.NewRequest(method, "/cart/items", nil)
			w := httptest.NewRecorder()
			gated(fakeSession{}).ServeHTTP(w, req)
			return w.Code == http.StatusUnauthorized && w.Header().Get("Location") == ""
		},
		gen.OneConstOf(http.MethodPost, http.MethodPut, http.MethodDelete),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSignedInRequestCarriesUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()

	gated(fakeSession{user: &domain.User{ID: "user-1"}}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestAfterLogin(t *testing.T) {
	cases := map[string]string{
		"":                        "/",
		"/checkout":               "/checkout",
		"/catalog?sort=price_low": "/catalog?sort=price_low",
		"https://evil.example":    "/",
		"//evil.example/cart":     "/",
		"/\\evil.example":         "/",
		"/auth?from=/cart":        "/",
		"profile":                 "/",
	}
	for from, want := range cases {
		assert.Equal(t, want, AfterLogin(from), from)
	}
}

func TestSignInURLRoundTrips(t *testing.T) {
	loc, err := url.Parse(SignInURL("/checkout?step=2"))

	assert.NoError(t, err)
	assert.Equal(t, "/checkout?step=2", AfterLogin(loc.Query().Get("from")))
}
