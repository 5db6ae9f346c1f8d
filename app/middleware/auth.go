package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"personalblog/app/models"

	"github.com/gorilla/mux"
)

// SessionCookie is the name of the login session cookie.
const SessionCookie = "sessionid"

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/user/login/"

type ctxKeyIdentity struct{}

// WithIdentity stores the resolved requester in the context.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

// IdentityFrom returns the requester stored by Session, or models.Anonymous.
func IdentityFrom(ctx context.Context) models.Identity {
	id, ok := ctx.Value(ctxKeyIdentity{}).(models.Identity)
	if !ok {
		return models.Anonymous
	}
	return id
}

// IdentityResolver turns a session token into an identity.
type IdentityResolver interface {
	Resolve(token string) (models.Identity, error)
}

// Session resolves the session cookie once per request. Lookup failures
// degrade to the anonymous identity.
func Session(resolver IdentityResolver, log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := models.Anonymous
			if token := SessionToken(r); token != "" {
				var err error
				identity, err = resolver.Resolve(token)
				if err != nil {
					log.Error("failed to resolve session", "error", err)
					identity = models.Anonymous
				}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// SessionToken reads the session cookie, falling back to a bearer token
// for API clients.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth rejects anonymous requesters: API clients get 401, browsers
// are redirected to the login page with a next parameter.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()).IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}
		if IsAPI(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}` + "\n"))
			return
		}
		http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
	})
}

// LoginURL builds the login address that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}
