package auth

import (
	"context"
	"log/slog"
	"net/http"
)

// contextKey is unexported so no other package can read or shadow the
// values this package puts on a context.
type contextKey string

const userIDCtxKey contextKey = "userID"

// LoginRequiredMessage is flashed when an anonymous visitor hits a
// protected route.
const LoginRequiredMessage = "Please login first"

// LoadSession reads the session cookie on every request and, when someone
// is logged in, stores their id in the request context. It never blocks.
//
// Handlers ask UserIDFromContext instead of touching the cookie, so "who
// is logged in" is decided once per request.
func LoadSession(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := sessions.UserID(r); ok {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth guards a route group. Anonymous requests are redirected to
// "/" with a flash and never reach the handler. It must run after
// LoadSession.
//
//	r.Group(func(r chi.Router) {
//	    r.Use(auth.RequireAuth(sessions, logger))
//	    r.Get("/users/{id}", h.Profile)
//	})
func RequireAuth(sessions *SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			if err := sessions.AddFlash(w, r, LoginRequiredMessage); err != nil {
				logger.Error("adding login flash", "error", err)
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
	}
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext returns the logged-in user's id, or (0, false) for an
// anonymous request.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDCtxKey).(int64)
	return id, ok && id > 0
}
