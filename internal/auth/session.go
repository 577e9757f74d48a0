package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	sessionCookie = "feedback-session"
	flashCookie   = "feedback-flash"

	// userIDKey is the only key ever written to the session cookie.
	userIDKey = "user_id"
)

// SessionOptions configures the cookies written by a SessionManager.
type SessionOptions struct {
	MaxAge time.Duration
	Secure bool
}

// SessionManager keeps login state in a signed cookie.
//
// Two cookies are used:
//   - feedback-session holds the logged-in user id and nothing else;
//   - feedback-flash carries one-shot messages to the next rendered page.
//
// Both are HMAC-signed with the application secret by gorilla/securecookie,
// so a client can read but not forge them. Nothing is kept server side.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager creates a SessionManager signing cookies with secret.
func NewSessionManager(secret string, opts SessionOptions) (*SessionManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret must be at least 16 characters")
	}

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// MaxAge sets both the cookie attribute and the signed timestamp check.
	store.MaxAge(int(opts.MaxAge / time.Second))

	return &SessionManager{store: store}, nil
}

// session returns the named session, cached for the rest of the request.
// A cookie that fails verification (tampered, expired, signed with an old
// key) yields a fresh empty session; the decode error is dropped.
func (m *SessionManager) session(r *http.Request, name string) *sessions.Session {
	sess, _ := m.store.Get(r, name)
	return sess
}

// Login records userID as the logged-in user.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess := m.session(r, sessionCookie)
	sess.Values = map[interface{}]interface{}{userIDKey: userID}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("auth: saving session: %w", err)
	}
	return nil
}

// Logout clears the session cookie. It is safe to call when nobody is
// logged in.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := m.session(r, sessionCookie)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("auth: clearing session: %w", err)
	}
	return nil
}

// UserID returns the logged-in user id, if any.
func (m *SessionManager) UserID(r *http.Request) (int64, bool) {
	sess := m.session(r, sessionCookie)
	id, ok := sess.Values[userIDKey].(int64)
	return id, ok && id > 0
}

// AddFlash queues message for the next page render.
func (m *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, message string) error {
	sess := m.session(r, flashCookie)
	sess.AddFlash(message)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("auth: saving flash: %w", err)
	}
	return nil
}

// Flashes pops every queued message. It must run before the response body
// is written because it rewrites the flash cookie.
func (m *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) ([]string, error) {
	sess := m.session(r, flashCookie)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}

	if err := sess.Save(r, w); err != nil {
		return messages, fmt.Errorf("auth: clearing flashes: %w", err)
	}
	return messages, nil
}
