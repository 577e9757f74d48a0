package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/auth"
	"github.com/sakif/feedback/internal/forms"
	"github.com/sakif/feedback/internal/service"
)

// AuthHandler serves registration, login and logout.
//
//   - Home      GET  /          → redirect to /register
//   - Register  GET  /register  → sign-up form
//   - Register  POST /register  → create account, log in, go to profile
//   - Login     GET  /login     → sign-in form
//   - Login     POST /login     → check credentials, log in, go to profile
//   - Logout    GET  /logout    → clear the session, back to /
type AuthHandler struct {
	responder
	auth *service.AuthService
}

func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionManager, renderer Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder: responder{renderer: renderer, sessions: sessions, logger: logger},
		auth:      authService,
	}
}

func (h *AuthHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.redirect(w, r, "/register")
}

func (h *AuthHandler) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageRegister, map[string]any{
		"Form":   forms.RegisterForm{},
		"Errors": forms.Errors{},
	})
}

// HandleRegister creates the account in a single insert. A taken username
// is reported by the store, not pre-checked, and shown on the username field.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.renderError(w, r, err)
		return
	}

	form, errs := forms.ParseRegister(r.PostForm)
	if !errs.Valid() {
		h.renderRegister(w, r, form, errs)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:  form.Username,
		Password:  form.Password,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if err != nil {
		if fieldError(err, errs) {
			h.renderRegister(w, r, form, errs)
			return
		}
		h.renderError(w, r, err)
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.flash(w, r, "Welcome! Successfully created your account!")
	h.redirect(w, r, userURL(user.ID))
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, form forms.RegisterForm, errs forms.Errors) {
	// Never echo the password back into the page.
	form.Password = ""
	h.render(w, r, http.StatusOK, pageRegister, map[string]any{
		"Form":   form,
		"Errors": errs,
	})
}

func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageLogin, map[string]any{
		"Form":   forms.LoginForm{},
		"Errors": forms.Errors{},
	})
}

// HandleLogin logs the user in. Unknown usernames and wrong passwords get
// the same message on the username field, and no session is set.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.renderError(w, r, err)
		return
	}

	form, errs := forms.ParseLogin(r.PostForm)
	if !errs.Valid() {
		h.renderLogin(w, r, form, errs)
		return
	}

	user, err := h.auth.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidCredentials) {
			errs.Add("username", forms.InvalidCredentialsMessage)
			h.renderLogin(w, r, form, errs)
			return
		}
		h.renderError(w, r, err)
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.flash(w, r, fmt.Sprintf("Welcome Back, %s!", user.Username))
	h.redirect(w, r, userURL(user.ID))
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, form forms.LoginForm, errs forms.Errors) {
	form.Password = ""
	h.render(w, r, http.StatusOK, pageLogin, map[string]any{
		"Form":   form,
		"Errors": errs,
	})
}

// HandleLogout clears the session. Logging out while logged out is harmless.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.flash(w, r, "Successfully logged out!")
	h.redirect(w, r, "/")
}
