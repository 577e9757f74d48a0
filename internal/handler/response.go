// Package handler contains the HTTP handlers for every page.
//
// Handlers only glue HTTP to the services: they read the form, call a
// service, then either render a page or redirect. Business rules
// (credentials, ownership) live in the service package. Page markup lives
// behind the Renderer interface.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/auth"
	"github.com/sakif/feedback/internal/forms"
)

// Page names, matching the templates in the view package.
const (
	pageRegister     = "register"
	pageLogin        = "login"
	pageUser         = "user"
	pageUserDelete   = "user_delete"
	pageFeedbackAdd  = "feedback_add"
	pageFeedbackEdit = "feedback_edit"
	pageError        = "error"
)

// maxFormBytes caps a POST body. The largest legitimate form is a 5000
// character feedback entry.
const maxFormBytes = 64 << 10

// Renderer writes a named page. view.Templates is the production
// implementation.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data map[string]any) error
}

// responder bundles what every handler needs to answer a request. Each
// handler embeds one.
type responder struct {
	renderer Renderer
	sessions *auth.SessionManager
	logger   *slog.Logger
}

// render adds the per-request layout data (flashes, who is logged in) and
// writes the page.
func (rs *responder) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}

	// Flashes rewrites the flash cookie, so it must run before any body bytes.
	flashes, err := rs.sessions.Flashes(w, r)
	if err != nil {
		rs.logger.Error("reading flashes", slog.String("error", err.Error()))
	}
	data["Flashes"] = flashes

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		data["CurrentUserID"] = userID
	}

	if err := rs.renderer.Render(w, status, name, data); err != nil {
		rs.logger.Error("failed to render page",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// renderError maps a domain error to an error page.
//
//	apperror.ErrNotFound   → 404
//	apperror.ErrForbidden  → 403, with the service's message
//	apperror.ErrValidation → 400 (only reached when no form can show it)
//	anything else          → 500 "An internal error occurred", logged
//
// errors.Is walks the whole wrap chain, so a service's
// fmt.Errorf("...: %w", apperror.NotFound(...)) still maps to 404.
func (rs *responder) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "An internal error occurred"

	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		message = "The page you were looking for does not exist."
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		message = "You are not allowed to do that."
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		message = "The submitted form was invalid."
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	default:
		// Never show internal details (SQL, paths) to the browser.
		rs.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	rs.render(w, r, status, pageError, map[string]any{
		"Status":  status,
		"Message": message,
	})
}

// HandleNotFound renders the 404 page for paths no route matches.
func (rs *responder) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	rs.renderError(w, r, apperror.NotFound("page", r.URL.Path))
}

// HandleMethodNotAllowed renders an error page for a known path hit with
// the wrong method, such as a GET on a delete-only route.
func (rs *responder) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	rs.render(w, r, http.StatusMethodNotAllowed, pageError, map[string]any{
		"Status":  http.StatusMethodNotAllowed,
		"Message": "That action is not available here.",
	})
}

// redirect sends a 303 so the browser follows up with a GET, even after a POST.
func (rs *responder) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flash queues a message for the next rendered page. A failure is logged
// and otherwise ignored; the flash is cosmetic.
func (rs *responder) flash(w http.ResponseWriter, r *http.Request, message string) {
	if err := rs.sessions.AddFlash(w, r, message); err != nil {
		rs.logger.Error("adding flash", slog.String("error", err.Error()))
	}
}

// parseForm reads a POST body of at most maxFormBytes into r.PostForm.
func (rs *responder) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return apperror.ValidationFailed("", "The submitted form could not be read.")
	}
	return nil
}

// currentUserID returns the logged-in user. Routes behind auth.RequireAuth
// always have one; a missing id there is a wiring bug.
func currentUserID(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, errors.New("handler: no user id in context; is RequireAuth mounted?")
	}
	return id, nil
}

// pathID parses a positive integer URL parameter. Anything else is reported
// as not found, the same as an id that does not exist.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("page", raw)
	}
	return id, nil
}

// fieldError moves a service error that names a form field (a taken
// username, a too-long title) onto that field. It reports whether it did.
func fieldError(err error, errs forms.Errors) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field == "" {
		return false
	}
	if !errors.Is(err, apperror.ErrConflict) && !errors.Is(err, apperror.ErrValidation) {
		return false
	}
	errs.Add(appErr.Field, appErr.Message)
	return true
}

func userURL(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}
