package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/feedback/internal/auth"
	"github.com/sakif/feedback/internal/forms"
	"github.com/sakif/feedback/internal/model"
	"github.com/sakif/feedback/internal/service"
)

// FeedbackHandler serves adding, editing and deleting feedback. Every route
// here sits behind auth.RequireAuth, and only an entry's owner may change it.
type FeedbackHandler struct {
	responder
	feedback *service.FeedbackService
	users    *service.UserService
	tokens   *auth.ConfirmTokens
}

func NewFeedbackHandler(
	feedback *service.FeedbackService,
	users *service.UserService,
	tokens *auth.ConfirmTokens,
	sessions *auth.SessionManager,
	renderer Renderer,
	logger *slog.Logger,
) *FeedbackHandler {
	return &FeedbackHandler{
		responder: responder{renderer: renderer, sessions: sessions, logger: logger},
		feedback:  feedback,
		users:     users,
		tokens:    tokens,
	}
}

// HandleAddForm shows the add form on the actor's own profile.
//
// HTTP: GET /users/{id}/feedback/add
func (h *FeedbackHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	actorID, err := currentUserID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if _, err := h.users.Owned(r.Context(), actorID, ownerID); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderAdd(w, r, ownerID, forms.FeedbackForm{}, forms.Errors{})
}

// HandleAdd stores a new entry and returns to the profile.
//
// HTTP: POST /users/{id}/feedback/add
func (h *FeedbackHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	actorID, err := currentUserID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := h.parseForm(w, r); err != nil {
		h.renderError(w, r, err)
		return
	}

	form, errs := forms.ParseFeedback(r.PostForm)
	if !errs.Valid() {
		h.renderAdd(w, r, ownerID, form, errs)
		return
	}

	fb, err := h.feedback.Create(r.Context(), actorID, ownerID, form.Title, form.Content)
	if err != nil {
		if fieldError(err, errs) {
			h.renderAdd(w, r, ownerID, form, errs)
			return
		}
		h.renderError(w, r, err)
		return
	}

	h.redirect(w, r, userURL(fb.UserID))
}

func (h *FeedbackHandler) renderAdd(w http.ResponseWriter, r *http.Request, ownerID int64, form forms.FeedbackForm, errs forms.Errors) {
	h.render(w, r, http.StatusOK, pageFeedbackAdd, map[string]any{
		"OwnerID": ownerID,
		"Form":    form,
		"Errors":  errs,
	})
}

// HandleEditForm shows the edit form filled with the current entry.
//
// HTTP: GET /feedback/{id}/update
func (h *FeedbackHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	actorID, err := currentUserID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	fb, err := h.feedback.Owned(r.Context(), actorID, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderEdit(w, r, fb, forms.FeedbackFormFrom(fb), forms.Errors{})
}

// HandleUpdate saves the new title and content.
//
// HTTP: POST /feedback/{id}/update
func (h *FeedbackHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	actorID, err := currentUserID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	// Ownership first, so a stranger never learns whether their input was valid.
	current, err := h.feedback.Owned(r.Context(), actorID, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := h.parseForm(w, r); err != nil {
		h.renderError(w, r, err)
		return
	}

	form, errs := forms.ParseFeedback(r.PostForm)
	if !errs.Valid() {
		h.renderEdit(w, r, current, form, errs)
		return
	}

	fb, err := h.feedback.Update(r.Context(), actorID, id, form.Title, form.Content)
	if err != nil {
		if fieldError(err, errs) {
			h.renderEdit(w, r, current, form, errs)
			return
		}
		h.renderError(w, r, err)
		return
	}

	h.redirect(w, r, userURL(fb.UserID))
}

func (h *FeedbackHandler) renderEdit(w http.ResponseWriter, r *http.Request, item *model.Feedback, form forms.FeedbackForm, errs forms.Errors) {
	h.render(w, r, http.StatusOK, pageFeedbackEdit, map[string]any{
		"Item":   item,
		"Form":   form,
		"Errors": errs,
	})
}

// HandleDelete removes an entry and returns to its owner's profile.
//
// HTTP: POST /feedback/{id}/delete
//
// A missing or invalid confirmation token makes this a no-op redirect.
func (h *FeedbackHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	actorID, err := currentUserID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	fb, err := h.feedback.Owned(r.Context(), actorID, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := h.parseForm(w, r); err != nil {
		h.renderError(w, r, err)
		return
	}

	form := forms.ParseDelete(r.PostForm)
	if err := form.Verify(h.tokens, actorID, auth.ActionDeleteFeedback, id); err != nil {
		if !errors.Is(err, auth.ErrInvalidConfirmation) {
			h.renderError(w, r, err)
			return
		}
		h.logger.Warn("feedback deletion without valid confirmation",
			slog.Int64("actorID", actorID),
			slog.Int64("id", id),
			slog.String("reason", err.Error()),
		)
		h.redirect(w, r, userURL(fb.UserID))
		return
	}

	if _, err := h.feedback.Delete(r.Context(), actorID, id); err != nil {
		h.renderError(w, r, err)
		return
	}

	h.redirect(w, r, userURL(fb.UserID))
}
