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

// UserHandler serves profile pages and account deletion. Every route here
// sits behind auth.RequireAuth.
type UserHandler struct {
	responder
	users  *service.UserService
	tokens *auth.ConfirmTokens
}

func NewUserHandler(users *service.UserService, tokens *auth.ConfirmTokens, sessions *auth.SessionManager, renderer Renderer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder: responder{renderer: renderer, sessions: sessions, logger: logger},
		users:     users,
		tokens:    tokens,
	}
}

// HandleProfile shows a user and their feedback.
//
// HTTP: GET /users/{id}
//
// The owner also gets edit links and delete buttons, each carrying a
// confirmation token for exactly that resource.
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	viewerID, err := currentUserID(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	profile, err := h.users.Profile(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := map[string]any{
		"User":     profile.User,
		"Feedback": profile.Feedback,
		"IsOwner":  viewerID == id,
	}

	if viewerID == id {
		userToken, feedbackTokens, err := h.ownerTokens(viewerID, profile.Feedback)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		data["DeleteUserToken"] = userToken
		data["FeedbackTokens"] = feedbackTokens
	}

	h.render(w, r, http.StatusOK, pageUser, data)
}

func (h *UserHandler) ownerTokens(userID int64, items []model.Feedback) (string, map[int64]string, error) {
	userToken, err := h.tokens.Issue(userID, auth.ActionDeleteUser, userID)
	if err != nil {
		return "", nil, err
	}

	feedbackTokens := make(map[int64]string, len(items))
	for _, fb := range items {
		token, err := h.tokens.Issue(userID, auth.ActionDeleteFeedback, fb.ID)
		if err != nil {
			return "", nil, err
		}
		feedbackTokens[fb.ID] = token
	}
	return userToken, feedbackTokens, nil
}

// HandleConfirmDelete shows the "are you sure?" page. It changes nothing;
// the form on it POSTs to HandleDelete.
//
// HTTP: GET /users/{id}/delete
func (h *UserHandler) HandleConfirmDelete(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.users.Owned(r.Context(), actorID, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(actorID, auth.ActionDeleteUser, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, pageUserDelete, map[string]any{
		"User":            user,
		"DeleteUserToken": token,
	})
}

// HandleDelete removes the account and all its feedback, then logs out.
//
// HTTP: POST /users/{id}/delete
//
// Without a valid confirmation token nothing is deleted and the user is
// sent back to the profile.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.parseForm(w, r); err != nil {
		h.renderError(w, r, err)
		return
	}

	form := forms.ParseDelete(r.PostForm)
	if err := form.Verify(h.tokens, actorID, auth.ActionDeleteUser, id); err != nil {
		if !errors.Is(err, auth.ErrInvalidConfirmation) {
			h.renderError(w, r, err)
			return
		}
		h.logger.Warn("account deletion without valid confirmation",
			slog.Int64("actorID", actorID),
			slog.Int64("userID", id),
			slog.String("reason", err.Error()),
		)
		h.flash(w, r, "Please confirm the deletion from your profile page.")
		h.redirect(w, r, userURL(id))
		return
	}

	if err := h.users.Delete(r.Context(), actorID, id); err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Error("clearing session after account deletion", slog.String("error", err.Error()))
	}
	h.redirect(w, r, "/login")
}
