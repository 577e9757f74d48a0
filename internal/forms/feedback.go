package forms

import (
	"net/url"

	"github.com/sakif/feedback/internal/auth"
	"github.com/sakif/feedback/internal/model"
)

// FeedbackForm adds or edits a feedback entry.
type FeedbackForm struct {
	Title   string `form:"title"   validate:"required,max=100"`
	Content string `form:"content" validate:"required,max=5000"`
}

// ParseFeedback reads and validates a feedback submission.
func ParseFeedback(values url.Values) (FeedbackForm, Errors) {
	form := FeedbackForm{
		Title:   field(values, "title"),
		Content: field(values, "content"),
	}
	return form, check(form)
}

// FeedbackFormFrom pre-populates the edit form from a stored entry.
func FeedbackFormFrom(fb *model.Feedback) FeedbackForm {
	return FeedbackForm{Title: fb.Title, Content: fb.Content}
}

// DeleteForm is the body of every delete button: a single hidden
// csrf_token holding a confirmation token.
type DeleteForm struct {
	CSRFToken string `form:"csrf_token"`
}

// ParseDelete reads a delete submission. Nothing is validated until Verify.
func ParseDelete(values url.Values) DeleteForm {
	return DeleteForm{CSRFToken: field(values, "csrf_token")}
}

// Verify checks that the form's token was issued to userID for action on
// target. It returns auth.ErrInvalidConfirmation otherwise, including when
// the field is missing.
func (f DeleteForm) Verify(tokens *auth.ConfirmTokens, userID int64, action auth.ConfirmAction, target int64) error {
	return tokens.Verify(f.CSRFToken, userID, action, target)
}
