package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/model"
	"github.com/sakif/feedback/internal/repository"
)

// Limits shared with the feedback form.
const (
	MaxTitleLength   = 100
	MaxContentLength = 5000
)

// FeedbackService manages feedback entries. Every mutation checks that the
// acting user owns the entry (or, for Create, the profile it is added to).
type FeedbackService struct {
	repo   repository.FeedbackRepository
	logger *slog.Logger
}

func NewFeedbackService(repo repository.FeedbackRepository, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		logger: logger,
	}
}

// validateFeedback re-checks what the form already checked, so non-HTTP callers
// get the same rules.
func validateFeedback(title, content string) error {
	switch {
	case title == "":
		return apperror.ValidationFailed("title", "This field is required.")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return apperror.ValidationFailed("title",
			fmt.Sprintf("Field cannot be longer than %d characters.", MaxTitleLength))
	case content == "":
		return apperror.ValidationFailed("content", "This field is required.")
	case utf8.RuneCountInString(content) > MaxContentLength:
		return apperror.ValidationFailed("content",
			fmt.Sprintf("Field cannot be longer than %d characters.", MaxContentLength))
	}
	return nil
}

// Create adds a feedback entry to ownerID's profile.
func (s *FeedbackService) Create(ctx context.Context, actorID, ownerID int64, title, content string) (*model.Feedback, error) {
	if actorID != ownerID {
		return nil, apperror.Forbidden("You can only add feedback to your own profile.")
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := validateFeedback(title, content); err != nil {
		return nil, err
	}

	fb := &model.Feedback{
		Title:   title,
		Content: content,
		UserID:  ownerID,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("service/feedback: creating for user %d: %w", ownerID, err)
	}

	s.logger.Info("feedback created",
		slog.Int64("id", fb.ID),
		slog.Int64("userID", fb.UserID),
	)
	return fb, nil
}

// Get returns feedback id.
func (s *FeedbackService) Get(ctx context.Context, id int64) (*model.Feedback, error) {
	fb, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/feedback: getting %d: %w", id, err)
	}
	return fb, nil
}

// Owned returns feedback id if actorID wrote it, apperror.ErrForbidden if
// someone else did.
func (s *FeedbackService) Owned(ctx context.Context, actorID, id int64) (*model.Feedback, error) {
	fb, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fb.UserID != actorID {
		s.logger.Warn("refused access to another user's feedback",
			slog.Int64("actorID", actorID),
			slog.Int64("id", id),
		)
		return nil, apperror.Forbidden("You can only change your own feedback.")
	}
	return fb, nil
}

// Update replaces the title and content of feedback id.
func (s *FeedbackService) Update(ctx context.Context, actorID, id int64, title, content string) (*model.Feedback, error) {
	fb, err := s.Owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if err := validateFeedback(title, content); err != nil {
		return nil, err
	}

	fb.Title = title
	fb.Content = content
	if err := s.repo.Update(ctx, fb); err != nil {
		return nil, fmt.Errorf("service/feedback: updating %d: %w", id, err)
	}

	s.logger.Info("feedback updated", slog.Int64("id", id))
	return fb, nil
}

// Delete removes feedback id and returns what was removed, so the caller
// knows whose profile to go back to.
func (s *FeedbackService) Delete(ctx context.Context, actorID, id int64) (*model.Feedback, error) {
	fb, err := s.Owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("service/feedback: deleting %d: %w", id, err)
	}

	s.logger.Info("feedback deleted", slog.Int64("id", id), slog.Int64("userID", fb.UserID))
	return fb, nil
}
