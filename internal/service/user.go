package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/model"
	"github.com/sakif/feedback/internal/repository"
)

// UserService serves profile pages and account deletion.
type UserService struct {
	users    repository.UserRepository
	feedback repository.FeedbackRepository
	logger   *slog.Logger
}

func NewUserService(users repository.UserRepository, feedback repository.FeedbackRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		feedback: feedback,
		logger:   logger,
	}
}

// Profile is a user together with everything they have written.
type Profile struct {
	User     *model.User
	Feedback []model.Feedback
}

// Profile loads user id and their feedback. Any logged-in user may view
// any profile.
func (s *UserService) Profile(ctx context.Context, id int64) (*Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading user %d: %w", id, err)
	}

	items, err := s.feedback.ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing feedback for user %d: %w", id, err)
	}

	return &Profile{User: user, Feedback: items}, nil
}

// Owned returns user id if actorID is that user, apperror.ErrForbidden
// otherwise.
func (s *UserService) Owned(ctx context.Context, actorID, id int64) (*model.User, error) {
	if actorID != id {
		return nil, apperror.Forbidden("You can only manage your own account.")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading user %d: %w", id, err)
	}
	return user, nil
}

// Delete removes account id and, through the store's cascade, all its
// feedback. Only the account owner may do this.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID != id {
		s.logger.Warn("refused to delete another user's account",
			slog.Int64("actorID", actorID),
			slog.Int64("userID", id),
		)
		return apperror.Forbidden("You can only manage your own account.")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/user: deleting user %d: %w", id, err)
	}

	s.logger.Info("user deleted", slog.Int64("userID", id))
	return nil
}
