// Package repository declares the storage contracts the services depend on.
// Implementations live in sub-packages (see repository/sqldb).
package repository

import (
	"context"

	"github.com/sakif/feedback/internal/model"
)

// UserRepository persists accounts.
//
// Create must reject a duplicate username with an apperror.ErrConflict whose
// Field is "username". Lookups return apperror.ErrNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// Delete removes the user and, through the foreign key, all their feedback.
	Delete(ctx context.Context, id int64) error
}

// FeedbackRepository persists feedback entries.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *model.Feedback) error
	GetByID(ctx context.Context, id int64) (*model.Feedback, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Feedback, error)
	Update(ctx context.Context, feedback *model.Feedback) error
	Delete(ctx context.Context, id int64) error
}
