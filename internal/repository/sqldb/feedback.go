package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/model"
	"github.com/sakif/feedback/internal/repository"
)

var _ repository.FeedbackRepository = (*FeedbackDB)(nil)

// FeedbackDB implements repository.FeedbackRepository.
type FeedbackDB struct {
	db *DB
}

const feedbackColumns = `id, title, content, user_id, created_at, updated_at`

// Create inserts fb and fills in its ID and timestamps. A UserID with no
// matching user is reported as apperror.ErrNotFound.
func (f *FeedbackDB) Create(ctx context.Context, fb *model.Feedback) error {
	now := time.Now().UTC()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	err := f.db.conn.QueryRowContext(ctx, f.db.rebind(
		`INSERT INTO feedback (title, content, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`),
		fb.Title,
		fb.Content,
		fb.UserID,
		fb.CreatedAt,
		fb.UpdatedAt,
	).Scan(&fb.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", fb.UserID)
		}
		return fmt.Errorf("sqldb: inserting feedback for user %d: %w", fb.UserID, err)
	}
	return nil
}

func (f *FeedbackDB) GetByID(ctx context.Context, id int64) (*model.Feedback, error) {
	row := f.db.conn.QueryRowContext(ctx, f.db.rebind(
		`SELECT `+feedbackColumns+` FROM feedback WHERE id = ?`), id)

	var fb model.Feedback
	err := row.Scan(&fb.ID, &fb.Title, &fb.Content, &fb.UserID, &fb.CreatedAt, &fb.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("feedback", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqldb: getting feedback %d: %w", id, err)
	}
	return &fb, nil
}

// ListByUser returns the user's feedback oldest first. A user with no
// feedback (or no such user) yields an empty, non-nil slice.
func (f *FeedbackDB) ListByUser(ctx context.Context, userID int64) ([]model.Feedback, error) {
	rows, err := f.db.conn.QueryContext(ctx, f.db.rebind(
		`SELECT `+feedbackColumns+` FROM feedback WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing feedback for user %d: %w", userID, err)
	}
	// With a single SQLite connection, rows must be closed before the
	// caller can run its next query.
	defer rows.Close()

	items := []model.Feedback{}
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(&fb.ID, &fb.Title, &fb.Content, &fb.UserID, &fb.CreatedAt, &fb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqldb: scanning feedback: %w", err)
		}
		items = append(items, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating feedback: %w", err)
	}
	return items, nil
}

// Update writes fb's title and content and bumps UpdatedAt. Ownership is
// never changed here.
func (f *FeedbackDB) Update(ctx context.Context, fb *model.Feedback) error {
	fb.UpdatedAt = time.Now().UTC()

	result, err := f.db.conn.ExecContext(ctx, f.db.rebind(
		`UPDATE feedback SET title = ?, content = ?, updated_at = ? WHERE id = ?`),
		fb.Title,
		fb.Content,
		fb.UpdatedAt,
		fb.ID,
	)
	if err != nil {
		return fmt.Errorf("sqldb: updating feedback %d: %w", fb.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqldb: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("feedback", fb.ID)
	}
	return nil
}

func (f *FeedbackDB) Delete(ctx context.Context, id int64) error {
	result, err := f.db.conn.ExecContext(ctx, f.db.rebind(
		`DELETE FROM feedback WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqldb: deleting feedback %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqldb: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("feedback", id)
	}
	return nil
}
