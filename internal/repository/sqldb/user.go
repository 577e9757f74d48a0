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

var _ repository.UserRepository = (*UserDB)(nil)

// UserDB implements repository.UserRepository.
type UserDB struct {
	db *DB
}

const userColumns = `id, username, password_hash, email, first_name, last_name, created_at`

// Create inserts user and fills in its ID and CreatedAt.
//
// Username uniqueness is left to the UNIQUE constraint rather than a
// SELECT-then-INSERT, so two concurrent registrations cannot both win.
// The loser gets an apperror.Conflict on the "username" field.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	err := u.db.conn.QueryRowContext(ctx, u.db.rebind(
		`INSERT INTO users (username, password_hash, email, first_name, last_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		user.Username,
		user.PasswordHash,
		user.Email,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username", "Username taken. Please pick another.")
		}
		return fmt.Errorf("sqldb: inserting user %q: %w", user.Username, err)
	}
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx, u.db.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = ?`), id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqldb: getting user %d: %w", id, err)
	}
	return user, nil
}

func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx, u.db.rebind(
		`SELECT `+userColumns+` FROM users WHERE username = ?`), username)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", username)
	}
	if err != nil {
		return nil, fmt.Errorf("sqldb: getting user %q: %w", username, err)
	}
	return user, nil
}

// Delete removes the user. Their feedback goes with them through
// ON DELETE CASCADE, in the same statement.
func (u *UserDB) Delete(ctx context.Context, id int64) error {
	result, err := u.db.conn.ExecContext(ctx, u.db.rebind(
		`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqldb: deleting user %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqldb: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
