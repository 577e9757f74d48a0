package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/auth"
	"github.com/sakif/feedback/internal/model"
)

// =========================================================================
// FAKE
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository that enforces
// username uniqueness the way the real store does.
type fakeUserRepo struct {
	byID   map[int64]*model.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range f.byID {
		if u.Username == user.Username {
			return apperror.Conflict("username", "Username taken. Please pick another.")
		}
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.byID, id)
	return nil
}

func newTestAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, auth.NewPasswordServiceForTest(), discardLogger())
}

func aliceInput() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Password:  "wonderland",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
	}
}

// =========================================================================
// NewUser
// =========================================================================

func TestNewUser_HashesPassword(t *testing.T) {
	ps := auth.NewPasswordServiceForTest()

	user, err := NewUser(ps, "alice", "wonderland", "alice@example.com", "Alice", "Liddell")
	require.NoError(t, err)

	assert.Zero(t, user.ID, "NewUser does not persist")
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "wonderland", user.PasswordHash)
	assert.NoError(t, ps.Verify(user.PasswordHash, "wonderland"))
	assert.Equal(t, "Alice Liddell", user.FullName())
}

func TestNewUser_RejectsOverlongPassword(t *testing.T) {
	_, err := NewUser(auth.NewPasswordServiceForTest(), "alice", strings.Repeat("x", 73), "a@b.co", "A", "L")
	assert.Error(t, err)
}

// =========================================================================
// Register
// =========================================================================

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	user, err := svc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "wonderland", stored.PasswordHash, "plaintext is never stored")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	second := aliceInput()
	second.Email = "someone.else@example.com"
	_, err = svc.Register(context.Background(), second)

	require.ErrorIs(t, err, apperror.ErrConflict)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "username", appErr.Field)
	assert.Len(t, repo.byID, 1)
}

func TestRegister_StoreFailure(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(errors.New("disk full"))

	svc := NewAuthService(repo, auth.NewPasswordServiceForTest(), discardLogger())
	_, err := svc.Register(context.Background(), aliceInput())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	repo.AssertExpectations(t)
}

// =========================================================================
// Authenticate
// =========================================================================

func TestAuthenticate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	registered, err := svc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"correct credentials", "alice", "wonderland", nil},
		{"wrong password", "alice", "looking-glass", apperror.ErrInvalidCredentials},
		{"unknown user", "mallory", "wonderland", apperror.ErrInvalidCredentials},
		{"username is case sensitive", "Alice", "wonderland", apperror.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)
		})
	}
}

func TestAuthenticate_SameErrorForUnknownAndWrong(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	_, err := svc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	_, errWrong := svc.Authenticate(context.Background(), "alice", "nope")
	_, errUnknown := svc.Authenticate(context.Background(), "nobody", "nope")

	assert.Equal(t, errWrong, errUnknown, "callers must not be able to tell the cases apart")
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByUsername", mock.Anything, "alice").Return(nil, errors.New("connection reset"))

	svc := NewAuthService(repo, auth.NewPasswordServiceForTest(), discardLogger())
	_, err := svc.Authenticate(context.Background(), "alice", "pw")

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrInvalidCredentials, "infrastructure errors are not bad credentials")
	repo.AssertExpectations(t)
}

// =========================================================================
// CurrentUser
// =========================================================================

func TestCurrentUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	registered, err := svc.Register(context.Background(), aliceInput())
	require.NoError(t, err)

	user, err := svc.CurrentUser(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.CurrentUser(context.Background(), 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
