package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sakif/feedback/internal/apperror"
	"github.com/sakif/feedback/internal/model"
)

func TestProfile(t *testing.T) {
	users := new(MockUserRepository)
	feedback := new(MockFeedbackRepository)
	svc := NewUserService(users, feedback, discardLogger())

	alice := &model.User{ID: 1, Username: "alice"}
	items := []model.Feedback{{ID: 10, Title: "hi", UserID: 1}}
	users.On("GetByID", mock.Anything, int64(1)).Return(alice, nil)
	feedback.On("ListByUser", mock.Anything, int64(1)).Return(items, nil)

	profile, err := svc.Profile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, alice, profile.User)
	assert.Equal(t, items, profile.Feedback)

	users.AssertExpectations(t)
	feedback.AssertExpectations(t)
}

func TestProfile_UnknownUser(t *testing.T) {
	users := new(MockUserRepository)
	feedback := new(MockFeedbackRepository)
	svc := NewUserService(users, feedback, discardLogger())

	users.On("GetByID", mock.Anything, int64(5)).Return(nil, apperror.NotFound("user", 5))

	_, err := svc.Profile(context.Background(), 5)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	feedback.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything)
}

func TestOwned_User(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockFeedbackRepository), discardLogger())

	users.On("GetByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)

	user, err := svc.Owned(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = svc.Owned(context.Background(), 2, 1)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	users.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestUserDelete(t *testing.T) {
	tests := []struct {
		name      string
		actorID   int64
		targetID  int64
		repoErr   error
		wantErr   error
		wantStore bool
	}{
		{name: "owner deletes own account", actorID: 1, targetID: 1, wantStore: true},
		{name: "other user is forbidden", actorID: 2, targetID: 1, wantErr: apperror.ErrForbidden},
		{name: "already gone", actorID: 3, targetID: 3, repoErr: apperror.NotFound("user", 3), wantErr: apperror.ErrNotFound, wantStore: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			svc := NewUserService(users, new(MockFeedbackRepository), discardLogger())
			if tt.wantStore {
				users.On("Delete", mock.Anything, tt.targetID).Return(tt.repoErr)
			}

			err := svc.Delete(context.Background(), tt.actorID, tt.targetID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if !tt.wantStore {
				users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestUserDelete_StoreFailure(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockFeedbackRepository), discardLogger())
	users.On("Delete", mock.Anything, int64(1)).Return(errors.New("locked"))

	err := svc.Delete(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}
