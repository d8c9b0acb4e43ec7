package blog_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	blog "github.com/penmark/go-blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChangePasswordReplacesHash(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	handler := blog.NewChangePasswordHandler(repo).WithLogger(testLogger{})

	oldHash, err := blog.HashPassword("old-password-123")
	require.NoError(t, err)

	user := &blog.User{ID: uuid.New(), IsActive: true, PasswordHash: oldHash}

	repo.On("Users").Return(users)
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()
	users.On("ResetPasswordTx", mock.Anything, mock.Anything, user.ID, mock.MatchedBy(func(hash string) bool {
		return hash != oldHash && blog.ComparePasswordAndHash("new-password-123", hash) == nil
	})).Return(nil).Once()
	expectTx(repo).Once()

	err = handler.Execute(ctx, blog.ChangePasswordMessage{
		UserID:             user.ID,
		OldPassword:        "old-password-123",
		NewPassword:        "new-password-123",
		NewPasswordConfirm: "new-password-123",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	handler := blog.NewChangePasswordHandler(repo)

	oldHash, err := blog.HashPassword("old-password-123")
	require.NoError(t, err)

	user := &blog.User{ID: uuid.New(), PasswordHash: oldHash}

	repo.On("Users").Return(users)
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	err = handler.Execute(context.Background(), blog.ChangePasswordMessage{
		UserID:             user.ID,
		OldPassword:        "not-the-old-password",
		NewPassword:        "new-password-123",
		NewPasswordConfirm: "new-password-123",
	})

	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)

	users.AssertNotCalled(t, "ResetPasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePasswordMismatchedConfirmation(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := blog.NewChangePasswordHandler(repo)

	err := handler.Execute(context.Background(), blog.ChangePasswordMessage{
		UserID:             uuid.New(),
		OldPassword:        "old-password-123",
		NewPassword:        "new-password-123",
		NewPasswordConfirm: "different",
	})

	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, blog.TextCodePasswordMismatch, richErr.TextCode)
}
