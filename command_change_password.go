package blog

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ChangePasswordMessage struct {
	UserID             uuid.UUID `json:"-"`
	OldPassword        string    `json:"old_password"`
	NewPassword        string    `json:"new_password1"`
	NewPasswordConfirm string    `json:"new_password2"`
}

func (e ChangePasswordMessage) Type() string { return "account.password_change" }

// ChangePasswordHandler is the self-service password change: the principal
// acts on their own account and must prove the old password first. Every
// guard runs before the hash is replaced; a failed guard mutates nothing.
type ChangePasswordHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewChangePasswordHandler creates a handler with sane defaults.
func NewChangePasswordHandler(repo RepositoryManager) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.NewPassword != event.NewPasswordConfirm {
		return goerrors.New("the two password fields didn't match", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodePasswordMismatch)
	}

	if len(event.NewPassword) < MinPasswordLength {
		return goerrors.New("password is too short", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"min_length": MinPasswordLength})
	}

	user, err := h.repo.Users().GetByID(ctx, event.UserID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("user not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password change")
	}

	if err := ComparePasswordAndHash(event.OldPassword, user.PasswordHash); err != nil {
		return goerrors.New("old password is incorrect", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"field": "old_password"})
	}

	hash, err := HashPassword(event.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to change password")
	}

	return nil
}
