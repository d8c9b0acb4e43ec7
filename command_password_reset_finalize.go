package blog

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type VerifyPasswordResetMessage struct {
	UID        string `json:"uid"`
	Token      string `json:"token"`
	OnResponse func(resp *VerifyPasswordResetResponse)
}

func (e VerifyPasswordResetMessage) Type() string { return "account.password_reset_verify" }

type VerifyPasswordResetResponse struct {
	Email string
}

// VerifyPasswordResetHandler checks a reset link without side effects, so the
// client can show the new-password prompt before the user commits.
type VerifyPasswordResetHandler struct {
	repo   RepositoryManager
	tokens *StateTokenService
}

// NewVerifyPasswordResetHandler creates the verification handler.
func NewVerifyPasswordResetHandler(repo RepositoryManager, tokens *StateTokenService) *VerifyPasswordResetHandler {
	return &VerifyPasswordResetHandler{
		repo:   repo,
		tokens: tokens,
	}
}

func (h *VerifyPasswordResetHandler) Execute(ctx context.Context, event VerifyPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyPasswordResetHandler) execute(ctx context.Context, event VerifyPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.resolveUser(ctx, event.UID)
	if err != nil {
		return err
	}

	if !h.tokens.Verify(user, event.Token) {
		return NewInvalidLinkError("password-reset")
	}

	if event.OnResponse != nil {
		event.OnResponse(&VerifyPasswordResetResponse{Email: user.Email})
	}

	return nil
}

func (h *VerifyPasswordResetHandler) resolveUser(ctx context.Context, uid string) (*User, error) {
	return resolveResetUser(ctx, h.repo, uid)
}

type FinalizePasswordResetMessage struct {
	UID             string `json:"uid"`
	Token           string `json:"token"`
	Password        string `json:"new_password1"`
	PasswordConfirm string `json:"new_password2"`
}

func (e FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

// FinalizePasswordResetHandler redeems a reset link and replaces the password
// hash. Replacing the hash is also what invalidates the link: the token was
// derived from the old hash and no longer verifies.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	tokens *StateTokenService
	logger Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens *StateTokenService) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := resolveResetUser(ctx, h.repo, event.UID)
	if err != nil {
		return err
	}

	if !h.tokens.Verify(user, event.Token) {
		return NewInvalidLinkError("password-reset")
	}

	if event.Password != event.PasswordConfirm {
		return goerrors.New("the two password fields didn't match", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodePasswordMismatch)
	}

	if len(event.Password) < MinPasswordLength {
		return goerrors.New("password is too short", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"min_length": MinPasswordLength})
	}

	if err := ComparePasswordAndHash(event.Password, user.PasswordHash); err == nil {
		return goerrors.New("the new password must differ from the old one", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodePasswordReused)
	}

	hash, err := HashPassword(event.Password)
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	return nil
}

// resolveResetUser turns the encoded uid from a reset link into a user. Every
// failure collapses into the generic invalid-link error so responses do not
// reveal whether the account exists.
func resolveResetUser(ctx context.Context, repo RepositoryManager, uid string) (*User, error) {
	id, err := DecodeUID(uid)
	if err != nil {
		return nil, NewInvalidLinkError("password-reset")
	}

	user, err := repo.Users().GetByID(ctx, id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, NewInvalidLinkError("password-reset")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	return user, nil
}
