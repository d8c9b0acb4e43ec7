package blog

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone_number"`
	Password        string `json:"password1"`
	PasswordConfirm string `json:"password2"`
	UseHashid       bool
	OnResponse      func(user *User)
}

func (e RegisterUserMessage) Type() string { return "account.register" }

// RegisterUserHandler creates an inactive account and mails the activation
// link. The row insert and the uniqueness guards share one transaction, so a
// failed guard leaves no partial user behind; mail goes out only after commit.
type RegisterUserHandler struct {
	repo     RepositoryManager
	tokens   *StateTokenService
	notifier AccountNotifier
	logger   Logger
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager, tokens *StateTokenService, notifier AccountNotifier) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

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

	phone, err := NormalizePhone(event.Phone)
	if err != nil {
		return err
	}

	user := &User{}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if taken, err := h.repo.Users().EmailTakenTx(ctx, tx, event.Email); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		} else if taken {
			return goerrors.New("user with this email already exists", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithTextCode(TextCodeEmailExists)
		}

		if taken, err := h.repo.Users().PhoneTakenTx(ctx, tx, phone); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check phone uniqueness")
		} else if taken {
			return goerrors.New("user with this phone already exists", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict).
				WithTextCode(TextCodePhoneExists)
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Phone = phone
		user.PasswordHash = hash
		user.IsActive = false
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	// best effort: a lost email must not undo the committed registration
	token := h.tokens.Issue(user)
	if err := h.notifier.SendActivation(ctx, user, token); err != nil {
		h.logger.Error("failed to send activation email to %s: %v", user.Email, err)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
