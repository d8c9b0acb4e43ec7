package blog

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetResponse struct {
	Delivered bool
}

// InitializePasswordResetHandler starts the reset track. The outcome is the
// same for the caller whether or not the email matches an active account;
// only the Delivered flag (never surfaced over HTTP) records the difference.
// That keeps the endpoint safe against account enumeration.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	tokens   *StateTokenService
	notifier AccountNotifier
	logger   Logger
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager, tokens *StateTokenService, notifier AccountNotifier) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &InitializePasswordResetResponse{}

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	// inactive accounts never completed activation; there is no password
	// worth recovering and the email address is unverified
	if !user.IsActive {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	token := h.tokens.Issue(user)
	if err := h.notifier.SendPasswordReset(ctx, user, token); err != nil {
		h.logger.Error("failed to send password reset email to %s: %v", user.Email, err)
	} else {
		resp.Delivered = true
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
