package blog

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ActivateAccountMessage struct {
	UID        string `json:"uid"`
	Token      string `json:"token"`
	OnResponse func(resp *ActivateAccountResponse)
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

type ActivateAccountResponse struct {
	Activated     bool
	AlreadyActive bool
}

// ActivateAccountHandler redeems an activation link. Replays after a
// successful activation are a no-op success: the account stays active and
// nothing is re-mutated.
type ActivateAccountHandler struct {
	repo   RepositoryManager
	tokens *StateTokenService
	logger Logger
}

// NewActivateAccountHandler creates a handler with sane defaults.
func NewActivateAccountHandler(repo RepositoryManager, tokens *StateTokenService) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ActivateAccountHandler) WithLogger(logger Logger) *ActivateAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account activation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	id, err := DecodeUID(event.UID)
	if err != nil {
		return NewInvalidLinkError("activation")
	}

	user, err := h.repo.Users().GetByID(ctx, id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewInvalidLinkError("activation")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for activation")
	}

	resp := &ActivateAccountResponse{}

	// An active account makes every outstanding activation token
	// unverifiable, so the replay check has to come first.
	if user.IsActive {
		resp.AlreadyActive = true
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	if !h.tokens.Verify(user, event.Token) {
		return NewInvalidLinkError("activation")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().ActivateTx(ctx, tx, user.ID)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
	}

	resp.Activated = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
