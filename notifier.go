package blog

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gofiber/template/django/v3"
)

// AccountNotifier delivers the account-lifecycle emails
type AccountNotifier interface {
	SendActivation(ctx context.Context, user *User, token string) error
	SendPasswordReset(ctx context.Context, user *User, token string) error
}

// MailNotifier renders Django-style templates from the views directory and
// hands the result to a Mailer. Links embed the urlsafe-base64 user id plus
// the state token, mirroring the paths the HTTP layer exposes.
type MailNotifier struct {
	engine  *django.Engine
	mailer  Mailer
	baseURL string
	site    string
}

var _ AccountNotifier = (*MailNotifier)(nil)

// NewMailNotifier loads mail templates from dir (e.g. "./views")
func NewMailNotifier(dir string, mailer Mailer, baseURL, site string) (*MailNotifier, error) {
	engine := django.New(dir, ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("unable to load mail templates from %q: %w", dir, err)
	}

	return &MailNotifier{
		engine:  engine,
		mailer:  mailer,
		baseURL: baseURL,
		site:    site,
	}, nil
}

func (n *MailNotifier) SendActivation(ctx context.Context, user *User, token string) error {
	link := fmt.Sprintf("%s/account/activate/%s/%s/", n.baseURL, EncodeUID(user.ID), token)

	body, err := n.render("activation_email", map[string]any{
		"name": user.FullName(),
		"site": n.site,
		"link": link,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s - activate your account", n.site)
	return n.mailer.Send(ctx, user.Email, subject, body)
}

func (n *MailNotifier) SendPasswordReset(ctx context.Context, user *User, token string) error {
	link := fmt.Sprintf("%s/account/password/reset/%s/%s/", n.baseURL, EncodeUID(user.ID), token)

	body, err := n.render("password_reset_email", map[string]any{
		"name": user.FullName(),
		"site": n.site,
		"link": link,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s - password recovery", n.site)
	return n.mailer.Send(ctx, user.Email, subject, body)
}

// LogNotifier writes the links to the log instead of sending mail. Useful in
// development where no SMTP relay is around.
type LogNotifier struct {
	logger Logger
}

var _ AccountNotifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendActivation(_ context.Context, user *User, token string) error {
	n.logger.Info("activation link for %s: /account/activate/%s/%s/", user.Email, EncodeUID(user.ID), token)
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, user *User, token string) error {
	n.logger.Info("password reset link for %s: /account/password/reset/%s/%s/", user.Email, EncodeUID(user.ID), token)
	return nil
}

func (n *MailNotifier) render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := n.engine.Render(&buf, name, data); err != nil {
		return "", fmt.Errorf("unable to render mail template %q: %w", name, err)
	}
	return buf.String(), nil
}
