package blog

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

const principalKey = "blog:principal"

// Protected returns the authentication middleware: it validates the Bearer
// token and loads the acting principal so object checks can run against the
// stored flags rather than stale claims.
func Protected(tokens *TokenService, repo RepositoryManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c)
		if err != nil {
			return ErrAuthenticationRequired
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			return err
		}

		id, err := claims.UserUUID()
		if err != nil {
			return ErrTokenMalformed
		}

		user, err := repo.Users().GetByID(c.Context(), id)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrAuthenticationRequired
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load principal")
		}

		if !user.IsActive {
			return ErrAuthenticationRequired
		}

		c.Locals(principalKey, user)
		return c.Next()
	}
}

// PrincipalFromCtx returns the authenticated user set by Protected
func PrincipalFromCtx(c *fiber.Ctx) (*User, error) {
	user, ok := c.Locals(principalKey).(*User)
	if !ok || user == nil {
		return nil, ErrAuthenticationRequired
	}
	return user, nil
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrUnableToFindSession
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrUnableToFindSession
	}

	return parts[1], nil
}
