package blog

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("value should not be an empty string")

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("mismatched password and hash")

// ErrUnableToFindSession is the error when the request carries no token
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// Text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodeInvalidLink      = "INVALID_LINK"
	TextCodeTokenExpired     = "AUTH_TOKEN_EXPIRED"
	TextCodePasswordMismatch = "PASSWORD_MISMATCH"
	TextCodePasswordReused   = "PASSWORD_REUSED"
	TextCodeEmailExists      = "EMAIL_EXISTS"
	TextCodePhoneExists      = "PHONE_EXISTS"
)

// ErrTokenExpired is surfaced when a JWT is past its expiry
var ErrTokenExpired = goerrors.New("authentication token expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is surfaced for undecodable JWTs
var ErrTokenMalformed = goerrors.New("invalid authentication token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("AUTH_TOKEN_MALFORMED")

// ErrAuthenticationRequired is surfaced when no principal is present
var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrNotOwner is the object-level authorization denial
var ErrNotOwner = goerrors.New("you do not have permission to perform this action", goerrors.CategoryAuthz).
	WithCode(goerrors.CodeForbidden)

// NewInvalidLinkError covers bad, replayed, or expired activation and reset
// links. They all collapse into the same message so the response does not
// reveal whether the account exists or the token merely aged out.
func NewInvalidLinkError(flow string) *goerrors.Error {
	return goerrors.New("this link is no longer valid", goerrors.CategoryValidation).
		WithTextCode(TextCodeInvalidLink).
		WithMetadata(map[string]any{"flow": flow})
}

// NewValidationError wraps a field-scoped validation failure, preserving the
// ozzo error map in metadata so clients get per-field messages. The error
// value goes in as-is: validation.Errors marshals to a field->message object.
func NewValidationError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "validation failed").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": err})
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// the database. sqlite and postgres spell it differently.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenExpired
	}
	return false
}
