package blog

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token uses distinguish the pair members; a refresh token can never be
// presented as an access token or vice versa.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// JWTClaims carries the authenticated principal through a request
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	TokenUse  string `json:"use,omitempty"`
	Superuser bool   `json:"su,omitempty"`
	Staff     bool   `json:"staff,omitempty"`
}

// UserID returns the user id claim, falling back to the subject
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// UserUUID parses the user id claim
func (c *JWTClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID())
}
