package blog

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// Activation and reset links carry the user id urlsafe-base64 encoded, same
// shape as the emails the original web flows sent.

// EncodeUID encodes a user id for use in a link path segment
func EncodeUID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// DecodeUID decodes a link path segment back into a user id
func DecodeUID(encoded string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(string(raw))
}
