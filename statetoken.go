package blog

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StateTokenService derives single-use tokens from mutable account state
// instead of persisting them. A token encodes a coarse time bucket plus a
// keyed digest over (user id, tracked state, bucket); once the tracked state
// changes, every previously issued token stops verifying. That is what makes
// activation and reset links single-use without a token table.
type StateTokenService struct {
	secret []byte
	scope  string
	state  func(*User) string
	bucket time.Duration
	window int
	now    func() time.Time
}

// StateTokenOption configures a StateTokenService
type StateTokenOption func(*StateTokenService)

// WithTokenBucket sets the bucket duration bounding token lifetime
func WithTokenBucket(d time.Duration) StateTokenOption {
	return func(s *StateTokenService) {
		if d > 0 {
			s.bucket = d
		}
	}
}

// WithTokenWindow sets how many prior buckets still verify
func WithTokenWindow(n int) StateTokenOption {
	return func(s *StateTokenService) {
		if n >= 0 {
			s.window = n
		}
	}
}

// WithTokenClock overrides the clock, used by tests
func WithTokenClock(now func() time.Time) StateTokenOption {
	return func(s *StateTokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewActivationTokenService returns a token service bound to the account
// activation flow. Activation flips IsActive, invalidating the issued link.
func NewActivationTokenService(secret []byte, opts ...StateTokenOption) *StateTokenService {
	return newStateTokenService(secret, "account-activation", func(u *User) string {
		return strconv.FormatBool(u.IsActive)
	}, opts...)
}

// NewPasswordResetTokenService returns a token service bound to the password
// reset flow. Changing the password hash invalidates outstanding reset links.
func NewPasswordResetTokenService(secret []byte, opts ...StateTokenOption) *StateTokenService {
	return newStateTokenService(secret, "password-reset", func(u *User) string {
		return u.PasswordHash
	}, opts...)
}

func newStateTokenService(secret []byte, scope string, state func(*User) string, opts ...StateTokenOption) *StateTokenService {
	s := &StateTokenService{
		secret: secret,
		scope:  scope,
		state:  state,
		bucket: 24 * time.Hour,
		window: 3,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Issue derives an opaque token for the user's current state
func (s *StateTokenService) Issue(user *User) string {
	bucket := s.currentBucket()
	return formatStateToken(bucket, s.digest(user, bucket))
}

// Verify recomputes the token for the user's current state. Expired, replayed
// and tampered tokens all fail closed: there is one false, no error detail.
func (s *StateTokenService) Verify(user *User, token string) bool {
	if user == nil || token == "" {
		return false
	}

	bucket, digest, ok := parseStateToken(token)
	if !ok {
		return false
	}

	current := s.currentBucket()
	if bucket > current || current-bucket > int64(s.window) {
		return false
	}

	expected := s.digest(user, bucket)
	return hmac.Equal([]byte(digest), []byte(expected))
}

func (s *StateTokenService) currentBucket() int64 {
	return s.now().Unix() / int64(s.bucket.Seconds())
}

func (s *StateTokenService) digest(user *User, bucket int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s|%d", s.scope, user.ID, s.state(user), bucket)
	return hex.EncodeToString(mac.Sum(nil))
}

func formatStateToken(bucket int64, digest string) string {
	return strconv.FormatInt(bucket, 36) + "-" + digest
}

func parseStateToken(token string) (bucket int64, digest string, ok bool) {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", false
	}

	bucket, err := strconv.ParseInt(parts[0], 36, 64)
	if err != nil {
		return 0, "", false
	}

	return bucket, parts[1], true
}
