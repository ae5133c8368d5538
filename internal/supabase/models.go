package supabase

import (
	"time"

	"github.com/google/uuid"
)

// User is the provider-owned user record. The gateway treats it as a
// read-only snapshot of the current identity.
type User struct {
	ID               uuid.UUID      `json:"id"`
	Aud              string         `json:"aud"`
	Role             string         `json:"role"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	ConfirmedAt      *time.Time     `json:"confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	Identities       []Identity     `json:"identities"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Identity is one linked credential (email, google, github, ...) of a user.
type Identity struct {
	ID       string    `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Provider string    `json:"provider"`
}

// Session is the time-bounded proof of authentication issued by the
// provider. ExpiresAt is an absolute unix timestamp.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Expired reports whether the session's expiry instant has passed.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && s.ExpiresAt < now.Unix()
}

// UserAttributes is the payload for updating the current user. Zero-value
// fields are omitted from the request.
type UserAttributes struct {
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// OTPType selects which verification flow an OTP token belongs to.
type OTPType string

const (
	// OTPTypeEmail verifies a signup confirmation token.
	OTPTypeEmail OTPType = "email"

	// OTPTypeRecovery verifies a password recovery token.
	OTPTypeRecovery OTPType = "recovery"
)

// SignOutScope controls which of the user's sessions a sign-out revokes.
type SignOutScope string

const (
	// ScopeGlobal revokes every session of the user.
	ScopeGlobal SignOutScope = "global"

	// ScopeLocal revokes only the session the access token belongs to.
	ScopeLocal SignOutScope = "local"
)

// Provider names the supported social login providers.
type Provider string

const (
	// ProviderGoogle is Google social login.
	ProviderGoogle Provider = "google"
	// ProviderGitHub is GitHub social login.
	ProviderGitHub Provider = "github"
	// ProviderFacebook is Facebook social login.
	ProviderFacebook Provider = "facebook"
)

// KnownProvider reports whether the given name is a supported provider.
func KnownProvider(name string) bool {
	switch Provider(name) {
	case ProviderGoogle, ProviderGitHub, ProviderFacebook:
		return true
	}

	return false
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshGrantRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	TokenHash string  `json:"token_hash"`
	Type      OTPType `json:"type"`
}

type resendRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}
