// Package session persists per-browser session records in the configured
// storage backend. A record carries the provider session material plus the
// ephemeral session-intent flags (intended route, remember-me window); the
// cookie only ever holds the generated session ID.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage"
	"github.com/google/uuid"

	"github.com/supabridge/supabridge/internal/supabase"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "session"

// Store is the global session store instance.
var Store *session.Store

// Data represents the session data structure.
type Data struct {
	// UserID is the provider identity id.
	UserID uuid.UUID
	// Email mirrors the identity's email for display.
	Email string
	// AccessToken and RefreshToken are the provider session material.
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the provider session expiry (unix seconds).
	ExpiresAt int64
	// RememberMe records whether the user opted into a bounded persistent
	// session; RememberUntil is its expiry (unix seconds). Advisory only,
	// never extends provider session validity.
	RememberMe    bool
	RememberUntil int64
	// IntendedRoute is the path the user tried to reach before being sent
	// to login. Consumed and cleared after a successful sign-in.
	IntendedRoute string
	// OAuthState and OAuthVerifier hold the CSRF state and PKCE verifier
	// of an OAuth round-trip in flight. Cleared by the callback.
	OAuthState    string
	OAuthVerifier string
	// OAuthProvider names the provider the round-trip was started for.
	OAuthProvider string
}

// Session rebuilds the provider session material from the record.
// Returns nil when the record holds no session.
func (s *Data) Session() *supabase.Session {
	if s.AccessToken == "" {
		return nil
	}

	return &supabase.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User: &supabase.User{
			ID:    s.UserID,
			Email: s.Email,
		},
	}
}

// SetSession copies provider session material into the record.
func (s *Data) SetSession(sess *supabase.Session) {
	if sess == nil {
		s.AccessToken = ""
		s.RefreshToken = ""
		s.ExpiresAt = 0

		return
	}

	s.AccessToken = sess.AccessToken
	s.RefreshToken = sess.RefreshToken
	s.ExpiresAt = sess.ExpiresAt

	if sess.User != nil {
		s.UserID = sess.User.ID
		s.Email = sess.User.Email
	}
}

// RememberLapsed reports whether the user opted into a bounded session
// whose window has passed. A record without the flag is a plain
// non-persistent session and never lapses here.
func (s *Data) RememberLapsed(now time.Time) bool {
	if !s.RememberMe || s.RememberUntil == 0 {
		return false
	}

	return s.RememberUntil < now.Unix()
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	return json.Unmarshal(byteData, s)
}

// Destroy removes the session record, dropping the session material and
// every ephemeral intent key with it.
func Destroy(sessionID string) error {
	return Store.Storage.Delete(sessionID)
}

// Init initializes the session store with the provided storage backend.
func Init(storage storage.Storage) {
	if storage == nil {
		panic("storage is nil")
	}

	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
