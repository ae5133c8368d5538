package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
)

// Navigation is a redirect intent returned by facade operations. The
// caller decides whether and how to act on it.
type Navigation string

const (
	// NavigateNone means no redirect is implied.
	NavigateNone Navigation = ""

	// NavigateLogin points at the login page.
	NavigateLogin Navigation = "/auth/login"
)

// Service is the authentication state facade. One instance represents one
// session context; it is not shared across users.
type Service struct {
	client   *supabase.Client
	profiles *profile.Store

	mu      sync.Mutex
	sess    *supabase.Session
	user    *supabase.User
	prof    *profile.Profile
	loading bool
	errMsg  string
	unsub   func()
}

// NewService creates a new facade around the provider client and the
// profile store. Call Close when the session context is torn down.
func NewService(client *supabase.Client, profiles *profile.Store) *Service {
	return &Service{client: client, profiles: profiles}
}

// SetupListener subscribes the facade to the provider's auth state change
// feed, keeping local identity state in sync. The returned disposer must
// be invoked on teardown; Close does so as well.
func (s *Service) SetupListener() (unsubscribe func()) {
	unsub := s.client.OnAuthStateChange(func(event supabase.Event, sess *supabase.Session) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch event {
		case supabase.EventSignedIn, supabase.EventUserUpdated:
			if sess != nil {
				s.sess = sess
				if sess.User != nil {
					s.user = sess.User
				}
			}
		case supabase.EventSignedOut:
			s.sess = nil
			s.user = nil
			s.prof = nil
		case supabase.EventPasswordRecovery:
			if sess != nil {
				s.sess = sess
				if sess.User != nil {
					s.user = sess.User
				}
			}
		}

		log.Debug().Str("event", string(event)).Msg("auth state change")
	})

	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()

	return unsub
}

// Close disposes the auth state change subscription.
func (s *Service) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Hydrate installs session material recovered from the session store,
// without a provider round-trip.
func (s *Service) Hydrate(sess *supabase.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sess = sess
	if sess != nil {
		s.user = sess.User
	} else {
		s.user = nil
	}
}

// IsAuthenticated reports whether an identity reference is present. It is
// always derived, never stored.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.user != nil
}

// User returns the current identity snapshot, or nil.
func (s *Service) User() *supabase.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.user
}

// Session returns the current session material, or nil.
func (s *Service) Session() *supabase.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sess
}

// Loading reports whether an operation is in flight. The flag is shared
// and last-write-wins; concurrent operations clobber each other.
func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// ErrMessage returns the last recorded failure message, empty when the
// last operation succeeded.
func (s *Service) ErrMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.errMsg
}

// begin marks an operation in flight and clears the previous error.
func (s *Service) begin() {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
}

// done clears the loading flag. Deferred by every operation so the flag
// is released on every path.
func (s *Service) done() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// fail records the failure in the error state and returns the unified
// error.
func (s *Service) fail(err error) error {
	facadeErr := classify(err)

	s.mu.Lock()
	s.errMsg = facadeErr.Message
	s.mu.Unlock()

	return facadeErr
}

// SignInWithPassword authenticates with email and password and installs
// the issued session.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error) {
	s.begin()
	defer s.done()

	sess, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.sess = sess
	s.user = sess.User
	s.mu.Unlock()

	return sess, nil
}

// SignInWithOAuth starts the consent flow for a social provider. The
// returned Navigation is the provider consent URL.
func (s *Service) SignInWithOAuth(provider supabase.Provider, state, verifier string) (Navigation, error) {
	s.begin()
	defer s.done()

	url, err := s.client.AuthorizeURL(provider, state, verifier)
	if err != nil {
		return NavigateNone, s.fail(err)
	}

	return Navigation(url), nil
}

// ExchangeCode finishes the OAuth flow, redeeming the callback code and
// installing the issued session.
func (s *Service) ExchangeCode(ctx context.Context, code, verifier string) (*supabase.Session, error) {
	s.begin()
	defer s.done()

	sess, err := s.client.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.sess = sess
	s.user = sess.User
	s.mu.Unlock()

	// A first OAuth sign-in has no profile yet.
	if sess.User != nil {
		s.ensureProfile(ctx, sess.User)
	}

	return sess, nil
}

// SignUp registers a new identity and creates its profile and preferences
// rows. A provider answer carrying zero identities means the email is
// already registered; no rows are created in that case.
func (s *Service) SignUp(ctx context.Context, email, password string) (*supabase.User, error) {
	s.begin()
	defer s.done()

	res, err := s.client.SignUp(ctx, email, password, nil)
	if err != nil {
		return nil, s.fail(err)
	}

	if res.User == nil || len(res.User.Identities) == 0 {
		return nil, s.fail(ErrAccountExists)
	}

	status := profile.StatusPending
	if res.User.EmailConfirmedAt != nil {
		status = profile.StatusActive
	}

	userID := res.User.ID
	if err := s.profiles.Create(ctx, &profile.Profile{
		ID:        userID,
		Email:     res.User.Email,
		Status:    status,
		CreatedBy: &userID,
	}); err != nil {
		return nil, s.fail(err)
	}

	if res.Session != nil {
		s.mu.Lock()
		s.sess = res.Session
		s.user = res.User
		s.mu.Unlock()
	}

	return res.User, nil
}

// SignOut revokes the current session with global scope. Local identity
// state is cleared even when the provider call fails; the caller is
// responsible for dropping the stored session and the ephemeral
// session-intent keys, then following the returned Navigation.
func (s *Service) SignOut(ctx context.Context) (Navigation, error) {
	s.begin()
	defer s.done()

	s.mu.Lock()
	token := ""
	if s.sess != nil {
		token = s.sess.AccessToken
	}
	s.sess = nil
	s.user = nil
	s.prof = nil
	s.mu.Unlock()

	if token == "" {
		return NavigateLogin, nil
	}

	if err := s.client.SignOut(ctx, token, supabase.ScopeGlobal); err != nil {
		return NavigateLogin, s.fail(err)
	}

	return NavigateLogin, nil
}

// SendPasswordResetEmail asks the provider to mail a recovery link.
func (s *Service) SendPasswordResetEmail(ctx context.Context, email string) error {
	s.begin()
	defer s.done()

	if err := s.client.ResetPasswordForEmail(ctx, email); err != nil {
		return s.fail(err)
	}

	return nil
}

// VerifyEmail redeems a signup confirmation token and promotes the
// pending profile to active.
func (s *Service) VerifyEmail(ctx context.Context, tokenHash string) error {
	s.begin()
	defer s.done()

	sess, err := s.client.VerifyOTP(ctx, tokenHash, supabase.OTPTypeEmail)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.sess = sess
	s.user = sess.User
	s.mu.Unlock()

	if sess.User != nil {
		if _, err := s.profiles.Update(ctx, sess.User.ID, map[string]any{
			"status": string(profile.StatusActive),
		}, &sess.User.ID); err != nil {
			log.Warn().Err(err).Str("user_id", sess.User.ID.String()).
				Msg("failed to activate profile after verification")
		}
	}

	return nil
}

// VerifyRecovery redeems a password recovery token, establishing a
// session the user can change the password under.
func (s *Service) VerifyRecovery(ctx context.Context, tokenHash string) error {
	s.begin()
	defer s.done()

	sess, err := s.client.VerifyOTP(ctx, tokenHash, supabase.OTPTypeRecovery)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.sess = sess
	s.user = sess.User
	s.mu.Unlock()

	return nil
}

// ResendVerification asks the provider to re-send the confirmation email.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	s.begin()
	defer s.done()

	if err := s.client.ResendVerification(ctx, email); err != nil {
		return s.fail(err)
	}

	return nil
}

// UpdatePassword sets a new password for the current identity.
func (s *Service) UpdatePassword(ctx context.Context, newPassword string) error {
	s.begin()
	defer s.done()

	s.mu.Lock()
	token := ""
	if s.sess != nil {
		token = s.sess.AccessToken
	}
	s.mu.Unlock()

	if token == "" {
		return s.fail(ErrNoIdentity)
	}

	user, err := s.client.UpdateUser(ctx, token, supabase.UserAttributes{Password: newPassword})
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	return nil
}

// RefreshSession exchanges the current refresh token for fresh session
// material.
func (s *Service) RefreshSession(ctx context.Context) (*supabase.Session, error) {
	s.begin()
	defer s.done()

	s.mu.Lock()
	refreshToken := ""
	if s.sess != nil {
		refreshToken = s.sess.RefreshToken
	}
	s.mu.Unlock()

	if refreshToken == "" {
		return nil, s.fail(ErrNoIdentity)
	}

	sess, err := s.client.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.sess = sess
	if sess.User != nil {
		s.user = sess.User
	}
	s.mu.Unlock()

	return sess, nil
}

// ensureProfile creates a profile for an identity that has none yet.
// Used after a first OAuth sign-in; failures are logged, not fatal.
func (s *Service) ensureProfile(ctx context.Context, user *supabase.User) {
	userID := user.ID

	err := s.profiles.Create(ctx, &profile.Profile{
		ID:        userID,
		Email:     user.Email,
		Status:    profile.StatusActive,
		CreatedBy: &userID,
	})
	if err != nil && !errors.Is(err, profile.ErrAlreadyExists) {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to create profile")
	}
}
