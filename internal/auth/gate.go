package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CheckSession reports whether a non-expired session exists, transparently
// refreshing an expired one. On irrecoverable failure it returns false and
// clears the local identity.
func (s *Service) CheckSession(ctx context.Context) bool {
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()

	if sess == nil {
		s.clearIdentity()
		return false
	}

	if sess.Expired(time.Now()) {
		refreshed, err := s.client.RefreshSession(ctx, sess.RefreshToken)
		if err != nil {
			log.Debug().Err(err).Msg("session refresh failed")
			s.clearIdentity()

			return false
		}

		s.mu.Lock()
		s.sess = refreshed
		if refreshed.User != nil {
			s.user = refreshed.User
		}
		s.mu.Unlock()

		return true
	}

	// Live session: keep the identity in sync with it.
	s.mu.Lock()
	if sess.User != nil {
		s.user = sess.User
	}
	s.errMsg = ""
	s.mu.Unlock()

	return true
}

func (s *Service) clearIdentity() {
	s.mu.Lock()
	s.sess = nil
	s.user = nil
	s.prof = nil
	s.mu.Unlock()
}

// GateResult is the route guard's view of the session: validity, the
// profile lifecycle status, and whether onboarding finished.
type GateResult struct {
	Valid              bool
	Status             string
	OnboardingComplete bool
}

// Gate answers the single question the route guard asks. An error means
// the session is valid but the profile could not be resolved; the guard
// treats that as redirect-to-login.
func (s *Service) Gate(ctx context.Context) (GateResult, error) {
	if !s.CheckSession(ctx) {
		return GateResult{}, nil
	}

	s.mu.Lock()
	user := s.user
	prof := s.prof
	s.mu.Unlock()

	if user == nil {
		return GateResult{}, nil
	}

	if prof == nil || prof.ID != user.ID {
		fetched, err := s.profiles.Fetch(ctx, user.ID)
		if err != nil {
			return GateResult{Valid: true}, s.fail(err)
		}

		s.mu.Lock()
		s.prof = fetched
		s.mu.Unlock()

		prof = fetched
	}

	return GateResult{
		Valid:              true,
		Status:             string(prof.Status),
		OnboardingComplete: prof.OnboardingCompleted,
	}, nil
}
