package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/supabridge/supabridge/internal/profile"
)

// currentUserID returns the current identity id, or ErrNoIdentity.
func (s *Service) currentUserID() (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return uuid.Nil, ErrNoIdentity
	}

	return s.user.ID, nil
}

// FetchProfile loads the profile of the current identity and caches it
// for the guard.
func (s *Service) FetchProfile(ctx context.Context) (*profile.Profile, error) {
	s.begin()
	defer s.done()

	userID, err := s.currentUserID()
	if err != nil {
		return nil, s.fail(err)
	}

	prof, err := s.profiles.Fetch(ctx, userID)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.prof = prof
	s.mu.Unlock()

	return prof, nil
}

// UpdateProfile merges the given fields into the current identity's
// profile and returns the updated record.
func (s *Service) UpdateProfile(ctx context.Context, updates map[string]any) (*profile.Profile, error) {
	s.begin()
	defer s.done()

	userID, err := s.currentUserID()
	if err != nil {
		return nil, s.fail(err)
	}

	id := userID
	prof, err := s.profiles.Update(ctx, id, updates, &id)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.prof = prof
	s.mu.Unlock()

	return prof, nil
}

// FetchPreferences loads the preferences of the current identity.
func (s *Service) FetchPreferences(ctx context.Context) (*profile.Preferences, error) {
	s.begin()
	defer s.done()

	userID, err := s.currentUserID()
	if err != nil {
		return nil, s.fail(err)
	}

	prefs, err := s.profiles.FetchPreferences(ctx, userID)
	if err != nil {
		return nil, s.fail(err)
	}

	return prefs, nil
}

// UpdatePreferences merges the given fields into the current identity's
// preferences and returns the updated record.
func (s *Service) UpdatePreferences(ctx context.Context, updates map[string]any) (*profile.Preferences, error) {
	s.begin()
	defer s.done()

	userID, err := s.currentUserID()
	if err != nil {
		return nil, s.fail(err)
	}

	id := userID
	prefs, err := s.profiles.UpdatePreferences(ctx, id, updates, &id)
	if err != nil {
		return nil, s.fail(err)
	}

	return prefs, nil
}
