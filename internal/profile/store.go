package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const whereLive = "id = ? AND deleted_at IS NULL"

// Store provides row-level access to profiles and preferences.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new profile store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the backing tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Profile{}, &Preferences{})
}

// Create inserts a new profile together with its default preferences in
// one transaction. Called once per registration.
func (s *Store) Create(ctx context.Context, p *Profile) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&Profile{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing profile: %w", err)
		}

		if count > 0 {
			return ErrAlreadyExists
		}

		now := time.Now()
		p.CreatedAt = now
		p.UpdatedAt = now
		p.Version = 1
		p.IsActive = p.Status == StatusActive

		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		prefs := Preferences{
			ProfileID:          p.ID,
			EmailNotifications: true,
			Theme:              "system",
			CreatedAt:          now,
			CreatedBy:          p.CreatedBy,
			UpdatedAt:          now,
			Version:            1,
		}

		if err := tx.Create(&prefs).Error; err != nil {
			return fmt.Errorf("failed to create preferences: %w", err)
		}

		return nil
	})
}

// Fetch retrieves the live profile for an identity.
func (s *Store) Fetch(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile

	err := s.db.WithContext(ctx).Where(whereLive, id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	return &p, nil
}

// Update merges the given column updates into the profile, bumping the
// optimistic version. The update is rejected with ErrVersionConflict when
// a concurrent writer got there first.
func (s *Store) Update(ctx context.Context, id uuid.UUID, updates map[string]any, by *uuid.UUID) (*Profile, error) {
	current, err := s.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(updates)+3)
	for k, v := range updates {
		merged[k] = v
	}

	if status, ok := updates["status"]; ok {
		merged["is_active"] = status == string(StatusActive) || status == StatusActive
	}

	merged["updated_at"] = time.Now()
	merged["updated_by"] = by
	merged["version"] = current.Version + 1

	res := s.db.WithContext(ctx).Model(&Profile{}).
		Where(whereLive+" AND version = ?", id, current.Version).
		Updates(merged)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrVersionConflict
	}

	return s.Fetch(ctx, id)
}

// SoftDelete marks the profile (and its preferences) as deleted. Rows
// stay in place.
func (s *Store) SoftDelete(ctx context.Context, id uuid.UUID, by *uuid.UUID) error {
	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Profile{}).Where(whereLive, id).Updates(map[string]any{
			"deleted_at": &now,
			"deleted_by": by,
			"is_active":  false,
			"updated_at": now,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to delete profile: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return tx.Model(&Preferences{}).
			Where("profile_id = ? AND deleted_at IS NULL", id).
			Updates(map[string]any{
				"deleted_at": &now,
				"deleted_by": by,
				"updated_at": now,
			}).Error
	})
}

// FetchPreferences retrieves the live preferences row for an identity.
func (s *Store) FetchPreferences(ctx context.Context, id uuid.UUID) (*Preferences, error) {
	var prefs Preferences

	err := s.db.WithContext(ctx).
		Where("profile_id = ? AND deleted_at IS NULL", id).
		First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPreferencesNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}

	return &prefs, nil
}

// UpdatePreferences merges the given column updates into the preferences
// row under the same optimistic versioning as Update.
func (s *Store) UpdatePreferences(ctx context.Context, id uuid.UUID, updates map[string]any, by *uuid.UUID) (*Preferences, error) {
	current, err := s.FetchPreferences(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(updates)+3)
	for k, v := range updates {
		merged[k] = v
	}

	merged["updated_at"] = time.Now()
	merged["updated_by"] = by
	merged["version"] = current.Version + 1

	res := s.db.WithContext(ctx).Model(&Preferences{}).
		Where("profile_id = ? AND deleted_at IS NULL AND version = ?", id, current.Version).
		Updates(merged)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, ErrVersionConflict
	}

	return s.FetchPreferences(ctx, id)
}
