// Package profile owns the application-side user records: the profile and
// its preferences, both keyed by the identity id issued by the provider.
package profile

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a profile.
type Status string

const (
	// StatusActive is a fully usable account.
	StatusActive Status = "active"
	// StatusInactive is an account switched off by the user or an admin.
	StatusInactive Status = "inactive"
	// StatusSuspended is an account blocked by an admin.
	StatusSuspended Status = "suspended"
	// StatusPending is an account awaiting email confirmation.
	StatusPending Status = "pending"
)

// Known reports whether s is one of the defined statuses.
func (s Status) Known() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPending:
		return true
	}

	return false
}

// Profile is the application-owned record of user attributes, distinct
// from the provider's own user record. Rows are never hard-deleted; the
// DeletedAt/DeletedBy pair marks removal, and Version guards concurrent
// updates.
type Profile struct {
	// ID is the identity id issued by the provider.
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Email mirrors the provider's email at registration time.
	Email string `gorm:"size:255;not null" json:"email"`
	// FirstName is the user's given name.
	FirstName string `gorm:"size:100" json:"first_name"`
	// LastName is the user's family name.
	LastName string `gorm:"size:100" json:"last_name"`
	// DisplayName is what other users see.
	DisplayName string `gorm:"size:100" json:"display_name,omitempty"`
	// DateOfBirth is formatted YYYY-MM-DD.
	DateOfBirth string `gorm:"size:10" json:"date_of_birth,omitempty"`
	// Gender is one of male, female, other, prefer_not_to_say.
	Gender string `gorm:"size:20" json:"gender,omitempty"`
	// AvatarURL points at the user's avatar image.
	AvatarURL string `gorm:"size:512" json:"avatar_url,omitempty"`
	// Bio is free text.
	Bio string `json:"bio,omitempty"`
	// Status is the lifecycle status of the account.
	Status Status `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	// PreferredLanguage is a BCP 47 language tag.
	PreferredLanguage string `gorm:"size:20;default:'en'" json:"preferred_language"`
	// Timezone is an IANA timezone name.
	Timezone string `gorm:"size:64;default:'UTC'" json:"timezone"`
	// OnboardingCompleted is set once the user finished the welcome flow.
	OnboardingCompleted bool `json:"onboarding_completed"`
	// IsActive mirrors Status == active for cheap filtering.
	IsActive bool `json:"is_active"`

	CreatedAt time.Time  `json:"created_at"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uuid.UUID `gorm:"type:uuid" json:"deleted_by,omitempty"`

	// Version is the optimistic concurrency counter.
	Version int `gorm:"not null;default:1" json:"version"`
}

// Preferences is the one-to-one notification/UI settings record of a
// profile. Same audit convention as Profile.
type Preferences struct {
	// ProfileID keys the record to its profile.
	ProfileID uuid.UUID `gorm:"type:uuid;primaryKey" json:"profile_id"`
	// EmailNotifications enables notification emails.
	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`
	// SMSNotifications enables notification texts.
	SMSNotifications bool `gorm:"column:sms_notifications" json:"sms_notifications"`
	// Theme is the UI theme name.
	Theme string `gorm:"size:20;default:'system'" json:"theme"`

	CreatedAt time.Time  `json:"created_at"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uuid.UUID `gorm:"type:uuid" json:"deleted_by,omitempty"`

	// Version is the optimistic concurrency counter.
	Version int `gorm:"not null;default:1" json:"version"`
}

// TableName keeps the provider-era table name.
func (Preferences) TableName() string {
	return "user_preferences"
}
