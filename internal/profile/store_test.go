package profile

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.Migrate())

	return store
}

func newTestProfile(id uuid.UUID) *Profile {
	return &Profile{
		ID:     id,
		Email:  "alice@example.com",
		Status: StatusPending,
	}
}

func TestCreateAlsoCreatesDefaultPreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, newTestProfile(id)))

	p, err := store.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.False(t, p.IsActive)
	assert.Equal(t, 1, p.Version)

	prefs, err := store.FetchPreferences(ctx, id)
	require.NoError(t, err)
	assert.True(t, prefs.EmailNotifications)
	assert.False(t, prefs.SMSNotifications)
	assert.Equal(t, "system", prefs.Theme)
}

func TestCreateDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, newTestProfile(id)))

	err := store.Create(ctx, newTestProfile(id))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestFetchUnknown(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Fetch(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBumpsVersionAndSyncsIsActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, newTestProfile(id)))

	p, err := store.Update(ctx, id, map[string]any{
		"first_name": "Alice",
		"status":     string(StatusActive),
	}, &id)
	require.NoError(t, err)

	assert.Equal(t, "Alice", p.FirstName)
	assert.Equal(t, StatusActive, p.Status)
	assert.True(t, p.IsActive)
	assert.Equal(t, 2, p.Version)
	require.NotNil(t, p.UpdatedBy)
	assert.Equal(t, id, *p.UpdatedBy)
}

func TestUpdateVersionConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, newTestProfile(id)))

	// a concurrent writer bumps the version underneath us
	stale, err := store.Fetch(ctx, id)
	require.NoError(t, err)

	_, err = store.Update(ctx, id, map[string]any{"first_name": "First"}, nil)
	require.NoError(t, err)

	// retrying with the stale version must be rejected
	res := store.db.Model(&Profile{}).
		Where(whereLive+" AND version = ?", id, stale.Version).
		Updates(map[string]any{"first_name": "Second", "version": stale.Version + 1})
	require.NoError(t, res.Error)
	assert.Zero(t, res.RowsAffected)
}

func TestSoftDeleteHidesProfileAndPreferences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, newTestProfile(id)))
	require.NoError(t, store.SoftDelete(ctx, id, &id))

	_, err := store.Fetch(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FetchPreferences(ctx, id)
	assert.ErrorIs(t, err, ErrPreferencesNotFound)

	// row is still there, only marked
	var count int64
	require.NoError(t, store.db.Model(&Profile{}).Where("id = ?", id).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSoftDeleteUnknown(t *testing.T) {
	store := newTestStore(t)

	err := store.SoftDelete(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePreferencesVersioning(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, newTestProfile(id)))

	prefs, err := store.UpdatePreferences(ctx, id, map[string]any{
		"theme":             "dark",
		"sms_notifications": true,
	}, &id)
	require.NoError(t, err)

	assert.Equal(t, "dark", prefs.Theme)
	assert.True(t, prefs.SMSNotifications)
	assert.Equal(t, 2, prefs.Version)
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusActive.Known())
	assert.True(t, StatusPending.Known())
	assert.False(t, Status("banned").Known())
}
