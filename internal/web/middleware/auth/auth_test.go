package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	memory "github.com/gofiber/storage/memory/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/session"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Title: "SupaBridge",
		Webserver: config.Webserver{
			URL:  "http://localhost:3000",
			Port: 3000,
			Session: config.Session{
				ExpiryTime:         time.Hour,
				RememberExpiryTime: 24 * time.Hour,
			},
		},
	}
}

func newTestStore(t *testing.T) *profile.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	store := profile.NewStore(db)
	require.NoError(t, store.Migrate())

	return store
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()

	if handler == nil {
		handler = func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("no provider call expected")
		}
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return supabase.NewClient(supabase.Config{ProjectURL: srv.URL, AnonKey: "anon"})
}

func newGuardedApp(client *supabase.Client, profiles *profile.Store, cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Use(Guard(client, profiles, cfg))

	app.Get("/dashboard", func(c *fiber.Ctx) error { return c.SendString("dashboard") })
	app.Get("/welcome", func(c *fiber.Ctx) error { return c.SendString("welcome") })
	app.Get("/account/pending", func(c *fiber.Ctx) error { return c.SendString("pending") })
	app.Get("/auth/login", func(c *fiber.Ctx) error { return c.SendString("login") })

	return app
}

// seedSession writes a session record and returns its ID.
func seedSession(t *testing.T, data *session.Data) string {
	t.Helper()

	sessionID, err := session.GenerateSessionID()
	require.NoError(t, err)
	require.NoError(t, data.Write(sessionID, time.Hour))

	return sessionID
}

func liveSessionData(userID uuid.UUID) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       "alice@example.com",
		AccessToken: "at-1",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}
}

func seedProfile(t *testing.T, store *profile.Store, userID uuid.UUID, status profile.Status, onboarded bool) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &profile.Profile{
		ID:     userID,
		Email:  "alice@example.com",
		Status: status,
	}))

	if onboarded {
		_, err := store.Update(ctx, userID, map[string]any{"onboarding_completed": true}, nil)
		require.NoError(t, err)
	}
}

func TestGuardPublicPathBypasses(t *testing.T) {
	session.Init(memory.New())

	app := newGuardedApp(newTestClient(t, nil), newTestStore(t), newTestConfig())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardWithoutCookieStoresIntendedRoute(t *testing.T) {
	session.Init(memory.New())

	app := newGuardedApp(newTestClient(t, nil), newTestStore(t), newTestConfig())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard?tab=activity", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))

	// an anonymous record now carries the full original path
	var sessionID string

	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			sessionID = c.Value
		}
	}

	require.NotEmpty(t, sessionID)

	data := new(session.Data)
	require.NoError(t, data.Read(sessionID))
	assert.Equal(t, "/dashboard?tab=activity", data.IntendedRoute)
	assert.Empty(t, data.AccessToken)
}

func TestGuardLapsedRememberForcesSignOut(t *testing.T) {
	session.Init(memory.New())

	userID := uuid.New()
	data := liveSessionData(userID)
	data.RememberMe = true
	data.RememberUntil = time.Now().Add(-time.Hour).Unix()

	sessionID := seedSession(t, data)

	app := newGuardedApp(newTestClient(t, nil), newTestStore(t), newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, LoginPath, resp.Header.Get("Location"))

	// the record is gone
	got := new(session.Data)
	if err := got.Read(sessionID); err == nil {
		assert.Empty(t, got.AccessToken)
	}
}

func TestGuardActiveOnboardedPasses(t *testing.T) {
	session.Init(memory.New())

	userID := uuid.New()
	store := newTestStore(t)
	seedProfile(t, store, userID, profile.StatusActive, true)

	sessionID := seedSession(t, liveSessionData(userID))

	app := newGuardedApp(newTestClient(t, nil), store, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardActiveNotOnboardedGoesToWelcome(t *testing.T) {
	session.Init(memory.New())

	userID := uuid.New()
	store := newTestStore(t)
	seedProfile(t, store, userID, profile.StatusActive, false)

	sessionID := seedSession(t, liveSessionData(userID))

	app := newGuardedApp(newTestClient(t, nil), store, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, WelcomePath, resp.Header.Get("Location"))
}

func TestGuardPendingStatusIsParked(t *testing.T) {
	session.Init(memory.New())

	userID := uuid.New()
	store := newTestStore(t)
	seedProfile(t, store, userID, profile.StatusPending, false)

	sessionID := seedSession(t, liveSessionData(userID))

	app := newGuardedApp(newTestClient(t, nil), store, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/account/pending", resp.Header.Get("Location"))

	// the status page itself stays reachable
	req = httptest.NewRequest(http.MethodGet, "/account/pending", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardExpiredSessionIsRefreshed(t *testing.T) {
	session.Init(memory.New())

	userID := uuid.New()
	store := newTestStore(t)
	seedProfile(t, store, userID, profile.StatusActive, true)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-fresh",
			"refresh_token": "rt-fresh",
			"expires_at":    time.Now().Add(time.Hour).Unix(),
			"user": map[string]any{
				"id":    userID.String(),
				"email": "alice@example.com",
			},
		})
	})

	data := liveSessionData(userID)
	data.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	data.RefreshToken = "rt-stale"

	sessionID := seedSession(t, data)

	app := newGuardedApp(client, store, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// refreshed material was persisted back into the record
	got := new(session.Data)
	require.NoError(t, got.Read(sessionID))
	assert.Equal(t, "at-fresh", got.AccessToken)
	assert.Equal(t, "rt-fresh", got.RefreshToken)
}

func TestGuestConsumesIntendedRoute(t *testing.T) {
	session.Init(memory.New())

	userID := uuid.New()
	store := newTestStore(t)
	seedProfile(t, store, userID, profile.StatusActive, true)

	data := liveSessionData(userID)
	data.IntendedRoute = "/dashboard?tab=activity"

	sessionID := seedSession(t, data)
	cfg := newTestConfig()

	app := fiber.New()
	app.Get("/auth/login", Guest(newTestClient(t, nil), store, cfg), func(c *fiber.Ctx) error {
		return c.SendString("login")
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard?tab=activity", resp.Header.Get("Location"))

	// one-shot: the stored route is cleared
	got := new(session.Data)
	require.NoError(t, got.Read(sessionID))
	assert.Empty(t, got.IntendedRoute)
}

func TestGuestWithoutSessionPasses(t *testing.T) {
	session.Init(memory.New())

	app := fiber.New()
	app.Get("/auth/login", Guest(newTestClient(t, nil), newTestStore(t), newTestConfig()), func(c *fiber.Ctx) error {
		return c.SendString("login")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIsPublic(t *testing.T) {
	assert.True(t, IsPublic("/auth/login"))
	assert.True(t, IsPublic("/static/css/main.css"))
	assert.True(t, IsPublic("/checkalive"))
	assert.True(t, IsPublic("/metrics"))
	assert.False(t, IsPublic("/dashboard"))
	assert.False(t, IsPublic("/api/v1/profile"))
}
