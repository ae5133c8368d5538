package logout

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	memory "github.com/gofiber/storage/memory/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/supabase"
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
	websess "github.com/supabridge/supabridge/internal/web/session"
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

func newHandlerApp(t *testing.T, handler http.HandlerFunc) *fiber.App {
	t.Helper()

	websess.Init(memory.New())

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := supabase.NewClient(supabase.Config{ProjectURL: srv.URL, AnonKey: "anon"})

	app := fiber.New()

	var s Service
	require.NoError(t, s.Init(app, newTestConfig(), client, nil))

	return app
}

func seedSession(t *testing.T) string {
	t.Helper()

	data := &websess.Data{
		UserID:       uuid.New(),
		Email:        "alice@example.com",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}

	sessionID, err := websess.GenerateSessionID()
	require.NoError(t, err)
	require.NoError(t, data.Write(sessionID, time.Hour))

	return sessionID
}

func clearedCookie(resp *http.Response) bool {
	for _, c := range resp.Cookies() {
		if c.Name == websess.CookieName && c.Value == "" {
			return true
		}
	}

	return false
}

func TestLogoutDestroysSessionAndRedirects(t *testing.T) {
	var revoked bool

	app := newHandlerApp(t, func(w http.ResponseWriter, r *http.Request) {
		revoked = true

		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	sessionID := seedSession(t)

	req := httptest.NewRequest(http.MethodPost, Path, nil)
	req.AddCookie(&http.Cookie{Name: websess.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))
	assert.True(t, revoked)
	assert.True(t, clearedCookie(resp))

	got := new(websess.Data)
	require.Error(t, got.Read(sessionID), "session record should be destroyed")
}

func TestLogoutClearsLocalStateWhenProviderFails(t *testing.T) {
	app := newHandlerApp(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"token is expired"}`))
	})

	sessionID := seedSession(t)

	req := httptest.NewRequest(http.MethodGet, Path, nil)
	req.AddCookie(&http.Cookie{Name: websess.CookieName, Value: sessionID})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))
	assert.True(t, clearedCookie(resp))

	got := new(websess.Data)
	require.Error(t, got.Read(sessionID), "session record should be destroyed even when revocation fails")
}

func TestLogoutWithoutSessionStillClearsCookie(t *testing.T) {
	app := newHandlerApp(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no provider call expected without a session")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, Path, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))
	assert.True(t, clearedCookie(resp))
}
