package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/session"
)

const (
	// LoginPath is where unauthenticated navigation is sent.
	LoginPath = "/auth/login"

	// DashboardPath is the default landing path after sign-in.
	DashboardPath = "/dashboard"

	// WelcomePath is the onboarding flow.
	WelcomePath = "/welcome"

	// StatusPathPrefix prefixes the per-status account pages.
	StatusPathPrefix = "/account/"
)

// LocalsService is the fiber locals key holding the request's facade.
const LocalsService = "authService"

// LocalsSessionID is the fiber locals key holding the session ID.
const LocalsSessionID = "sessionID"

// LocalsSessionData is the fiber locals key holding the session record.
const LocalsSessionData = "sessionData"

// publicPrefixes bypass the guard entirely.
var publicPrefixes = []string{
	"/auth/",
	"/static",
	"/checkalive",
	"/metrics",
	"/favicon.ico",
}

// IsPublic reports whether the path bypasses the session check.
func IsPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// Guard returns the route guard middleware.
func Guard(client *supabase.Client, profiles *profile.Store, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := strings.ToLower(c.Path())
		if IsPublic(path) {
			return c.Next()
		}

		sessionID := c.Cookies(session.CookieName)
		if sessionID == "" {
			return redirectToLogin(c, cfg, "", nil)
		}

		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err != nil {
			return redirectToLogin(c, cfg, "", nil)
		}

		// The remember-me window is a UX bound the user opted into, not a
		// session authority: once lapsed the stored session is dropped.
		if sessData.RememberLapsed(time.Now()) {
			destroySession(c, sessionID)
			return redirectToLogin(c, cfg, "", nil)
		}

		svc := auth.NewService(client, profiles)
		svc.Hydrate(sessData.Session())

		gate, err := svc.Gate(c.Context())
		if err != nil {
			log.Warn().Err(err).Msg("gate query failed")
			return redirectToLogin(c, cfg, sessionID, sessData)
		}

		if !gate.Valid {
			destroySession(c, sessionID)
			return redirectToLogin(c, cfg, "", nil)
		}

		// A transparent refresh issued new session material; persist it.
		if sess := svc.Session(); sess != nil && sess.AccessToken != sessData.AccessToken {
			sessData.SetSession(sess)

			if err := sessData.Write(sessionID, sessionTTL(cfg, sessData)); err != nil {
				log.Error().Err(err).Msg("failed to persist refreshed session")
			}
		}

		if target, redirect := statusRedirect(gate.Status, path); redirect {
			return c.Redirect(target)
		}

		if gate.Status == string(profile.StatusActive) &&
			!gate.OnboardingComplete && !strings.HasPrefix(path, WelcomePath) {
			return c.Redirect(WelcomePath)
		}

		c.Locals(LocalsService, svc)
		c.Locals(LocalsSessionID, sessionID)
		c.Locals(LocalsSessionData, sessData)

		return c.Next()
	}
}

// statusRedirect maps a non-active profile status to its page. An unknown
// status degrades to login.
func statusRedirect(status, path string) (string, bool) {
	switch profile.Status(status) {
	case profile.StatusActive:
		return "", false
	case profile.StatusSuspended, profile.StatusPending, profile.StatusInactive:
		target := StatusPathPrefix + status
		if path == target {
			return "", false
		}

		return target, true
	default:
		return LoginPath, true
	}
}

// redirectToLogin persists the originally requested path and sends the
// navigation to the login page. Paths under /auth are never stored.
func redirectToLogin(c *fiber.Ctx, cfg *config.Config, sessionID string, sessData *session.Data) error {
	intended := c.OriginalURL()

	if intended != "" && !strings.HasPrefix(strings.ToLower(intended), "/auth/") {
		storeIntendedRoute(c, cfg, sessionID, sessData, intended)
	}

	return c.Redirect(LoginPath)
}

// storeIntendedRoute records the path the user tried to reach, creating an
// anonymous session record when none exists yet.
func storeIntendedRoute(c *fiber.Ctx, cfg *config.Config, sessionID string, sessData *session.Data, intended string) {
	if sessData == nil {
		sessData = new(session.Data)
	}

	sessData.IntendedRoute = intended

	if sessionID == "" {
		var err error

		sessionID, err = session.GenerateSessionID()
		if err != nil {
			log.Error().Err(err).Msg("failed to generate session ID")
			return
		}

		SetSessionCookie(c, sessionID, cfg.Webserver.Session.ExpiryTime)
	}

	if err := sessData.Write(sessionID, sessionTTL(cfg, sessData)); err != nil {
		log.Error().Err(err).Msg("failed to store intended route")
	}
}

// sessionTTL picks the storage lifetime of a session record.
func sessionTTL(cfg *config.Config, sessData *session.Data) time.Duration {
	if sessData != nil && sessData.RememberMe {
		return cfg.Webserver.Session.RememberExpiryTime
	}

	return cfg.Webserver.Session.ExpiryTime
}

// SetSessionCookie issues the session ID cookie.
func SetSessionCookie(c *fiber.Ctx, sessionID string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(ttl.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// ClearSessionCookie drops the session ID cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func destroySession(c *fiber.Ctx, sessionID string) {
	if err := session.Destroy(sessionID); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	ClearSessionCookie(c)
}
