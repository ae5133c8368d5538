package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/session"
)

// Guest returns the guest-only guard for the login and register pages:
// an already authenticated, active user is sent to the intended route
// captured before authentication, or to the dashboard.
func Guest(client *supabase.Client, profiles *profile.Store, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(session.CookieName)
		if sessionID == "" {
			return c.Next()
		}

		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err != nil {
			return c.Next()
		}

		if sessData.AccessToken == "" || sessData.RememberLapsed(time.Now()) {
			return c.Next()
		}

		svc := auth.NewService(client, profiles)
		svc.Hydrate(sessData.Session())

		gate, err := svc.Gate(c.Context())
		if err != nil || !gate.Valid || gate.Status != string(profile.StatusActive) {
			return c.Next()
		}

		target := DashboardPath

		// Consume the stored intended route.
		if sessData.IntendedRoute != "" {
			target = sessData.IntendedRoute
			sessData.IntendedRoute = ""

			if err := sessData.Write(sessionID, sessionTTL(cfg, sessData)); err != nil {
				log.Error().Err(err).Msg("failed to clear intended route")
			}
		}

		return c.Redirect(target)
	}
}
