// Package logout implements sign-out.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/handler"
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
	"github.com/supabridge/supabridge/internal/web/session"
)

// Path is the path to the logout endpoint.
const Path = "/auth/logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	client *supabase.Client
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil || client == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.client = client

	app.Route(Path, func(router fiber.Router) {
		router.Post(handler.RouterRootPath, s.Post)
		router.Get(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Post revokes the provider session, destroys the local session record and
// clears the cookie. Local state always goes away, even when the provider
// call fails.
func (s *Service) Post(c *fiber.Ctx) error {
	sessionID := c.Cookies(session.CookieName)

	var nav auth.Navigation = auth.NavigateLogin

	if sessionID != "" {
		data := new(session.Data)
		if err := data.Read(sessionID); err == nil && data.AccessToken != "" {
			svc := auth.NewService(s.client, nil)
			svc.Hydrate(data.Session())

			var signOutErr error

			nav, signOutErr = svc.SignOut(c.Context())
			if signOutErr != nil {
				log.Warn().Err(signOutErr).Msg("provider sign-out failed, clearing local session anyway")
			}
		}

		if err := session.Destroy(sessionID); err != nil {
			log.Warn().Err(err).Msg("failed to destroy session record")
		}
	}

	middleware.ClearSessionCookie(c)

	return c.Redirect(string(nav))
}
