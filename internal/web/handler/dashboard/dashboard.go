// Package dashboard implements the authenticated landing page.
package dashboard

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
	"github.com/supabridge/supabridge/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = "/dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"
)

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
	})

	return nil
}

// Get renders the dashboard for the signed-in identity.
func (s *Service) Get(c *fiber.Ctx) error {
	svc, ok := c.Locals(middleware.LocalsService).(*auth.Service)
	if !ok {
		return c.Redirect(middleware.LoginPath)
	}

	prof, err := svc.FetchProfile(c.Context())
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch profile for dashboard")
	}

	nav := navigation.NewContext("Dashboard", navigation.SectionDashboard, "overview").
		AddBreadcrumb("Dashboard", Path, true)

	return c.Render(TemplateName, fiber.Map{
		"title":   s.cfg.Title,
		"nav":     nav,
		"user":    svc.User(),
		"profile": prof,
	}, handler.BaseLayout)
}
