// Package account implements the per-status holding pages non-active
// profiles are parked on by the route guard.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/handler"
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
	"github.com/supabridge/supabridge/internal/web/navigation"
)

const (
	// Path matches the per-status pages, e.g. /account/suspended.
	Path = "/account/:status"

	// TemplateName is the name of the status template.
	TemplateName = "account/status"
)

// messages explains each non-active status to the user.
var messages = map[profile.Status]string{
	profile.StatusPending:   "your account is waiting for email confirmation",
	profile.StatusSuspended: "your account has been suspended, contact support",
	profile.StatusInactive:  "your account is inactive, contact support to reactivate it",
}

// Service is the account status handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the account status handler.
var Handler = Service{}

// Init initializes the account status handler.
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

// Get renders the holding page for the profile's status. The guard already
// redirected here, so the status in the path matches the profile; an active
// profile landing here by hand is sent to the dashboard.
func (s *Service) Get(c *fiber.Ctx) error {
	status := profile.Status(c.Params("status"))

	message, ok := messages[status]
	if !ok {
		return c.Redirect(middleware.DashboardPath)
	}

	svc, _ := c.Locals(middleware.LocalsService).(*auth.Service)

	var user *supabase.User
	if svc != nil {
		user = svc.User()
	}

	return c.Render(TemplateName, fiber.Map{
		"title":   s.cfg.Title,
		"nav":     navigation.NewContext("Account", navigation.SectionAccount, string(status)),
		"status":  string(status),
		"message": message,
		"user":    user,
	}, handler.BaseLayout)
}
