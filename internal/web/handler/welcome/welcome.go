// Package welcome implements the onboarding flow active profiles pass
// through once before reaching the rest of the app.
package welcome

import (
	"errors"

	"github.com/go-playground/validator/v10"
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
	// Path is the path to the welcome page.
	Path = "/welcome"

	// TemplateName is the name of the welcome template.
	TemplateName = "welcome/welcome"
)

// Form collects the profile fields gathered during onboarding.
type Form struct {
	FirstName   string `form:"first_name" validate:"required,max=100"`
	LastName    string `form:"last_name" validate:"required,max=100"`
	DisplayName string `form:"display_name" validate:"max=100"`
	DateOfBirth string `form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Timezone    string `form:"timezone" validate:"max=64"`
}

// Service is the welcome handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	validate *validator.Validate
}

// Handler is the welcome handler.
var Handler = Service{}

// Init initializes the welcome handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.validate = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get renders the onboarding form, prefilled from the profile.
func (s *Service) Get(c *fiber.Ctx) error {
	svc, ok := c.Locals(middleware.LocalsService).(*auth.Service)
	if !ok {
		return c.Redirect(middleware.LoginPath)
	}

	prof, _ := svc.FetchProfile(c.Context())

	return c.Render(TemplateName, fiber.Map{
		"title":   s.cfg.Title,
		"nav":     navigation.NewContext("Welcome", navigation.SectionOnboard, "welcome"),
		"profile": prof,
	}, handler.BaseLayout)
}

// Post saves the onboarding fields and marks onboarding as completed.
func (s *Service) Post(c *fiber.Ctx) error {
	svc, ok := c.Locals(middleware.LocalsService).(*auth.Service)
	if !ok {
		return c.Redirect(middleware.LoginPath)
	}

	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.renderError(c, svc, "invalid form submission")
	}

	if err := s.validate.Struct(form); err != nil {
		return s.renderError(c, svc, "first and last name are required, date of birth must be YYYY-MM-DD")
	}

	updates := map[string]any{
		"first_name":           form.FirstName,
		"last_name":            form.LastName,
		"onboarding_completed": true,
	}

	if form.DisplayName != "" {
		updates["display_name"] = form.DisplayName
	}

	if form.DateOfBirth != "" {
		updates["date_of_birth"] = form.DateOfBirth
	}

	if form.Timezone != "" {
		updates["timezone"] = form.Timezone
	}

	if _, err := svc.UpdateProfile(c.Context(), updates); err != nil {
		return s.renderError(c, svc, svc.ErrMessage())
	}

	return c.Redirect(middleware.DashboardPath)
}

func (s *Service) renderError(c *fiber.Ctx, svc *auth.Service, message string) error {
	prof, _ := svc.FetchProfile(c.Context())

	return c.Render(TemplateName, fiber.Map{
		"title":   s.cfg.Title,
		"nav":     navigation.NewContext("Welcome", navigation.SectionOnboard, "welcome"),
		"profile": prof,
		"error":   message,
	}, handler.BaseLayout)
}
