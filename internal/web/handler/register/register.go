// Package register implements the sign-up page.
package register

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/handler"
	"github.com/supabridge/supabridge/internal/web/handler/login"
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
)

const (
	// Path is the path to the register page.
	Path = "/auth/register"

	// TemplateName is the name of the register template.
	TemplateName = "auth/register"
)

// Form is the registration form payload.
type Form struct {
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

// Service is the register handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	client   *supabase.Client
	profiles *profile.Store
	validate *validator.Validate
}

// Handler is the register handler.
var Handler = Service{}

// Init initializes the register handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil || client == nil || profiles == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.client = client
	s.profiles = profiles
	s.validate = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, middleware.Guest(client, profiles, cfg), s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the register page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{
		"title":     s.cfg.Title,
		"providers": login.SocialProviders,
	}, handler.BaseLayout)
}

// Post handles the registration form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.renderError(c, "invalid form submission")
	}

	if err := s.validate.Struct(form); err != nil {
		return s.renderError(c, "check email, password length (8+) and that both passwords match")
	}

	svc := auth.NewService(s.client, s.profiles)

	user, err := svc.SignUp(c.Context(), form.Email, form.Password)
	if err != nil {
		return s.renderError(c, svc.ErrMessage())
	}

	// Email confirmation pending: no session yet.
	if sess := svc.Session(); sess != nil {
		target, err := login.EstablishSession(c, s.cfg, sess, false)
		if err != nil {
			return s.renderError(c, "internal server error")
		}

		return c.Redirect(target)
	}

	return c.Render(TemplateName, fiber.Map{
		"title":  s.cfg.Title,
		"notice": "confirmation email sent to " + user.Email,
	}, handler.BaseLayout)
}

func (s *Service) renderError(c *fiber.Ctx, message string) error {
	return c.Render(TemplateName, fiber.Map{
		"title":     s.cfg.Title,
		"providers": login.SocialProviders,
		"error":     message,
	}, handler.BaseLayout)
}
