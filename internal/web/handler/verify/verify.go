// Package verify implements email confirmation and resending the
// confirmation email.
package verify

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/handler"
	"github.com/supabridge/supabridge/internal/web/handler/login"
)

const (
	// Path is the path the confirmation email links back to.
	Path = "/auth/verify"

	// ResendPath is the path of the resend endpoint.
	ResendPath = "/auth/verify/resend"

	// TemplateName is the name of the verification template.
	TemplateName = "auth/verify"
)

// ResendForm asks for the address to resend the confirmation to.
type ResendForm struct {
	Email string `form:"email" validate:"required,email"`
}

// Service is the verify handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	client   *supabase.Client
	profiles *profile.Store
	validate *validator.Validate
}

// Handler is the verify handler.
var Handler = Service{}

// Init initializes the verify handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil || client == nil || profiles == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.client = client
	s.profiles = profiles
	s.validate = validator.New()

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
	})

	app.Route(ResendPath, func(router fiber.Router) {
		router.Post(handler.RouterRootPath, s.PostResend)
	})

	return nil
}

// Get lands from the confirmation email and verifies the token hash.
func (s *Service) Get(c *fiber.Ctx) error {
	tokenHash := c.Query("token_hash")
	if tokenHash == "" {
		return s.render(c, fiber.Map{"error": "confirmation link is missing its token"})
	}

	svc := auth.NewService(s.client, s.profiles)

	if err := svc.VerifyEmail(c.Context(), tokenHash); err != nil {
		return s.render(c, fiber.Map{"error": svc.ErrMessage()})
	}

	if sess := svc.Session(); sess != nil {
		target, err := login.EstablishSession(c, s.cfg, sess, false)
		if err == nil {
			return c.Redirect(target)
		}

		log.Warn().Err(err).Msg("failed to establish session after email verification")
	}

	return s.render(c, fiber.Map{"notice": "email confirmed, you can sign in now"})
}

// PostResend sends the confirmation email again.
func (s *Service) PostResend(c *fiber.Ctx) error {
	form := new(ResendForm)

	if err := c.BodyParser(form); err != nil {
		return s.render(c, fiber.Map{"error": "invalid form submission"})
	}

	if err := s.validate.Struct(form); err != nil {
		return s.render(c, fiber.Map{"error": "enter a valid email address"})
	}

	svc := auth.NewService(s.client, s.profiles)

	if err := svc.ResendVerification(c.Context(), form.Email); err != nil {
		log.Warn().Err(err).Msg("resend verification failed")
	}

	return s.render(c, fiber.Map{"notice": "confirmation email sent to " + form.Email})
}

func (s *Service) render(c *fiber.Ctx, data fiber.Map) error {
	data["title"] = s.cfg.Title

	return c.Render(TemplateName, data, handler.BaseLayout)
}
