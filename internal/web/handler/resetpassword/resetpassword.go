// Package resetpassword implements the password recovery flow: requesting a
// reset email, landing from the recovery link, and setting the new password.
package resetpassword

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
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
)

const (
	// RequestPath is the path of the reset request form.
	RequestPath = "/auth/forgot-password"

	// ResetPath is the path the recovery email links back to.
	ResetPath = "/auth/reset-password"

	// RequestTemplateName is the template of the reset request form.
	RequestTemplateName = "auth/forgot_password"

	// ResetTemplateName is the template of the new password form.
	ResetTemplateName = "auth/reset_password"
)

// RequestForm asks for the address the recovery email goes to.
type RequestForm struct {
	Email string `form:"email" validate:"required,email"`
}

// ResetForm carries the new password together with the recovery token.
type ResetForm struct {
	TokenHash       string `form:"token_hash" validate:"required"`
	Password        string `form:"password" validate:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

// Service is the reset password handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	client   *supabase.Client
	profiles *profile.Store
	validate *validator.Validate
}

// Handler is the reset password handler.
var Handler = Service{}

// Init initializes the reset password handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil || client == nil || profiles == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.client = client
	s.profiles = profiles
	s.validate = validator.New()

	app.Route(RequestPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetRequest)
		router.Post(handler.RouterRootPath, s.PostRequest)
	})

	app.Route(ResetPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetReset)
		router.Post(handler.RouterRootPath, s.PostReset)
	})

	return nil
}

// GetRequest renders the reset request form.
func (s *Service) GetRequest(c *fiber.Ctx) error {
	return c.Render(RequestTemplateName, fiber.Map{
		"title": s.cfg.Title,
	}, handler.BaseLayout)
}

// PostRequest sends the recovery email. The response never discloses whether
// the address has an account.
func (s *Service) PostRequest(c *fiber.Ctx) error {
	form := new(RequestForm)

	if err := c.BodyParser(form); err != nil {
		return s.renderRequestError(c, "invalid form submission")
	}

	if err := s.validate.Struct(form); err != nil {
		return s.renderRequestError(c, "enter a valid email address")
	}

	svc := auth.NewService(s.client, s.profiles)

	if err := svc.SendPasswordResetEmail(c.Context(), form.Email); err != nil {
		log.Warn().Err(err).Msg("password reset request failed")
	}

	return c.Render(RequestTemplateName, fiber.Map{
		"title":  s.cfg.Title,
		"notice": "if an account exists for that address, a recovery email is on its way",
	}, handler.BaseLayout)
}

// GetReset lands from the recovery email. The token hash from the link is
// verified here, which yields a recovery session for the password change.
func (s *Service) GetReset(c *fiber.Ctx) error {
	tokenHash := c.Query("token_hash")
	if tokenHash == "" {
		return s.renderRequestError(c, "recovery link is missing its token")
	}

	return c.Render(ResetTemplateName, fiber.Map{
		"title":      s.cfg.Title,
		"token_hash": tokenHash,
	}, handler.BaseLayout)
}

// PostReset verifies the recovery token and updates the password.
func (s *Service) PostReset(c *fiber.Ctx) error {
	form := new(ResetForm)

	if err := c.BodyParser(form); err != nil {
		return s.renderResetError(c, "", "invalid form submission")
	}

	if err := s.validate.Struct(form); err != nil {
		return s.renderResetError(c, form.TokenHash, "password must be 8+ characters and both entries must match")
	}

	svc := auth.NewService(s.client, s.profiles)

	if err := svc.VerifyRecovery(c.Context(), form.TokenHash); err != nil {
		return s.renderResetError(c, "", svc.ErrMessage())
	}

	if err := svc.UpdatePassword(c.Context(), form.Password); err != nil {
		return s.renderResetError(c, form.TokenHash, svc.ErrMessage())
	}

	// The recovery session is good for a normal sign-in.
	if sess := svc.Session(); sess != nil {
		target, err := login.EstablishSession(c, s.cfg, sess, false)
		if err == nil {
			return c.Redirect(target)
		}

		log.Warn().Err(err).Msg("failed to establish session after password reset")
	}

	middleware.ClearSessionCookie(c)

	return c.Redirect(middleware.LoginPath)
}

func (s *Service) renderRequestError(c *fiber.Ctx, message string) error {
	return c.Render(RequestTemplateName, fiber.Map{
		"title": s.cfg.Title,
		"error": message,
	}, handler.BaseLayout)
}

func (s *Service) renderResetError(c *fiber.Ctx, tokenHash, message string) error {
	return c.Render(ResetTemplateName, fiber.Map{
		"title":      s.cfg.Title,
		"token_hash": tokenHash,
		"error":      message,
	}, handler.BaseLayout)
}
