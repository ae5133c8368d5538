package login

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
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

const (
	// Path is the path to the login page.
	Path = "/auth/login"

	// TemplateName is the name of the login template.
	TemplateName = "auth/login"
)

// SocialProviders lists the offered social logins in display order.
var SocialProviders = []supabase.Provider{
	supabase.ProviderGoogle,
	supabase.ProviderGitHub,
	supabase.ProviderFacebook,
}

// Form is the login form payload.
type Form struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	client   *supabase.Client
	profiles *profile.Store
	validate *validator.Validate
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil || client == nil || profiles == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.client = client
	s.profiles = profiles
	s.validate = validator.New()

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, middleware.Guest(client, profiles, cfg), s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, fiber.Map{
		"title":     s.cfg.Title,
		"providers": SocialProviders,
		"notice":    c.Query("notice"),
	}, handler.BaseLayout)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := new(Form)

	if err := c.BodyParser(form); err != nil {
		return s.renderError(c, "invalid form submission")
	}

	if err := s.validate.Struct(form); err != nil {
		return s.renderError(c, "email and password are required")
	}

	svc := auth.NewService(s.client, s.profiles)

	sess, err := svc.SignInWithPassword(c.Context(), form.Email, form.Password)
	if err != nil {
		return s.renderError(c, svc.ErrMessage())
	}

	target, err := EstablishSession(c, s.cfg, sess, form.Remember)
	if err != nil {
		log.Error().Err(err).Msg("failed to establish session")
		return s.renderError(c, "internal server error")
	}

	return c.Redirect(target)
}

func (s *Service) renderError(c *fiber.Ctx, message string) error {
	return c.Render(TemplateName, fiber.Map{
		"title":     s.cfg.Title,
		"providers": SocialProviders,
		"error":     message,
	}, handler.BaseLayout)
}

// EstablishSession rotates the session ID, persists the provider session
// material and returns the post-login target: the intended route captured
// before authentication, or the dashboard.
func EstablishSession(c *fiber.Ctx, cfg *config.Config, sess *supabase.Session, remember bool) (string, error) {
	sessData := new(session.Data)

	// An anonymous record may exist carrying the intended route.
	if oldID := c.Cookies(session.CookieName); oldID != "" {
		if err := sessData.Read(oldID); err != nil {
			*sessData = session.Data{}
		}

		if err := session.Destroy(oldID); err != nil {
			log.Debug().Err(err).Msg("failed to drop pre-login session record")
		}
	}

	sessData.SetSession(sess)
	sessData.RememberMe = remember

	ttl := cfg.Webserver.Session.ExpiryTime
	if remember {
		ttl = cfg.Webserver.Session.RememberExpiryTime
		sessData.RememberUntil = time.Now().Add(ttl).Unix()
	} else {
		sessData.RememberUntil = 0
	}

	target := middleware.DashboardPath
	if sessData.IntendedRoute != "" {
		target = sessData.IntendedRoute
		sessData.IntendedRoute = ""
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return "", err
	}

	if err := sessData.Write(sessionID, ttl); err != nil {
		return "", err
	}

	middleware.SetSessionCookie(c, sessionID, ttl)

	return target, nil
}
