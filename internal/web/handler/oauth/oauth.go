// Package oauth implements the social login round-trip: kicking off the
// provider consent flow and redeeming the authorization code on callback.
// The CSRF state and PKCE verifier live in the session record between the
// two legs, never in the browser.
package oauth

import (
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/uniuri"
	"github.com/supabridge/supabridge/internal/web/handler"
	"github.com/supabridge/supabridge/internal/web/handler/login"
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
	"github.com/supabridge/supabridge/internal/web/session"
)

const (
	// StartPath starts the consent flow; the provider is a path parameter.
	StartPath = "/auth/oauth/:provider"

	// CallbackPath is where the provider sends the authorization code.
	CallbackPath = "/auth/callback"
)

// pendingTTL bounds how long a consent round-trip may stay in flight.
const pendingTTL = 10 * time.Minute

// Service is the oauth handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	client   *supabase.Client
	profiles *profile.Store
}

// Handler is the oauth handler.
var Handler = Service{}

// Init initializes the oauth handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil || client == nil || profiles == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.client = client
	s.profiles = profiles

	app.Route(StartPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Start)
	})

	app.Route(CallbackPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Callback)
	})

	return nil
}

// Start generates the state and PKCE verifier, parks them in the session
// record and redirects to the provider consent page.
func (s *Service) Start(c *fiber.Ctx) error {
	name := c.Params("provider")
	if !supabase.KnownProvider(name) {
		return failToLogin(c, "unknown sign-in provider")
	}

	provider := supabase.Provider(name)

	state := uniuri.NewLen(uniuri.UUIDLen)
	verifier := supabase.GenerateVerifier()

	svc := auth.NewService(s.client, s.profiles)

	nav, err := svc.SignInWithOAuth(provider, state, verifier)
	if err != nil {
		return failToLogin(c, svc.ErrMessage())
	}

	// Keep any intended route captured before login.
	sessData := new(session.Data)

	sessionID := c.Cookies(session.CookieName)
	if sessionID != "" {
		if err := sessData.Read(sessionID); err != nil {
			*sessData = session.Data{}
		}
	}

	if sessionID == "" {
		sessionID, err = session.GenerateSessionID()
		if err != nil {
			return failToLogin(c, "internal server error")
		}
	}

	sessData.OAuthState = state
	sessData.OAuthVerifier = verifier
	sessData.OAuthProvider = string(provider)

	if err := sessData.Write(sessionID, pendingTTL); err != nil {
		return failToLogin(c, "internal server error")
	}

	middleware.SetSessionCookie(c, sessionID, pendingTTL)

	return c.Redirect(string(nav))
}

// Callback validates the returned state against the parked one and redeems
// the authorization code for a session.
func (s *Service) Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		log.Info().Str("error", errParam).Str("description", c.Query("error_description")).
			Msg("oauth consent denied")
		return failToLogin(c, "sign-in was cancelled at the provider")
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return failToLogin(c, "callback is missing code or state")
	}

	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return failToLogin(c, "sign-in flow expired, try again")
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil || sessData.OAuthState == "" {
		return failToLogin(c, "sign-in flow expired, try again")
	}

	if sessData.OAuthState != state {
		// State mismatch means the callback was not initiated by us.
		log.Warn().Msg("oauth state mismatch, rejecting callback")

		if err := session.Destroy(sessionID); err != nil {
			log.Debug().Err(err).Msg("failed to drop session record")
		}

		middleware.ClearSessionCookie(c)

		return failToLogin(c, "sign-in could not be verified, try again")
	}

	verifier := sessData.OAuthVerifier

	svc := auth.NewService(s.client, s.profiles)

	sess, err := svc.ExchangeCode(c.Context(), code, verifier)
	if err != nil {
		return failToLogin(c, svc.ErrMessage())
	}

	// One-shot values; EstablishSession rewrites the record without them
	// since it only carries the session material and intended route over.
	sessData.OAuthState = ""
	sessData.OAuthVerifier = ""
	sessData.OAuthProvider = ""

	if err := sessData.Write(sessionID, pendingTTL); err != nil {
		log.Debug().Err(err).Msg("failed to clear oauth round-trip keys")
	}

	target, err := login.EstablishSession(c, s.cfg, sess, false)
	if err != nil {
		return failToLogin(c, "internal server error")
	}

	return c.Redirect(target)
}

func failToLogin(c *fiber.Ctx, message string) error {
	return c.Redirect(middleware.LoginPath + "?notice=" + url.QueryEscape(message))
}
