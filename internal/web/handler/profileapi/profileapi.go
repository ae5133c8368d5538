// Package profileapi exposes the profile and preferences of the signed-in
// identity as a small JSON API.
package profileapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/supabridge/supabridge/internal/auth"
	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/handler"
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
)

const (
	// ProfilePath is the path of the profile resource.
	ProfilePath = "/api/v1/profile"

	// PreferencesPath is the path of the preferences resource.
	PreferencesPath = "/api/v1/preferences"
)

// Service is the profile API handler service.
type Service struct {
	handler.Service
	cfg *config.Config
}

// Handler is the profile API handler.
var Handler = Service{}

// Init initializes the profile API handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error {
	if app == nil || cfg == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg

	app.Route(ProfilePath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetProfile)
		router.Put(handler.RouterRootPath, s.PutProfile)
	})

	app.Route(PreferencesPath, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.GetPreferences)
		router.Put(handler.RouterRootPath, s.PutPreferences)
	})

	return nil
}

// GetProfile returns the profile of the signed-in identity.
func (s *Service) GetProfile(c *fiber.Ctx) error {
	svc, ok := c.Locals(middleware.LocalsService).(*auth.Service)
	if !ok {
		return unauthenticated(c)
	}

	prof, err := svc.FetchProfile(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(prof)
}

// PutProfile applies a partial update to the profile. The body carries the
// fields to change; the row's version guards against concurrent writers.
func (s *Service) PutProfile(c *fiber.Ctx) error {
	svc, ok := c.Locals(middleware.LocalsService).(*auth.Service)
	if !ok {
		return unauthenticated(c)
	}

	updates, err := parseUpdates(c, allowedProfileFields)
	if err != nil {
		return badRequest(c, err.Error())
	}

	prof, err := svc.UpdateProfile(c.Context(), updates)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(prof)
}

// GetPreferences returns the preferences of the signed-in identity.
func (s *Service) GetPreferences(c *fiber.Ctx) error {
	svc, ok := c.Locals(middleware.LocalsService).(*auth.Service)
	if !ok {
		return unauthenticated(c)
	}

	prefs, err := svc.FetchPreferences(c.Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(prefs)
}

// PutPreferences applies a partial update to the preferences.
func (s *Service) PutPreferences(c *fiber.Ctx) error {
	svc, ok := c.Locals(middleware.LocalsService).(*auth.Service)
	if !ok {
		return unauthenticated(c)
	}

	updates, err := parseUpdates(c, allowedPreferencesFields)
	if err != nil {
		return badRequest(c, err.Error())
	}

	prefs, err := svc.UpdatePreferences(c.Context(), updates)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(prefs)
}

// allowedProfileFields are the columns a user may change on their own
// profile. Status, soft-delete and audit columns are off limits.
var allowedProfileFields = map[string]bool{
	"first_name":           true,
	"last_name":            true,
	"display_name":         true,
	"date_of_birth":        true,
	"gender":               true,
	"avatar_url":           true,
	"bio":                  true,
	"preferred_language":   true,
	"timezone":             true,
	"onboarding_completed": true,
}

var allowedPreferencesFields = map[string]bool{
	"email_notifications": true,
	"sms_notifications":   true,
	"theme":               true,
}

func parseUpdates(c *fiber.Ctx, allowed map[string]bool) (map[string]any, error) {
	body := map[string]any{}
	if err := c.BodyParser(&body); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}

	updates := map[string]any{}

	for key, value := range body {
		if !allowed[key] {
			return nil, errors.New("field not updatable: " + key)
		}

		updates[key] = value
	}

	if len(updates) == 0 {
		return nil, errors.New("no updatable fields in request body")
	}

	return updates, nil
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "authentication required",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

// writeError maps store and facade failures onto HTTP statuses.
func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, profile.ErrPreferencesNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, profile.ErrVersionConflict):
		status = fiber.StatusConflict
	}

	var facadeErr *auth.Error
	if errors.As(err, &facadeErr) {
		switch facadeErr.Kind {
		case auth.KindPrecondition:
			status = fiber.StatusUnauthorized
		case auth.KindProvider:
			status = fiber.StatusBadRequest
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
