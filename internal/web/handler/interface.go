package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, client *supabase.Client, profiles *profile.Store) error
}
