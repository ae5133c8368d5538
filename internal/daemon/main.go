// Package daemon assembles the process: database, session storage, the
// identity provider client and the web service.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/storage"
	sessionmemory "github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/supabridge/supabridge/internal/config"
	"github.com/supabridge/supabridge/internal/db/dsn"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web"
	"github.com/supabridge/supabridge/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	addr       string
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(d.addr)
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	profiles := profile.NewStore(db)
	if err := profiles.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	session.Init(sessionStorage(cfg))

	client := supabase.NewClient(supabase.Config{
		ProjectURL:   cfg.Supabase.ProjectURL,
		AnonKey:      cfg.Supabase.AnonKey,
		ServiceKey:   cfg.Supabase.ServiceKey,
		RedirectBase: cfg.Webserver.URL,
	})

	return &Daemon{
		webService: web.New(cfg, client, profiles),
		addr:       fmt.Sprintf(":%d", cfg.Webserver.Port),
	}
}

// openDialector picks the gorm driver for the configured database.
func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.Driver {
	case "postgres":
		return gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		return sqlite.Open(dsn.Create(cfg))
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

// sessionStorage picks the session storage backend matching the database
// driver. The sqlite driver runs with in-memory sessions, it is meant for
// development and single-node setups.
func sessionStorage(cfg *config.Config) storage.Storage {
	switch cfg.DB.Driver {
	case "postgres":
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	case "sqlite":
		return sessionmemory.New()
	default:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}
}
