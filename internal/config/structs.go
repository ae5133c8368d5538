package config

import (
	"time"

	"github.com/supabridge/supabridge/internal/logger"
)

// Session settings.
type Session struct {
	// ExpiryTime is how long a stored session lives without "remember me".
	ExpiryTime time.Duration

	// RememberExpiryTime is how long a "remember me" session lives.
	RememberExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Supabase  Supabase
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool    // enable static file browsing (for development purposes only)
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// Supabase holds the identity provider settings.
type Supabase struct {
	ProjectURL string // base url for the supabase project api
	AnonKey    string // public api key
	ServiceKey string // service role key for privileged operations
}
