package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/supabridge/supabridge/internal/config"
	fiberlogger "github.com/supabridge/supabridge/internal/logger/adapter/fiber"
	"github.com/supabridge/supabridge/internal/profile"
	"github.com/supabridge/supabridge/internal/supabase"
	"github.com/supabridge/supabridge/internal/web/handler/account"
	"github.com/supabridge/supabridge/internal/web/handler/dashboard"
	"github.com/supabridge/supabridge/internal/web/handler/login"
	"github.com/supabridge/supabridge/internal/web/handler/logout"
	"github.com/supabridge/supabridge/internal/web/handler/oauth"
	"github.com/supabridge/supabridge/internal/web/handler/profileapi"
	"github.com/supabridge/supabridge/internal/web/handler/register"
	"github.com/supabridge/supabridge/internal/web/handler/resetpassword"
	"github.com/supabridge/supabridge/internal/web/handler/verify"
	"github.com/supabridge/supabridge/internal/web/handler/welcome"
	middleware "github.com/supabridge/supabridge/internal/web/middleware/auth"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	client       *supabase.Client
	profiles     *profile.Store
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	// Wait interrupt or shutdown request through /shutdown
	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, client *supabase.Client, profiles *profile.Store) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if client == nil {
		panic("supabase client cannot be nil")
	}

	if profiles == nil {
		panic("profile store cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: "/checkalive",
	}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	service := &Service{
		cfg:      cfg,
		App:      app,
		client:   client,
		profiles: profiles,
	}
	service.alive.Store(true)

	app.Get("/checkalive", func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// route guard (public paths bypass inside)
	app.Use(middleware.Guard(client, profiles, cfg))

	// init handlers (they register their own routes)
	inits := []func(*fiber.App, *config.Config, *supabase.Client, *profile.Store) error{
		login.Handler.Init,
		register.Handler.Init,
		logout.Handler.Init,
		resetpassword.Handler.Init,
		verify.Handler.Init,
		oauth.Handler.Init,
		dashboard.Handler.Init,
		welcome.Handler.Init,
		account.Handler.Init,
		profileapi.Handler.Init,
	}

	for _, initHandler := range inits {
		if err := initHandler(app, cfg, client, profiles); err != nil {
			log.Fatal().Err(err).Msg("failed to init web handler")
		}
	}

	// redirect root to dashboard, the guard sends anonymous visitors to login
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(middleware.DashboardPath)
	})

	return service
}
