package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/habit-tracker-api/internal/cache"
	"github.com/yukikurage/habit-tracker-api/internal/config"
	"github.com/yukikurage/habit-tracker-api/internal/constants"
	"github.com/yukikurage/habit-tracker-api/internal/database"
	"github.com/yukikurage/habit-tracker-api/internal/handlers"
	"github.com/yukikurage/habit-tracker-api/internal/logger"
	"github.com/yukikurage/habit-tracker-api/internal/middleware"
	"github.com/yukikurage/habit-tracker-api/internal/models"
	"github.com/yukikurage/habit-tracker-api/internal/repository"
	"github.com/yukikurage/habit-tracker-api/internal/services"
	"gorm.io/gorm"
)

var CLI struct {
	Config string `help:"Path to a TOML config file. Environment variables override its values." type:"path" default:"habits.toml"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API." default:"1"`
	Migrate MigrateCmd `cmd:"" help:"Create or update the database schema and exit."`
}

type appContext struct {
	cfg    *config.Config
	logger *log.Logger
	db     *gorm.DB
}

// ServeCmd migrates the schema and serves the API until SIGINT or SIGTERM.
type ServeCmd struct{}

func (cmd *ServeCmd) Run(app *appContext) error {
	if err := database.Migrate(app.db); err != nil {
		return err
	}

	gin.SetMode(app.cfg.GinMode)

	store, err := newSessionStore(app.cfg)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(app.logger), gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	opts := services.Options{
		StoreTimeout:         app.cfg.StoreTimeout,
		EnforceNoFutureDates: app.cfg.EnforceNoFutureDates,
		Logger:               app.logger,
	}

	var views *cache.ViewCache[[]models.Habit]
	if app.cfg.ViewCacheEnabled() {
		views = cache.NewViewCache[[]models.Habit]()
		app.logger.Info("in-process view cache enabled, run a single instance")
	} else if app.cfg.ViewCache {
		app.logger.Warn("view cache ignored because Redis sessions imply several instances")
	}
	habitRepo := repository.NewHabitRepository(app.db)
	userRepo := repository.NewUserRepository(app.db)

	authService := services.NewAuthService(userRepo, services.BcryptHasher{Cost: constants.BcryptCost}, opts)
	habitService := services.NewHabitService(habitRepo, views, opts)
	entryService := services.NewEntryService(habitRepo, views, opts)

	var aiService *services.AIService
	if app.cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(app.cfg.OpenAIAPIKey)
	} else {
		app.logger.Warn("OPENAI_API_KEY not set, habit suggestions are disabled")
	}

	handlers.RegisterRoutes(r,
		handlers.NewAuthHandler(authService),
		handlers.NewHabitHandler(habitService, aiService),
		handlers.NewEntryHandler(entryService),
	)

	httpServer := &http.Server{
		Addr:         app.cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server starting", "addr", app.cfg.HTTPAddr, "driver", app.cfg.DBDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	app.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// MigrateCmd only applies the schema.
type MigrateCmd struct{}

func (cmd *MigrateCmd) Run(app *appContext) error {
	if err := database.Migrate(app.db); err != nil {
		return err
	}
	app.logger.Info("migrations applied", "driver", app.cfg.DBDriver)
	return nil
}

// newSessionStore uses Redis when REDIS_HOST is set and signed cookies otherwise.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.RedisHost != "" {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // username (empty for default user)
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habit-tracker-api"),
		kong.Description("Habit tracking HTTP API"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	l, err := logger.New(logger.Config{Level: cfg.LogLevel, LogDir: cfg.LogDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg, l)
	if err != nil {
		l.Fatal("failed to connect to database", "err", err)
	}

	if err := ctx.Run(&appContext{cfg: cfg, logger: l, db: db}); err != nil {
		l.Fatal("command failed", "command", ctx.Command(), "err", err)
	}
}
