package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-account-api/app/db"
	"github.com/FACorreiaa/go-account-api/config"
	"github.com/FACorreiaa/go-account-api/internal/api/auth"
	"github.com/FACorreiaa/go-account-api/internal/api/category"
	"github.com/FACorreiaa/go-account-api/internal/api/user"
	"github.com/FACorreiaa/go-account-api/internal/notify"
	"github.com/FACorreiaa/go-account-api/internal/router"
	"github.com/FACorreiaa/go-account-api/internal/validate"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *slog.Logger
	Pool            *pgxpool.Pool
	UserRepo        user.UserRepo
	AuthHandler     *auth.HandlerImpl
	UserHandler     *user.HandlerImpl
	CategoryHandler *category.HandlerImpl
	Authenticate    func(http.Handler) http.Handler
	AuthorizeAdmin  func(http.Handler) http.Handler
}

type options struct {
	notifier notify.Notifier
}

type Option func(*options)

// WithNotifier replaces the email sink chosen from configuration.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// NewContainer initializes and returns a new dependency container. With the
// postgres driver it migrates the schema and waits for the database first.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{Config: cfg, Logger: logger}

	var categoryRepo category.CategoryRepo
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		c.UserRepo = user.NewMemoryUserRepo(logger)
		categoryRepo = category.NewMemoryCategoryRepo()
	case "postgres", "":
		pool, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		c.UserRepo = user.NewPostgresUserRepo(pool, logger)
		categoryRepo = category.NewPostgresCategoryRepo(pool, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	issuer, err := auth.NewJWTIssuer(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.SessionTTL)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	notifier := o.notifier
	if notifier == nil {
		if cfg.SMTP.Enabled {
			notifier = notify.NewSMTPNotifier(cfg.SMTP)
		} else {
			notifier = notify.NewLogNotifier(logger)
		}
	}
	dispatcher := notify.NewDispatcher(notifier, logger)

	validator := validate.New()
	authService, err := auth.NewAuthService(
		c.UserRepo,
		auth.NewBcryptHasher(cfg.Tokens.BcryptCost),
		issuer,
		auth.NewRandomHexGenerator(32),
		dispatcher,
		auth.TokenPolicy{
			VerificationTTL: cfg.Tokens.VerificationTTL,
			ResetTTL:        cfg.Tokens.ResetTTL,
			PublicBaseURL:   cfg.Server.PublicBaseURL,
		},
		logger,
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	c.AuthHandler = auth.NewAuthHandlerImpl(authService, validator, cfg.JWT.SecureCookie, logger)

	userService := user.NewUserService(c.UserRepo, cfg.Profile.Cooldown, logger)
	c.UserHandler = user.NewHandlerImpl(userService, validator, logger)

	categoryService := category.NewCategoryService(categoryRepo, cfg.Profile.Cooldown, logger)
	c.CategoryHandler = category.NewHandlerImpl(categoryService, validator, logger)

	c.Authenticate = auth.Authenticate(logger, issuer, c.UserRepo)
	c.AuthorizeAdmin = auth.AuthorizeAdmin(logger)

	return c, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	if !database.WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, errors.New("database not ready after waiting")
	}
	return pool, nil
}

// Router returns the API routes. Server-wide middleware is left to the caller.
func (c *Container) Router() chi.Router {
	return router.SetupRouter(&router.Config{
		AuthHandler:            c.AuthHandler,
		UserHandler:            c.UserHandler,
		CategoryHandler:        c.CategoryHandler,
		AuthenticateMiddleware: c.Authenticate,
		AdminMiddleware:        c.AuthorizeAdmin,
		AllowedOrigins:         c.Config.Server.AllowedOrigins,
	})
}

// PromoteAdmin grants the admin flag to the account with email.
func (c *Container) PromoteAdmin(ctx context.Context, email string) error {
	return c.UserRepo.PromoteAdmin(ctx, email)
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
