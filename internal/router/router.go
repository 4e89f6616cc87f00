package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appMiddleware "github.com/FACorreiaa/go-account-api/app/middleware"
	"github.com/FACorreiaa/go-account-api/internal/api/auth"
	"github.com/FACorreiaa/go-account-api/internal/api/category"
	"github.com/FACorreiaa/go-account-api/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.HandlerImpl
	UserHandler            *user.HandlerImpl
	CategoryHandler        *category.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
	AdminMiddleware        func(http.Handler) http.Handler
	AllowedOrigins         []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) is applied in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appMiddleware.RequestMetrics)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/users", func(r chi.Router) {
		// Public
		r.Post("/", cfg.AuthHandler.Register)
		r.Post("/auth", cfg.AuthHandler.Login)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/logout", cfg.AuthHandler.Logout)
		r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
		r.Post("/reset-password/{token}", cfg.AuthHandler.ResetPassword)

		// Session
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Get("/profile", cfg.UserHandler.GetUserProfile)
			r.Put("/profile", cfg.UserHandler.UpdateUserProfile)
			r.Post("/verify-email", cfg.AuthHandler.VerifyEmail)
			r.Post("/verify-email/resend", cfg.AuthHandler.ResendVerification)
		})

		// Session + admin
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(cfg.AdminMiddleware)
			r.Get("/", cfg.UserHandler.ListUsers)
			r.Get("/{id}", cfg.UserHandler.GetUserByID)
			r.Put("/{id}", cfg.UserHandler.UpdateUserByID)
			r.Delete("/{id}", cfg.UserHandler.DeleteUser)
		})
	})

	r.Route("/api/category", func(r chi.Router) {
		r.Get("/", cfg.CategoryHandler.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(cfg.AdminMiddleware)
			r.Post("/", cfg.CategoryHandler.CreateCategory)
			r.Put("/{categoryId}", cfg.CategoryHandler.UpdateCategory)
		})
	})

	return r
}
