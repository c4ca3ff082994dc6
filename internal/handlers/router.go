package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/middleware"
)

type RouterConfig struct {
	Auth           middleware.Authenticator
	Logger         *zap.Logger
	AllowedOrigins []string
	// UploadDir is served at /uploads/ when set.
	UploadDir string

	VerifyEmail *VerifyEmailHandler
	Settings    *SettingsHandler
	Navigation  *NavigationHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Anonymous visitors get a shell and a gate decision too.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalSession(cfg.Auth))

			r.Get("/nav", cfg.Navigation.Shell)

			r.Route("/verify-email", func(r chi.Router) {
				r.Get("/", cfg.VerifyEmail.Status)
				r.Post("/recheck", cfg.VerifyEmail.Recheck)
				r.Post("/resend", cfg.VerifyEmail.Resend)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.Auth))

			r.Post("/auth/signout", cfg.Navigation.SignOut)

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", cfg.Settings.Get)
				r.Put("/", cfg.Settings.Submit)
				r.Post("/photo", cfg.Settings.UploadPhoto)
				r.Post("/cover", cfg.Settings.UploadCover)
				r.Post("/locate", cfg.Settings.Locate)
				r.Get("/watch", cfg.Settings.Watch)
			})
		})
	})

	if cfg.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}
	return r
}
