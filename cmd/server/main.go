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

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/config"
	"github.com/gatherly/backend/internal/handlers"
	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fbCfg := services.FirebaseConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
		StorageBucket:   cfg.StorageBucket,
	}

	var app *firebase.App
	if cfg.AuthMode == config.AuthModeFirebase || cfg.ProfileStore == config.ProfileStoreFirestore {
		a, err := services.NewFirebaseApp(ctx, fbCfg)
		if err != nil {
			return err
		}
		app = a
	}

	auth, identity, err := newIdentity(ctx, cfg, app, logger)
	if err != nil {
		return err
	}

	store, closeStore, err := newProfileStore(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer closeStore()

	uploader, uploadDir, err := newUploader(ctx, cfg, fbCfg, logger)
	if err != nil {
		return err
	}

	notifier := services.NewNotifier(newNoticeStore(cfg, logger), cfg.NoticeTTL, logger)
	geocoder := services.NewReverseGeocoder(cfg.GeocodeEndpoint, cfg.GeocodeRPS)

	gate := services.NewVerificationGate(identity, notifier, services.GateRoutes{
		Home:     cfg.Routes.Home,
		Register: cfg.Routes.Register,
	}, logger)
	settings := services.NewAccountSettingsService(identity, store, uploader, geocoder,
		models.ProfileFields{CoverPhoto: cfg.DefaultCoverPhoto}, cfg.Routes.Profile, logger)
	nav := services.NewNavigationService(identity, notifier, services.NavRoutes{
		Home:     cfg.Routes.Home,
		Register: cfg.Routes.Register,
		Login:    cfg.Routes.Login,
		Profile:  cfg.Routes.Profile,
		Settings: cfg.Routes.Settings,
	}, cfg.DefaultCoverPhoto, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           auth,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:      uploadDir,
		VerifyEmail:    handlers.NewVerifyEmailHandler(gate, logger),
		Settings:       handlers.NewSettingsHandler(settings, cfg.MaxUploadSizeMB, logger),
		Navigation:     handlers.NewNavigationHandler(nav, logger),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gatherly api listening",
			zap.String("addr", cfg.ServerAddress),
			zap.String("auth_mode", cfg.AuthMode),
			zap.String("profile_store", cfg.ProfileStore))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newIdentity(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (middleware.Authenticator, services.IdentityProvider, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		logger.Warn("using development JWT auth with in-memory identities")
		return middleware.NewJWTAuthenticator(cfg.JWTSecret), services.NewMemoryIdentityProvider(), nil
	case config.AuthModeFirebase:
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("firebase auth: %w", err)
		}
		mailer := services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromEmail)
		return middleware.NewFirebaseAuthenticator(client), services.NewFirebaseIdentityProvider(client, mailer, logger), nil
	default:
		return nil, nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
	}
}

func newProfileStore(ctx context.Context, cfg *config.Config, app *firebase.App) (services.ProfileStore, func(), error) {
	switch cfg.ProfileStore {
	case config.ProfileStoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore: %w", err)
		}
		store := services.NewFirestoreProfileStore(client)
		return store, func() { store.Close() }, nil
	case config.ProfileStoreMongo:
		if cfg.MongoURI == "" {
			return nil, nil, errors.New("MONGO_URI is required for PROFILE_STORE=mongo")
		}
		connectCtx, cancel := context.WithTimeout(ctx, services.DefaultStoreTimeout())
		defer cancel()
		store, err := services.NewMongoProfileStore(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		return store, func() { store.Close(context.Background()) }, nil
	case config.ProfileStoreFile:
		store, err := services.NewFileProfileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown PROFILE_STORE %q", cfg.ProfileStore)
	}
}

// newUploader uses the Firebase bucket when one is configured and local disk
// otherwise. The returned directory is non-empty only for disk uploads.
func newUploader(ctx context.Context, cfg *config.Config, fbCfg services.FirebaseConfig, logger *zap.Logger) (services.Uploader, string, error) {
	if cfg.StorageBucket == "" {
		u, err := services.NewDiskUploader(cfg.UploadDir, "/uploads")
		if err != nil {
			return nil, "", err
		}
		return u, cfg.UploadDir, nil
	}

	gcs, err := storage.NewClient(ctx, fbCfg.ClientOptions()...)
	if err != nil {
		return nil, "", fmt.Errorf("storage: %w", err)
	}

	var moderator services.ImageModerator
	if cfg.ModerationEnabled {
		m, err := services.NewVisionModerator(ctx, fbCfg.ClientOptions()...)
		if err != nil {
			return nil, "", fmt.Errorf("vision: %w", err)
		}
		moderator = m
	}
	return services.NewGCSUploader(gcs, cfg.StorageBucket, moderator, logger), "", nil
}

func newNoticeStore(cfg *config.Config, logger *zap.Logger) services.NoticeStore {
	if cfg.RedisAddr == "" {
		return services.NewMemoryNoticeStore()
	}
	logger.Info("notice store: redis", zap.String("addr", cfg.RedisAddr))
	return services.NewRedisNoticeStore(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}))
}
