package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	_ "github.com/redmonkez12/places-api/docs" // Swagger docs
	"github.com/redmonkez12/places-api/internal/auth"
	"github.com/redmonkez12/places-api/internal/config"
	"github.com/redmonkez12/places-api/internal/database"
	httpServer "github.com/redmonkez12/places-api/internal/http"
	"github.com/redmonkez12/places-api/internal/logging"
	"github.com/redmonkez12/places-api/internal/metrics"
	"github.com/redmonkez12/places-api/internal/place"
	"github.com/redmonkez12/places-api/internal/store"
	"github.com/redmonkez12/places-api/internal/store/memstore"
	"github.com/redmonkez12/places-api/internal/upload"
	"github.com/redmonkez12/places-api/internal/user"
)

// @title           Places API
// @version         1.0
// @description     Share places with other users: accounts, session tokens and user-owned places with images.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:5000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	rootCmd := &cobra.Command{
		Use:           "places-api",
		Short:         "Places sharing REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}

	rootCmd.AddCommand(serveCmd, newMigrateCmd())

	// Allow running without subcommand (default to serve)
	rootCmd.RunE = serveCmd.RunE

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"upload_driver", cfg.Uploads.Driver,
	)

	m := metrics.New()

	st, closeStore, err := initStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closeStore()

	// Place cache is optional
	var cache place.Cache = place.NopCache{}
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
		cache = place.NewRedisCache(redisClient, cfg.Redis.PlaceTTL)
	}

	images, err := upload.New(ctx, cfg.Uploads)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}

	tokenService, err := auth.NewTokenService(cfg.Auth.TokenType, cfg.Auth.TokenSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	hasher := auth.NewArgon2idHasher(cfg.Auth.HashTime, cfg.Auth.HashMemoryKB, cfg.Auth.HashThreads)
	credentials := auth.NewCredentials(hasher, tokenService, cfg.Auth.TokenTTL)

	// Initialize services
	geocoder := place.StaticGeocoder{Location: store.Location{Lat: cfg.Places.DefaultLat, Lng: cfg.Places.DefaultLng}}
	placeService := place.NewService(st, images, cache, geocoder, m, logger, cfg.Places)
	defer placeService.Close()
	userService := user.NewService(st, credentials, images, m, logger, cfg.Uploads.DefaultUserImage)

	// Initialize HTTP handlers
	handlers := httpServer.Handlers{
		Places: place.NewHandler(placeService, cfg.Uploads.MaxBytes),
		Users:  user.NewHandler(userService, cfg.Uploads.MaxBytes),
		Auth:   auth.NewMiddleware(tokenService),
	}

	router := httpServer.NewRouter(cfg, handlers, m, logger)
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initStore opens the persistence backend selected by cfg.Driver. The returned
// func releases it.
func initStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		return memstore.New(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, nil, err
	}

	return database.NewStore(db), func() { db.Close() }, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
