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

	"toursite-backend-go/internal/config"
	"toursite-backend-go/internal/db"
	httpapi "toursite-backend-go/internal/http"
	"toursite-backend-go/internal/logging"
	"toursite-backend-go/internal/migrations"
	"toursite-backend-go/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// `server hash-password <password>` prints a value for ADMIN_PASSWORD_HASH.
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := services.HashPassword(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	_ = godotenv.Load()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens on startup failures too.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Log, cfg.Environment)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		return err
	}
	defer database.Close()
	if err := migrations.Apply(ctx, database.DB); err != nil {
		logger.Error().Err(err).Msg("migrations failed")
		return err
	}

	store, err := initImageStore(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("image_store", cfg.ImageStore).Msg("image store setup failed")
		return err
	}
	images := services.Uploader{Store: store, Processor: services.ImageProcessor{MaxWidth: cfg.ImageMaxWidth}}

	hub := services.NewEventHub()
	go hub.Run(ctx)
	go services.StreamHost(ctx, hub, cfg.MetricsDiskPath, time.Duration(cfg.HostSampleSeconds)*time.Second)

	invalidator := services.MultiInvalidator{
		services.LogInvalidator{Logger: logger},
		services.HubInvalidator{Hub: hub},
	}
	if redisClient := initRedis(ctx, cfg, logger); redisClient != nil {
		defer redisClient.Close()
		invalidator = append(invalidator, services.RedisInvalidator{Client: redisClient, Channel: cfg.RevalidateChannel})
	}

	server := httpapi.NewServer(database, cfg, logger, images, invalidator, hub)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("image_store", cfg.ImageStore).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("server failed")
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}

func initImageStore(ctx context.Context, cfg config.Config) (services.ImageStore, error) {
	switch cfg.ImageStore {
	case "s3":
		return services.NewS3ImageStore(ctx, services.S3Options{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
		})
	case "local":
		if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
			return nil, err
		}
		return services.LocalImageStore{Dir: cfg.MediaDir, BaseURL: "/media"}, nil
	default:
		return services.NewImageKitStore(cfg.ImageKit.PrivateKey, cfg.ImageKit.PublicKey, cfg.ImageKit.URLEndpoint, cfg.ImageKit.Folder), nil
	}
}

// initRedis returns nil when Redis is not configured or unreachable; the
// site then relies on the hub and log invalidators only.
func initRedis(ctx context.Context, cfg config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid REDIS_URL, continuing without redis")
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}
	logger.Info().Str("addr", opts.Addr).Msg("redis connected")
	return client
}
