package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/api"
	"github.com/pageza/pantry-chef/backend/internal/database"
	"github.com/pageza/pantry-chef/backend/internal/logger"
	"github.com/pageza/pantry-chef/backend/internal/metrics"
	"github.com/pageza/pantry-chef/backend/internal/middleware"
	"github.com/pageza/pantry-chef/backend/internal/server"
	"github.com/pageza/pantry-chef/backend/internal/service"
)

func main() {
	env := config.GetEnvironment()
	if env.LoadsDotEnv() {
		// A missing .env is fine; real environment variables still apply
		_ = godotenv.Load()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.New(logger.Config{Level: "info"}).Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: !cfg.Env.IsProduction(),
	})
	defer func() { _ = log.Sync() }()
	gin.SetMode(cfg.Env.GinMode())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		stop()
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := database.New(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB, log); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	llm, err := service.NewLLMService(service.LLMConfig{
		APIKey:  cfg.LLM.APIKey,
		APIURL:  cfg.LLM.APIURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, service.WithLLMLogger(log), service.WithLLMRecorder(m))
	if err != nil {
		return err
	}

	catalog := service.NewCatalogService(db.DB)
	generator := service.NewRecipeGenerator(catalog, llm,
		service.WithGeneratorLogger(log),
		service.WithRecorder(m),
		service.WithDecoding(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
		service.WithTimeouts(cfg.Generation.CatalogTimeout, cfg.LLM.Timeout),
	)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		log.Warn("JWT_SECRET not set, using an ephemeral signing key")
		jwtSecret = uuid.NewString()
	}

	deps := api.Deps{
		Auth:      service.NewAuthService(db.DB, jwtSecret, cfg.Auth.TokenTTL),
		Recipes:   service.NewRecipeService(db.DB),
		Catalog:   catalog,
		Generator: generator,
		Metrics:   m,
	}

	var limiterRedis redis.Cmdable
	if cfg.Redis.Enabled() {
		rdb, err := database.NewRedisClient(cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, drafts disabled and rate limiting kept in memory", zap.Error(err))
		} else {
			defer rdb.Close()
			deps.Drafts = service.NewDraftStore(rdb)
			limiterRedis = rdb
		}
	}
	deps.Limiter = middleware.NewGenerationRateLimiter(limiterRedis, cfg.Generation.RateLimit, cfg.Generation.RateWindow, log)

	s3Config, err := config.NewS3Config(ctx, cfg.Storage)
	switch {
	case errors.Is(err, config.ErrStorageDisabled):
		log.Info("image storage not configured")
	case err != nil:
		log.Warn("failed to initialize image storage", zap.Error(err))
	default:
		deps.Images = service.NewImageService(s3Config, cfg.Storage.PresignTTL, log)
	}

	return server.New(cfg.Server, deps, log).Run(ctx)
}
