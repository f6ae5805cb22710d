package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlascrm/crm-system/internal/api"
	"github.com/atlascrm/crm-system/internal/infrastructure/config"
	mongorepo "github.com/atlascrm/crm-system/internal/infrastructure/db/mongo"
	redisinfra "github.com/atlascrm/crm-system/internal/infrastructure/db/redis"
	"github.com/atlascrm/crm-system/internal/infrastructure/queue"
	s3store "github.com/atlascrm/crm-system/internal/infrastructure/storage/s3"
	"github.com/atlascrm/crm-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- MongoDB ---
	mongoClient, db, err := mongorepo.Connect(ctx, mongorepo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	if err := mongorepo.EnsureAllIndexes(ctx,
		mongorepo.NewUserRepository(db),
		mongorepo.NewBindingRepository(db),
		mongorepo.NewLeadRepository(db),
		mongorepo.NewClientRepository(db),
		mongorepo.NewProductRepository(db),
		mongorepo.NewClaimRepository(db),
		mongorepo.NewActivityRepository(db),
	); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Redis ---
	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	// --- Blob storage ---
	files, err := s3store.New(ctx, s3store.Config{
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		Endpoint:  cfg.S3.Endpoint,
		PathStyle: cfg.S3.PathStyle,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("s3 store init failed")
	}

	// --- Async activity log ---
	activity := queue.NewActivityWriter(cfg.ActivityWorkers, mongorepo.NewActivityRepository(db), log)
	activity.Start(ctx)

	e := api.NewRouter(api.Dependencies{
		Mongo:     db,
		Redis:     rdb,
		Files:     files,
		Activity:  activity,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting api server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
