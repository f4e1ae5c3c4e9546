package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/prateekraiger/buildmeCV/internal/api"
	"github.com/prateekraiger/buildmeCV/internal/compositor"
	"github.com/prateekraiger/buildmeCV/internal/config"
	"github.com/prateekraiger/buildmeCV/internal/database"
	"github.com/prateekraiger/buildmeCV/internal/enhance"
	"github.com/prateekraiger/buildmeCV/internal/pdf"
	"github.com/prateekraiger/buildmeCV/internal/preview"
	"github.com/prateekraiger/buildmeCV/internal/session"
	"github.com/prateekraiger/buildmeCV/internal/storage"
	"github.com/prateekraiger/buildmeCV/internal/store"
	"github.com/prateekraiger/buildmeCV/internal/templates"
	"github.com/prateekraiger/buildmeCV/internal/transfer"
)

func main() {
	cfg := config.MustLoad()

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.Name),
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	sessions, err := session.NewService(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Fatalf("init session service: %v", err)
	}

	var persister store.Persister
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		persister = store.NewMemoryPersister()
	case config.StoreBackendPostgres:
		persister = store.NewGormPersister(db)
	default:
		persister = store.NewRedisPersister(redisClient, cfg.Store.TTL)
	}
	logger.Info("resume store backend selected", slog.String("backend", cfg.Store.Backend))

	registry := templates.Default()
	previews := preview.NewManager(registry, logger)
	stores := store.NewRegistry(persister, logger)
	stores.OnOpen(previews.Attach)
	defer stores.Close()

	compOpts := []compositor.Option{
		compositor.WithEngine(cfg.Render.Engine),
		compositor.WithFontsDir(cfg.Render.FontsDir),
		compositor.WithLogger(logger),
	}
	if cfg.Render.Engine == config.EngineChromium {
		compOpts = append(compOpts, compositor.WithPrinter(pdf.NewChromium(cfg.Render.ChromeBin, cfg.Render.Timeout, logger)))
	}

	var aiClient enhance.Client
	if cfg.AI.Enabled() {
		aiClient = enhance.NewHTTPClient(cfg.AI.BaseURL, cfg.AI.Timeout, cfg.AI.Attempts, logger)
	} else {
		logger.Warn("ai enhancement disabled: AI_BASE_URL is empty")
	}

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Services{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Redis:      redisClient,
		Counter:    redisClient,
		Queue:      asynqClient,
		Storage:    storageClient,
		Sessions:   sessions,
		Stores:     stores,
		Previews:   previews,
		Templates:  registry,
		Compositor: compositor.New(registry, compOpts...),
		Importer:   transfer.NewImporter(cfg.API.MaxImportBytes, transfer.NewClamdScanner(cfg.Clamd.Address)),
		Enhancer:   enhance.New(aiClient, logger),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("api shutdown failed", slog.Any("error", err))
	}
	logger.Info("api stopped")
}
