package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/prateekraiger/buildmeCV/internal/compositor"
	"github.com/prateekraiger/buildmeCV/internal/config"
	"github.com/prateekraiger/buildmeCV/internal/database"
	"github.com/prateekraiger/buildmeCV/internal/metrics"
	"github.com/prateekraiger/buildmeCV/internal/pdf"
	"github.com/prateekraiger/buildmeCV/internal/storage"
	"github.com/prateekraiger/buildmeCV/internal/tasks"
	"github.com/prateekraiger/buildmeCV/internal/templates"
	"github.com/prateekraiger/buildmeCV/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	registry := templates.Default()
	opts := []compositor.Option{
		compositor.WithEngine(cfg.Render.Engine),
		compositor.WithFontsDir(cfg.Render.FontsDir),
		compositor.WithLogger(logger),
	}

	// 配置了 Chromium 时同时用于 chromium 引擎和缩略图
	var thumbnailer worker.Thumbnailer
	if cfg.Render.ChromeBin != "" || cfg.Render.Engine == config.EngineChromium {
		browser := pdf.NewChromium(cfg.Render.ChromeBin, cfg.Render.Timeout, logger)
		thumbnailer = browser
		if cfg.Render.Engine == config.EngineChromium {
			opts = append(opts, compositor.WithPrinter(browser))
		}
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	exportHandler := worker.NewExportTaskHandler(
		db,
		storageClient,
		redisClient,
		compositor.New(registry, opts...),
		registry,
		thumbnailer,
		logger,
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypePDFExport, exportHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
