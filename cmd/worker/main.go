// Package main runs the standalone transcription worker pool, for
// deployments that scale workers separately from the API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meetscribe/backend/config"
	"github.com/meetscribe/backend/internal/audio"
	"github.com/meetscribe/backend/internal/engine"
	"github.com/meetscribe/backend/internal/notify"
	"github.com/meetscribe/backend/internal/transcripts"
	"github.com/meetscribe/backend/internal/worker"
	"github.com/meetscribe/backend/pkg/database"
	"github.com/meetscribe/backend/pkg/queue"
	"github.com/meetscribe/backend/pkg/redis"
	"github.com/meetscribe/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		AudioBucket:          cfg.AWS.AudioBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	var recognizer engine.Recognizer
	if cfg.Transcriber.APIKey != "" {
		recognizer = engine.NewWhisperRecognizer(cfg.Transcriber.APIKey, cfg.Transcriber.BaseURL, cfg.Transcriber.WhisperModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, using stub recognizer")
		recognizer = &engine.StubRecognizer{}
	}

	audioRepo := audio.NewRepository(pool)
	transcriptRepo := transcripts.NewRepository(pool)
	pubsub := notify.NewRedisPubSub(rdb.Client, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	eng := engine.New(transcriptRepo, audioRepo, s3Client, recognizer, pubsub, cfg.Worker.TempDir, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	workerPool := worker.NewPool(jobQueue, eng, cfg.Worker.Concurrency, logger)

	done := make(chan struct{})
	go func() {
		workerPool.Run(workerCtx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	<-done
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
