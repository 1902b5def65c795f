// Package main runs the MeetScribe HTTP server with an embedded
// transcription worker pool and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meetscribe/backend/config"
	"github.com/meetscribe/backend/internal/audio"
	"github.com/meetscribe/backend/internal/auth"
	"github.com/meetscribe/backend/internal/engine"
	"github.com/meetscribe/backend/internal/middleware"
	"github.com/meetscribe/backend/internal/notes"
	"github.com/meetscribe/backend/internal/notify"
	"github.com/meetscribe/backend/internal/transcripts"
	"github.com/meetscribe/backend/internal/worker"
	"github.com/meetscribe/backend/pkg/database"
	"github.com/meetscribe/backend/pkg/queue"
	"github.com/meetscribe/backend/pkg/redis"
	"github.com/meetscribe/backend/pkg/response"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	pubsub := notify.NewRedisPubSub(rdb.Client, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Transcription core
	audioRepo := audio.NewRepository(pool)
	transcriptRepo := transcripts.NewRepository(pool)
	launcher := transcripts.NewLauncher(audioRepo, transcriptRepo, jobQueue, logger)
	transcriptHandler := transcripts.NewHandler(transcriptRepo, launcher, cfg.Transcriber.DefaultLanguage, logger)
	audioHandler := audio.NewHandler(audioRepo, s3Client, launcher, cfg.Upload.MaxFileSizeMB, cfg.Transcriber.DefaultLanguage, logger)

	var recognizer engine.Recognizer
	var chatClient notes.ChatClient
	if cfg.Transcriber.APIKey != "" {
		recognizer = engine.NewWhisperRecognizer(cfg.Transcriber.APIKey, cfg.Transcriber.BaseURL, cfg.Transcriber.WhisperModel)
		chatClient = notes.NewOpenAIChat(cfg.Transcriber.APIKey, cfg.Transcriber.BaseURL, cfg.Transcriber.ChatModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, using stub recognizer and chat client")
		recognizer = &engine.StubRecognizer{}
		chatClient = notes.StubChat{}
	}
	eng := engine.New(transcriptRepo, audioRepo, s3Client, recognizer, pubsub, cfg.Worker.TempDir, logger)

	// Meeting notes
	noteRepo := notes.NewRepository(pool)
	noteHandler := notes.NewHandler(noteRepo, transcriptRepo, notes.NewGenerator(chatClient, logger), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Audio
		api.POST("/audio/upload", audioHandler.Upload)
		api.GET("/audio", audioHandler.List)
		api.GET("/audio/:id/download-url", audioHandler.DownloadURL)
		api.DELETE("/audio/:id", audioHandler.Delete)

		// Transcription
		api.POST("/transcribe/start", transcriptHandler.Start)
		api.GET("/transcribe/result/:id", transcriptHandler.Result)
		api.GET("/transcribe/by-audio/:audioId", transcriptHandler.ResultByAudio)
		api.PUT("/transcribe/update", transcriptHandler.Update)
		api.POST("/transcribe/:id/retry", transcriptHandler.Retry)
		api.GET("/transcripts", transcriptHandler.List)

		// Meeting notes
		api.POST("/meetings/generate", noteHandler.Generate)
		api.GET("/meetings/:id", noteHandler.Get)
		api.GET("/meetings/by-transcript/:transcriptId", noteHandler.GetByTranscript)
		api.PUT("/meetings/update", noteHandler.Update)
	}

	// WebSocket job status push (no Authorization header over WS upgrade)
	router.GET("/ws/transcripts/:id", notify.ServeWs(pubsub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Embedded worker pool (transcription jobs)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerPool := worker.NewPool(jobQueue, eng, cfg.Worker.Concurrency, logger)
	go workerPool.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
