package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	appcache "studyhall/internal/cache"
	"studyhall/internal/config"
	"studyhall/internal/repository"
	"studyhall/internal/service"
	"studyhall/internal/transport/rest"
	"studyhall/internal/transport/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	cfg := config.Load()

	aiConfig := config.DefaultAIConfig()
	logger.Info("generation gateway",
		zap.String("tutorModel", aiConfig.Models.TutorReply),
		zap.String("quizModel", aiConfig.Models.QuizGen),
		zap.Bool("enabled", aiConfig.IsEnabled()))
	if !aiConfig.IsEnabled() {
		logger.Warn("GEMINI_API_KEY not set, using mock generation")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("mongo ping failed", zap.Error(err))
	}
	logger.Info("connected to MongoDB")

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("redis ping failed", zap.Error(err))
	}
	logger.Info("connected to Redis")

	// WebSocket hub doubles as the engine's event listener
	wsHub := ws.NewHub(logger)

	// Repositories
	sessionRepo := repository.NewSessionRepo(mongoClient)
	messageRepo := repository.NewMessageRepo(mongoClient)
	quizRepo := repository.NewQuizRepo(mongoClient)
	userRepo := repository.NewUserRepo(mongoClient)

	// Caches
	sessionCache := appcache.NewSessionCache(rdb)
	statsCache := appcache.NewStatsCache(rdb)

	// Services
	metrics := service.NewMetrics()
	authSvc := service.NewAuthService(os.Getenv("CLASS_PASSCODE"), cfg.JWTSecret, userRepo)
	gemini := service.NewGeminiService()
	searchSvc := service.NewSearchService()
	tutorSvc := service.NewTutorService(service.TutorOptions{
		Config:       config.DefaultEngineConfig(),
		Logger:       logger,
		Generator:    gemini,
		Searcher:     searchSvc,
		Listener:     wsHub,
		Telemetry:    metrics,
		SessionRepo:  sessionRepo,
		MessageRepo:  messageRepo,
		QuizRepo:     quizRepo,
		UserRepo:     userRepo,
		SessionCache: sessionCache,
		StatsCache:   statsCache,
	})

	router := rest.NewRouter(&rest.Container{
		AuthService:  authSvc,
		TutorService: tutorSvc,
		Metrics:      metrics,
		WSHub:        wsHub,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
