package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aldiyar97/quiz-league/config"
	"github.com/Aldiyar97/quiz-league/db"
	"github.com/Aldiyar97/quiz-league/handlers"
	"github.com/Aldiyar97/quiz-league/realtime"
	"github.com/Aldiyar97/quiz-league/repositories"
	api "github.com/Aldiyar97/quiz-league/routes"
	"github.com/Aldiyar97/quiz-league/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Leaderboard cache is optional; without REDIS_ADDR reads go straight to
	// postgres.
	var rankingCache *repositories.RedisRankingCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancelPing()
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		cancelPing()
		defer redisClient.Close()
		rankingCache = repositories.NewRedisRankingCache(redisClient)
		logger.Info("redis leaderboard cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	wsHub := realtime.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	divisionRepo := repositories.NewPostgresDivisionRepository(dbConn)
	rankingRepo := repositories.NewPostgresRankingRepository(dbConn)
	attemptRepo := repositories.NewPostgresAttemptRepository(dbConn)
	progressRepo := repositories.NewPostgresQuizProgressRepository(dbConn)
	quizContent := repositories.NewPostgresQuizContent(dbConn)
	txRunner := repositories.NewSQLTxRunner(dbConn)
	logger.Info("repositories initialized")

	// services.LeaderboardCache is an interface; keep a typed nil out of it
	// when the cache is disabled.
	var cache services.LeaderboardCache
	if rankingCache != nil {
		cache = rankingCache
	}

	authService := services.NewAuthService(userRepo)
	divisionService := services.NewDivisionService(divisionRepo)
	rankingService := services.NewRankingService(divisionRepo, userRepo, rankingRepo, cache, wsHub, logger)
	promotionService := services.NewPromotionService(txRunner, divisionRepo, userRepo, rankingRepo, cache, wsHub, logger)
	livesService := services.NewLivesService(userRepo, logger)
	streakService := services.NewStreakService(attemptRepo)
	statsService := services.NewStatsService(userRepo, divisionRepo, rankingRepo, attemptRepo, streakService)
	attemptService := services.NewAttemptService(attemptRepo, progressRepo, userRepo, livesService, streakService, quizContent, logger)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	divisionHandler := handlers.NewDivisionHandler(divisionService, rankingService, statsService)
	statsHandler := handlers.NewStatsHandler(statsService, streakService)
	livesHandler := handlers.NewLivesHandler(livesService)
	quizHandler := handlers.NewQuizHandler(attemptService)
	adminHandler := handlers.NewAdminHandler(divisionService, rankingService, promotionService, livesService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authHandler,
		divisionHandler,
		statsHandler,
		livesHandler,
		quizHandler,
		adminHandler,
		webSocketHandler,
		cfg.JWTSecretKey,
		cfg.CronSecret,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
