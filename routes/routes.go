package routes

import (
	"github.com/Aldiyar97/quiz-league/handlers"
	"github.com/Aldiyar97/quiz-league/middleware"
	"github.com/Aldiyar97/quiz-league/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes assembles the full HTTP surface on the given router.
func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	divisionHandler *handlers.DivisionHandler,
	statsHandler *handlers.StatsHandler,
	livesHandler *handlers.LivesHandler,
	quizHandler *handlers.QuizHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
	cronSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Public ladder views
	router.Get("/divisions", divisionHandler.List)
	router.Get("/divisions/{id}/leaderboard", divisionHandler.Leaderboard)
	router.Get("/ws/divisions/{id}", webSocketHandler.ServeWs)

	// Authenticated user surface
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Get("/me/division", divisionHandler.MyDivision)
		r.Get("/me/weekly-xp", statsHandler.WeeklyXP)
		r.Get("/me/streak-details", statsHandler.StreakDetails)
		r.Get("/me/lives", livesHandler.Get)
		r.Post("/me/lives", livesHandler.Action)

		r.Post("/quizzes/{id}/start", quizHandler.Start)
		r.Post("/quizzes/{id}/answer", quizHandler.Answer)
		r.Post("/quizzes/{id}/reset", quizHandler.Reset)
	})

	// Admin bootstrap (interactive, requires the admin role)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.RequireRole(models.RoleAdmin))

		r.Post("/admin/divisions/seed", adminHandler.SeedDivisions)
	})

	// Scheduled triggers (external cron, shared-secret bearer)
	router.Group(func(r chi.Router) {
		r.Use(middleware.CronAuth(cronSecret))

		r.Post("/admin/rankings/calculate", adminHandler.CalculateRankings)
		r.Post("/admin/rankings/process-promotions", adminHandler.ProcessPromotions)
		r.Post("/admin/lives/regenerate", adminHandler.RegenerateLives)
	})
}
