// Package quizleague предоставляет маршруты для основного приложения.
package quizleague

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	authhandler "github.com/quizory/quiz-league/internal/http/handlers/auth"
	categoryhandler "github.com/quizory/quiz-league/internal/http/handlers/category"
	helptypehandler "github.com/quizory/quiz-league/internal/http/handlers/helptype"
	leaguehandler "github.com/quizory/quiz-league/internal/http/handlers/league"
	organizationhandler "github.com/quizory/quiz-league/internal/http/handlers/organization"
	questionhandler "github.com/quizory/quiz-league/internal/http/handlers/question"
	quizhandler "github.com/quizory/quiz-league/internal/http/handlers/quiz"
	sharehandler "github.com/quizory/quiz-league/internal/http/handlers/share"
	statshandler "github.com/quizory/quiz-league/internal/http/handlers/stats"
	subscriptionhandler "github.com/quizory/quiz-league/internal/http/handlers/subscription"
	teamhandler "github.com/quizory/quiz-league/internal/http/handlers/team"
	"github.com/quizory/quiz-league/internal/http/middlewarectx"
	authservice "github.com/quizory/quiz-league/internal/services/auth"
	catalogservice "github.com/quizory/quiz-league/internal/services/catalog"
	orgservice "github.com/quizory/quiz-league/internal/services/org"
	quizservice "github.com/quizory/quiz-league/internal/services/quiz"
	scoringservice "github.com/quizory/quiz-league/internal/services/scoring"
	shareservice "github.com/quizory/quiz-league/internal/services/share"
	statsservice "github.com/quizory/quiz-league/internal/services/stats"
	subscriptionservice "github.com/quizory/quiz-league/internal/services/subscription"
)

// Services собирает сервисы бизнес-уровня для регистрации маршрутов.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subscriptionservice.SubscriptionService
	Scoring      *scoringservice.ScoringService
	Quiz         *quizservice.QuizService
	Catalog      *catalogservice.CatalogService
	Org          *orgservice.OrgService
	Stats        *statsservice.StatsService
	Share        *shareservice.ShareService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	auth := authhandler.New(logger, s.Auth)
	organization := organizationhandler.New(logger, s.Org)
	subscription := subscriptionhandler.New(logger, s.Subscription)
	team := teamhandler.New(logger, s.Catalog, s.Stats)
	category := categoryhandler.New(logger, s.Catalog)
	league := leaguehandler.New(logger, s.Catalog, s.Stats)
	helptype := helptypehandler.New(logger, s.Catalog)
	question := questionhandler.New(logger, s.Catalog)
	quiz := quizhandler.New(logger, s.Quiz, s.Scoring)
	share := sharehandler.New(logger, s.Share)
	stats := statshandler.New(logger, s.Stats)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)
		r.Get("/auth/verify", auth.Verify)
		r.Get("/public/leaderboard/{token}", share.Leaderboard)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Put("/me/language", auth.SetLanguage)

			r.Get("/organization", organization.Get)
			r.Put("/organization", organization.Update)
			r.Get("/organization/members", organization.ListMembers)
			r.Post("/organization/members", organization.InviteMember)
			r.Put("/organization/members/{userID}/role", organization.ChangeRole)
			r.Delete("/organization/members/{userID}", organization.RemoveMember)

			r.Get("/subscription", subscription.Status)
			r.Post("/subscription/trial", subscription.StartTrial)
			r.Post("/subscription/premium", subscription.ActivatePremium)
			r.Post("/subscription/downgrade", subscription.DowngradeToFree)

			r.Post("/teams", team.Create)
			r.Get("/teams", team.List)
			r.Get("/teams/{id}", team.Get)
			r.Put("/teams/{id}", team.Update)
			r.Delete("/teams/{id}", team.Delete)
			r.Post("/teams/{id}/aliases", team.AddAlias)
			r.Get("/teams/{id}/history", team.History)
			r.Get("/teams/{id}/category-averages", team.CategoryAverages)

			r.Post("/categories", category.Create)
			r.Get("/categories", category.List)
			r.Put("/categories/{id}", category.Update)
			r.Delete("/categories/{id}", category.Delete)

			r.Post("/leagues", league.Create)
			r.Get("/leagues", league.List)
			r.Get("/leagues/{id}", league.Get)
			r.Put("/leagues/{id}", league.Update)
			r.Delete("/leagues/{id}", league.Delete)
			r.Get("/leagues/{id}/standings", league.Standings)

			r.Post("/help-types", helptype.Create)
			r.Get("/help-types", helptype.List)
			r.Put("/help-types/{id}", helptype.Update)
			r.Delete("/help-types/{id}", helptype.Delete)

			r.Post("/questions", question.Create)
			r.Get("/questions", question.List)
			r.Delete("/questions/{id}", question.Delete)

			r.Post("/quizzes", quiz.Create)
			r.Get("/quizzes", quiz.List)
			r.Get("/quizzes/{id}", quiz.Get)
			r.Get("/quizzes/{id}/scores", quiz.Scores)
			r.Put("/quizzes/{id}/scores", quiz.UpdateScore)
			r.Post("/quizzes/{id}/helps", quiz.ApplyHelp)
			r.Get("/quizzes/{id}/ranking", quiz.Ranking)

			r.Get("/statistics/quizzes", stats.QuizSummaries)

			r.Post("/share-tokens", share.CreateToken)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
