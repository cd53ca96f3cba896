// Package quizleague собирает основное приложение: HTTP API, фоновую
// проверку пробных периодов и подключение инфраструктуры.
package quizleague

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/quizory/quiz-league/internal/cache"
	"github.com/quizory/quiz-league/internal/config"
	"github.com/quizory/quiz-league/internal/lib/jwt"
	"github.com/quizory/quiz-league/internal/migrations"
	"github.com/quizory/quiz-league/internal/rabbitmq"
	authservice "github.com/quizory/quiz-league/internal/services/auth"
	catalogservice "github.com/quizory/quiz-league/internal/services/catalog"
	orgservice "github.com/quizory/quiz-league/internal/services/org"
	quizservice "github.com/quizory/quiz-league/internal/services/quiz"
	scoringservice "github.com/quizory/quiz-league/internal/services/scoring"
	shareservice "github.com/quizory/quiz-league/internal/services/share"
	statsservice "github.com/quizory/quiz-league/internal/services/stats"
	subscriptionservice "github.com/quizory/quiz-league/internal/services/subscription"
	sweeperservice "github.com/quizory/quiz-league/internal/services/sweeper"
	"github.com/quizory/quiz-league/internal/storage/repository"
)

// App основное приложение квиз-лиги.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	sweeper *sweeperservice.SweeperService
}

// New инициализирует хранилище, миграции, кеш, очередь и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	publisher := &rabbitmq.ChannelPublisher{Ch: ch}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, publisher, cfg.PublicBaseURL, logger)
	subscriptionService := subscriptionservice.NewSubscriptionService(db, logger)
	scoringService := scoringservice.NewScoringService(db, cacheRedis, logger)
	quizService := quizservice.NewQuizService(db, subscriptionService, scoringService, logger)
	catalogService := catalogservice.NewCatalogService(db, subscriptionService, logger)
	orgService := orgservice.NewOrgService(db, subscriptionService, logger)
	statsService := statsservice.NewStatsService(db, subscriptionService, logger)
	shareService := shareservice.NewShareService(db, subscriptionService, cfg.PublicBaseURL, logger)
	sweeper := sweeperservice.NewSweeperService(db, logger, cfg.SweepInterval)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:         authService,
		Subscription: subscriptionService,
		Scoring:      scoringService,
		Quiz:         quizService,
		Catalog:      catalogService,
		Org:          orgService,
		Stats:        statsService,
		Share:        shareService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		conn:    conn,
		ch:      ch,
		sweeper: sweeper,
	}, nil
}

// Run запускает HTTP сервер и фоновую проверку пробных периодов,
// завершается по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Run(ctx, a.ch)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
