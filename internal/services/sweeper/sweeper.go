// Package services содержит фоновую проверку пробных периодов: перевод
// истекших trial на free и постановку напоминаний в очередь.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/quizory/quiz-league/internal/lib/rabbitmq"
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/models"
)

// Окно напоминаний: письма уходят владельцам, чей trial истекает
// в ближайшие пять дней.
const reminderWindowDays = 5

// OrganizationRepository описывает контракт хранилища для фоновой проверки.
type OrganizationRepository interface {
	ExpireTrials(ctx context.Context, now time.Time) (int, error)
	FindTrialsExpiringWithin(ctx context.Context, now time.Time, days int) ([]*models.TrialReminder, error)
}

// SweeperService периодически проверяет пробные периоды организаций.
type SweeperService struct {
	repo     OrganizationRepository
	log      *slog.Logger
	interval time.Duration
}

// NewSweeperService создает новый экземпляр SweeperService.
func NewSweeperService(repo OrganizationRepository, log *slog.Logger, interval time.Duration) *SweeperService {
	return &SweeperService{
		repo:     repo,
		log:      log,
		interval: interval,
	}
}

// Run выполняет проверку сразу и далее по таймеру до отмены контекста.
func (s *SweeperService) Run(ctx context.Context, channel *amqp.Channel) {
	s.runSweep(ctx, channel)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx, channel)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SweeperService) runSweep(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting trial sweep")

	expired, err := s.repo.ExpireTrials(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("failed to expire trials", sl.Err(err))
	} else if expired > 0 {
		s.log.Info("expired trials switched to free", slog.Int("count", expired))
	}

	reminders, err := s.repo.FindTrialsExpiringWithin(ctx, time.Now().UTC(), reminderWindowDays)
	if err != nil {
		s.log.Error("failed to find expiring trials", sl.Err(err))
		return
	}
	if len(reminders) == 0 {
		s.log.Info("no expiring trials found")
		return
	}
	s.log.Info("found expiring trials", slog.Int("count", len(reminders)))

	for _, reminder := range reminders {
		// сбой одной публикации не останавливает рассылку остальных
		if err := rabbitmq.PublishMessage(channel, "notifications", "trial", reminder); err != nil {
			s.log.Error("failed to publish trial reminder",
				slog.String("organization_id", reminder.OrganizationID.String()),
				sl.Err(err))
		}
	}
}
