// Package services содержит логику бизнес-уровня для квизов: создание,
// ведение результатов и применение подсказок.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/i18n"
	"github.com/quizory/quiz-league/internal/models"
	authz "github.com/quizory/quiz-league/internal/services/authz"
	subscription "github.com/quizory/quiz-league/internal/services/subscription"
)

// QuizRepository описывает контракт хранилища квизов.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz models.Quiz, teamIDs, categoryIDs []uuid.UUID) error
	ListQuizzes(ctx context.Context, orgID uuid.UUID) ([]*models.Quiz, error)
	GetQuiz(ctx context.Context, orgID, id uuid.UUID) (*models.Quiz, error)
	ListScoreEntries(ctx context.Context, orgID, quizID uuid.UUID) ([]*models.ScoreEntry, error)
	GetScoreEntry(ctx context.Context, orgID, quizID, teamID, categoryID uuid.UUID) (*models.ScoreEntry, error)
	UpdateScoreEntry(ctx context.Context, entry models.ScoreEntry) (int, error)
	GetHelpType(ctx context.Context, orgID, id uuid.UUID) (*models.HelpType, error)
	HelpUsageExists(ctx context.Context, orgID, quizID, teamID, helpTypeID uuid.UUID) (bool, error)
	CreateHelpUsage(ctx context.Context, usage models.HelpUsage) error
}

// SubscriptionGate шлюз политики подписки перед созданием квиза.
type SubscriptionGate interface {
	EnforceQuizMonthlyLimit(ctx context.Context, rc models.RequestContext) error
	EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error
}

// RankingInvalidator сбрасывает кеш итоговой таблицы после мутаций.
type RankingInvalidator interface {
	InvalidateRanking(orgID, quizID uuid.UUID)
}

// QuizService отвечает за жизненный цикл квиза и его результаты.
type QuizService struct {
	repo    QuizRepository
	gate    SubscriptionGate
	ranking RankingInvalidator
	log     *slog.Logger
}

// NewQuizService создает новый экземпляр QuizService.
func NewQuizService(repo QuizRepository, gate SubscriptionGate, ranking RankingInvalidator, log *slog.Logger) *QuizService {
	return &QuizService{
		repo:    repo,
		gate:    gate,
		ranking: ranking,
		log:     log,
	}
}

// Create создает квиз с зарегистрированными командами и пустыми строками
// результатов. Требует роль admin и проходит месячный лимит бесплатного
// плана; привязка к лиге дополнительно требует доступной функции лиг.
func (s *QuizService) Create(ctx context.Context, rc models.RequestContext, req models.CreateQuizRequest) (*models.Quiz, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.gate.EnforceQuizMonthlyLimit(ctx, rc); err != nil {
		return nil, err
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid quiz date: %w", err)
	}

	var leagueID *uuid.UUID
	if req.LeagueID != "" {
		if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureLeagues); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(req.LeagueID)
		if err != nil {
			return nil, fmt.Errorf("invalid league id: %w", err)
		}
		leagueID = &id
	}

	teamIDs, err := parseUUIDs(req.TeamIDs)
	if err != nil {
		return nil, fmt.Errorf("invalid team id: %w", err)
	}
	categoryIDs, err := parseUUIDs(req.CategoryIDs)
	if err != nil {
		return nil, fmt.Errorf("invalid category id: %w", err)
	}

	quiz := models.Quiz{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		Name:           req.Name,
		Date:           date,
		Location:       req.Location,
		Status:         models.QuizDraft,
		LeagueID:       leagueID,
	}
	if err := s.repo.CreateQuiz(ctx, quiz, teamIDs, categoryIDs); err != nil {
		return nil, err
	}

	s.log.Info("created new quiz",
		slog.String("quiz_id", quiz.ID.String()),
		slog.Int("teams", len(teamIDs)),
		slog.Int("categories", len(categoryIDs)))
	return &quiz, nil
}

// List возвращает квизы организации.
func (s *QuizService) List(ctx context.Context, rc models.RequestContext) ([]*models.Quiz, error) {
	return s.repo.ListQuizzes(ctx, rc.OrganizationID)
}

// Get возвращает квиз по идентификатору в пределах организации.
func (s *QuizService) Get(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Quiz, error) {
	return s.repo.GetQuiz(ctx, rc.OrganizationID, id)
}

// Scores возвращает все строки результатов квиза.
func (s *QuizService) Scores(ctx context.Context, rc models.RequestContext, quizID uuid.UUID) ([]*models.ScoreEntry, error) {
	if _, err := s.repo.GetQuiz(ctx, rc.OrganizationID, quizID); err != nil {
		return nil, err
	}
	return s.repo.ListScoreEntries(ctx, rc.OrganizationID, quizID)
}

// UpdateScore изменяет строку результата. Заблокированная строка
// отклоняется; успешное изменение сбрасывает кеш итоговой таблицы.
func (s *QuizService) UpdateScore(ctx context.Context, rc models.RequestContext, quizID uuid.UUID, req models.UpdateScoreRequest) (*models.ScoreEntry, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}

	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		return nil, fmt.Errorf("invalid team id: %w", err)
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category id: %w", err)
	}

	entry, err := s.repo.GetScoreEntry(ctx, rc.OrganizationID, quizID, teamID, categoryID)
	if err != nil {
		return nil, err
	}
	if entry.IsLocked {
		return nil, apperr.Policy(apperr.CodeScoreLocked, i18n.T(rc.Language, "ScoreLocked"))
	}

	entry.Points = req.Points
	entry.BonusPoints = req.BonusPoints
	entry.Notes = req.Notes
	entry.IsLocked = req.IsLocked

	affected, err := s.repo.UpdateScoreEntry(ctx, *entry)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// строка успела заблокироваться между чтением и записью
		return nil, apperr.Policy(apperr.CodeScoreLocked, i18n.T(rc.Language, "ScoreLocked"))
	}

	s.ranking.InvalidateRanking(rc.OrganizationID, quizID)
	s.log.Info("score updated",
		slog.String("quiz_id", quizID.String()),
		slog.String("team_id", teamID.String()))
	return entry, nil
}

// ApplyHelp фиксирует применение подсказки командой. Повторное применение
// того же типа подсказки той же командой в том же квизе отклоняется.
func (s *QuizService) ApplyHelp(ctx context.Context, rc models.RequestContext, quizID uuid.UUID, req models.ApplyHelpRequest) (*models.HelpUsage, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}

	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		return nil, fmt.Errorf("invalid team id: %w", err)
	}
	helpTypeID, err := uuid.Parse(req.HelpTypeID)
	if err != nil {
		return nil, fmt.Errorf("invalid help type id: %w", err)
	}

	if _, err := s.repo.GetQuiz(ctx, rc.OrganizationID, quizID); err != nil {
		return nil, err
	}
	helpType, err := s.repo.GetHelpType(ctx, rc.OrganizationID, helpTypeID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.HelpUsageExists(ctx, rc.OrganizationID, quizID, teamID, helpTypeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Policy(apperr.CodeHelpAlreadyUsed, i18n.T(rc.Language, "HelpAlreadyUsed"))
	}

	usage := models.HelpUsage{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		QuizID:         quizID,
		TeamID:         teamID,
		HelpTypeID:     helpTypeID,
	}
	if err := s.repo.CreateHelpUsage(ctx, usage); err != nil {
		return nil, err
	}

	if helpType.Behavior == models.HelpDoubleScore {
		s.ranking.InvalidateRanking(rc.OrganizationID, quizID)
	}
	s.log.Info("help applied",
		slog.String("quiz_id", quizID.String()),
		slog.String("team_id", teamID.String()),
		slog.String("behavior", string(helpType.Behavior)))
	return &usage, nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	result := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, nil
}
