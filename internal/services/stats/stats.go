// Package services считает сквозную статистику: зачёт лиги и историю
// выступлений команды.
package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/models"
	scoring "github.com/quizory/quiz-league/internal/services/scoring"
	subscription "github.com/quizory/quiz-league/internal/services/subscription"
)

// Размер итоговой таблицы лиги.
const leagueStandingsLimit = 20

// Пагинация сводок квизов по умолчанию.
const (
	defaultSummaryPageSize = 20
	maxSummaryPageSize     = 100
)

// StatsRepository описывает контракт хранилища для статистики.
type StatsRepository interface {
	ListQuizzesByLeague(ctx context.Context, orgID, leagueID uuid.UUID) ([]*models.Quiz, error)
	ListQuizzesFiltered(ctx context.Context, orgID uuid.UUID, f models.QuizSummaryFilter) ([]*models.Quiz, int, error)
	ListQuizzesForTeam(ctx context.Context, orgID, teamID uuid.UUID, leagueID *uuid.UUID, limit int) ([]*models.Quiz, error)
	ListQuizTeamIDs(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error)
	ListScoreEntries(ctx context.Context, orgID, quizID uuid.UUID) ([]*models.ScoreEntry, error)
	ListDoubleScoreTeams(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error)
	GetTeamNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
	ListTeamCategoryAverages(ctx context.Context, orgID, teamID uuid.UUID) ([]models.CategoryAverage, error)
}

// SubscriptionGate шлюз политики подписки для статистики лиг.
type SubscriptionGate interface {
	EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error
}

// StatsService агрегирует очки квизов в сквозные таблицы.
type StatsService struct {
	repo StatsRepository
	gate SubscriptionGate
	log  *slog.Logger
}

// NewStatsService создает новый экземпляр StatsService.
func NewStatsService(repo StatsRepository, gate SubscriptionGate, log *slog.Logger) *StatsService {
	return &StatsService{
		repo: repo,
		gate: gate,
		log:  log,
	}
}

// LeagueStandings строит сквозной зачёт лиги: сумма очков команды по всем
// квизам лиги с учетом удвоений каждого отдельного квиза. Возвращает не
// больше двадцати команд.
func (s *StatsService) LeagueStandings(ctx context.Context, rc models.RequestContext, leagueID uuid.UUID) ([]models.TeamRank, error) {
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureLeagues); err != nil {
		return nil, err
	}

	quizzes, err := s.repo.ListQuizzesByLeague(ctx, rc.OrganizationID, leagueID)
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int)
	for _, quiz := range quizzes {
		ranking, err := s.quizRanking(ctx, rc.OrganizationID, quiz.ID)
		if err != nil {
			return nil, err
		}
		for _, row := range ranking {
			totals[row.TeamID] += row.Points
		}
	}

	standings := make([]models.TeamRank, 0, len(totals))
	teamIDs := make([]uuid.UUID, 0, len(totals))
	for id, points := range totals {
		standings = append(standings, models.TeamRank{TeamID: id, Points: points})
		teamIDs = append(teamIDs, id)
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].TeamID.String() < standings[j].TeamID.String()
	})
	for i := range standings {
		if i > 0 && standings[i].Points == standings[i-1].Points {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
	if len(standings) > leagueStandingsLimit {
		standings = standings[:leagueStandingsLimit]
	}

	names, err := s.repo.GetTeamNames(ctx, rc.OrganizationID, teamIDs)
	if err != nil {
		return nil, err
	}
	for i := range standings {
		standings[i].TeamName = names[standings[i].TeamID]
	}
	return standings, nil
}

// TeamHistory возвращает итоги последних квизов команды, опционально
// в рамках одной лиги.
func (s *StatsService) TeamHistory(ctx context.Context, rc models.RequestContext, teamID uuid.UUID, leagueID *uuid.UUID, limit int) ([]models.TeamQuizResult, error) {
	quizzes, err := s.repo.ListQuizzesForTeam(ctx, rc.OrganizationID, teamID, leagueID, limit)
	if err != nil {
		return nil, err
	}

	history := make([]models.TeamQuizResult, 0, len(quizzes))
	for _, quiz := range quizzes {
		ranking, err := s.quizRanking(ctx, rc.OrganizationID, quiz.ID)
		if err != nil {
			return nil, err
		}
		for _, row := range ranking {
			if row.TeamID != teamID {
				continue
			}
			history = append(history, models.TeamQuizResult{
				QuizID:   quiz.ID,
				QuizName: quiz.Name,
				Date:     quiz.Date,
				Points:   row.Points,
				Rank:     row.Rank,
			})
			break
		}
	}
	return history, nil
}

// QuizSummaries возвращает страницу сводок квизов: победитель, число команд
// и категорий. Фильтры по датам, лиге и команде опциональны.
func (s *StatsService) QuizSummaries(ctx context.Context, rc models.RequestContext, f models.QuizSummaryFilter) (*models.QuizSummaryPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultSummaryPageSize
	}
	if f.PageSize > maxSummaryPageSize {
		f.PageSize = maxSummaryPageSize
	}

	quizzes, total, err := s.repo.ListQuizzesFiltered(ctx, rc.OrganizationID, f)
	if err != nil {
		return nil, err
	}

	items := make([]models.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		teamIDs, err := s.repo.ListQuizTeamIDs(ctx, rc.OrganizationID, quiz.ID)
		if err != nil {
			return nil, err
		}
		entries, err := s.repo.ListScoreEntries(ctx, rc.OrganizationID, quiz.ID)
		if err != nil {
			return nil, err
		}
		doubleTeams, err := s.repo.ListDoubleScoreTeams(ctx, rc.OrganizationID, quiz.ID)
		if err != nil {
			return nil, err
		}

		categories := make(map[uuid.UUID]struct{})
		for _, e := range entries {
			categories[e.CategoryID] = struct{}{}
		}

		summary := models.QuizSummary{
			QuizID:        quiz.ID,
			Name:          quiz.Name,
			Date:          quiz.Date,
			Location:      quiz.Location,
			Status:        quiz.Status,
			TeamCount:     len(teamIDs),
			CategoryCount: len(categories),
		}
		ranking := scoring.ComputeRanking(teamIDs, entries, doubleTeams)
		if len(ranking) > 0 {
			winnerID := ranking[0].TeamID
			names, err := s.repo.GetTeamNames(ctx, rc.OrganizationID, []uuid.UUID{winnerID})
			if err != nil {
				return nil, err
			}
			summary.WinnerTeamID = &winnerID
			summary.WinnerTeamName = names[winnerID]
			summary.WinnerPoints = ranking[0].Points
		}
		items = append(items, summary)
	}

	return &models.QuizSummaryPage{
		Items:    items,
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

// CategoryAverages возвращает средний результат команды по категориям.
// Удвоения подсказок не учитываются: среднее считается по сырым строкам.
func (s *StatsService) CategoryAverages(ctx context.Context, rc models.RequestContext, teamID uuid.UUID) ([]models.CategoryAverage, error) {
	return s.repo.ListTeamCategoryAverages(ctx, rc.OrganizationID, teamID)
}

func (s *StatsService) quizRanking(ctx context.Context, orgID, quizID uuid.UUID) ([]models.TeamRank, error) {
	teamIDs, err := s.repo.ListQuizTeamIDs(ctx, orgID, quizID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListScoreEntries(ctx, orgID, quizID)
	if err != nil {
		return nil, err
	}
	doubleTeams, err := s.repo.ListDoubleScoreTeams(ctx, orgID, quizID)
	if err != nil {
		return nil, err
	}
	return scoring.ComputeRanking(teamIDs, entries, doubleTeams), nil
}
