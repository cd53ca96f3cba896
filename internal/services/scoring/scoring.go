// Package services реализует подсчёт очков квиза и итоговую таблицу.
//
// Сумма команды — это sum(points + bonus_points) по всем категориям.
// Если команда применила хотя бы одну подсказку с поведением double_score,
// итоговая сумма удваивается ровно один раз, сколько бы таких подсказок
// ни было зафиксировано.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/models"
)

// QuizRepository описывает контракт хранилища для подсчёта очков.
type QuizRepository interface {
	ListQuizTeamIDs(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error)
	ListScoreEntries(ctx context.Context, orgID, quizID uuid.UUID) ([]*models.ScoreEntry, error)
	ListDoubleScoreTeams(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error)
	GetTeamNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Cache контракт кеша итоговых таблиц.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ScoringService подсчитывает очки и кеширует итоговые таблицы.
type ScoringService struct {
	repo  QuizRepository
	cache Cache
	log   *slog.Logger
}

// NewScoringService создает новый экземпляр ScoringService.
func NewScoringService(repo QuizRepository, cache Cache, log *slog.Logger) *ScoringService {
	return &ScoringService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ComputeRanking строит итоговую таблицу по строкам результатов.
//
// В таблице присутствуют только команды, за которые записана хотя бы одна
// строка; команда без результатов в таблицу не попадает. Команды с равной
// суммой делят место; порядок внутри группы детерминирован (по возрастанию
// идентификатора команды).
func ComputeRanking(teamIDs []uuid.UUID, entries []*models.ScoreEntry, doubleTeams []uuid.UUID) []models.TeamRank {
	registered := make(map[uuid.UUID]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		registered[id] = struct{}{}
	}
	totals := make(map[uuid.UUID]int, len(teamIDs))
	for _, e := range entries {
		if _, ok := registered[e.TeamID]; !ok {
			continue
		}
		totals[e.TeamID] += e.Points + e.BonusPoints
	}

	doubled := make(map[uuid.UUID]struct{}, len(doubleTeams))
	for _, id := range doubleTeams {
		doubled[id] = struct{}{}
	}
	for id := range totals {
		if _, ok := doubled[id]; ok {
			totals[id] *= 2
		}
	}

	ranking := make([]models.TeamRank, 0, len(totals))
	for id, points := range totals {
		ranking = append(ranking, models.TeamRank{TeamID: id, Points: points})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Points != ranking[j].Points {
			return ranking[i].Points > ranking[j].Points
		}
		return ranking[i].TeamID.String() < ranking[j].TeamID.String()
	})
	for i := range ranking {
		if i > 0 && ranking[i].Points == ranking[i-1].Points {
			ranking[i].Rank = ranking[i-1].Rank
			continue
		}
		ranking[i].Rank = i + 1
	}
	return ranking
}

// Ranking возвращает итоговую таблицу квиза, используя кеш.
func (s *ScoringService) Ranking(ctx context.Context, rc models.RequestContext, quizID uuid.UUID) ([]models.TeamRank, error) {
	cacheKey := rankingKey(rc.OrganizationID, quizID)

	var cached []models.TeamRank
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read ranking cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	ranking, err := s.computeRanking(ctx, rc.OrganizationID, quizID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, ranking, time.Hour); err != nil {
		s.log.Warn("failed to cache ranking", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return ranking, nil
}

func (s *ScoringService) computeRanking(ctx context.Context, orgID, quizID uuid.UUID) ([]models.TeamRank, error) {
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

	ranking := ComputeRanking(teamIDs, entries, doubleTeams)

	names, err := s.repo.GetTeamNames(ctx, orgID, teamIDs)
	if err != nil {
		return nil, err
	}
	for i := range ranking {
		ranking[i].TeamName = names[ranking[i].TeamID]
	}
	return ranking, nil
}

// InvalidateRanking сбрасывает кеш таблицы после изменения результатов
// или применения подсказки.
func (s *ScoringService) InvalidateRanking(orgID, quizID uuid.UUID) {
	cacheKey := rankingKey(orgID, quizID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate ranking cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
}

func rankingKey(orgID, quizID uuid.UUID) string {
	return fmt.Sprintf("ranking:%s:%s", orgID, quizID)
}
