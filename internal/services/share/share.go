// Package services выпускает публичные ссылки на таблицы результатов
// и отдает таблицы по токену без аутентификации.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/random"
	"github.com/quizory/quiz-league/internal/models"
	authz "github.com/quizory/quiz-league/internal/services/authz"
	scoring "github.com/quizory/quiz-league/internal/services/scoring"
	subscription "github.com/quizory/quiz-league/internal/services/subscription"
)

const shareTokenBytes = 24

// ShareRepository описывает контракт хранилища публичных токенов.
type ShareRepository interface {
	CreateShareToken(ctx context.Context, token models.PublicShareToken) error
	GetShareToken(ctx context.Context, token string) (*models.PublicShareToken, error)
	GetQuiz(ctx context.Context, orgID, id uuid.UUID) (*models.Quiz, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListQuizTeamIDs(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error)
	ListScoreEntries(ctx context.Context, orgID, quizID uuid.UUID) ([]*models.ScoreEntry, error)
	ListDoubleScoreTeams(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error)
	GetTeamNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// SubscriptionGate шлюз политики подписки для публичных ссылок.
type SubscriptionGate interface {
	EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error
}

// ShareService отвечает за публичный доступ к таблицам результатов.
type ShareService struct {
	repo          ShareRepository
	gate          SubscriptionGate
	publicBaseURL string
	log           *slog.Logger
}

// NewShareService создает новый экземпляр ShareService.
func NewShareService(repo ShareRepository, gate SubscriptionGate, publicBaseURL string, log *slog.Logger) *ShareService {
	return &ShareService{
		repo:          repo,
		gate:          gate,
		publicBaseURL: publicBaseURL,
		log:           log,
	}
}

// CreateToken выпускает публичный токен доступа к таблице квиза.
// Требует роль admin и доступную функцию share. Возвращает токен
// и готовую публичную ссылку.
func (s *ShareService) CreateToken(ctx context.Context, rc models.RequestContext, req models.CreateShareTokenRequest) (*models.PublicShareToken, string, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, "", err
	}
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureShare); err != nil {
		return nil, "", err
	}

	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		return nil, "", fmt.Errorf("invalid quiz id: %w", err)
	}
	if _, err := s.repo.GetQuiz(ctx, rc.OrganizationID, quizID); err != nil {
		return nil, "", err
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, "", fmt.Errorf("invalid expiry: %w", err)
		}
		expiresAt = &t
	}

	value, err := random.NewHex(shareTokenBytes)
	if err != nil {
		return nil, "", err
	}
	token := models.PublicShareToken{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		QuizID:         quizID,
		Token:          value,
		ExpiresAt:      expiresAt,
	}
	if err := s.repo.CreateShareToken(ctx, token); err != nil {
		return nil, "", err
	}

	s.log.Info("share token issued", slog.String("quiz_id", quizID.String()))
	url := fmt.Sprintf("%s/api/v1/public/leaderboard/%s", s.publicBaseURL, value)
	return &token, url, nil
}

// Leaderboard отдает публичную таблицу результатов по токену.
// Истекший или неизвестный токен неотличимы для клиента.
func (s *ShareService) Leaderboard(ctx context.Context, tokenValue string) (*models.PublicLeaderboard, error) {
	token, err := s.repo.GetShareToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if token.ExpiresAt != nil && !token.ExpiresAt.After(time.Now().UTC()) {
		return nil, apperr.ErrNotFound
	}

	quiz, err := s.repo.GetQuiz(ctx, token.OrganizationID, token.QuizID)
	if err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, token.OrganizationID)
	if err != nil {
		return nil, err
	}

	teamIDs, err := s.repo.ListQuizTeamIDs(ctx, token.OrganizationID, token.QuizID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListScoreEntries(ctx, token.OrganizationID, token.QuizID)
	if err != nil {
		return nil, err
	}
	doubleTeams, err := s.repo.ListDoubleScoreTeams(ctx, token.OrganizationID, token.QuizID)
	if err != nil {
		return nil, err
	}
	ranking := scoring.ComputeRanking(teamIDs, entries, doubleTeams)

	names, err := s.repo.GetTeamNames(ctx, token.OrganizationID, teamIDs)
	if err != nil {
		return nil, err
	}
	for i := range ranking {
		ranking[i].TeamName = names[ranking[i].TeamID]
	}

	return &models.PublicLeaderboard{
		QuizName:     quiz.Name,
		QuizDate:     quiz.Date,
		PrimaryColor: org.PrimaryColor,
		Ranking:      ranking,
	}, nil
}
