package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

type CatalogRepoMock struct {
	mock.Mock
}

func (m *CatalogRepoMock) CreateTeam(ctx context.Context, team models.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *CatalogRepoMock) ListTeams(ctx context.Context, orgID uuid.UUID) ([]*models.Team, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Team), args.Error(1)
}

func (m *CatalogRepoMock) GetTeam(ctx context.Context, orgID, id uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *CatalogRepoMock) UpdateTeam(ctx context.Context, orgID, id uuid.UUID, name string) error {
	args := m.Called(ctx, orgID, id, name)
	return args.Error(0)
}

func (m *CatalogRepoMock) SoftDeleteTeam(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *CatalogRepoMock) AddTeamAlias(ctx context.Context, alias models.TeamAlias) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}

func (m *CatalogRepoMock) CreateCategory(ctx context.Context, category models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *CatalogRepoMock) ListCategories(ctx context.Context, orgID uuid.UUID) ([]*models.Category, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Category), args.Error(1)
}

func (m *CatalogRepoMock) UpdateCategory(ctx context.Context, orgID, id uuid.UUID, name string) error {
	args := m.Called(ctx, orgID, id, name)
	return args.Error(0)
}

func (m *CatalogRepoMock) SoftDeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *CatalogRepoMock) CreateLeague(ctx context.Context, league models.League) error {
	args := m.Called(ctx, league)
	return args.Error(0)
}

func (m *CatalogRepoMock) ListLeagues(ctx context.Context, orgID uuid.UUID) ([]*models.League, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.League), args.Error(1)
}

func (m *CatalogRepoMock) GetLeague(ctx context.Context, orgID, id uuid.UUID) (*models.League, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.League), args.Error(1)
}

func (m *CatalogRepoMock) UpdateLeague(ctx context.Context, orgID, id uuid.UUID, name string) error {
	args := m.Called(ctx, orgID, id, name)
	return args.Error(0)
}

func (m *CatalogRepoMock) SoftDeleteLeague(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *CatalogRepoMock) CreateHelpType(ctx context.Context, ht models.HelpType) error {
	args := m.Called(ctx, ht)
	return args.Error(0)
}

func (m *CatalogRepoMock) ListHelpTypes(ctx context.Context, orgID uuid.UUID) ([]*models.HelpType, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HelpType), args.Error(1)
}

func (m *CatalogRepoMock) UpdateHelpType(ctx context.Context, orgID, id uuid.UUID, name string, behavior models.HelpBehavior) error {
	args := m.Called(ctx, orgID, id, name, behavior)
	return args.Error(0)
}

func (m *CatalogRepoMock) SoftDeleteHelpType(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *CatalogRepoMock) CreateQuestion(ctx context.Context, q models.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *CatalogRepoMock) ListQuestions(ctx context.Context, orgID uuid.UUID, categoryID *uuid.UUID) ([]*models.Question, error) {
	args := m.Called(ctx, orgID, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *CatalogRepoMock) SoftDeleteQuestion(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

type GateMock struct {
	mock.Mock
}

func (m *GateMock) EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error {
	args := m.Called(ctx, rc, feature)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func adminCtx(orgID uuid.UUID) models.RequestContext {
	return models.RequestContext{
		UserID:         uuid.New(),
		OrganizationID: orgID,
		Role:           models.RoleAdmin,
		Language:       "sr",
	}
}

func TestCreateTeam(t *testing.T) {
	orgID := uuid.New()

	t.Run("success", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		svc := NewCatalogService(repo, new(GateMock), newNoopLogger())

		repo.On("CreateTeam", mock.Anything, mock.MatchedBy(func(team models.Team) bool {
			return team.OrganizationID == orgID && team.Name == "Mozgalice"
		})).Return(nil).Once()

		team, err := svc.CreateTeam(context.Background(), adminCtx(orgID), models.CreateTeamRequest{Name: "Mozgalice"})

		require.NoError(t, err)
		assert.Equal(t, "Mozgalice", team.Name)
		repo.AssertExpectations(t)
	})

	t.Run("role below admin", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		svc := NewCatalogService(repo, new(GateMock), newNoopLogger())

		rc := adminCtx(orgID)
		rc.Role = models.RoleUser

		_, err := svc.CreateTeam(context.Background(), rc, models.CreateTeamRequest{Name: "Mozgalice"})

		assert.True(t, apperr.IsAuthorization(err))
		repo.AssertNotCalled(t, "CreateTeam", mock.Anything, mock.Anything)
	})
}

func TestAddTeamAlias(t *testing.T) {
	orgID := uuid.New()
	teamID := uuid.New()
	quizID := uuid.New()

	t.Run("quiz-scoped alias", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		svc := NewCatalogService(repo, new(GateMock), newNoopLogger())

		repo.On("GetTeam", mock.Anything, orgID, teamID).
			Return(&models.Team{ID: teamID}, nil).Once()
		repo.On("AddTeamAlias", mock.Anything, mock.MatchedBy(func(alias models.TeamAlias) bool {
			return alias.TeamID == teamID && alias.QuizID != nil && *alias.QuizID == quizID
		})).Return(nil).Once()

		alias, err := svc.AddTeamAlias(context.Background(), adminCtx(orgID), teamID, models.AddTeamAliasRequest{
			Alias:  "Mozgalice 2",
			QuizID: quizID.String(),
		})

		require.NoError(t, err)
		assert.Equal(t, "Mozgalice 2", alias.Alias)
	})

	t.Run("unknown team", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		svc := NewCatalogService(repo, new(GateMock), newNoopLogger())

		repo.On("GetTeam", mock.Anything, orgID, teamID).Return(nil, apperr.ErrNotFound).Once()

		_, err := svc.AddTeamAlias(context.Background(), adminCtx(orgID), teamID, models.AddTeamAliasRequest{Alias: "X"})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
		repo.AssertNotCalled(t, "AddTeamAlias", mock.Anything, mock.Anything)
	})
}

func TestCreateLeague_FeatureGate(t *testing.T) {
	orgID := uuid.New()

	t.Run("locked on free", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		gate := new(GateMock)
		svc := NewCatalogService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "leagues").
			Return(apperr.Policy(apperr.CodeFeatureLocked, "locked")).Once()

		_, err := svc.CreateLeague(context.Background(), adminCtx(orgID), models.CreateLeagueRequest{Name: "Liga"})

		pv, ok := apperr.AsPolicy(err)
		require.True(t, ok)
		assert.Equal(t, apperr.CodeFeatureLocked, pv.Code)
		repo.AssertNotCalled(t, "CreateLeague", mock.Anything, mock.Anything)
	})

	t.Run("unlocked", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		gate := new(GateMock)
		svc := NewCatalogService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "leagues").Return(nil).Once()
		repo.On("CreateLeague", mock.Anything, mock.Anything).Return(nil).Once()

		league, err := svc.CreateLeague(context.Background(), adminCtx(orgID), models.CreateLeagueRequest{Name: "Liga"})

		require.NoError(t, err)
		assert.Equal(t, "Liga", league.Name)
	})
}

func TestQuestions_FeatureGate(t *testing.T) {
	orgID := uuid.New()

	t.Run("create gated", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		gate := new(GateMock)
		svc := NewCatalogService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "questionBank").
			Return(apperr.Policy(apperr.CodeFeatureLocked, "locked")).Once()

		_, err := svc.CreateQuestion(context.Background(), adminCtx(orgID), models.CreateQuestionRequest{
			Text:   "Glavni grad Srbije?",
			Answer: "Beograd",
		})

		pv, ok := apperr.AsPolicy(err)
		require.True(t, ok)
		assert.Equal(t, apperr.CodeFeatureLocked, pv.Code)
	})

	t.Run("list filtered by category", func(t *testing.T) {
		repo := new(CatalogRepoMock)
		gate := new(GateMock)
		svc := NewCatalogService(repo, gate, newNoopLogger())

		categoryID := uuid.New()
		gate.On("EnforceFeature", mock.Anything, mock.Anything, "questionBank").Return(nil).Once()
		repo.On("ListQuestions", mock.Anything, orgID, &categoryID).
			Return([]*models.Question{{ID: uuid.New(), Text: "Pitanje"}}, nil).Once()

		questions, err := svc.ListQuestions(context.Background(), adminCtx(orgID), &categoryID)

		require.NoError(t, err)
		assert.Len(t, questions, 1)
		repo.AssertExpectations(t)
	})
}
