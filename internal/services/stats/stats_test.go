package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

type StatsRepoMock struct {
	mock.Mock
}

func (m *StatsRepoMock) ListQuizzesByLeague(ctx context.Context, orgID, leagueID uuid.UUID) ([]*models.Quiz, error) {
	args := m.Called(ctx, orgID, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Quiz), args.Error(1)
}

func (m *StatsRepoMock) ListQuizzesForTeam(ctx context.Context, orgID, teamID uuid.UUID, leagueID *uuid.UUID, limit int) ([]*models.Quiz, error) {
	args := m.Called(ctx, orgID, teamID, leagueID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Quiz), args.Error(1)
}

func (m *StatsRepoMock) ListQuizTeamIDs(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, orgID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *StatsRepoMock) ListScoreEntries(ctx context.Context, orgID, quizID uuid.UUID) ([]*models.ScoreEntry, error) {
	args := m.Called(ctx, orgID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreEntry), args.Error(1)
}

func (m *StatsRepoMock) ListDoubleScoreTeams(ctx context.Context, orgID, quizID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, orgID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *StatsRepoMock) GetTeamNames(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, orgID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *StatsRepoMock) ListQuizzesFiltered(ctx context.Context, orgID uuid.UUID, f models.QuizSummaryFilter) ([]*models.Quiz, int, error) {
	args := m.Called(ctx, orgID, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Quiz), args.Int(1), args.Error(2)
}

func (m *StatsRepoMock) ListTeamCategoryAverages(ctx context.Context, orgID, teamID uuid.UUID) ([]models.CategoryAverage, error) {
	args := m.Called(ctx, orgID, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryAverage), args.Error(1)
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

func userCtx(orgID uuid.UUID) models.RequestContext {
	return models.RequestContext{
		UserID:         uuid.New(),
		OrganizationID: orgID,
		Role:           models.RoleUser,
		Language:       "sr",
	}
}

func stubQuizScores(repo *StatsRepoMock, orgID, quizID uuid.UUID, teams []uuid.UUID, entries []*models.ScoreEntry, doubled []uuid.UUID) {
	repo.On("ListQuizTeamIDs", mock.Anything, orgID, quizID).Return(teams, nil).Once()
	repo.On("ListScoreEntries", mock.Anything, orgID, quizID).Return(entries, nil).Once()
	repo.On("ListDoubleScoreTeams", mock.Anything, orgID, quizID).Return(doubled, nil).Once()
}

func TestLeagueStandings(t *testing.T) {
	orgID := uuid.New()
	leagueID := uuid.New()
	teamA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	teamB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	quiz1 := uuid.New()
	quiz2 := uuid.New()
	cat := uuid.New()

	t.Run("sums points across league quizzes", func(t *testing.T) {
		repo := new(StatsRepoMock)
		gate := new(GateMock)
		svc := NewStatsService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "leagues").Return(nil).Once()
		repo.On("ListQuizzesByLeague", mock.Anything, orgID, leagueID).
			Return([]*models.Quiz{{ID: quiz1}, {ID: quiz2}}, nil).Once()

		// квиз 1: A=10 с удвоением (20), B=15
		stubQuizScores(repo, orgID, quiz1, []uuid.UUID{teamA, teamB}, []*models.ScoreEntry{
			{TeamID: teamA, CategoryID: cat, Points: 10},
			{TeamID: teamB, CategoryID: cat, Points: 15},
		}, []uuid.UUID{teamA})
		// квиз 2: A=5, B=8
		stubQuizScores(repo, orgID, quiz2, []uuid.UUID{teamA, teamB}, []*models.ScoreEntry{
			{TeamID: teamA, CategoryID: cat, Points: 5},
			{TeamID: teamB, CategoryID: cat, Points: 8},
		}, nil)

		repo.On("GetTeamNames", mock.Anything, orgID, mock.Anything).
			Return(map[uuid.UUID]string{teamA: "Alfa", teamB: "Beta"}, nil).Once()

		standings, err := svc.LeagueStandings(context.Background(), userCtx(orgID), leagueID)

		require.NoError(t, err)
		require.Len(t, standings, 2)
		assert.Equal(t, teamA, standings[0].TeamID)
		assert.Equal(t, 25, standings[0].Points)
		assert.Equal(t, 1, standings[0].Rank)
		assert.Equal(t, "Alfa", standings[0].TeamName)
		assert.Equal(t, teamB, standings[1].TeamID)
		assert.Equal(t, 23, standings[1].Points)
	})

	t.Run("feature locked on free plan", func(t *testing.T) {
		repo := new(StatsRepoMock)
		gate := new(GateMock)
		svc := NewStatsService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "leagues").
			Return(apperr.Policy(apperr.CodeFeatureLocked, "locked")).Once()

		_, err := svc.LeagueStandings(context.Background(), userCtx(orgID), leagueID)

		pv, ok := apperr.AsPolicy(err)
		require.True(t, ok)
		assert.Equal(t, apperr.CodeFeatureLocked, pv.Code)
		repo.AssertNotCalled(t, "ListQuizzesByLeague", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty league", func(t *testing.T) {
		repo := new(StatsRepoMock)
		gate := new(GateMock)
		svc := NewStatsService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "leagues").Return(nil).Once()
		repo.On("ListQuizzesByLeague", mock.Anything, orgID, leagueID).
			Return([]*models.Quiz{}, nil).Once()
		repo.On("GetTeamNames", mock.Anything, orgID, mock.Anything).
			Return(map[uuid.UUID]string{}, nil).Once()

		standings, err := svc.LeagueStandings(context.Background(), userCtx(orgID), leagueID)

		require.NoError(t, err)
		assert.Empty(t, standings)
	})
}

func TestTeamHistory(t *testing.T) {
	orgID := uuid.New()
	teamA := uuid.New()
	teamB := uuid.New()
	quiz1 := uuid.New()
	cat := uuid.New()
	date := time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC)

	repo := new(StatsRepoMock)
	svc := NewStatsService(repo, new(GateMock), newNoopLogger())

	repo.On("ListQuizzesForTeam", mock.Anything, orgID, teamA, (*uuid.UUID)(nil), 10).
		Return([]*models.Quiz{{ID: quiz1, Name: "Prolećni kviz", Date: date}}, nil).Once()
	stubQuizScores(repo, orgID, quiz1, []uuid.UUID{teamA, teamB}, []*models.ScoreEntry{
		{TeamID: teamA, CategoryID: cat, Points: 7},
		{TeamID: teamB, CategoryID: cat, Points: 11},
	}, nil)

	history, err := svc.TeamHistory(context.Background(), userCtx(orgID), teamA, nil, 10)

	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, quiz1, history[0].QuizID)
	assert.Equal(t, "Prolećni kviz", history[0].QuizName)
	assert.Equal(t, 7, history[0].Points)
	assert.Equal(t, 2, history[0].Rank)
}

func TestQuizSummaries(t *testing.T) {
	orgID := uuid.New()
	teamA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	teamB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	quiz1 := uuid.New()
	cat1 := uuid.New()
	cat2 := uuid.New()
	date := time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC)

	t.Run("winner and counts", func(t *testing.T) {
		repo := new(StatsRepoMock)
		svc := NewStatsService(repo, new(GateMock), newNoopLogger())

		wantFilter := models.QuizSummaryFilter{Page: 1, PageSize: 20}
		repo.On("ListQuizzesFiltered", mock.Anything, orgID, wantFilter).
			Return([]*models.Quiz{{ID: quiz1, Name: "Prolećni kviz", Date: date, Status: models.QuizFinished}}, 1, nil).Once()
		// A=10 с удвоением (20), B=15; две категории
		stubQuizScores(repo, orgID, quiz1, []uuid.UUID{teamA, teamB}, []*models.ScoreEntry{
			{TeamID: teamA, CategoryID: cat1, Points: 10},
			{TeamID: teamB, CategoryID: cat1, Points: 9},
			{TeamID: teamB, CategoryID: cat2, Points: 6},
		}, []uuid.UUID{teamA})
		repo.On("GetTeamNames", mock.Anything, orgID, []uuid.UUID{teamA}).
			Return(map[uuid.UUID]string{teamA: "Alfa"}, nil).Once()

		page, err := svc.QuizSummaries(context.Background(), userCtx(orgID), models.QuizSummaryFilter{})

		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		require.Len(t, page.Items, 1)
		summary := page.Items[0]
		assert.Equal(t, "Prolećni kviz", summary.Name)
		assert.Equal(t, 2, summary.TeamCount)
		assert.Equal(t, 2, summary.CategoryCount)
		require.NotNil(t, summary.WinnerTeamID)
		assert.Equal(t, teamA, *summary.WinnerTeamID)
		assert.Equal(t, "Alfa", summary.WinnerTeamName)
		assert.Equal(t, 20, summary.WinnerPoints)
	})

	t.Run("quiz without entries has no winner", func(t *testing.T) {
		repo := new(StatsRepoMock)
		svc := NewStatsService(repo, new(GateMock), newNoopLogger())

		repo.On("ListQuizzesFiltered", mock.Anything, orgID, mock.Anything).
			Return([]*models.Quiz{{ID: quiz1, Name: "Prazan kviz", Date: date}}, 1, nil).Once()
		stubQuizScores(repo, orgID, quiz1, []uuid.UUID{teamA}, nil, nil)

		page, err := svc.QuizSummaries(context.Background(), userCtx(orgID), models.QuizSummaryFilter{})

		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Nil(t, page.Items[0].WinnerTeamID)
		assert.Equal(t, 1, page.Items[0].TeamCount)
		assert.Equal(t, 0, page.Items[0].CategoryCount)
		repo.AssertNotCalled(t, "GetTeamNames", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("page size capped", func(t *testing.T) {
		repo := new(StatsRepoMock)
		svc := NewStatsService(repo, new(GateMock), newNoopLogger())

		wantFilter := models.QuizSummaryFilter{Page: 1, PageSize: 100}
		repo.On("ListQuizzesFiltered", mock.Anything, orgID, wantFilter).
			Return([]*models.Quiz{}, 0, nil).Once()

		page, err := svc.QuizSummaries(context.Background(), userCtx(orgID), models.QuizSummaryFilter{Page: 1, PageSize: 500})

		require.NoError(t, err)
		assert.Equal(t, 100, page.PageSize)
		repo.AssertExpectations(t)
	})
}

func TestCategoryAverages(t *testing.T) {
	orgID := uuid.New()
	teamID := uuid.New()
	categoryID := uuid.New()

	repo := new(StatsRepoMock)
	svc := NewStatsService(repo, new(GateMock), newNoopLogger())

	repo.On("ListTeamCategoryAverages", mock.Anything, orgID, teamID).
		Return([]models.CategoryAverage{
			{CategoryID: categoryID, CategoryName: "Istorija", AveragePoints: 7.5, Quizzes: 4},
		}, nil).Once()

	averages, err := svc.CategoryAverages(context.Background(), userCtx(orgID), teamID)

	require.NoError(t, err)
	require.Len(t, averages, 1)
	assert.Equal(t, "Istorija", averages[0].CategoryName)
	assert.InDelta(t, 7.5, averages[0].AveragePoints, 0.001)
}
