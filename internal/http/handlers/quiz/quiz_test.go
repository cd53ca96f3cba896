package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizory/quiz-league/internal/http/middlewarectx"
	"github.com/quizory/quiz-league/internal/http/response"
	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, rc models.RequestContext, req models.CreateQuizRequest) (*models.Quiz, error) {
	args := m.Called(ctx, rc, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *ServiceMock) List(ctx context.Context, rc models.RequestContext) ([]*models.Quiz, error) {
	args := m.Called(ctx, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Quiz), args.Error(1)
}

func (m *ServiceMock) Get(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Quiz, error) {
	args := m.Called(ctx, rc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *ServiceMock) Scores(ctx context.Context, rc models.RequestContext, quizID uuid.UUID) ([]*models.ScoreEntry, error) {
	args := m.Called(ctx, rc, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreEntry), args.Error(1)
}

func (m *ServiceMock) UpdateScore(ctx context.Context, rc models.RequestContext, quizID uuid.UUID, req models.UpdateScoreRequest) (*models.ScoreEntry, error) {
	args := m.Called(ctx, rc, quizID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreEntry), args.Error(1)
}

func (m *ServiceMock) ApplyHelp(ctx context.Context, rc models.RequestContext, quizID uuid.UUID, req models.ApplyHelpRequest) (*models.HelpUsage, error) {
	args := m.Called(ctx, rc, quizID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HelpUsage), args.Error(1)
}

type ScoringMock struct {
	mock.Mock
}

func (m *ScoringMock) Ranking(ctx context.Context, rc models.RequestContext, quizID uuid.UUID) ([]models.TeamRank, error) {
	args := m.Called(ctx, rc, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamRank), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func withRequestContext(r *http.Request, rc models.RequestContext) *http.Request {
	ctx := context.WithValue(r.Context(), middlewarectx.RequestCtx, rc)
	return r.WithContext(ctx)
}

func adminCtx(orgID uuid.UUID) models.RequestContext {
	return models.RequestContext{
		UserID:         uuid.New(),
		OrganizationID: orgID,
		Role:           models.RoleAdmin,
		Language:       "en",
	}
}

func TestCreateHandler(t *testing.T) {
	orgID := uuid.New()
	teamID := uuid.New()
	categoryID := uuid.New()

	body := models.CreateQuizRequest{
		Name:        "Pub quiz",
		Date:        "2024-04-01T19:00:00Z",
		TeamIDs:     []string{teamID.String()},
		CategoryIDs: []string{categoryID.String()},
	}

	t.Run("success", func(t *testing.T) {
		svc := new(ServiceMock)
		h := New(newNoopLogger(), svc, new(ScoringMock))

		created := &models.Quiz{ID: uuid.New(), OrganizationID: orgID, Name: "Pub quiz", Status: models.QuizDraft}
		svc.On("Create", mock.Anything, mock.Anything, body).Return(created, nil).Once()

		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes", bytes.NewReader(raw))
		req = withRequestContext(req, adminCtx(orgID))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp response.Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusOK, resp.Status)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "Quiz created successfully.", data["message"])
		svc.AssertExpectations(t)
	})

	t.Run("quiz limit gives 402 with code", func(t *testing.T) {
		svc := new(ServiceMock)
		h := New(newNoopLogger(), svc, new(ScoringMock))

		svc.On("Create", mock.Anything, mock.Anything, body).
			Return(nil, apperr.Policy(apperr.CodeQuizLimitReached, "Free plan monthly quiz limit reached.")).Once()

		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes", bytes.NewReader(raw))
		req = withRequestContext(req, adminCtx(orgID))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusPaymentRequired, rr.Code)

		var resp response.Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, response.StatusError, resp.Status)
		assert.Equal(t, apperr.CodeQuizLimitReached, resp.Code)
	})

	t.Run("authorization error gives 403", func(t *testing.T) {
		svc := new(ServiceMock)
		h := New(newNoopLogger(), svc, new(ScoringMock))

		svc.On("Create", mock.Anything, mock.Anything, body).
			Return(nil, apperr.Unauthorized("forbidden")).Once()

		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes", bytes.NewReader(raw))
		req = withRequestContext(req, adminCtx(orgID))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		svc := new(ServiceMock)
		h := New(newNoopLogger(), svc, new(ScoringMock))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes", bytes.NewReader([]byte(`{"name":"Pub quiz"}`)))
		req = withRequestContext(req, adminCtx(orgID))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no request context gives 401", func(t *testing.T) {
		svc := new(ServiceMock)
		h := New(newNoopLogger(), svc, new(ScoringMock))

		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes", bytes.NewReader(raw))
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRankingHandler(t *testing.T) {
	orgID := uuid.New()
	quizID := uuid.New()
	teamID := uuid.New()

	t.Run("success", func(t *testing.T) {
		scoring := new(ScoringMock)
		h := New(newNoopLogger(), new(ServiceMock), scoring)

		scoring.On("Ranking", mock.Anything, mock.Anything, quizID).
			Return([]models.TeamRank{{TeamID: teamID, TeamName: "Alfa", Rank: 1, Points: 34}}, nil).Once()

		r := chi.NewRouter()
		r.Get("/quizzes/{id}/ranking", h.Ranking)

		req := httptest.NewRequest(http.MethodGet, "/quizzes/"+quizID.String()+"/ranking", nil)
		req = withRequestContext(req, adminCtx(orgID))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Alfa")
		scoring.AssertExpectations(t)
	})

	t.Run("unknown quiz gives 404", func(t *testing.T) {
		scoring := new(ScoringMock)
		h := New(newNoopLogger(), new(ServiceMock), scoring)

		scoring.On("Ranking", mock.Anything, mock.Anything, quizID).
			Return(nil, apperr.ErrNotFound).Once()

		r := chi.NewRouter()
		r.Get("/quizzes/{id}/ranking", h.Ranking)

		req := httptest.NewRequest(http.MethodGet, "/quizzes/"+quizID.String()+"/ranking", nil)
		req = withRequestContext(req, adminCtx(orgID))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed quiz id gives 400", func(t *testing.T) {
		h := New(newNoopLogger(), new(ServiceMock), new(ScoringMock))

		r := chi.NewRouter()
		r.Get("/quizzes/{id}/ranking", h.Ranking)

		req := httptest.NewRequest(http.MethodGet, "/quizzes/not-a-uuid/ranking", nil)
		req = withRequestContext(req, adminCtx(orgID))
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
