// Package quiz реализует HTTP-обработчики квизов: создание, результаты,
// подсказки и итоговую таблицу.
package quiz

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/http/middlewarectx"
	"github.com/quizory/quiz-league/internal/http/response"
	"github.com/quizory/quiz-league/internal/lib/i18n"
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/models"
)

// Service описывает интерфейс бизнес-логики квизов.
type Service interface {
	Create(ctx context.Context, rc models.RequestContext, req models.CreateQuizRequest) (*models.Quiz, error)
	List(ctx context.Context, rc models.RequestContext) ([]*models.Quiz, error)
	Get(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Quiz, error)
	Scores(ctx context.Context, rc models.RequestContext, quizID uuid.UUID) ([]*models.ScoreEntry, error)
	UpdateScore(ctx context.Context, rc models.RequestContext, quizID uuid.UUID, req models.UpdateScoreRequest) (*models.ScoreEntry, error)
	ApplyHelp(ctx context.Context, rc models.RequestContext, quizID uuid.UUID, req models.ApplyHelpRequest) (*models.HelpUsage, error)
}

// ScoringService описывает интерфейс итоговой таблицы.
type ScoringService interface {
	Ranking(ctx context.Context, rc models.RequestContext, quizID uuid.UUID) ([]models.TeamRank, error)
}

// Handler управляет HTTP-запросами квизов.
type Handler struct {
	log      *slog.Logger
	service  Service
	scoring  ScoringService
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, scoring ScoringService) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		scoring:  scoring,
		validate: validator.New(),
	}
}

// Create godoc
// @Summary Создать квиз
// @Description Создает квиз с командами и категориями; пустые строки результатов порождаются сразу.
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param request body models.CreateQuizRequest true "Данные квиза"
// @Success 200 {object} models.Quiz
// @Failure 402 {object} response.ErrorResponse "Достигнут месячный лимит бесплатного плана"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /quizzes [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.Create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	quiz, err := h.service.Create(r.Context(), rc, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("quiz created", slog.String("quiz_id", quiz.ID.String()))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"quiz":    quiz,
		"message": i18n.T(rc.Language, "QuizCreated"),
	}))
}

// List возвращает квизы организации.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.List"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	quizzes, err := h.service.List(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(quizzes))
}

// Get возвращает квиз по идентификатору.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.Get"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid quiz id"))
		return
	}

	quiz, err := h.service.Get(r.Context(), rc, id)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(quiz))
}

// Scores возвращает все строки результатов квиза.
func (h *Handler) Scores(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.Scores"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid quiz id"))
		return
	}

	scores, err := h.service.Scores(r.Context(), rc, id)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(scores))
}

// UpdateScore изменяет строку результата квиза.
func (h *Handler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.UpdateScore"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid quiz id"))
		return
	}

	var req models.UpdateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	entry, err := h.service.UpdateScore(r.Context(), rc, id, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(entry))
}

// ApplyHelp фиксирует применение подсказки командой в квизе.
func (h *Handler) ApplyHelp(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.ApplyHelp"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid quiz id"))
		return
	}

	var req models.ApplyHelpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	usage, err := h.service.ApplyHelp(r.Context(), rc, id, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(usage))
}

// Ranking возвращает итоговую таблицу квиза.
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.quiz.Ranking"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid quiz id"))
		return
	}

	ranking, err := h.scoring.Ranking(r.Context(), rc, id)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(ranking))
}
