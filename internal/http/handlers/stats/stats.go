// Package stats реализует HTTP-обработчики сквозной статистики квизов.
package stats

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/http/middlewarectx"
	"github.com/quizory/quiz-league/internal/http/response"
	"github.com/quizory/quiz-league/internal/models"
)

// Service описывает интерфейс статистики квизов.
type Service interface {
	QuizSummaries(ctx context.Context, rc models.RequestContext, f models.QuizSummaryFilter) (*models.QuizSummaryPage, error)
}

// Handler управляет HTTP-запросами статистики.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// QuizSummaries возвращает страницу сводок квизов. Фильтры по датам
// (RFC3339), лиге и команде задаются параметрами запроса.
func (h *Handler) QuizSummaries(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.QuizSummaries"
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

	var filter models.QuizSummaryFilter
	query := r.URL.Query()

	if raw := query.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid from date"))
			return
		}
		filter.From = &t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid to date"))
			return
		}
		filter.To = &t
	}
	if raw := query.Get("league_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid league id"))
			return
		}
		filter.LeagueID = &id
	}
	if raw := query.Get("team_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid team id"))
			return
		}
		filter.TeamID = &id
	}
	if raw := query.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Page = n
		}
	}
	if raw := query.Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.PageSize = n
		}
	}

	page, err := h.service.QuizSummaries(r.Context(), rc, filter)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(page))
}
