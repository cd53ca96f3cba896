// Package league реализует HTTP-обработчики лиг и сквозного зачёта.
// Лиги доступны только на планах trial и premium.
package league

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
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/models"
)

// Service описывает интерфейс бизнес-логики лиг.
type Service interface {
	CreateLeague(ctx context.Context, rc models.RequestContext, req models.CreateLeagueRequest) (*models.League, error)
	ListLeagues(ctx context.Context, rc models.RequestContext) ([]*models.League, error)
	GetLeague(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.League, error)
	UpdateLeague(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string) error
	DeleteLeague(ctx context.Context, rc models.RequestContext, id uuid.UUID) error
}

// StatsService описывает интерфейс сквозного зачёта лиги.
type StatsService interface {
	LeagueStandings(ctx context.Context, rc models.RequestContext, leagueID uuid.UUID) ([]models.TeamRank, error)
}

// Handler управляет HTTP-запросами лиг.
type Handler struct {
	log      *slog.Logger
	service  Service
	stats    StatsService
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, stats StatsService) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		stats:    stats,
		validate: validator.New(),
	}
}

// Create создает лигу.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.league.Create"
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

	var req models.CreateLeagueRequest
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

	league, err := h.service.CreateLeague(r.Context(), rc, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(league))
}

// List возвращает лиги организации.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.league.List"
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

	leagues, err := h.service.ListLeagues(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(leagues))
}

// Get возвращает лигу по идентификатору.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.league.Get"
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
		render.JSON(w, r, response.Error("invalid league id"))
		return
	}

	league, err := h.service.GetLeague(r.Context(), rc, id)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(league))
}

// Update переименовывает лигу.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.league.Update"
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
		render.JSON(w, r, response.Error("invalid league id"))
		return
	}

	var req models.CreateLeagueRequest
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

	if err := h.service.UpdateLeague(r.Context(), rc, id, req.Name); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Delete помечает лигу удалённой.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.league.Delete"
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
		render.JSON(w, r, response.Error("invalid league id"))
		return
	}

	if err := h.service.DeleteLeague(r.Context(), rc, id); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Standings godoc
// @Summary Сквозной зачёт лиги
// @Description Возвращает таблицу лиги: сумма очков команд по всем квизам лиги, не больше двадцати строк.
// @Tags Leagues
// @Produce json
// @Success 200 {array} models.TeamRank
// @Failure 402 {object} response.ErrorResponse "Лиги недоступны на бесплатном плане"
// @Router /leagues/{id}/standings [get]
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.league.Standings"
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
		render.JSON(w, r, response.Error("invalid league id"))
		return
	}

	standings, err := h.stats.LeagueStandings(r.Context(), rc, id)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(standings))
}
