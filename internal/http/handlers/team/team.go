// Package team реализует HTTP-обработчики команд: CRUD, альтернативные
// имена и история выступлений.
package team

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

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

const defaultHistoryLimit = 10

// Service описывает интерфейс бизнес-логики команд.
type Service interface {
	CreateTeam(ctx context.Context, rc models.RequestContext, req models.CreateTeamRequest) (*models.Team, error)
	ListTeams(ctx context.Context, rc models.RequestContext) ([]*models.Team, error)
	GetTeam(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Team, error)
	UpdateTeam(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string) error
	DeleteTeam(ctx context.Context, rc models.RequestContext, id uuid.UUID) error
	AddTeamAlias(ctx context.Context, rc models.RequestContext, teamID uuid.UUID, req models.AddTeamAliasRequest) (*models.TeamAlias, error)
}

// StatsService описывает интерфейс статистики команды.
type StatsService interface {
	TeamHistory(ctx context.Context, rc models.RequestContext, teamID uuid.UUID, leagueID *uuid.UUID, limit int) ([]models.TeamQuizResult, error)
	CategoryAverages(ctx context.Context, rc models.RequestContext, teamID uuid.UUID) ([]models.CategoryAverage, error)
}

// Handler управляет HTTP-запросами команд.
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

// Create создает команду.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.Create"
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

	var req models.CreateTeamRequest
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

	team, err := h.service.CreateTeam(r.Context(), rc, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(team))
}

// List возвращает команды организации.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.List"
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

	teams, err := h.service.ListTeams(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(teams))
}

// Get возвращает команду по идентификатору.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.Get"
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
		render.JSON(w, r, response.Error("invalid team id"))
		return
	}

	team, err := h.service.GetTeam(r.Context(), rc, id)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(team))
}

// Update переименовывает команду.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.Update"
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
		render.JSON(w, r, response.Error("invalid team id"))
		return
	}

	var req models.CreateTeamRequest
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

	if err := h.service.UpdateTeam(r.Context(), rc, id, req.Name); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Delete помечает команду удалённой.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.Delete"
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
		render.JSON(w, r, response.Error("invalid team id"))
		return
	}

	if err := h.service.DeleteTeam(r.Context(), rc, id); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// AddAlias добавляет альтернативное имя команды.
func (h *Handler) AddAlias(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.AddAlias"
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

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid team id"))
		return
	}

	var req models.AddTeamAliasRequest
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

	alias, err := h.service.AddTeamAlias(r.Context(), rc, teamID, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(alias))
}

// History возвращает итоги последних квизов команды. Лигу и размер
// выборки можно задать параметрами запроса.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.History"
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

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid team id"))
		return
	}

	var leagueID *uuid.UUID
	if raw := r.URL.Query().Get("league_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid league id"))
			return
		}
		leagueID = &id
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := h.stats.TeamHistory(r.Context(), rc, teamID, leagueID, limit)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(history))
}

// CategoryAverages возвращает средний результат команды по категориям.
func (h *Handler) CategoryAverages(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.team.CategoryAverages"
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

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid team id"))
		return
	}

	averages, err := h.stats.CategoryAverages(r.Context(), rc, teamID)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(averages))
}
