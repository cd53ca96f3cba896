// Package helptype реализует HTTP-обработчики каталога типов подсказок.
package helptype

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

// Service описывает интерфейс бизнес-логики типов подсказок.
type Service interface {
	CreateHelpType(ctx context.Context, rc models.RequestContext, req models.CreateHelpTypeRequest) (*models.HelpType, error)
	ListHelpTypes(ctx context.Context, rc models.RequestContext) ([]*models.HelpType, error)
	UpdateHelpType(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string, behavior models.HelpBehavior) error
	DeleteHelpType(ctx context.Context, rc models.RequestContext, id uuid.UUID) error
}

// Handler управляет HTTP-запросами типов подсказок.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Create создает тип подсказки.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.helptype.Create"
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

	var req models.CreateHelpTypeRequest
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

	ht, err := h.service.CreateHelpType(r.Context(), rc, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(ht))
}

// List возвращает типы подсказок организации.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.helptype.List"
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

	items, err := h.service.ListHelpTypes(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(items))
}

// Update изменяет имя и поведение типа подсказки.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.helptype.Update"
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
		render.JSON(w, r, response.Error("invalid help type id"))
		return
	}

	var req models.CreateHelpTypeRequest
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

	if err := h.service.UpdateHelpType(r.Context(), rc, id, req.Name, models.HelpBehavior(req.Behavior)); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Delete помечает тип подсказки удалённым.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.helptype.Delete"
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
		render.JSON(w, r, response.Error("invalid help type id"))
		return
	}

	if err := h.service.DeleteHelpType(r.Context(), rc, id); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}
