// Package category реализует HTTP-обработчики категорий вопросов.
package category

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

// Service описывает интерфейс бизнес-логики категорий.
type Service interface {
	CreateCategory(ctx context.Context, rc models.RequestContext, req models.CreateCategoryRequest) (*models.Category, error)
	ListCategories(ctx context.Context, rc models.RequestContext) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string) error
	DeleteCategory(ctx context.Context, rc models.RequestContext, id uuid.UUID) error
}

// Handler управляет HTTP-запросами категорий.
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

// Create создает категорию.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.category.Create"
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

	var req models.CreateCategoryRequest
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

	category, err := h.service.CreateCategory(r.Context(), rc, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(category))
}

// List возвращает категории организации.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.category.List"
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

	categories, err := h.service.ListCategories(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(categories))
}

// Update переименовывает категорию.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.category.Update"
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
		render.JSON(w, r, response.Error("invalid category id"))
		return
	}

	var req models.CreateCategoryRequest
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

	if err := h.service.UpdateCategory(r.Context(), rc, id, req.Name); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// Delete помечает категорию удалённой.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.category.Delete"
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
		render.JSON(w, r, response.Error("invalid category id"))
		return
	}

	if err := h.service.DeleteCategory(r.Context(), rc, id); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}
