// Package organization реализует HTTP-обработчики организации
// и её участников.
package organization

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

// Service описывает интерфейс бизнес-логики организации.
type Service interface {
	Get(ctx context.Context, rc models.RequestContext) (*models.Organization, error)
	Update(ctx context.Context, rc models.RequestContext, req models.UpdateOrganizationRequest) error
	ListMembers(ctx context.Context, rc models.RequestContext) ([]*models.Member, error)
	InviteMember(ctx context.Context, rc models.RequestContext, req models.InviteMemberRequest) (*models.Membership, error)
	ChangeRole(ctx context.Context, rc models.RequestContext, userID uuid.UUID, req models.ChangeRoleRequest) error
	RemoveMember(ctx context.Context, rc models.RequestContext, userID uuid.UUID) error
}

// Handler управляет HTTP-запросами организации.
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

// Get возвращает организацию текущего контекста.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.Get"
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

	org, err := h.service.Get(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":            org.ID,
		"name":          org.Name,
		"plan":          org.Plan,
		"trial_ends_at": org.TrialEndsAt,
		"primary_color": org.PrimaryColor,
	}))
}

// Update меняет имя и фирменный цвет организации.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.Update"
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

	var req models.UpdateOrganizationRequest
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

	if err := h.service.Update(r.Context(), rc, req); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// ListMembers возвращает участников организации.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.ListMembers"
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

	members, err := h.service.ListMembers(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(members))
}

// InviteMember godoc
// @Summary Пригласить участника
// @Description Добавляет существующего пользователя в организацию с заданной ролью.
// @Tags Organization
// @Accept json
// @Produce json
// @Param request body models.InviteMemberRequest true "Почта и роль"
// @Success 200 {object} map[string]any
// @Failure 402 {object} response.ErrorResponse "Лимит участников или функция закрыта"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /organization/members [post]
func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.InviteMember"
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

	var req models.InviteMemberRequest
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

	membership, err := h.service.InviteMember(r.Context(), rc, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("member invited", slog.String("user_id", membership.UserID.String()))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_id": membership.UserID,
		"role":    membership.Role,
	}))
}

// ChangeRole меняет роль участника организации.
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.ChangeRole"
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

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	var req models.ChangeRoleRequest
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

	if err := h.service.ChangeRole(r.Context(), rc, userID, req); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

// RemoveMember исключает участника из организации.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.organization.RemoveMember"
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

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	if err := h.service.RemoveMember(r.Context(), rc, userID); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}
