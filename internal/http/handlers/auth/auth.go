// Package auth реализует HTTP-обработчики регистрации, входа,
// подтверждения почты и смены языка.
//
// Регистрация создает пользователя вместе с его организацией на бесплатном
// плане; вход возвращает JWT и основную организацию пользователя.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/http/middlewarectx"
	"github.com/quizory/quiz-league/internal/http/response"
	authservice "github.com/quizory/quiz-league/internal/services/auth"
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/models"
)

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.Organization, error)
	Login(ctx context.Context, req models.LoginRequest) (string, *models.User, *models.Membership, error)
	VerifyEmail(ctx context.Context, token string) error
	SetLanguage(ctx context.Context, userID uuid.UUID, language string) error
}

// Handler управляет HTTP-запросами аутентификации.
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

// Register godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя, его организацию на бесплатном плане и членство owner.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Данные регистрации"
// @Success 200 {object} map[string]any "Идентификаторы пользователя и организации"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.RegisterRequest
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

	user, org, err := h.service.Register(r.Context(), req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_id":         user.ID,
		"organization_id": org.ID,
	}))
}

// Login проверяет пароль и возвращает JWT вместе с основной организацией.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.LoginRequest
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

	token, user, membership, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			log.Warn("invalid credentials", slog.String("email", req.Email))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))
			return
		}
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":           token,
		"organization_id": membership.OrganizationID,
		"role":            membership.Role,
	}))
}

// Verify подтверждает почту по одноразовому токену из письма.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing token"))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), token); err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("email verified")
	render.JSON(w, r, response.OK())
}

// SetLanguage меняет предпочитаемый язык текущего пользователя.
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.SetLanguage"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rc, ok := middlewarectx.FromContext(r.Context())
	if !ok {
		log.Error("request context missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.SetLanguageRequest
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

	if err := h.service.SetLanguage(r.Context(), rc.UserID, req.Language); err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}
