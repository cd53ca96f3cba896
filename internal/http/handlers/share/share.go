// Package share реализует HTTP-обработчики публичных ссылок: выпуск
// токена и открытую таблицу результатов без аутентификации.
package share

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/quizory/quiz-league/internal/http/middlewarectx"
	"github.com/quizory/quiz-league/internal/http/response"
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/models"
)

// Service описывает интерфейс бизнес-логики публичных ссылок.
type Service interface {
	CreateToken(ctx context.Context, rc models.RequestContext, req models.CreateShareTokenRequest) (*models.PublicShareToken, string, error)
	Leaderboard(ctx context.Context, tokenValue string) (*models.PublicLeaderboard, error)
}

// Handler управляет HTTP-запросами публичных ссылок.
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

// CreateToken выпускает публичный токен доступа к таблице квиза.
func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.CreateToken"
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

	var req models.CreateShareTokenRequest
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

	token, url, err := h.service.CreateToken(r.Context(), rc, req)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token":      token.Token,
		"url":        url,
		"expires_at": token.ExpiresAt,
	}))
}

// Leaderboard отдает публичную таблицу результатов по токену.
// Конечная точка не требует аутентификации.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.Leaderboard"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := chi.URLParam(r, "token")
	if token == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing token"))
		return
	}

	board, err := h.service.Leaderboard(r.Context(), token)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(board))
}
