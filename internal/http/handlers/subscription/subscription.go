// Package subscription реализует HTTP-обработчики подписки организации:
// статус, запуск пробного периода и переходы между планами.
package subscription

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/quizory/quiz-league/internal/http/middlewarectx"
	"github.com/quizory/quiz-league/internal/http/response"
	"github.com/quizory/quiz-league/internal/models"
)

// Service описывает интерфейс бизнес-логики подписки.
type Service interface {
	Status(ctx context.Context, rc models.RequestContext) (*models.SubscriptionStatus, error)
	StartTrial(ctx context.Context, rc models.RequestContext) (*models.Organization, error)
	ActivatePremium(ctx context.Context, rc models.RequestContext) (*models.Organization, error)
	DowngradeToFree(ctx context.Context, rc models.RequestContext) (*models.Organization, error)
}

// Handler управляет HTTP-запросами подписки.
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

// Status godoc
// @Summary Статус подписки
// @Description Возвращает действующий план, лимиты и флаги функций организации.
// @Tags Subscription
// @Produce json
// @Success 200 {object} models.SubscriptionStatus
// @Router /subscription [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.Status"
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

	status, err := h.service.Status(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(status))
}

// StartTrial запускает четырнадцатидневный пробный период.
func (h *Handler) StartTrial(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.StartTrial"
	h.transition(w, r, op, h.service.StartTrial)
}

// ActivatePremium переводит организацию на premium.
func (h *Handler) ActivatePremium(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.ActivatePremium"
	h.transition(w, r, op, h.service.ActivatePremium)
}

// DowngradeToFree возвращает организацию на бесплатный план.
func (h *Handler) DowngradeToFree(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.DowngradeToFree"
	h.transition(w, r, op, h.service.DowngradeToFree)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string,
	call func(context.Context, models.RequestContext) (*models.Organization, error)) {
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

	org, err := call(r.Context(), rc)
	if err != nil {
		response.RenderError(w, r, log, err)
		return
	}

	log.Info("plan changed", slog.String("plan", string(org.Plan)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plan":          org.Plan,
		"trial_ends_at": org.TrialEndsAt,
	}))
}
