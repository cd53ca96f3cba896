package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/sl"
)

// RenderError переводит ошибку бизнес-уровня в HTTP-ответ: отказ
// авторизации — 403, нарушение политики подписки — 402 с кодом причины,
// отсутствие сущности — 404, всё остальное — 500.
func RenderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if apperr.IsAuthorization(err) {
		log.Warn("authorization denied", sl.Err(err))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, Error(err.Error()))
		return
	}
	if pv, ok := apperr.AsPolicy(err); ok {
		log.Warn("subscription policy violation", slog.String("code", pv.Code))
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, PolicyError(pv.Code, pv.Message))
		return
	}
	if errors.Is(err, apperr.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Error("not found"))
		return
	}
	log.Error("internal error", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, Error("internal error"))
}
