// Package middlewarectx содержит HTTP middleware для обработки и проверки
// JWT токенов и разрешения организации запроса.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке
// Authorization, находит членство пользователя в организации (заголовок
// X-Organization-Id либо основное членство) и кладет готовый контекст
// запроса для дальнейшего использования в обработчиках.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/http/response"
	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/jwt"
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// RequestCtx — ключ для разрешенного контекста запроса.
const RequestCtx Key = "request_context"

// Service описывает интерфейс сервиса аутентификации.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
	ResolveContext(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID, language string) (models.RequestContext, error)
}

// FromContext извлекает контекст запроса, положенный JWTMiddleware.
func FromContext(ctx context.Context) (models.RequestContext, bool) {
	rc, ok := ctx.Value(RequestCtx).(models.RequestContext)
	return rc, ok
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в
// заголовке Authorization и разрешает организацию запроса.
//
// Невалидный токен дает 401; токен без членства в запрошенной
// организации — 403.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			authHeader := r.Header.Get("Authorization")

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := authService.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				log.Error("malformed user id in token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			var orgID *uuid.UUID
			if header := r.Header.Get("X-Organization-Id"); header != "" {
				id, err := uuid.Parse(header)
				if err != nil {
					log.Error("malformed organization header", sl.Err(err))
					render.Status(r, http.StatusBadRequest)
					render.JSON(w, r, response.Error("invalid organization id"))
					return
				}
				orgID = &id
			}

			rc, err := authService.ResolveContext(r.Context(), userID, orgID, claims.Language)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					log.Error("no membership for requested organization")
					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, response.Error("no membership for requested organization"))
					return
				}
				log.Error("failed to resolve request context", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}

			ctx := context.WithValue(r.Context(), RequestCtx, rc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
