// Package services содержит проверки прав доступа внутри организации.
package services

import (
	"strings"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/i18n"
	"github.com/quizory/quiz-league/internal/models"
)

// EnsureAtLeast проверяет, что ранг роли актора не ниже требуемого.
func EnsureAtLeast(rc models.RequestContext, required models.Role) error {
	if rc.Role.Rank() < required.Rank() {
		if required == models.RoleOwner {
			return apperr.Unauthorized(i18n.T(rc.Language, "OwnerOnly"))
		}
		return apperr.Unauthorized(i18n.T(rc.Language, "Forbidden"))
	}
	return nil
}

// FeatureMessage подставляет имя функции в сообщение о требуемом плане.
func FeatureMessage(lang, feature string) string {
	return strings.ReplaceAll(i18n.T(lang, "FeatureRequiresPremium"), "{feature}", feature)
}
