// Package apperr определяет классификацию ошибок бизнес-уровня.
//
// Три категории: ошибка авторизации (роль ниже требуемой или актор не
// состоит в организации), нарушение политики подписки (с машиночитаемым
// кодом причины) и отсутствие сущности в пределах видимости арендатора.
// Обработчики HTTP переводят их в 403, 402 и 404 соответственно; всё
// остальное считается внутренней ошибкой.
package apperr

import "errors"

// ErrNotFound сущность не существует или недоступна арендатору.
var ErrNotFound = errors.New("not found")

// Коды причин нарушения политики подписки.
const (
	CodeFeatureLocked     = "feature_locked"
	CodeQuizLimitReached  = "quiz_monthly_limit_reached"
	CodeMemberLimit       = "member_limit_reached"
	CodeInvalidTransition = "invalid_plan_transition"
	CodeDowngradeMembers  = "downgrade_remove_members_first"
	CodeAdminCapReached   = "admin_cap_reached"
	CodeHelpAlreadyUsed   = "help_already_used"
	CodeScoreLocked       = "score_locked"
)

// AuthorizationError ранг роли актора ниже порога операции.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// Unauthorized создает AuthorizationError с заданным сообщением.
func Unauthorized(msg string) error {
	return &AuthorizationError{Message: msg}
}

// PolicyViolation отказ шлюза подписки, хранит код причины для клиента.
type PolicyViolation struct {
	Code    string
	Message string
}

func (e *PolicyViolation) Error() string { return e.Message }

// Policy создает PolicyViolation с кодом причины и сообщением.
func Policy(code, msg string) error {
	return &PolicyViolation{Code: code, Message: msg}
}

// IsAuthorization сообщает, является ли ошибка ошибкой авторизации.
func IsAuthorization(err error) bool {
	var ae *AuthorizationError
	return errors.As(err, &ae)
}

// AsPolicy извлекает PolicyViolation из цепочки ошибок.
func AsPolicy(err error) (*PolicyViolation, bool) {
	var pv *PolicyViolation
	if errors.As(err, &pv) {
		return pv, true
	}
	return nil, false
}
