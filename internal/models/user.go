package models

import (
	"github.com/google/uuid"
)

// Role роль участника организации.
type Role string

// Роли в порядке возрастания полномочий: user < admin < owner.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// roleRanks явная таблица рангов ролей. Сравнение всегда идёт через ранги,
// а не через порядок объявления констант.
var roleRanks = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
	RoleOwner: 3,
}

// Rank возвращает числовой ранг роли; неизвестная роль имеет ранг 0.
func (r Role) Rank() int {
	return roleRanks[r]
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                uuid.UUID
	Email             string
	PasswordHash      string
	DisplayName       string
	PreferredLanguage string // "sr" или "en"
	IsEmailVerified   bool
}

// Membership связь пользователя и организации с ролью, уникальна на пару.
type Membership struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           Role
}

// Member участник организации вместе с данными учетной записи.
type Member struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
}

// EmailVerification сообщение очереди уведомлений о подтверждении почты.
type EmailVerification struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
	VerifyURL   string `json:"verify_url"`
}

// RequestContext разрешённый контекст запроса: кто, в какой организации,
// с какой ролью и на каком языке. Передаётся явным параметром во все
// вызовы бизнес-логики.
type RequestContext struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           Role
	Language       string
}
