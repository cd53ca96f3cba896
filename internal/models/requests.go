package models

// Структуры для приёма данных из JSON-запросов. Даты приходят строками
// в формате RFC3339, чтобы их можно было валидировать и парсить вручную.

// RegisterRequest данные регистрации: пользователь плюс новая организация.
type RegisterRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8"`
	DisplayName      string `json:"display_name"`
	OrganizationName string `json:"organization_name"`
}

// LoginRequest данные входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateTeamRequest создание команды.
type CreateTeamRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddTeamAliasRequest добавление альтернативного имени команды.
type AddTeamAliasRequest struct {
	Alias  string `json:"alias" validate:"required"`
	QuizID string `json:"quiz_id,omitempty" validate:"omitempty,uuid"`
}

// CreateCategoryRequest создание категории.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateLeagueRequest создание лиги.
type CreateLeagueRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateHelpTypeRequest создание типа подсказки.
type CreateHelpTypeRequest struct {
	Name     string `json:"name" validate:"required"`
	Behavior string `json:"behavior" validate:"required,oneof=double_score marker_only"`
}

// CreateQuestionRequest добавление вопроса в банк.
type CreateQuestionRequest struct {
	CategoryID string `json:"category_id,omitempty" validate:"omitempty,uuid"`
	Text       string `json:"text" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

// CreateQuizRequest создание квиза: декартово произведение команд и
// категорий порождает пустые строки результатов.
type CreateQuizRequest struct {
	Name        string   `json:"name" validate:"required"`
	Date        string   `json:"date" validate:"required"`
	Location    string   `json:"location"`
	LeagueID    string   `json:"league_id,omitempty" validate:"omitempty,uuid"`
	TeamIDs     []string `json:"team_ids" validate:"required,min=1,dive,uuid"`
	CategoryIDs []string `json:"category_ids" validate:"required,min=1,dive,uuid"`
}

// UpdateScoreRequest изменение строки результата.
type UpdateScoreRequest struct {
	TeamID      string `json:"team_id" validate:"required,uuid"`
	CategoryID  string `json:"category_id" validate:"required,uuid"`
	Points      int    `json:"points"`
	BonusPoints int    `json:"bonus_points"`
	Notes       string `json:"notes"`
	IsLocked    bool   `json:"is_locked"`
}

// ApplyHelpRequest применение подсказки командой.
type ApplyHelpRequest struct {
	TeamID     string `json:"team_id" validate:"required,uuid"`
	HelpTypeID string `json:"help_type_id" validate:"required,uuid"`
}

// InviteMemberRequest приглашение участника в организацию.
type InviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=user admin owner"`
}

// ChangeRoleRequest смена роли участника.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin owner"`
}

// UpdateOrganizationRequest изменение данных организации.
type UpdateOrganizationRequest struct {
	Name         string `json:"name" validate:"required"`
	PrimaryColor string `json:"primary_color"`
}

// SetLanguageRequest смена предпочитаемого языка пользователя.
type SetLanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=sr en"`
}

// CreateShareTokenRequest выпуск публичной ссылки на таблицу результатов.
type CreateShareTokenRequest struct {
	QuizID    string `json:"quiz_id" validate:"required,uuid"`
	ExpiresAt string `json:"expires_at,omitempty"`
}
