package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizStatus статус квиза.
type QuizStatus string

// Статусы жизненного цикла квиза.
const (
	QuizDraft    QuizStatus = "draft"
	QuizLive     QuizStatus = "live"
	QuizFinished QuizStatus = "finished"
)

// HelpBehavior эффект типа подсказки.
type HelpBehavior string

const (
	// HelpDoubleScore удваивает итоговую сумму команды за квиз, ровно один раз.
	HelpDoubleScore HelpBehavior = "double_score"
	// HelpMarkerOnly только отметка, на подсчёт очков не влияет.
	HelpMarkerOnly HelpBehavior = "marker_only"
)

// Team команда организации.
type Team struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// TeamAlias альтернативное имя команды, опционально в рамках одного квиза.
type TeamAlias struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	TeamID         uuid.UUID  `json:"team_id"`
	QuizID         *uuid.UUID `json:"quiz_id,omitempty"`
	Alias          string     `json:"alias"`
}

// Category категория вопросов.
type Category struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
}

// League лига, объединяющая квизы для сквозного зачёта.
type League struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
}

// Quiz один квиз-вечер.
type Quiz struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Date           time.Time  `json:"date"`
	Location       string     `json:"location"`
	Status         QuizStatus `json:"status"`
	LeagueID       *uuid.UUID `json:"league_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Question вопрос из банка вопросов организации.
type Question struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	Text           string     `json:"text"`
	Answer         string     `json:"answer"`
}

// HelpType тип подсказки из каталога организации.
type HelpType struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	Name           string       `json:"name"`
	Behavior       HelpBehavior `json:"behavior"`
}

// HelpUsage факт применения подсказки командой в квизе.
// Уникальна на (организация, квиз, команда, тип подсказки), только вставка.
type HelpUsage struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	TeamID         uuid.UUID `json:"team_id"`
	HelpTypeID     uuid.UUID `json:"help_type_id"`
}

// ScoreEntry строка результата: одна на (квиз, команда, категория).
// После установки IsLocked мутация запрещена.
type ScoreEntry struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	TeamID         uuid.UUID `json:"team_id"`
	CategoryID     uuid.UUID `json:"category_id"`
	Points         int       `json:"points"`
	BonusPoints    int       `json:"bonus_points"`
	Notes          string    `json:"notes"`
	IsLocked       bool      `json:"is_locked"`
}

// TeamRank позиция команды в итоговой таблице.
type TeamRank struct {
	TeamID   uuid.UUID `json:"team_id"`
	TeamName string    `json:"team_name,omitempty"`
	Rank     int       `json:"rank"`
	Points   int       `json:"points"`
}

// TeamQuizResult итог одного квиза для команды в её истории выступлений.
type TeamQuizResult struct {
	QuizID   uuid.UUID `json:"quiz_id"`
	QuizName string    `json:"quiz_name"`
	Date     time.Time `json:"date"`
	Points   int       `json:"points"`
	Rank     int       `json:"rank"`
}

// QuizSummaryFilter фильтры и пагинация выборки сводок квизов.
type QuizSummaryFilter struct {
	From     *time.Time
	To       *time.Time
	LeagueID *uuid.UUID
	TeamID   *uuid.UUID
	Page     int
	PageSize int
}

// QuizSummary сводка одного квиза: победитель и размеры.
type QuizSummary struct {
	QuizID         uuid.UUID  `json:"quiz_id"`
	Name           string     `json:"name"`
	Date           time.Time  `json:"date"`
	Location       string     `json:"location"`
	Status         QuizStatus `json:"status"`
	TeamCount      int        `json:"team_count"`
	CategoryCount  int        `json:"category_count"`
	WinnerTeamID   *uuid.UUID `json:"winner_team_id,omitempty"`
	WinnerTeamName string     `json:"winner_team_name,omitempty"`
	WinnerPoints   int        `json:"winner_points"`
}

// QuizSummaryPage страница сводок с общим числом строк выборки.
type QuizSummaryPage struct {
	Items    []QuizSummary `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// CategoryAverage средний результат команды по одной категории.
type CategoryAverage struct {
	CategoryID    uuid.UUID `json:"category_id"`
	CategoryName  string    `json:"category_name"`
	AveragePoints float64   `json:"average_points"`
	Quizzes       int       `json:"quizzes"`
}

// PublicLeaderboard публичная таблица результатов квиза по токену доступа.
type PublicLeaderboard struct {
	QuizName     string     `json:"quiz_name"`
	QuizDate     time.Time  `json:"quiz_date"`
	PrimaryColor string     `json:"primary_color,omitempty"`
	Ranking      []TeamRank `json:"ranking"`
}

// PublicShareToken токен публичного доступа к таблице результатов квиза.
type PublicShareToken struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	QuizID         uuid.UUID
	Token          string
	ExpiresAt      *time.Time
}

// TrialReminder сообщение очереди уведомлений об истекающем пробном периоде.
type TrialReminder struct {
	OrganizationID   uuid.UUID `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	OwnerEmail       string    `json:"owner_email"`
	OwnerName        string    `json:"owner_name"`
	DaysLeft         int       `json:"days_left"`
	Language         string    `json:"language"`
}
