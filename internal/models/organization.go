// Package models содержит доменные структуры квиз-лиги: организации,
// членства, команды, категории, квизы, результаты и подсказки, а также
// вспомогательные типы для приёма данных из JSON-запросов.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan тарифный план организации.
type Plan string

// Возможные тарифные планы.
const (
	PlanFree    Plan = "free"
	PlanTrial   Plan = "trial"
	PlanPremium Plan = "premium"
)

// Organization корень арендатора: владеет командами, квизами и категориями.
//
// Инвариант: TrialEndsAt не nil только при плане trial. Эффективный план
// (trial с истекшим сроком считается free) — производное значение, хранимое
// поле переключает только периодическая фоновая проверка.
type Organization struct {
	ID           uuid.UUID
	Name         string
	Plan         Plan
	TrialEndsAt  *time.Time
	PrimaryColor string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SubscriptionStatus агрегированное состояние подписки для клиента.
type SubscriptionStatus struct {
	Plan                Plan       `json:"plan"`
	IsTrialActive       bool       `json:"is_trial_active"`
	TrialEndsAt         *time.Time `json:"trial_ends_at,omitempty"`
	QuizzesUsedThisMonth int       `json:"quizzes_used_this_month"`
	QuizzesLimitPerMonth int       `json:"quizzes_limit_per_month"`
	MemberCount         int        `json:"member_count"`
	MemberLimit         int        `json:"member_limit"`
	Features            Features   `json:"features"`
}

// Features флаги доступности функций для эффективного плана.
type Features struct {
	Leagues      bool `json:"leagues"`
	QuestionBank bool `json:"question_bank"`
	Members      bool `json:"members"`
	Share        bool `json:"share"`
}
