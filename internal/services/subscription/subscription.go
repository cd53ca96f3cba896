// Package services реализует политику подписки организации: эффективный
// план, переходы между планами и шлюзы лимитов бесплатного плана.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/i18n"
	"github.com/quizory/quiz-league/internal/models"
	authz "github.com/quizory/quiz-league/internal/services/authz"
)

// Лимиты бесплатного плана и длительность пробного периода.
const (
	FreeQuizzesPerMonth = 5
	FreeMemberLimit     = 1
	TrialDays           = 14
	AdminCap            = 3
)

// Имена функций, закрытых на бесплатном плане.
const (
	FeatureLeagues      = "leagues"
	FeatureQuestionBank = "questionBank"
	FeatureMembers      = "members"
	FeatureShare        = "share"
)

// gatedFeatures функции, закрытые на бесплатном плане. Имя вне этого
// множества шлюз пропускает на любом плане.
var gatedFeatures = map[string]struct{}{
	FeatureLeagues:      {},
	FeatureQuestionBank: {},
	FeatureMembers:      {},
	FeatureShare:        {},
}

// OrganizationRepository описывает контракт хранилища для политики подписки.
type OrganizationRepository interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	UpdateOrganizationPlan(ctx context.Context, id uuid.UUID, plan models.Plan, trialEndsAt *time.Time) error
	CountQuizzesCreatedSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int, error)
	CountMembers(ctx context.Context, orgID uuid.UUID) (int, error)
	CountAdminLevelMembers(ctx context.Context, orgID uuid.UUID) (int, error)
	ExpireTrials(ctx context.Context, now time.Time) (int, error)
}

// SubscriptionService отвечает за планы, пробные периоды и лимиты.
type SubscriptionService struct {
	repo OrganizationRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo OrganizationRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EffectivePlan возвращает действующий план: trial с истекшим сроком
// считается free, хранимое поле при этом не меняется. Сравнение строгое:
// trial действует до конца срока включительно.
func EffectivePlan(org *models.Organization, now time.Time) models.Plan {
	if org.Plan == models.PlanTrial {
		if org.TrialEndsAt == nil || org.TrialEndsAt.Before(now) {
			return models.PlanFree
		}
		return models.PlanTrial
	}
	return org.Plan
}

// FeaturesFor возвращает флаги доступности функций для действующего плана.
func FeaturesFor(plan models.Plan) models.Features {
	paid := plan == models.PlanTrial || plan == models.PlanPremium
	return models.Features{
		Leagues:      paid,
		QuestionBank: paid,
		Members:      paid,
		Share:        paid,
	}
}

// Status собирает агрегированное состояние подписки организации.
func (s *SubscriptionService) Status(ctx context.Context, rc models.RequestContext) (*models.SubscriptionStatus, error) {
	org, err := s.repo.GetOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	effective := EffectivePlan(org, now)

	used, err := s.repo.CountQuizzesCreatedSince(ctx, org.ID, startOfMonth(now))
	if err != nil {
		return nil, err
	}
	members, err := s.repo.CountMembers(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	status := &models.SubscriptionStatus{
		Plan:                 effective,
		IsTrialActive:        effective == models.PlanTrial,
		QuizzesUsedThisMonth: used,
		QuizzesLimitPerMonth: FreeQuizzesPerMonth,
		MemberCount:          members,
		MemberLimit:          FreeMemberLimit,
		Features:             FeaturesFor(effective),
	}
	if effective == models.PlanTrial {
		status.TrialEndsAt = org.TrialEndsAt
	}
	if effective != models.PlanFree {
		status.QuizzesLimitPerMonth = 0
		status.MemberLimit = 0
	}
	return status, nil
}

// StartTrial запускает пробный период. Доступно только владельцу и только
// с бесплатного плана; действующий trial и premium отклоняются.
func (s *SubscriptionService) StartTrial(ctx context.Context, rc models.RequestContext) (*models.Organization, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleOwner); err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if EffectivePlan(org, now) != models.PlanFree {
		return nil, apperr.Policy(apperr.CodeInvalidTransition, i18n.T(rc.Language, "TrialOnlyFromFree"))
	}

	endsAt := now.AddDate(0, 0, TrialDays)
	if err := s.repo.UpdateOrganizationPlan(ctx, org.ID, models.PlanTrial, &endsAt); err != nil {
		return nil, err
	}
	s.log.Info("trial started",
		slog.String("organization_id", org.ID.String()),
		slog.Time("trial_ends_at", endsAt))

	org.Plan = models.PlanTrial
	org.TrialEndsAt = &endsAt
	return org, nil
}

// ActivatePremium переводит организацию на premium с любого плана.
func (s *SubscriptionService) ActivatePremium(ctx context.Context, rc models.RequestContext) (*models.Organization, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleOwner); err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateOrganizationPlan(ctx, org.ID, models.PlanPremium, nil); err != nil {
		return nil, err
	}
	s.log.Info("premium activated", slog.String("organization_id", org.ID.String()))

	org.Plan = models.PlanPremium
	org.TrialEndsAt = nil
	return org, nil
}

// DowngradeToFree возвращает организацию на бесплатный план. Отклоняется,
// пока в организации больше одного участника.
func (s *SubscriptionService) DowngradeToFree(ctx context.Context, rc models.RequestContext) (*models.Organization, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleOwner); err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.CountMembers(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	if members > FreeMemberLimit {
		return nil, apperr.Policy(apperr.CodeDowngradeMembers, i18n.T(rc.Language, "DowngradeRemoveMembersFirst"))
	}
	if err := s.repo.UpdateOrganizationPlan(ctx, org.ID, models.PlanFree, nil); err != nil {
		return nil, err
	}
	s.log.Info("downgraded to free", slog.String("organization_id", org.ID.String()))

	org.Plan = models.PlanFree
	org.TrialEndsAt = nil
	return org, nil
}

// EnforceFeature пропускает операцию, если функция доступна действующему
// плану организации, иначе возвращает нарушение политики.
func (s *SubscriptionService) EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error {
	if _, gated := gatedFeatures[feature]; !gated {
		return nil
	}
	org, err := s.repo.GetOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return err
	}
	if EffectivePlan(org, s.now()) != models.PlanFree {
		return nil
	}
	return apperr.Policy(apperr.CodeFeatureLocked, authz.FeatureMessage(rc.Language, feature))
}

// EnforceQuizMonthlyLimit проверяет месячный лимит квизов бесплатного плана.
// Месяц считается по UTC от первого числа.
func (s *SubscriptionService) EnforceQuizMonthlyLimit(ctx context.Context, rc models.RequestContext) error {
	org, err := s.repo.GetOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return err
	}
	now := s.now()
	if EffectivePlan(org, now) != models.PlanFree {
		return nil
	}
	used, err := s.repo.CountQuizzesCreatedSince(ctx, org.ID, startOfMonth(now))
	if err != nil {
		return err
	}
	if used >= FreeQuizzesPerMonth {
		return apperr.Policy(apperr.CodeQuizLimitReached, i18n.T(rc.Language, "FreeQuizLimitReached"))
	}
	return nil
}

// EnforceMemberLimit проверяет лимит участников бесплатного плана
// перед добавлением нового.
func (s *SubscriptionService) EnforceMemberLimit(ctx context.Context, rc models.RequestContext) error {
	org, err := s.repo.GetOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return err
	}
	if EffectivePlan(org, s.now()) != models.PlanFree {
		return nil
	}
	members, err := s.repo.CountMembers(ctx, org.ID)
	if err != nil {
		return err
	}
	if members >= FreeMemberLimit {
		return apperr.Policy(apperr.CodeMemberLimit, i18n.T(rc.Language, "FreeMemberLimitReached"))
	}
	return nil
}

// EnforceAdminCap проверяет лимит административных ролей перед назначением
// роли admin или owner.
func (s *SubscriptionService) EnforceAdminCap(ctx context.Context, rc models.RequestContext, role models.Role) error {
	if role.Rank() < models.RoleAdmin.Rank() {
		return nil
	}
	admins, err := s.repo.CountAdminLevelMembers(ctx, rc.OrganizationID)
	if err != nil {
		return err
	}
	if admins >= AdminCap {
		return apperr.Policy(apperr.CodeAdminCapReached, i18n.T(rc.Language, "AdminCapReached"))
	}
	return nil
}

// ExpireTrials переключает организации с истекшим пробным периодом на free.
// Повторный запуск не находит новых строк.
func (s *SubscriptionService) ExpireTrials(ctx context.Context) (int, error) {
	return s.repo.ExpireTrials(ctx, s.now())
}

// startOfMonth возвращает начало календарного месяца в UTC.
func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
