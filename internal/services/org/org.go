// Package services содержит логику бизнес-уровня для организации
// и её участников.
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/i18n"
	"github.com/quizory/quiz-league/internal/models"
	authz "github.com/quizory/quiz-league/internal/services/authz"
	subscription "github.com/quizory/quiz-league/internal/services/subscription"
)

// OrgRepository описывает контракт хранилища организаций и членств.
type OrgRepository interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, id uuid.UUID, name, primaryColor string) error
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateMembership(ctx context.Context, m models.Membership) error
	GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
	UpdateMembershipRole(ctx context.Context, orgID, userID uuid.UUID, role models.Role) error
	DeleteMembership(ctx context.Context, orgID, userID uuid.UUID) error
}

// SubscriptionGate шлюз политики подписки для операций с участниками.
type SubscriptionGate interface {
	EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error
	EnforceMemberLimit(ctx context.Context, rc models.RequestContext) error
	EnforceAdminCap(ctx context.Context, rc models.RequestContext, role models.Role) error
}

// OrgService отвечает за данные организации и управление участниками.
type OrgService struct {
	repo OrgRepository
	gate SubscriptionGate
	log  *slog.Logger
}

// NewOrgService создает новый экземпляр OrgService.
func NewOrgService(repo OrgRepository, gate SubscriptionGate, log *slog.Logger) *OrgService {
	return &OrgService{
		repo: repo,
		gate: gate,
		log:  log,
	}
}

// Get возвращает организацию текущего контекста.
func (s *OrgService) Get(ctx context.Context, rc models.RequestContext) (*models.Organization, error) {
	return s.repo.GetOrganization(ctx, rc.OrganizationID)
}

// Update меняет имя и фирменный цвет организации. Требует роль admin.
func (s *OrgService) Update(ctx context.Context, rc models.RequestContext, req models.UpdateOrganizationRequest) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.UpdateOrganization(ctx, rc.OrganizationID, req.Name, req.PrimaryColor)
}

// ListMembers возвращает участников организации.
func (s *OrgService) ListMembers(ctx context.Context, rc models.RequestContext) ([]*models.Member, error) {
	return s.repo.ListMembers(ctx, rc.OrganizationID)
}

// InviteMember добавляет существующего пользователя в организацию.
// Проходит шлюзы функции members, лимита участников и лимита
// административных ролей.
func (s *OrgService) InviteMember(ctx context.Context, rc models.RequestContext, req models.InviteMemberRequest) (*models.Membership, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureMembers); err != nil {
		return nil, err
	}
	if err := s.gate.EnforceMemberLimit(ctx, rc); err != nil {
		return nil, err
	}
	role := models.Role(req.Role)
	if err := s.gate.EnforceAdminCap(ctx, rc, role); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	membership := models.Membership{
		ID:             uuid.New(),
		UserID:         user.ID,
		OrganizationID: rc.OrganizationID,
		Role:           role,
	}
	if err := s.repo.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}
	s.log.Info("member invited",
		slog.String("organization_id", rc.OrganizationID.String()),
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(role)))
	return &membership, nil
}

// ChangeRole меняет роль участника. Операция доступна только владельцу;
// роль владельца не назначается и не снимается. Повышение до
// административной роли проходит лимит таких ролей.
func (s *OrgService) ChangeRole(ctx context.Context, rc models.RequestContext, userID uuid.UUID, req models.ChangeRoleRequest) error {
	if err := authz.EnsureAtLeast(rc, models.RoleOwner); err != nil {
		return err
	}
	role := models.Role(req.Role)
	if role == models.RoleOwner {
		return apperr.Unauthorized(i18n.T(rc.Language, "CannotAssignOwner"))
	}
	target, err := s.repo.GetMembership(ctx, userID, rc.OrganizationID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return apperr.Unauthorized(i18n.T(rc.Language, "OwnerOnly"))
	}

	if role.Rank() > target.Role.Rank() {
		if err := s.gate.EnforceAdminCap(ctx, rc, role); err != nil {
			return err
		}
	}
	return s.repo.UpdateMembershipRole(ctx, rc.OrganizationID, userID, role)
}

// RemoveMember исключает участника из организации. Владельца исключить
// нельзя; администратор не может исключить другого администратора.
func (s *OrgService) RemoveMember(ctx context.Context, rc models.RequestContext, userID uuid.UUID) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	target, err := s.repo.GetMembership(ctx, userID, rc.OrganizationID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleOwner {
		return apperr.Unauthorized(i18n.T(rc.Language, "OwnerOnly"))
	}
	if rc.Role == models.RoleAdmin && target.Role == models.RoleAdmin {
		return apperr.Unauthorized(i18n.T(rc.Language, "CannotRemoveAdmin"))
	}
	return s.repo.DeleteMembership(ctx, rc.OrganizationID, userID)
}
