// Package services содержит логику бизнес-уровня для справочников
// организации: команд, категорий, лиг, типов подсказок и банка вопросов.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/models"
	authz "github.com/quizory/quiz-league/internal/services/authz"
	subscription "github.com/quizory/quiz-league/internal/services/subscription"
)

// CatalogRepository описывает контракт хранилища справочников.
type CatalogRepository interface {
	CreateTeam(ctx context.Context, team models.Team) error
	ListTeams(ctx context.Context, orgID uuid.UUID) ([]*models.Team, error)
	GetTeam(ctx context.Context, orgID, id uuid.UUID) (*models.Team, error)
	UpdateTeam(ctx context.Context, orgID, id uuid.UUID, name string) error
	SoftDeleteTeam(ctx context.Context, orgID, id uuid.UUID) error
	AddTeamAlias(ctx context.Context, alias models.TeamAlias) error

	CreateCategory(ctx context.Context, category models.Category) error
	ListCategories(ctx context.Context, orgID uuid.UUID) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, orgID, id uuid.UUID, name string) error
	SoftDeleteCategory(ctx context.Context, orgID, id uuid.UUID) error

	CreateLeague(ctx context.Context, league models.League) error
	ListLeagues(ctx context.Context, orgID uuid.UUID) ([]*models.League, error)
	GetLeague(ctx context.Context, orgID, id uuid.UUID) (*models.League, error)
	UpdateLeague(ctx context.Context, orgID, id uuid.UUID, name string) error
	SoftDeleteLeague(ctx context.Context, orgID, id uuid.UUID) error

	CreateHelpType(ctx context.Context, ht models.HelpType) error
	ListHelpTypes(ctx context.Context, orgID uuid.UUID) ([]*models.HelpType, error)
	UpdateHelpType(ctx context.Context, orgID, id uuid.UUID, name string, behavior models.HelpBehavior) error
	SoftDeleteHelpType(ctx context.Context, orgID, id uuid.UUID) error

	CreateQuestion(ctx context.Context, q models.Question) error
	ListQuestions(ctx context.Context, orgID uuid.UUID, categoryID *uuid.UUID) ([]*models.Question, error)
	SoftDeleteQuestion(ctx context.Context, orgID, id uuid.UUID) error
}

// SubscriptionGate шлюз политики подписки для закрытых справочников.
type SubscriptionGate interface {
	EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error
}

// CatalogService отвечает за CRUD справочников с проверкой ролей
// и шлюзами подписки.
type CatalogService struct {
	repo CatalogRepository
	gate SubscriptionGate
	log  *slog.Logger
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo CatalogRepository, gate SubscriptionGate, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo: repo,
		gate: gate,
		log:  log,
	}
}

// CreateTeam создает команду. Требует роль admin.
func (s *CatalogService) CreateTeam(ctx context.Context, rc models.RequestContext, req models.CreateTeamRequest) (*models.Team, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	team := models.Team{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		Name:           req.Name,
	}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, err
	}
	s.log.Info("created new team", slog.String("team_id", team.ID.String()))
	return &team, nil
}

// ListTeams возвращает команды организации.
func (s *CatalogService) ListTeams(ctx context.Context, rc models.RequestContext) ([]*models.Team, error) {
	return s.repo.ListTeams(ctx, rc.OrganizationID)
}

// GetTeam возвращает команду по идентификатору.
func (s *CatalogService) GetTeam(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.Team, error) {
	return s.repo.GetTeam(ctx, rc.OrganizationID, id)
}

// UpdateTeam переименовывает команду. Требует роль admin.
func (s *CatalogService) UpdateTeam(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.UpdateTeam(ctx, rc.OrganizationID, id, name)
}

// DeleteTeam помечает команду удалённой. Требует роль admin.
func (s *CatalogService) DeleteTeam(ctx context.Context, rc models.RequestContext, id uuid.UUID) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.SoftDeleteTeam(ctx, rc.OrganizationID, id)
}

// AddTeamAlias добавляет альтернативное имя команды, опционально
// ограниченное одним квизом.
func (s *CatalogService) AddTeamAlias(ctx context.Context, rc models.RequestContext, teamID uuid.UUID, req models.AddTeamAliasRequest) (*models.TeamAlias, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTeam(ctx, rc.OrganizationID, teamID); err != nil {
		return nil, err
	}

	var quizID *uuid.UUID
	if req.QuizID != "" {
		id, err := uuid.Parse(req.QuizID)
		if err != nil {
			return nil, fmt.Errorf("invalid quiz id: %w", err)
		}
		quizID = &id
	}
	alias := models.TeamAlias{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		TeamID:         teamID,
		QuizID:         quizID,
		Alias:          req.Alias,
	}
	if err := s.repo.AddTeamAlias(ctx, alias); err != nil {
		return nil, err
	}
	return &alias, nil
}

// CreateCategory создает категорию. Требует роль admin.
func (s *CatalogService) CreateCategory(ctx context.Context, rc models.RequestContext, req models.CreateCategoryRequest) (*models.Category, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	category := models.Category{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		Name:           req.Name,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories возвращает категории организации.
func (s *CatalogService) ListCategories(ctx context.Context, rc models.RequestContext) ([]*models.Category, error) {
	return s.repo.ListCategories(ctx, rc.OrganizationID)
}

// UpdateCategory переименовывает категорию. Требует роль admin.
func (s *CatalogService) UpdateCategory(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.UpdateCategory(ctx, rc.OrganizationID, id, name)
}

// DeleteCategory помечает категорию удалённой. Требует роль admin.
func (s *CatalogService) DeleteCategory(ctx context.Context, rc models.RequestContext, id uuid.UUID) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.SoftDeleteCategory(ctx, rc.OrganizationID, id)
}

// CreateLeague создает лигу. Требует роль admin и доступную функцию лиг.
func (s *CatalogService) CreateLeague(ctx context.Context, rc models.RequestContext, req models.CreateLeagueRequest) (*models.League, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureLeagues); err != nil {
		return nil, err
	}
	league := models.League{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		Name:           req.Name,
	}
	if err := s.repo.CreateLeague(ctx, league); err != nil {
		return nil, err
	}
	return &league, nil
}

// ListLeagues возвращает лиги организации.
func (s *CatalogService) ListLeagues(ctx context.Context, rc models.RequestContext) ([]*models.League, error) {
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureLeagues); err != nil {
		return nil, err
	}
	return s.repo.ListLeagues(ctx, rc.OrganizationID)
}

// GetLeague возвращает лигу по идентификатору.
func (s *CatalogService) GetLeague(ctx context.Context, rc models.RequestContext, id uuid.UUID) (*models.League, error) {
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureLeagues); err != nil {
		return nil, err
	}
	return s.repo.GetLeague(ctx, rc.OrganizationID, id)
}

// UpdateLeague переименовывает лигу. Требует роль admin.
func (s *CatalogService) UpdateLeague(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.UpdateLeague(ctx, rc.OrganizationID, id, name)
}

// DeleteLeague помечает лигу удалённой. Требует роль admin.
func (s *CatalogService) DeleteLeague(ctx context.Context, rc models.RequestContext, id uuid.UUID) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.SoftDeleteLeague(ctx, rc.OrganizationID, id)
}

// CreateHelpType создает тип подсказки. Требует роль admin.
func (s *CatalogService) CreateHelpType(ctx context.Context, rc models.RequestContext, req models.CreateHelpTypeRequest) (*models.HelpType, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	ht := models.HelpType{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		Name:           req.Name,
		Behavior:       models.HelpBehavior(req.Behavior),
	}
	if err := s.repo.CreateHelpType(ctx, ht); err != nil {
		return nil, err
	}
	return &ht, nil
}

// ListHelpTypes возвращает типы подсказок организации.
func (s *CatalogService) ListHelpTypes(ctx context.Context, rc models.RequestContext) ([]*models.HelpType, error) {
	return s.repo.ListHelpTypes(ctx, rc.OrganizationID)
}

// UpdateHelpType изменяет тип подсказки. Требует роль admin.
func (s *CatalogService) UpdateHelpType(ctx context.Context, rc models.RequestContext, id uuid.UUID, name string, behavior models.HelpBehavior) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.UpdateHelpType(ctx, rc.OrganizationID, id, name, behavior)
}

// DeleteHelpType помечает тип подсказки удалённым. Требует роль admin.
func (s *CatalogService) DeleteHelpType(ctx context.Context, rc models.RequestContext, id uuid.UUID) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.SoftDeleteHelpType(ctx, rc.OrganizationID, id)
}

// CreateQuestion добавляет вопрос в банк. Требует роль admin и доступный
// банк вопросов.
func (s *CatalogService) CreateQuestion(ctx context.Context, rc models.RequestContext, req models.CreateQuestionRequest) (*models.Question, error) {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureQuestionBank); err != nil {
		return nil, err
	}

	var categoryID *uuid.UUID
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("invalid category id: %w", err)
		}
		categoryID = &id
	}
	question := models.Question{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		CategoryID:     categoryID,
		Text:           req.Text,
		Answer:         req.Answer,
	}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return &question, nil
}

// ListQuestions возвращает вопросы банка, опционально по категории.
func (s *CatalogService) ListQuestions(ctx context.Context, rc models.RequestContext, categoryID *uuid.UUID) ([]*models.Question, error) {
	if err := s.gate.EnforceFeature(ctx, rc, subscription.FeatureQuestionBank); err != nil {
		return nil, err
	}
	return s.repo.ListQuestions(ctx, rc.OrganizationID, categoryID)
}

// DeleteQuestion помечает вопрос удалённым. Требует роль admin.
func (s *CatalogService) DeleteQuestion(ctx context.Context, rc models.RequestContext, id uuid.UUID) error {
	if err := authz.EnsureAtLeast(rc, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.SoftDeleteQuestion(ctx, rc.OrganizationID, id)
}
