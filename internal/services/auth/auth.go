// Package services содержит логику бизнес-уровня для регистрации,
// аутентификации и разрешения контекста организации.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizory/quiz-league/internal/lib/i18n"
	"github.com/quizory/quiz-league/internal/lib/jwt"
	"github.com/quizory/quiz-league/internal/lib/password"
	"github.com/quizory/quiz-league/internal/lib/random"
	"github.com/quizory/quiz-league/internal/lib/sl"
	"github.com/quizory/quiz-league/internal/models"
)

// ErrInvalidCredentials неверная пара почта/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

const verificationTokenTTL = 24 * time.Hour

// UserRepository описывает контракт для работы с пользователями и членствами.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUserLanguage(ctx context.Context, userID uuid.UUID, language string) error
	MarkEmailVerified(ctx context.Context, token string, now time.Time) error
	CreateEmailVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	CreateOrganization(ctx context.Context, org models.Organization) error
	CreateMembership(ctx context.Context, m models.Membership) error
	GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error)
	GetPrimaryMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
}

// Publisher публикует уведомления в очередь.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users         UserRepository
	jwtMaker      jwt.Maker
	publisher     Publisher
	publicBaseURL string
	log           *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, publisher Publisher, publicBaseURL string, log *slog.Logger) *AuthService {
	return &AuthService{
		users:         users,
		jwtMaker:      jwtMaker,
		publisher:     publisher,
		publicBaseURL: publicBaseURL,
		log:           log,
	}
}

// Register создает пользователя вместе с его организацией на бесплатном
// плане и членством owner. Письмо с подтверждением почты отправляется
// асинхронно; сбой публикации не прерывает регистрацию.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, *models.Organization, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, nil, err
	}

	user := models.User{
		ID:                uuid.New(),
		Email:             req.Email,
		PasswordHash:      hashed,
		DisplayName:       req.DisplayName,
		PreferredLanguage: i18n.LangSR, // язык по умолчанию
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	orgName := req.OrganizationName
	if orgName == "" {
		orgName = req.DisplayName
	}
	org := models.Organization{
		ID:   uuid.New(),
		Name: orgName,
		Plan: models.PlanFree,
	}
	if err := s.users.CreateOrganization(ctx, org); err != nil {
		return nil, nil, err
	}

	membership := models.Membership{
		ID:             uuid.New(),
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           models.RoleOwner,
	}
	if err := s.users.CreateMembership(ctx, membership); err != nil {
		return nil, nil, err
	}

	s.log.Info("registered new user",
		slog.String("user_id", user.ID.String()),
		slog.String("organization_id", org.ID.String()))

	if err := s.sendVerification(ctx, user); err != nil {
		s.log.Error("failed to queue verification email", sl.Err(err))
	}
	return &user, &org, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user models.User) error {
	token, err := random.NewHex(24)
	if err != nil {
		return err
	}
	expiresAt := time.Now().UTC().Add(verificationTokenTTL)
	if err := s.users.CreateEmailVerificationToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}
	message := models.EmailVerification{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Language:    user.PreferredLanguage,
		VerifyURL:   fmt.Sprintf("%s/api/v1/auth/verify?token=%s", s.publicBaseURL, token),
	}
	return s.publisher.Publish("notifications", "verification", message)
}

// Login проверяет пароль пользователя и генерирует JWT. Организация
// берётся из основного членства (owner предпочтительнее).
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, *models.Membership, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return "", nil, nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", nil, nil, ErrInvalidCredentials
	}

	membership, err := s.users.GetPrimaryMembership(ctx, user.ID)
	if err != nil {
		return "", nil, nil, err
	}

	token, err := s.jwtMaker.GenerateToken(user.ID.String(), user.Email, user.PreferredLanguage)
	if err != nil {
		return "", nil, nil, err
	}
	return token, user, membership, nil
}

// ValidateToken проверяет JWT и возвращает полезную нагрузку токена.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}

// ResolveContext строит контекст запроса: членство пользователя в заданной
// организации либо, если организация не указана, его основное членство.
func (s *AuthService) ResolveContext(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID, language string) (models.RequestContext, error) {
	var membership *models.Membership
	var err error
	if orgID != nil {
		membership, err = s.users.GetMembership(ctx, userID, *orgID)
	} else {
		membership, err = s.users.GetPrimaryMembership(ctx, userID)
	}
	if err != nil {
		return models.RequestContext{}, err
	}
	return models.RequestContext{
		UserID:         userID,
		OrganizationID: membership.OrganizationID,
		Role:           membership.Role,
		Language:       language,
	}, nil
}

// VerifyEmail подтверждает почту по одноразовому токену.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.users.MarkEmailVerified(ctx, token, time.Now().UTC())
}

// SetLanguage меняет предпочитаемый язык пользователя.
func (s *AuthService) SetLanguage(ctx context.Context, userID uuid.UUID, language string) error {
	return s.users.UpdateUserLanguage(ctx, userID, language)
}
