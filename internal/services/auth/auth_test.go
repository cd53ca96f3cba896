package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/lib/jwt"
	"github.com/quizory/quiz-league/internal/lib/password"
	"github.com/quizory/quiz-league/internal/models"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateUserLanguage(ctx context.Context, userID uuid.UUID, language string) error {
	args := m.Called(ctx, userID, language)
	return args.Error(0)
}

func (m *UserRepoMock) MarkEmailVerified(ctx context.Context, token string, now time.Time) error {
	args := m.Called(ctx, token, now)
	return args.Error(0)
}

func (m *UserRepoMock) CreateEmailVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *UserRepoMock) CreateOrganization(ctx context.Context, org models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *UserRepoMock) CreateMembership(ctx context.Context, membership models.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *UserRepoMock) GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, userID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *UserRepoMock) GetPrimaryMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(exchange, routingKey string, message any) error {
	args := m.Called(exchange, routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(users *UserRepoMock, publisher *PublisherMock) *AuthService {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewAuthService(users, maker, publisher, "https://quiz.example", newNoopLogger())
}

func TestRegister(t *testing.T) {
	req := models.RegisterRequest{
		Email:            "owner@example.com",
		Password:         "super-secret",
		DisplayName:      "Marko",
		OrganizationName: "Beogradska liga",
	}

	t.Run("creates free organization with owner membership", func(t *testing.T) {
		users := new(UserRepoMock)
		publisher := new(PublisherMock)
		svc := newService(users, publisher)

		var createdUser models.User
		users.On("CreateUser", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { createdUser = args.Get(1).(models.User) }).
			Return(nil).Once()
		users.On("CreateOrganization", mock.Anything, mock.MatchedBy(func(org models.Organization) bool {
			return org.Plan == models.PlanFree && org.Name == "Beogradska liga"
		})).Return(nil).Once()
		users.On("CreateMembership", mock.Anything, mock.MatchedBy(func(m models.Membership) bool {
			return m.Role == models.RoleOwner
		})).Return(nil).Once()
		users.On("CreateEmailVerificationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		publisher.On("Publish", "notifications", "verification", mock.Anything).Return(nil).Once()

		user, org, err := svc.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", user.Email)
		assert.Equal(t, "sr", user.PreferredLanguage)
		assert.NoError(t, password.CompareHash(createdUser.PasswordHash, "super-secret"))
		assert.Equal(t, models.PlanFree, org.Plan)
		users.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("organization name falls back to display name", func(t *testing.T) {
		users := new(UserRepoMock)
		publisher := new(PublisherMock)
		svc := newService(users, publisher)

		noOrgName := req
		noOrgName.OrganizationName = ""

		users.On("CreateUser", mock.Anything, mock.Anything).Return(nil).Once()
		users.On("CreateOrganization", mock.Anything, mock.MatchedBy(func(org models.Organization) bool {
			return org.Name == "Marko"
		})).Return(nil).Once()
		users.On("CreateMembership", mock.Anything, mock.Anything).Return(nil).Once()
		users.On("CreateEmailVerificationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		_, _, err := svc.Register(context.Background(), noOrgName)

		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("publish failure does not fail registration", func(t *testing.T) {
		users := new(UserRepoMock)
		publisher := new(PublisherMock)
		svc := newService(users, publisher)

		users.On("CreateUser", mock.Anything, mock.Anything).Return(nil).Once()
		users.On("CreateOrganization", mock.Anything, mock.Anything).Return(nil).Once()
		users.On("CreateMembership", mock.Anything, mock.Anything).Return(nil).Once()
		users.On("CreateEmailVerificationToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil).Once()
		publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("broker down")).Once()

		_, _, err := svc.Register(context.Background(), req)

		assert.NoError(t, err)
	})

	t.Run("duplicate email fails", func(t *testing.T) {
		users := new(UserRepoMock)
		svc := newService(users, new(PublisherMock))

		users.On("CreateUser", mock.Anything, mock.Anything).
			Return(errors.New("duplicate key")).Once()

		_, _, err := svc.Register(context.Background(), req)

		assert.Error(t, err)
		users.AssertNotCalled(t, "CreateOrganization", mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()

	hash, err := password.GetHash("super-secret")
	require.NoError(t, err)

	storedUser := &models.User{
		ID:                userID,
		Email:             "owner@example.com",
		PasswordHash:      hash,
		PreferredLanguage: "sr",
	}

	t.Run("success", func(t *testing.T) {
		users := new(UserRepoMock)
		svc := newService(users, new(PublisherMock))

		users.On("GetUserByEmail", mock.Anything, "owner@example.com").Return(storedUser, nil).Once()
		users.On("GetPrimaryMembership", mock.Anything, userID).
			Return(&models.Membership{UserID: userID, OrganizationID: orgID, Role: models.RoleOwner}, nil).Once()

		token, user, membership, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "owner@example.com",
			Password: "super-secret",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, orgID, membership.OrganizationID)

		claims, err := svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "sr", claims.Language)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(UserRepoMock)
		svc := newService(users, new(PublisherMock))

		users.On("GetUserByEmail", mock.Anything, "owner@example.com").Return(storedUser, nil).Once()

		_, _, _, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "owner@example.com",
			Password: "wrong",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(UserRepoMock)
		svc := newService(users, new(PublisherMock))

		users.On("GetUserByEmail", mock.Anything, "ghost@example.com").
			Return(nil, apperr.ErrNotFound).Once()

		_, _, _, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "ghost@example.com",
			Password: "super-secret",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestResolveContext(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()

	t.Run("explicit organization", func(t *testing.T) {
		users := new(UserRepoMock)
		svc := newService(users, new(PublisherMock))

		users.On("GetMembership", mock.Anything, userID, orgID).
			Return(&models.Membership{UserID: userID, OrganizationID: orgID, Role: models.RoleAdmin}, nil).Once()

		rc, err := svc.ResolveContext(context.Background(), userID, &orgID, "en")

		require.NoError(t, err)
		assert.Equal(t, orgID, rc.OrganizationID)
		assert.Equal(t, models.RoleAdmin, rc.Role)
		assert.Equal(t, "en", rc.Language)
	})

	t.Run("primary membership fallback", func(t *testing.T) {
		users := new(UserRepoMock)
		svc := newService(users, new(PublisherMock))

		users.On("GetPrimaryMembership", mock.Anything, userID).
			Return(&models.Membership{UserID: userID, OrganizationID: orgID, Role: models.RoleOwner}, nil).Once()

		rc, err := svc.ResolveContext(context.Background(), userID, nil, "sr")

		require.NoError(t, err)
		assert.Equal(t, orgID, rc.OrganizationID)
		assert.Equal(t, models.RoleOwner, rc.Role)
	})

	t.Run("no membership", func(t *testing.T) {
		users := new(UserRepoMock)
		svc := newService(users, new(PublisherMock))

		users.On("GetMembership", mock.Anything, userID, orgID).
			Return(nil, apperr.ErrNotFound).Once()

		_, err := svc.ResolveContext(context.Background(), userID, &orgID, "sr")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
