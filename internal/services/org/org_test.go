package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quizory/quiz-league/internal/lib/apperr"
	"github.com/quizory/quiz-league/internal/models"
)

type OrgRepoMock struct {
	mock.Mock
}

func (m *OrgRepoMock) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *OrgRepoMock) UpdateOrganization(ctx context.Context, id uuid.UUID, name, primaryColor string) error {
	args := m.Called(ctx, id, name, primaryColor)
	return args.Error(0)
}

func (m *OrgRepoMock) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *OrgRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *OrgRepoMock) CreateMembership(ctx context.Context, membership models.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *OrgRepoMock) GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, userID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *OrgRepoMock) UpdateMembershipRole(ctx context.Context, orgID, userID uuid.UUID, role models.Role) error {
	args := m.Called(ctx, orgID, userID, role)
	return args.Error(0)
}

func (m *OrgRepoMock) DeleteMembership(ctx context.Context, orgID, userID uuid.UUID) error {
	args := m.Called(ctx, orgID, userID)
	return args.Error(0)
}

type GateMock struct {
	mock.Mock
}

func (m *GateMock) EnforceFeature(ctx context.Context, rc models.RequestContext, feature string) error {
	args := m.Called(ctx, rc, feature)
	return args.Error(0)
}

func (m *GateMock) EnforceMemberLimit(ctx context.Context, rc models.RequestContext) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

func (m *GateMock) EnforceAdminCap(ctx context.Context, rc models.RequestContext, role models.Role) error {
	args := m.Called(ctx, rc, role)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func adminCtx(orgID uuid.UUID) models.RequestContext {
	return models.RequestContext{
		UserID:         uuid.New(),
		OrganizationID: orgID,
		Role:           models.RoleAdmin,
		Language:       "en",
	}
}

func ownerCtx(orgID uuid.UUID) models.RequestContext {
	rc := adminCtx(orgID)
	rc.Role = models.RoleOwner
	return rc
}

func TestInviteMember(t *testing.T) {
	orgID := uuid.New()
	invitedID := uuid.New()

	req := models.InviteMemberRequest{Email: "new@example.com", Role: "user"}

	t.Run("success", func(t *testing.T) {
		repo := new(OrgRepoMock)
		gate := new(GateMock)
		svc := NewOrgService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "members").Return(nil).Once()
		gate.On("EnforceMemberLimit", mock.Anything, mock.Anything).Return(nil).Once()
		gate.On("EnforceAdminCap", mock.Anything, mock.Anything, models.RoleUser).Return(nil).Once()
		repo.On("GetUserByEmail", mock.Anything, "new@example.com").
			Return(&models.User{ID: invitedID, Email: "new@example.com"}, nil).Once()
		repo.On("CreateMembership", mock.Anything, mock.MatchedBy(func(m models.Membership) bool {
			return m.UserID == invitedID && m.OrganizationID == orgID && m.Role == models.RoleUser
		})).Return(nil).Once()

		membership, err := svc.InviteMember(context.Background(), adminCtx(orgID), req)

		require.NoError(t, err)
		assert.Equal(t, invitedID, membership.UserID)
		repo.AssertExpectations(t)
		gate.AssertExpectations(t)
	})

	t.Run("member limit reached", func(t *testing.T) {
		repo := new(OrgRepoMock)
		gate := new(GateMock)
		svc := NewOrgService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "members").Return(nil).Once()
		gate.On("EnforceMemberLimit", mock.Anything, mock.Anything).
			Return(apperr.Policy(apperr.CodeMemberLimit, "limit")).Once()

		_, err := svc.InviteMember(context.Background(), adminCtx(orgID), req)

		pv, ok := apperr.AsPolicy(err)
		require.True(t, ok)
		assert.Equal(t, apperr.CodeMemberLimit, pv.Code)
		repo.AssertNotCalled(t, "CreateMembership", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(OrgRepoMock)
		gate := new(GateMock)
		svc := NewOrgService(repo, gate, newNoopLogger())

		gate.On("EnforceFeature", mock.Anything, mock.Anything, "members").Return(nil).Once()
		gate.On("EnforceMemberLimit", mock.Anything, mock.Anything).Return(nil).Once()
		gate.On("EnforceAdminCap", mock.Anything, mock.Anything, models.RoleUser).Return(nil).Once()
		repo.On("GetUserByEmail", mock.Anything, "new@example.com").
			Return(nil, apperr.ErrNotFound).Once()

		_, err := svc.InviteMember(context.Background(), adminCtx(orgID), req)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("role below admin", func(t *testing.T) {
		repo := new(OrgRepoMock)
		gate := new(GateMock)
		svc := NewOrgService(repo, gate, newNoopLogger())

		rc := adminCtx(orgID)
		rc.Role = models.RoleUser

		_, err := svc.InviteMember(context.Background(), rc, req)

		assert.True(t, apperr.IsAuthorization(err))
		gate.AssertNotCalled(t, "EnforceFeature", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestChangeRole(t *testing.T) {
	orgID := uuid.New()
	targetID := uuid.New()

	t.Run("promotion checks admin cap", func(t *testing.T) {
		repo := new(OrgRepoMock)
		gate := new(GateMock)
		svc := NewOrgService(repo, gate, newNoopLogger())

		repo.On("GetMembership", mock.Anything, targetID, orgID).
			Return(&models.Membership{UserID: targetID, OrganizationID: orgID, Role: models.RoleUser}, nil).Once()
		gate.On("EnforceAdminCap", mock.Anything, mock.Anything, models.RoleAdmin).Return(nil).Once()
		repo.On("UpdateMembershipRole", mock.Anything, orgID, targetID, models.RoleAdmin).Return(nil).Once()

		err := svc.ChangeRole(context.Background(), ownerCtx(orgID), targetID, models.ChangeRoleRequest{Role: "admin"})

		require.NoError(t, err)
		gate.AssertExpectations(t)
	})

	t.Run("demotion skips admin cap", func(t *testing.T) {
		repo := new(OrgRepoMock)
		gate := new(GateMock)
		svc := NewOrgService(repo, gate, newNoopLogger())

		repo.On("GetMembership", mock.Anything, targetID, orgID).
			Return(&models.Membership{UserID: targetID, OrganizationID: orgID, Role: models.RoleAdmin}, nil).Once()
		repo.On("UpdateMembershipRole", mock.Anything, orgID, targetID, models.RoleUser).Return(nil).Once()

		err := svc.ChangeRole(context.Background(), ownerCtx(orgID), targetID, models.ChangeRoleRequest{Role: "user"})

		require.NoError(t, err)
		gate.AssertNotCalled(t, "EnforceAdminCap", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin cannot change roles", func(t *testing.T) {
		repo := new(OrgRepoMock)
		svc := NewOrgService(repo, new(GateMock), newNoopLogger())

		err := svc.ChangeRole(context.Background(), adminCtx(orgID), targetID, models.ChangeRoleRequest{Role: "admin"})

		assert.True(t, apperr.IsAuthorization(err))
		repo.AssertNotCalled(t, "GetMembership", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "UpdateMembershipRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("owner role cannot be assigned", func(t *testing.T) {
		repo := new(OrgRepoMock)
		svc := NewOrgService(repo, new(GateMock), newNoopLogger())

		err := svc.ChangeRole(context.Background(), ownerCtx(orgID), targetID, models.ChangeRoleRequest{Role: "owner"})

		assert.True(t, apperr.IsAuthorization(err))
		repo.AssertNotCalled(t, "UpdateMembershipRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("owner role immutable", func(t *testing.T) {
		repo := new(OrgRepoMock)
		svc := NewOrgService(repo, new(GateMock), newNoopLogger())

		repo.On("GetMembership", mock.Anything, targetID, orgID).
			Return(&models.Membership{UserID: targetID, OrganizationID: orgID, Role: models.RoleOwner}, nil).Once()

		err := svc.ChangeRole(context.Background(), ownerCtx(orgID), targetID, models.ChangeRoleRequest{Role: "user"})

		assert.True(t, apperr.IsAuthorization(err))
		repo.AssertNotCalled(t, "UpdateMembershipRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRemoveMember(t *testing.T) {
	orgID := uuid.New()
	targetID := uuid.New()

	t.Run("success", func(t *testing.T) {
		repo := new(OrgRepoMock)
		svc := NewOrgService(repo, new(GateMock), newNoopLogger())

		repo.On("GetMembership", mock.Anything, targetID, orgID).
			Return(&models.Membership{UserID: targetID, OrganizationID: orgID, Role: models.RoleUser}, nil).Once()
		repo.On("DeleteMembership", mock.Anything, orgID, targetID).Return(nil).Once()

		require.NoError(t, svc.RemoveMember(context.Background(), adminCtx(orgID), targetID))
		repo.AssertExpectations(t)
	})

	t.Run("owner cannot be removed", func(t *testing.T) {
		repo := new(OrgRepoMock)
		svc := NewOrgService(repo, new(GateMock), newNoopLogger())

		repo.On("GetMembership", mock.Anything, targetID, orgID).
			Return(&models.Membership{UserID: targetID, OrganizationID: orgID, Role: models.RoleOwner}, nil).Once()

		err := svc.RemoveMember(context.Background(), adminCtx(orgID), targetID)

		assert.True(t, apperr.IsAuthorization(err))
		repo.AssertNotCalled(t, "DeleteMembership", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin cannot remove another admin", func(t *testing.T) {
		repo := new(OrgRepoMock)
		svc := NewOrgService(repo, new(GateMock), newNoopLogger())

		repo.On("GetMembership", mock.Anything, targetID, orgID).
			Return(&models.Membership{UserID: targetID, OrganizationID: orgID, Role: models.RoleAdmin}, nil).Once()

		err := svc.RemoveMember(context.Background(), adminCtx(orgID), targetID)

		assert.True(t, apperr.IsAuthorization(err))
		repo.AssertNotCalled(t, "DeleteMembership", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("owner can remove an admin", func(t *testing.T) {
		repo := new(OrgRepoMock)
		svc := NewOrgService(repo, new(GateMock), newNoopLogger())

		repo.On("GetMembership", mock.Anything, targetID, orgID).
			Return(&models.Membership{UserID: targetID, OrganizationID: orgID, Role: models.RoleAdmin}, nil).Once()
		repo.On("DeleteMembership", mock.Anything, orgID, targetID).Return(nil).Once()

		require.NoError(t, svc.RemoveMember(context.Background(), ownerCtx(orgID), targetID))
		repo.AssertExpectations(t)
	})
}
