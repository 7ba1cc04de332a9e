package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

func TestUserService_ChangeRole(t *testing.T) {
	admin := uuid.New()
	target := uuid.New()

	tests := []struct {
		name          string
		actor         uuid.UUID
		role          model.Role
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "promotes another user",
			actor: admin,
			role:  model.RoleAdmin,
			setupMock: func(m *MockUserRepository) {
				m.On("UpdateRole", mock.Anything, target, model.RoleAdmin).Return(nil)
				m.On("FindByID", mock.Anything, target).Return(&model.User{ID: target, Role: model.RoleAdmin}, nil)
			},
		},
		{
			name:          "rejects unknown role",
			actor:         admin,
			role:          model.Role("owner"),
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrInvalidRole,
		},
		{
			name:          "rejects own role change",
			actor:         target,
			role:          model.RoleUser,
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrSelfRoleChange,
		},
		{
			name:  "missing user",
			actor: admin,
			role:  model.RoleCustomer,
			setupMock: func(m *MockUserRepository) {
				m.On("UpdateRole", mock.Anything, target, model.RoleCustomer).Return(gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setupMock(repo)
			svc := NewUserService(repo, nil)

			user, err := svc.ChangeRole(context.Background(), tt.actor, target, tt.role)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.role, user.Role)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	admin := uuid.New()
	target := uuid.New()

	t.Run("self delete is refused before touching storage", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)

		err := svc.DeleteUser(context.Background(), admin, admin)
		assert.ErrorIs(t, err, apperrors.ErrSelfDelete)
		repo.AssertNotCalled(t, "DeleteCascade", mock.Anything, mock.Anything)
	})

	t.Run("cascades", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("DeleteCascade", mock.Anything, target).Return(nil)
		svc := NewUserService(repo, nil)

		require.NoError(t, svc.DeleteUser(context.Background(), admin, target))
		repo.AssertExpectations(t)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("DeleteCascade", mock.Anything, target).Return(gorm.ErrRecordNotFound)
		svc := NewUserService(repo, nil)

		assert.ErrorIs(t, svc.DeleteUser(context.Background(), admin, target), apperrors.ErrUserNotFound)
	})
}

func TestUserService_ListUsers(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("List", mock.Anything, repository.UserFilter{
		Page:   repository.Page{Limit: 2, Offset: 0},
		Search: "ann",
		Role:   model.RoleUser,
	}).Return([]model.UserWithLogin{{}, {}}, int64(5), nil)
	svc := NewUserService(repo, nil)

	page, err := svc.ListUsers(context.Background(), UserQuery{Limit: 2, Search: "ann", Role: "user"})
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.True(t, page.HasMore)

	_, err = svc.ListUsers(context.Background(), UserQuery{Role: "root"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
}

func TestUserService_SetVerified(t *testing.T) {
	id := uuid.New()
	repo := new(MockUserRepository)
	repo.On("SetEmailVerified", mock.Anything, id, true).Return(nil)
	repo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, EmailVerified: true}, nil)
	svc := NewUserService(repo, nil)

	user, err := svc.SetVerified(context.Background(), id, true)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
}
