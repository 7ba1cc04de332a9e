package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserQuery narrows an admin user listing.
type UserQuery struct {
	Limit  int
	Offset int
	Search string
	Role   string
}

// UserPage is one page of users.
type UserPage struct {
	Users []model.UserWithLogin `json:"users"`
	PageInfo
}

// UserService exposes user administration.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, query UserQuery) (*UserPage, error)
	ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role model.Role) (*model.User, error)
	SetVerified(ctx context.Context, userID uuid.UUID, verified bool) (*model.User, error)
	UpdateImage(ctx context.Context, userID uuid.UUID, image string) (*model.User, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, query UserQuery) (*UserPage, error) {
	role := model.Role(strings.TrimSpace(query.Role))
	if role != "" && !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	filter := repository.UserFilter{
		Page:   repository.Page{Limit: query.Limit, Offset: query.Offset}.Normalize(),
		Search: query.Search,
		Role:   role,
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []model.UserWithLogin{}
	}
	return &UserPage{Users: users, PageInfo: pageInfo(filter.Page, total)}, nil
}

// ChangeRole assigns role to userID. Admins cannot change their own role.
func (s *userService) ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	if actorID == userID {
		return nil, apperrors.ErrSelfRoleChange
	}
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return s.reload(ctx, userID)
}

func (s *userService) SetVerified(ctx context.Context, userID uuid.UUID, verified bool) (*model.User, error) {
	if err := s.repo.SetEmailVerified(ctx, userID, verified); err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return s.reload(ctx, userID)
}

func (s *userService) UpdateImage(ctx context.Context, userID uuid.UUID, image string) (*model.User, error) {
	if err := s.repo.UpdateImage(ctx, userID, image); err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return s.reload(ctx, userID)
}

// DeleteUser removes userID with its sessions and accounts. Admins cannot
// delete themselves.
func (s *userService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return apperrors.ErrSelfDelete
	}
	if err := s.repo.DeleteCascade(ctx, userID); err != nil {
		return notFound(err, apperrors.ErrUserNotFound)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(userID))
	return nil
}

func (s *userService) reload(ctx context.Context, id uuid.UUID) (*model.User, error) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrUserNotFound)
	}
	return user, nil
}

// notFound translates a missing row into the domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
