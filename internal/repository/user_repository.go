package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/model"
)

// UserFilter narrows a user listing.
type UserFilter struct {
	Page
	Search string
	Role   model.Role
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.UserWithLogin, int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error
	UpdateImage(ctx context.Context, id uuid.UUID, image string) error
	// DeleteCascade removes the user's sessions, then accounts, then the user.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.UserWithLogin, int64, error) {
	page := filter.Page.Normalize()

	q := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?", pattern, pattern)
	}
	if filter.Role != "" {
		q = q.Where("users.role = ?", filter.Role)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]model.UserWithLogin, 0, page.Limit)
	err := q.Select("users.*, (SELECT MAX(sessions.created_at) FROM sessions WHERE sessions.user_id = users.id) AS last_login_at").
		Order("users.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *userRepository) SetEmailVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	return r.updateColumn(ctx, id, "email_verified", verified)
}

func (r *userRepository) UpdateImage(ctx context.Context, id uuid.UUID, image string) error {
	return r.updateColumn(ctx, id, "image", image)
}

func (r *userRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Account{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
