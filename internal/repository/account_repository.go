package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/model"
)

// AccountRepository defines credential account persistence operations.
type AccountRepository interface {
	FindCredential(ctx context.Context, userID uuid.UUID) (*model.Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// CreateUserWithCredential inserts the user and its credential account atomically.
	CreateUserWithCredential(ctx context.Context, user *model.User, account *model.Account) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// FindCredential finds the email/password account of a user.
func (r *accountRepository) FindCredential(ctx context.Context, userID uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", userID, model.ProviderCredential).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdatePassword replaces the stored password hash.
func (r *accountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

// CreateUserWithCredential executes both inserts within a database transaction.
func (r *accountRepository) CreateUserWithCredential(ctx context.Context, user *model.User, account *model.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		account.UserID = user.ID
		if account.ProviderID == "" {
			account.ProviderID = model.ProviderCredential
		}
		return tx.Create(account).Error
	})
}
