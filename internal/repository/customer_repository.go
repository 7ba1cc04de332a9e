package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/model"
)

// CustomerFilter narrows a customer listing.
type CustomerFilter struct {
	Page
	Search string
}

// CustomerRepository defines customer persistence operations.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]model.Customer, int64, error)
	// DeleteCascade removes the customer's order items, order events, orders and
	// finally the customer itself.
	DeleteCascade(ctx context.Context, id uint) error
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, filter CustomerFilter) ([]model.Customer, int64, error) {
	page := filter.Page.Normalize()

	q := r.db.WithContext(ctx).Model(&model.Customer{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]model.Customer, 0, page.Limit)
	if err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *customerRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderIDs []uint
		if err := tx.Model(&model.Order{}).Where("customer_id = ?", id).Pluck("id", &orderIDs).Error; err != nil {
			return err
		}
		if len(orderIDs) > 0 {
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&model.OrderItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id IN ?", orderIDs).Delete(&model.OrderEvent{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", orderIDs).Delete(&model.Order{}).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&model.Customer{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
