package repository

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/model"
)

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Page
	Search string
	Status model.OrderStatus
}

// OrderRepository defines order persistence operations, including the stock
// adjustments that accompany order lifecycle changes.
type OrderRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order *model.Order) error
	CreateEvent(ctx context.Context, event *model.OrderEvent) error

	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error
	// FindByIDForUpdate loads the order with its items and locks the order row.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Order, error)
	// UpdateStatus moves the order from one status to another and reports
	// whether the row was still in the from status.
	UpdateStatus(ctx context.Context, id uint, from, to model.OrderStatus, notes *string) (bool, error)
	// RestoreStock adds quantity back to a product, deleted or not.
	RestoreStock(ctx context.Context, productID uint, quantity int) error
	// ReserveStock takes quantity from an active product and reports false when
	// the product cannot cover it.
	ReserveStock(ctx context.Context, productID uint, quantity int) (bool, error)
	FindProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	FindOrCreateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// FindByID finds an order with its customer, items and event trail.
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	page := filter.Page.Normalize()

	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Joins("LEFT JOIN customers ON customers.id = orders.customer_id")
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		if id, err := strconv.ParseUint(strings.TrimPrefix(search, "#"), 10, 64); err == nil {
			q = q.Where("orders.id = ? OR LOWER(customers.name) LIKE ? OR LOWER(customers.email) LIKE ?", id, pattern, pattern)
		} else {
			q = q.Where("LOWER(customers.name) LIKE ? OR LOWER(customers.email) LIKE ? OR LOWER(orders.notes) LIKE ?", pattern, pattern, pattern)
		}
	}
	if filter.Status != "" {
		q = q.Where("orders.status = ?", filter.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]model.Order, 0, page.Limit)
	err := q.Select("orders.*").
		Preload("Customer").
		Preload("Items").
		Order("orders.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Create inserts the order together with its items.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) CreateEvent(ctx context.Context, event *model.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// WithTransaction executes a function within a database transaction.
func (r *orderRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &orderRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, from, to model.OrderStatus, notes *string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if notes != nil {
		updates["notes"] = *notes
	}
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) RestoreStock(ctx context.Context, productID uint, quantity int) error {
	return r.db.WithContext(ctx).Unscoped().Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}

func (r *orderRepository) ReserveStock(ctx context.Context, productID uint, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND active = ? AND stock >= ?", productID, true, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) FindProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindOrCreateCustomer returns the customer with the given email, creating it
// from the supplied details when absent.
func (r *orderRepository) FindOrCreateCustomer(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	var existing model.Customer
	err := r.db.WithContext(ctx).Where("email = ?", customer.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}
