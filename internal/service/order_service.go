package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/events"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const defaultCurrency = "INR"

// OrderQuery narrows an order listing. Status is validated before use.
type OrderQuery struct {
	Limit  int
	Offset int
	Search string
	Status string
}

// OrderPage is one page of orders.
type OrderPage struct {
	Orders []model.Order `json:"orders"`
	PageInfo
}

// OrderLine is one requested product line of a checkout.
type OrderLine struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

// CheckoutInput is a storefront checkout.
type CheckoutInput struct {
	Customer       model.Customer
	Items          []OrderLine
	Currency       string
	PaymentOrderID string
	Notes          string
}

// OrderService manages the order lifecycle.
type OrderService interface {
	ListOrders(ctx context.Context, query OrderQuery) (*OrderPage, error)
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
	// CreateOrder reserves stock for every line and records a pending order.
	CreateOrder(ctx context.Context, actorID *uuid.UUID, input CheckoutInput) (*model.Order, error)
	// UpdateStatus moves an order to status. Moving to cancelled behaves
	// exactly like CancelOrder.
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus, actorID uuid.UUID, notes *string) (*model.Order, error)
	// CancelOrder cancels an order and returns its items to stock once.
	CancelOrder(ctx context.Context, id uint, actorID uuid.UUID, notes *string) (*model.Order, error)
}

type orderService struct {
	repo      repository.OrderRepository
	cache     *cache.Client
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, cache *cache.Client, publisher events.Publisher, log logrus.FieldLogger) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &orderService{repo: repo, cache: cache, publisher: publisher, log: log}
}

func (s *orderService) ListOrders(ctx context.Context, query OrderQuery) (*OrderPage, error) {
	status := model.OrderStatus(strings.ToLower(strings.TrimSpace(query.Status)))
	if status != "" && !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	filter := repository.OrderFilter{
		Page:   repository.Page{Limit: query.Limit, Offset: query.Offset}.Normalize(),
		Search: query.Search,
		Status: status,
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return &OrderPage{Orders: orders, PageInfo: pageInfo(filter.Page, total)}, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, apperrors.ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) CreateOrder(ctx context.Context, actorID *uuid.UUID, input CheckoutInput) (*model.Order, error) {
	lines, err := mergeLines(input.Items)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	var orderID uint
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.OrderRepository) error {
		ids := make([]uint, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		products, err := tx.FindProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			product, ok := byID[line.ProductID]
			if !ok || !product.Active {
				return fmt.Errorf("product %d: %w", line.ProductID, apperrors.ErrProductNotFound)
			}
			reserved, err := tx.ReserveStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !reserved {
				return fmt.Errorf("product %d: %w", line.ProductID, apperrors.ErrInsufficientStock)
			}
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, model.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
			})
		}

		customer := input.Customer
		customer.Email = normalizeEmail(customer.Email)
		stored, err := tx.FindOrCreateCustomer(ctx, &customer)
		if err != nil {
			return err
		}

		order := &model.Order{
			CustomerID:     stored.ID,
			Status:         model.OrderStatusPending,
			TotalAmount:    total,
			Currency:       currency,
			PaymentOrderID: input.PaymentOrderID,
			Notes:          input.Notes,
			Items:          items,
		}
		if err := tx.Create(ctx, order); err != nil {
			return err
		}
		orderID = order.ID

		return tx.CreateEvent(ctx, &model.OrderEvent{
			OrderID:  order.ID,
			ToStatus: model.OrderStatusPending,
			ActorID:  actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOrderTransition(string(model.OrderStatusPending))
	s.invalidateShop(ctx)
	s.publish(ctx, events.RoutingOrderCreated, orderID, "", model.OrderStatusPending, actorID, input.Notes)
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus, actorID uuid.UUID, notes *string) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if status == model.OrderStatusCancelled {
		return s.CancelOrder(ctx, id, actorID, notes)
	}

	var from model.OrderStatus
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.OrderRepository) error {
		order, err := tx.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, apperrors.ErrOrderNotFound)
		}
		from = order.Status
		if from == model.OrderStatusCancelled {
			return apperrors.ErrOrderAlreadyCancelled
		}

		// Same status only rewrites the notes, which MySQL reports as zero
		// affected rows when nothing differs.
		if _, err := tx.UpdateStatus(ctx, id, from, status, notes); err != nil {
			return err
		}
		if from == status {
			return nil
		}
		return tx.CreateEvent(ctx, &model.OrderEvent{
			OrderID:    id,
			FromStatus: from,
			ToStatus:   status,
			ActorID:    &actorID,
			Note:       deref(notes),
		})
	})
	if err != nil {
		return nil, err
	}

	if from != status {
		metrics.RecordOrderTransition(string(status))
		s.publish(ctx, events.RoutingOrderStatusChanged, id, from, status, &actorID, deref(notes))
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) CancelOrder(ctx context.Context, id uint, actorID uuid.UUID, notes *string) (*model.Order, error) {
	var from model.OrderStatus
	restored := 0
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.OrderRepository) error {
		order, err := tx.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, apperrors.ErrOrderNotFound)
		}
		from = order.Status
		if from.Terminal() {
			if from == model.OrderStatusCancelled {
				return apperrors.ErrOrderAlreadyCancelled
			}
			return apperrors.ErrOrderNotCancellable
		}

		changed, err := tx.UpdateStatus(ctx, id, from, model.OrderStatusCancelled, notes)
		if err != nil {
			return err
		}
		if !changed {
			return apperrors.ErrOrderAlreadyCancelled
		}

		for _, item := range order.Items {
			if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restore stock for product %d: %w", item.ProductID, err)
			}
			restored += item.Quantity
		}

		return tx.CreateEvent(ctx, &model.OrderEvent{
			OrderID:    id,
			FromStatus: from,
			ToStatus:   model.OrderStatusCancelled,
			ActorID:    &actorID,
			Note:       deref(notes),
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOrderTransition(string(model.OrderStatusCancelled))
	metrics.RecordStockRestored(restored)
	s.invalidateShop(ctx)
	s.publish(ctx, events.RoutingOrderCancelled, id, from, model.OrderStatusCancelled, &actorID, deref(notes))

	s.log.WithFields(logrus.Fields{
		"order_id":       id,
		"from_status":    from,
		"restored_units": restored,
		"actor_id":       actorID,
	}).Info("order cancelled")
	return s.GetOrder(ctx, id)
}

func (s *orderService) invalidateShop(ctx context.Context) {
	_ = s.cache.DeletePrefix(ctx, ShopCachePrefix)
}

// publish emits a lifecycle event. The transition is already committed, so
// a broker failure is only logged.
func (s *orderService) publish(ctx context.Context, key string, orderID uint, from, to model.OrderStatus, actorID *uuid.UUID, note string) {
	actor := ""
	if actorID != nil {
		actor = actorID.String()
	}
	evt := events.NewOrderEvent(key, orderID, string(from), string(to), actor, note)
	if err := s.publisher.PublishJSON(ctx, key, evt); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id": orderID,
			"event":    key,
		}).Warn("publish order event failed")
	}
}

// mergeLines folds duplicate products together and orders lines by product id
// so concurrent checkouts lock rows in the same order.
func mergeLines(lines []OrderLine) ([]OrderLine, error) {
	if len(lines) == 0 {
		return nil, apperrors.ErrEmptyOrder
	}
	qty := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.ProductID == 0 || line.Quantity <= 0 {
			return nil, apperrors.ErrInvalidQuantity
		}
		qty[line.ProductID] += line.Quantity
	}
	merged := make([]OrderLine, 0, len(qty))
	for id, q := range qty {
		merged = append(merged, OrderLine{ProductID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
