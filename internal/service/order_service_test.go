package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "storefront/internal/errors"
	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/repository"
)

func newOrderService(repo *MockOrderRepository, pub *recordingPublisher) OrderService {
	logger, _ := test.NewNullLogger()
	return NewOrderService(repo, nil, pub, logger)
}

func pendingOrder(id uint) *model.Order {
	return &model.Order{
		ID:     id,
		Status: model.OrderStatusPending,
		Items: []model.OrderItem{
			{ProductID: 10, Quantity: 2},
			{ProductID: 11, Quantity: 1},
		},
	}
}

func TestOrderService_CancelOrderRestoresStockOnce(t *testing.T) {
	actor := uuid.New()
	repo := new(MockOrderRepository)
	pub := &recordingPublisher{}

	repo.On("FindByIDForUpdate", mock.Anything, uint(7)).Return(pendingOrder(7), nil).Once()
	repo.On("UpdateStatus", mock.Anything, uint(7), model.OrderStatusPending, model.OrderStatusCancelled, (*string)(nil)).
		Return(true, nil).Once()
	repo.On("RestoreStock", mock.Anything, uint(10), 2).Return(nil).Once()
	repo.On("RestoreStock", mock.Anything, uint(11), 1).Return(nil).Once()
	repo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e *model.OrderEvent) bool {
		return e.FromStatus == model.OrderStatusPending && e.ToStatus == model.OrderStatusCancelled && *e.ActorID == actor
	})).Return(nil).Once()
	repo.On("FindByID", mock.Anything, uint(7)).Return(&model.Order{ID: 7, Status: model.OrderStatusCancelled}, nil)

	svc := newOrderService(repo, pub)
	order, err := svc.CancelOrder(context.Background(), 7, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)
	assert.Equal(t, []string{events.RoutingOrderCancelled}, pub.Keys())

	// The second attempt sees the committed status and changes nothing.
	cancelled := pendingOrder(7)
	cancelled.Status = model.OrderStatusCancelled
	repo.On("FindByIDForUpdate", mock.Anything, uint(7)).Return(cancelled, nil).Once()

	_, err = svc.CancelOrder(context.Background(), 7, actor, nil)
	assert.ErrorIs(t, err, apperrors.ErrOrderAlreadyCancelled)
	repo.AssertNumberOfCalls(t, "RestoreStock", 2)
	repo.AssertExpectations(t)
}

func TestOrderService_CancelOrderLostRace(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("FindByIDForUpdate", mock.Anything, uint(7)).Return(pendingOrder(7), nil)
	repo.On("UpdateStatus", mock.Anything, uint(7), model.OrderStatusPending, model.OrderStatusCancelled, (*string)(nil)).
		Return(false, nil)

	svc := newOrderService(repo, &recordingPublisher{})
	_, err := svc.CancelOrder(context.Background(), 7, uuid.New(), nil)
	assert.ErrorIs(t, err, apperrors.ErrOrderAlreadyCancelled)
	repo.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CancelOrderGuards(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockOrderRepository)
		expectedError error
	}{
		{
			name: "delivered",
			setupMock: func(m *MockOrderRepository) {
				o := pendingOrder(1)
				o.Status = model.OrderStatusDelivered
				m.On("FindByIDForUpdate", mock.Anything, uint(1)).Return(o, nil)
			},
			expectedError: apperrors.ErrOrderNotCancellable,
		},
		{
			name: "missing",
			setupMock: func(m *MockOrderRepository) {
				m.On("FindByIDForUpdate", mock.Anything, uint(1)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrOrderNotFound,
		},
		{
			name: "stock restore failure aborts",
			setupMock: func(m *MockOrderRepository) {
				m.On("FindByIDForUpdate", mock.Anything, uint(1)).Return(pendingOrder(1), nil)
				m.On("UpdateStatus", mock.Anything, uint(1), model.OrderStatusPending, model.OrderStatusCancelled, (*string)(nil)).Return(true, nil)
				m.On("RestoreStock", mock.Anything, uint(10), 2).Return(errors.New("deadlock"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOrderRepository)
			tt.setupMock(repo)
			pub := &recordingPublisher{}

			_, err := newOrderService(repo, pub).CancelOrder(context.Background(), 1, uuid.New(), nil)
			require.Error(t, err)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			}
			assert.Empty(t, pub.Keys())
			repo.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	actor := uuid.New()

	t.Run("rejects unknown status without touching storage", func(t *testing.T) {
		repo := new(MockOrderRepository)
		_, err := newOrderService(repo, &recordingPublisher{}).
			UpdateStatus(context.Background(), 1, model.OrderStatus("lost"), actor, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		repo.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("moves forward and records the transition", func(t *testing.T) {
		repo := new(MockOrderRepository)
		pub := &recordingPublisher{}
		notes := "tracking 123"
		repo.On("FindByIDForUpdate", mock.Anything, uint(2)).Return(pendingOrder(2), nil)
		repo.On("UpdateStatus", mock.Anything, uint(2), model.OrderStatusPending, model.OrderStatusShipped, &notes).Return(true, nil)
		repo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e *model.OrderEvent) bool {
			return e.ToStatus == model.OrderStatusShipped && e.Note == "tracking 123"
		})).Return(nil)
		repo.On("FindByID", mock.Anything, uint(2)).Return(&model.Order{ID: 2, Status: model.OrderStatusShipped}, nil)

		order, err := newOrderService(repo, pub).UpdateStatus(context.Background(), 2, model.OrderStatusShipped, actor, &notes)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusShipped, order.Status)
		assert.Equal(t, []string{events.RoutingOrderStatusChanged}, pub.Keys())
		repo.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled routes through cancellation", func(t *testing.T) {
		repo := new(MockOrderRepository)
		repo.On("FindByIDForUpdate", mock.Anything, uint(3)).Return(pendingOrder(3), nil)
		repo.On("UpdateStatus", mock.Anything, uint(3), model.OrderStatusPending, model.OrderStatusCancelled, (*string)(nil)).Return(true, nil)
		repo.On("RestoreStock", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		repo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
		repo.On("FindByID", mock.Anything, uint(3)).Return(&model.Order{ID: 3, Status: model.OrderStatusCancelled}, nil)

		_, err := newOrderService(repo, &recordingPublisher{}).UpdateStatus(context.Background(), 3, model.OrderStatusCancelled, actor, nil)
		require.NoError(t, err)
		repo.AssertNumberOfCalls(t, "RestoreStock", 2)
	})

	t.Run("cancelled orders cannot be reopened", func(t *testing.T) {
		repo := new(MockOrderRepository)
		o := pendingOrder(4)
		o.Status = model.OrderStatusCancelled
		repo.On("FindByIDForUpdate", mock.Anything, uint(4)).Return(o, nil)

		_, err := newOrderService(repo, &recordingPublisher{}).UpdateStatus(context.Background(), 4, model.OrderStatusPending, actor, nil)
		assert.ErrorIs(t, err, apperrors.ErrOrderAlreadyCancelled)
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("List", mock.Anything, repository.OrderFilter{
		Page:   repository.Page{Limit: 20},
		Status: model.OrderStatusShipped,
	}).Return([]model.Order{{ID: 1}}, int64(21), nil)
	svc := newOrderService(repo, &recordingPublisher{})

	page, err := svc.ListOrders(context.Background(), OrderQuery{Status: "Shipped"})
	require.NoError(t, err)
	assert.True(t, page.HasMore)

	_, err = svc.ListOrders(context.Background(), OrderQuery{Status: "lost"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestOrderService_CreateOrder(t *testing.T) {
	products := []model.Product{
		{ID: 1, Price: decimal.RequireFromString("10.50"), Active: true},
		{ID: 2, Price: decimal.RequireFromString("3.00"), Active: true},
	}

	t.Run("reserves stock and totals lines", func(t *testing.T) {
		repo := new(MockOrderRepository)
		pub := &recordingPublisher{}
		repo.On("FindProductsByIDs", mock.Anything, []uint{1, 2}).Return(products, nil)
		repo.On("ReserveStock", mock.Anything, uint(1), 3).Return(true, nil)
		repo.On("ReserveStock", mock.Anything, uint(2), 1).Return(true, nil)
		repo.On("FindOrCreateCustomer", mock.Anything, mock.MatchedBy(func(c *model.Customer) bool {
			return c.Email == "ann@example.com"
		})).Return(&model.Customer{ID: 5}, nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
			return o.CustomerID == 5 && o.TotalAmount.Equal(decimal.RequireFromString("34.50")) && o.Currency == "INR"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*model.Order).ID = 42
		}).Return(nil)
		repo.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e *model.OrderEvent) bool {
			return e.OrderID == 42 && e.ToStatus == model.OrderStatusPending
		})).Return(nil)
		repo.On("FindByID", mock.Anything, uint(42)).Return(&model.Order{ID: 42}, nil)

		order, err := newOrderService(repo, pub).CreateOrder(context.Background(), nil, CheckoutInput{
			Customer: model.Customer{Name: "Ann", Email: "Ann@Example.com"},
			Items: []OrderLine{
				{ProductID: 2, Quantity: 1},
				{ProductID: 1, Quantity: 1},
				{ProductID: 1, Quantity: 2},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, uint(42), order.ID)
		assert.Equal(t, []string{events.RoutingOrderCreated}, pub.Keys())
		repo.AssertExpectations(t)
	})

	t.Run("insufficient stock aborts", func(t *testing.T) {
		repo := new(MockOrderRepository)
		repo.On("FindProductsByIDs", mock.Anything, []uint{1}).Return(products[:1], nil)
		repo.On("ReserveStock", mock.Anything, uint(1), 99).Return(false, nil)

		_, err := newOrderService(repo, &recordingPublisher{}).CreateOrder(context.Background(), nil, CheckoutInput{
			Customer: model.Customer{Name: "Ann", Email: "ann@example.com"},
			Items:    []OrderLine{{ProductID: 1, Quantity: 99}},
		})
		assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := newOrderService(new(MockOrderRepository), &recordingPublisher{}).
			CreateOrder(context.Background(), nil, CheckoutInput{})
		assert.ErrorIs(t, err, apperrors.ErrEmptyOrder)
	})
}

func TestOrderService_PublishFailureIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	repo := new(MockOrderRepository)
	repo.On("FindByIDForUpdate", mock.Anything, uint(8)).Return(&model.Order{ID: 8, Status: model.OrderStatusProcessing}, nil)
	repo.On("UpdateStatus", mock.Anything, uint(8), model.OrderStatusProcessing, model.OrderStatusShipped, (*string)(nil)).Return(true, nil)
	repo.On("CreateEvent", mock.Anything, mock.Anything).Return(nil)
	repo.On("FindByID", mock.Anything, uint(8)).Return(&model.Order{ID: 8, Status: model.OrderStatusShipped}, nil)

	svc := NewOrderService(repo, nil, &recordingPublisher{err: errors.New("channel closed")}, logger)
	_, err := svc.UpdateStatus(context.Background(), 8, model.OrderStatusShipped, uuid.New(), nil)
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
