package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "storefront/internal/errors"
	"storefront/internal/payment"
)

func TestPaymentService_CreatePaymentOrder(t *testing.T) {
	logger, _ := test.NewNullLogger()

	tests := []struct {
		name          string
		input         PaymentOrderInput
		setupMock     func(*MockGateway)
		expectedError error
	}{
		{
			name:  "converts to minor units and defaults currency",
			input: PaymentOrderInput{Amount: decimal.RequireFromString("499.99"), Receipt: "rcpt_1"},
			setupMock: func(m *MockGateway) {
				m.On("CreateOrder", mock.Anything, payment.OrderRequest{AmountMinor: 49999, Currency: "INR", Receipt: "rcpt_1"}).
					Return(&payment.Order{ID: "order_abc", AmountMinor: 49999, Currency: "INR", Receipt: "rcpt_1", Status: "created"}, nil)
			},
		},
		{
			name:          "zero amount",
			input:         PaymentOrderInput{Amount: decimal.Zero, Receipt: "r"},
			setupMock:     func(m *MockGateway) {},
			expectedError: apperrors.ErrInvalidAmount,
		},
		{
			name:          "bad currency",
			input:         PaymentOrderInput{Amount: decimal.NewFromInt(1), Currency: "rupees", Receipt: "r"},
			setupMock:     func(m *MockGateway) {},
			expectedError: apperrors.ErrInvalidCurrency,
		},
		{
			name:  "gateway failure",
			input: PaymentOrderInput{Amount: decimal.NewFromInt(1), Receipt: "r"},
			setupMock: func(m *MockGateway) {
				m.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("BAD_REQUEST_ERROR"))
			},
			expectedError: apperrors.ErrGatewayFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			tt.setupMock(gw)
			svc := NewPaymentService(gw, logger)

			order, err := svc.CreatePaymentOrder(context.Background(), tt.input)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "order_abc", order.OrderID)
				assert.True(t, order.Amount.Equal(decimal.RequireFromString("499.99")))
			}
			gw.AssertExpectations(t)
		})
	}
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	logger, _ := test.NewNullLogger()
	gw := new(MockGateway)
	gw.On("VerifySignature", "order_1", "pay_1", "good").Return(true)
	gw.On("VerifySignature", "order_1", "pay_1", "bad").Return(false)
	svc := NewPaymentService(gw, logger)

	assert.NoError(t, svc.VerifyPayment(context.Background(), "order_1", "pay_1", "good"))
	assert.ErrorIs(t, svc.VerifyPayment(context.Background(), "order_1", "pay_1", "bad"), apperrors.ErrInvalidSignature)
	assert.ErrorIs(t, svc.VerifyPayment(context.Background(), "", "pay_1", "good"), apperrors.ErrInvalidSignature)
}

func TestPaymentService_WithoutGateway(t *testing.T) {
	svc := NewPaymentService(nil, nil)
	_, err := svc.CreatePaymentOrder(context.Background(), PaymentOrderInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
	assert.ErrorIs(t, svc.VerifyPayment(context.Background(), "a", "b", "c"), apperrors.ErrGatewayUnavailable)
}
