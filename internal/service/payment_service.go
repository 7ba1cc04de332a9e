package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	apperrors "storefront/internal/errors"
	"storefront/internal/payment"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// PaymentOrderInput asks for a gateway order. Amount is in major units.
type PaymentOrderInput struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
	Notes    map[string]string
}

// PaymentOrder is the gateway order handed to the checkout widget.
type PaymentOrder struct {
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Status   string          `json:"status,omitempty"`
}

// PaymentService handles payment gateway operations.
type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, input PaymentOrderInput) (*PaymentOrder, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error
}

type paymentService struct {
	gateway payment.Gateway
	log     logrus.FieldLogger
}

// NewPaymentService creates a payment service. A nil gateway makes every
// operation report the gateway as unavailable.
func NewPaymentService(gateway payment.Gateway, log logrus.FieldLogger) PaymentService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &paymentService{gateway: gateway, log: log}
}

func (s *paymentService) CreatePaymentOrder(ctx context.Context, input PaymentOrderInput) (*PaymentOrder, error) {
	if s.gateway == nil {
		return nil, apperrors.ErrGatewayUnavailable
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrInvalidAmount
	}
	minor := payment.ToMinorUnits(input.Amount)
	if minor <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if !currencyCode.MatchString(currency) {
		return nil, apperrors.ErrInvalidCurrency
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		AmountMinor: minor,
		Currency:    currency,
		Receipt:     strings.TrimSpace(input.Receipt),
		Notes:       input.Notes,
	})
	if err != nil {
		s.log.WithError(err).WithField("receipt", input.Receipt).Error("create payment order failed")
		return nil, fmt.Errorf("create payment order: %w", apperrors.ErrGatewayFailed)
	}

	return &PaymentOrder{
		OrderID:  order.ID,
		Amount:   payment.FromMinorUnits(order.AmountMinor),
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
	}, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error {
	if s.gateway == nil {
		return apperrors.ErrGatewayUnavailable
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return apperrors.ErrInvalidSignature
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		s.log.WithFields(logrus.Fields{
			"order_id":   orderID,
			"payment_id": paymentID,
		}).Warn("payment signature mismatch")
		return apperrors.ErrInvalidSignature
	}
	return nil
}
