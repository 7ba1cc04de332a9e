package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderRequest asks the processor for a payment order.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the processor's payment order.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

// Gateway creates payment orders with a third-party processor.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	// VerifySignature checks the signature the checkout widget returns for a
	// completed payment.
	VerifySignature(orderID, paymentID, signature string) bool
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts an amount in major units (rupees) to minor units (paise).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts minor units back to a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
