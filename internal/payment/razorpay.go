package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// orderCreator is the slice of the Razorpay SDK used here.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay creates orders through the Razorpay API.
type Razorpay struct {
	orders    orderCreator
	keySecret string
}

var _ Gateway = (*Razorpay)(nil)

// NewRazorpay builds a client for the given API key pair.
func NewRazorpay(keyID, keySecret string) (*Razorpay, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{orders: client.Order, keySecret: keySecret}, nil
}

// CreateOrder calls the Orders API. The SDK does not accept a context, so ctx
// only gates the call from starting.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := r.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay create order: response without id")
	}

	order := &Order{
		ID:          id,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
	}
	if amount, ok := body["amount"].(float64); ok {
		order.AmountMinor = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok && currency != "" {
		order.Currency = currency
	}
	if receipt, ok := body["receipt"].(string); ok && receipt != "" {
		order.Receipt = receipt
	}
	order.Status, _ = body["status"].(string)
	return order, nil
}

// VerifySignature checks hex(HMAC-SHA256(secret, orderID|paymentID)).
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, r.keySecret)
}
