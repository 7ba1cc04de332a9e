package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	got  map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.got = data
	return f.resp, f.err
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"499", 49900},
		{"499.99", 49999},
		{"0.01", 1},
		{"10.005", 1001},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.in)), tt.in)
	}
	assert.Equal(t, "499.99", FromMinorUnits(49999).StringFixed(2))
}

func TestRazorpay_CreateOrder(t *testing.T) {
	orders := &fakeOrders{resp: map[string]interface{}{
		"id":       "order_Mx1",
		"amount":   float64(49900),
		"currency": "INR",
		"receipt":  "rcpt_1",
		"status":   "created",
	}}
	gw := &Razorpay{orders: orders, keySecret: "secret"}

	order, err := gw.CreateOrder(context.Background(), OrderRequest{
		AmountMinor: 49900,
		Currency:    "INR",
		Receipt:     "rcpt_1",
		Notes:       map[string]string{"cart": "42"},
	})
	require.NoError(t, err)

	assert.Equal(t, "order_Mx1", order.ID)
	assert.Equal(t, int64(49900), order.AmountMinor)
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, int64(49900), orders.got["amount"])
	assert.Equal(t, map[string]interface{}{"cart": "42"}, orders.got["notes"])
}

func TestRazorpay_CreateOrderErrors(t *testing.T) {
	gw := &Razorpay{orders: &fakeOrders{err: errors.New("BAD_REQUEST_ERROR")}}
	_, err := gw.CreateOrder(context.Background(), OrderRequest{AmountMinor: 100, Currency: "INR", Receipt: "r"})
	assert.Error(t, err)

	gw = &Razorpay{orders: &fakeOrders{resp: map[string]interface{}{}}}
	_, err = gw.CreateOrder(context.Background(), OrderRequest{AmountMinor: 100, Currency: "INR", Receipt: "r"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gw.CreateOrder(ctx, OrderRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRazorpay_VerifySignature(t *testing.T) {
	gw := &Razorpay{keySecret: "secret"}
	sig := sign("secret", "order_1", "pay_1")

	assert.True(t, gw.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, gw.VerifySignature("order_1", "pay_2", sig))
	assert.False(t, gw.VerifySignature("order_1", "pay_1", sign("other", "order_1", "pay_1")))
	assert.False(t, gw.VerifySignature("", "", ""))
}

func TestNewRazorpayRequiresKeys(t *testing.T) {
	_, err := NewRazorpay("", "")
	assert.Error(t, err)

	gw, err := NewRazorpay("rzp_test_key", "secret")
	require.NoError(t, err)
	assert.NotNil(t, gw.orders)
}

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
