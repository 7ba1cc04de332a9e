package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/service"
)

// PaymentHandler handles payment gateway endpoints.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentOrderRequest asks for a gateway order. Amount is in major units.
type CreatePaymentOrderRequest struct {
	Amount   decimal.Decimal   `json:"amount" swaggertype:"number"`
	Currency string            `json:"currency" validate:"omitempty,len=3"`
	Receipt  string            `json:"receipt" validate:"required,max=40"`
	Notes    map[string]string `json:"notes"`
}

// VerifyPaymentRequest carries what the checkout widget returns.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// CreatePaymentOrder godoc
// @Summary Create a payment order
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePaymentOrderRequest true "Amount, currency and receipt"
// @Success 200 {object} service.PaymentOrder
// @Failure 400 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /razorpay/create-order [post]
func (h *PaymentHandler) CreatePaymentOrder(c echo.Context) error {
	var req CreatePaymentOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.paymentService.CreatePaymentOrder(c.Request().Context(), service.PaymentOrderInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"orderId":  order.OrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"receipt":  order.Receipt,
	})
}

// VerifyPayment godoc
// @Summary Verify a completed payment's signature
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyPaymentRequest true "Checkout result"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Router /razorpay/verify-payment [post]
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req VerifyPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.paymentService.VerifyPayment(c.Request().Context(), req.OrderID, req.PaymentID, req.Signature); err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"verified": true})
}
