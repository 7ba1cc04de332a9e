package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"
)

// OrderHandler serves order endpoints.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

// CancelOrderRequest optionally annotates a cancellation.
type CancelOrderRequest struct {
	Notes *string `json:"notes"`
}

// CheckoutCustomer identifies the buyer of a checkout.
type CheckoutCustomer struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CheckoutRequest places an order.
type CheckoutRequest struct {
	Customer       CheckoutCustomer    `json:"customer"`
	Items          []service.OrderLine `json:"items" validate:"required,min=1,dive"`
	Currency       string              `json:"currency" validate:"omitempty,len=3"`
	PaymentOrderID string              `json:"paymentOrderId"`
	Notes          string              `json:"notes"`
}

// ListOrders godoc
// @Summary List orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param search query string false "Order id, customer name or email"
// @Param status query string false "pending, processing, shipped, delivered or cancelled"
// @Success 200 {object} service.OrderPage
// @Failure 400 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	limit, offset, search, err := pageQuery(c)
	if err != nil {
		return err
	}
	page, err := h.orders.ListOrders(c.Request().Context(), service.OrderQuery{
		Limit:  limit,
		Offset: offset,
		Search: search,
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"orders":  page.Orders,
		"total":   page.Total,
		"limit":   page.Limit,
		"offset":  page.Offset,
		"hasMore": page.HasMore,
	})
}

// GetOrder godoc
// @Summary Get an order with items, customer and history
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} model.Order
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := parseUintParam(c, "id", "INVALID_ORDER_ID")
	if err != nil {
		return err
	}
	order, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"order": order})
}

// CancelOrder godoc
// @Summary Cancel an order and restore its stock
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body CancelOrderRequest false "Notes"
// @Success 200 {object} model.Order
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id", "INVALID_ORDER_ID")
	if err != nil {
		return err
	}
	var req CancelOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orders.CancelOrder(c.Request().Context(), id, p.ID, req.Notes)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"order": order})
}

// UpdateOrderStatus godoc
// @Summary Change an order's status
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id", "INVALID_ORDER_ID")
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), id, model.OrderStatus(req.Status), p.ID, req.Notes)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"order": order})
}

// CreateOrder godoc
// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckoutRequest true "Customer and items"
// @Success 201 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	var actorID *uuid.UUID
	if p, found := auth.PrincipalFrom(c); found {
		actorID = &p.ID
	}

	order, err := h.orders.CreateOrder(c.Request().Context(), actorID, service.CheckoutInput{
		Customer: model.Customer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
		Items:          req.Items,
		Currency:       req.Currency,
		PaymentOrderID: req.PaymentOrderID,
		Notes:          req.Notes,
	})
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusCreated, echo.Map{"order": order})
}
