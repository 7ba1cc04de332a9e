package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"
)

// AdminHandler serves user and customer administration.
type AdminHandler struct {
	users     service.UserService
	customers service.CustomerService
	media     service.MediaService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(users service.UserService, customers service.CustomerService, media service.MediaService) *AdminHandler {
	return &AdminHandler{users: users, customers: customers, media: media}
}

// ChangeRoleRequest assigns a role to a user.
type ChangeRoleRequest struct {
	UserID  string `json:"userId" validate:"required"`
	NewRole string `json:"newRole" validate:"required"`
}

// UserIDRequest names a user.
type UserIDRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// VerifyUserRequest sets the email verification flag. Verified defaults to true.
type VerifyUserRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Verified *bool  `json:"verified"`
}

// CustomerIDRequest names a customer.
type CustomerIDRequest struct {
	CustomerID uint `json:"customerId" validate:"required"`
}

// ChangeUserRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangeRoleRequest true "Target user and role"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/change-user-role [patch]
func (h *AdminHandler) ChangeUserRole(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req ChangeRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}

	user, err := h.users.ChangeRole(c.Request().Context(), p.ID, userID, model.Role(req.NewRole))
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"user": user})
}

// DeleteUser godoc
// @Summary Delete a user with its sessions and accounts
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UserIDRequest true "Target user"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/delete-user [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req UserIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}

	if err := h.users.DeleteUser(c.Request().Context(), p.ID, userID); err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"message": "user deleted"})
}

// VerifyUser godoc
// @Summary Set a user's email verification flag
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyUserRequest true "Target user"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/verify-user [post]
func (h *AdminHandler) VerifyUser(c echo.Context) error {
	var req VerifyUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	userID, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}
	verified := true
	if req.Verified != nil {
		verified = *req.Verified
	}

	user, err := h.users.SetVerified(c.Request().Context(), userID, verified)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"user": user})
}

// UpdateUserAvatar godoc
// @Summary Replace a user's avatar
// @Description Allowed for the user themself or any admin.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param userId formData string true "Target user"
// @Param file formData file true "JPEG, PNG or WebP image up to 2 MiB"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/update-user-avatar [post]
func (h *AdminHandler) UpdateUserAvatar(c echo.Context) error {
	userID, err := parseUserID(c.FormValue("userId"))
	if err != nil {
		return err
	}
	if _, err := auth.SelfOrAdmin(c, userID); err != nil {
		return fail(err)
	}
	return uploadAvatar(c, h.media, userID)
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param search query string false "Name or email"
// @Param role query string false "admin, user or customer"
// @Success 200 {object} service.UserPage
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset, search, err := pageQuery(c)
	if err != nil {
		return err
	}
	page, err := h.users.ListUsers(c.Request().Context(), service.UserQuery{
		Limit:  limit,
		Offset: offset,
		Search: search,
		Role:   c.QueryParam("role"),
	})
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"users":   page.Users,
		"total":   page.Total,
		"limit":   page.Limit,
		"offset":  page.Offset,
		"hasMore": page.HasMore,
	})
}

// ListCustomers godoc
// @Summary List customers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param search query string false "Name, email or phone"
// @Success 200 {object} service.CustomerPage
// @Router /admin/customers [get]
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	limit, offset, search, err := pageQuery(c)
	if err != nil {
		return err
	}
	page, err := h.customers.ListCustomers(c.Request().Context(), service.CustomerQuery{
		Limit:  limit,
		Offset: offset,
		Search: search,
	})
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"customers": page.Customers,
		"total":     page.Total,
		"limit":     page.Limit,
		"offset":    page.Offset,
		"hasMore":   page.HasMore,
	})
}

// GetCustomer godoc
// @Summary Get a customer
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Customer ID"
// @Success 200 {object} model.Customer
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/customers/{id} [get]
func (h *AdminHandler) GetCustomer(c echo.Context) error {
	id, err := parseUintParam(c, "id", "INVALID_CUSTOMER_ID")
	if err != nil {
		return err
	}
	customer, err := h.customers.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"customer": customer})
}

// DeleteCustomer godoc
// @Summary Delete a customer and all of its orders
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CustomerIDRequest true "Target customer"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/delete-customer [delete]
func (h *AdminHandler) DeleteCustomer(c echo.Context) error {
	var req CustomerIDRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.customers.DeleteCustomer(c.Request().Context(), req.CustomerID); err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"message": "customer deleted"})
}

