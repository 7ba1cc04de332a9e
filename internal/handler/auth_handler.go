package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/errors"
	"storefront/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService  service.AuthService
	userService  service.UserService
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, userService service.UserService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, cookieSecure: cookieSecure}
}

// SignUpRequest represents a sign-up request.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// SignInRequest represents a sign-in request.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SignOutRequest optionally names the refresh token to revoke.
type SignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SignUp godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Sign-up data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.SignUp(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusCreated, echo.Map{"user": user})
}

// SignIn godoc
// @Summary Sign in and open a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password, service.SessionMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return fail(err)
	}

	c.SetCookie(h.sessionCookie(res.AccessToken, res.ExpiresAt))
	return ok(c, http.StatusOK, echo.Map{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
		"expiresAt":    res.ExpiresAt,
		"user":         res.User,
	})
}

// Refresh godoc
// @Summary Exchange a refresh token for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"accessToken": accessToken})
}

// SignOut godoc
// @Summary End the current session
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SignOutRequest false "Refresh token to revoke"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req SignOutRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("invalid request body", "INVALID_REQUEST")
	}

	if err := h.authService.SignOut(c.Request().Context(), p.SessionID, req.RefreshToken); err != nil {
		return fail(err)
	}
	c.SetCookie(h.sessionCookie("", time.Unix(0, 0)))
	return ok(c, http.StatusOK, nil)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.userService.GetUser(c.Request().Context(), p.ID)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, echo.Map{"user": user, "sessionId": p.SessionID})
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
