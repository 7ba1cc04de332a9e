package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrUnauthenticated is returned when no valid session accompanies the request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserAlreadyExists is returned when signing up with a taken email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole is returned for a role outside admin, user and customer.
	ErrInvalidRole = errors.New("invalid role")
	// ErrSelfRoleChange is returned when a user tries to change their own role.
	ErrSelfRoleChange = errors.New("you cannot change your own role")
	// ErrSelfDelete is returned when a user tries to delete their own account.
	ErrSelfDelete = errors.New("you cannot delete your own account")

	// ErrCustomerNotFound is returned when a customer is not found.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct is returned for a product without a name or with negative stock.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrInvalidSlug is returned for a slug that is not lowercase words joined by hyphens.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrSlugTaken is returned when another product already uses the slug.
	ErrSlugTaken = errors.New("slug already in use")
	// ErrInsufficientStock is returned when a product cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmptyOrder is returned for a checkout without items.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrInvalidQuantity is returned for an order line without a product or a positive quantity.
	ErrInvalidQuantity = errors.New("invalid order quantity")

	// ErrOrderNotFound is returned when an order is not found.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStatus is returned for a status outside the order lifecycle.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrOrderAlreadyCancelled is returned when cancelling or reopening a cancelled order.
	ErrOrderAlreadyCancelled = errors.New("order is already cancelled")
	// ErrOrderNotCancellable is returned when cancelling a delivered order.
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")

	// ErrInvalidFileType is returned for uploads that are not jpeg, png or webp.
	ErrInvalidFileType = errors.New("invalid file type, only JPEG, PNG and WebP images are allowed")
	// ErrFileTooLarge is returned for uploads over the size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidObjectKey is returned when a key falls outside the expected prefix.
	ErrInvalidObjectKey = errors.New("invalid object key")

	// ErrInvalidAmount is returned when amount is invalid.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidCurrency is returned for a currency that is not a three-letter code.
	ErrInvalidCurrency = errors.New("invalid currency")
	// ErrGatewayFailed is returned when the payment gateway rejects or fails a request.
	ErrGatewayFailed = errors.New("payment gateway request failed")
	// ErrInvalidSignature is returned when a payment signature does not verify.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrGatewayUnavailable is returned when the payment gateway is not configured.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// Echo converts the error into an *echo.HTTPError carrying the JSON envelope.
func (e *HTTPError) Echo() *echo.HTTPError {
	return echo.NewHTTPError(e.StatusCode, e.ToErrorResponse())
}

type mapping struct {
	err    error
	status int
	code   string
}

var mappings = []mapping{
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
	{ErrSelfRoleChange, http.StatusBadRequest, "SELF_ROLE_CHANGE"},
	{ErrSelfDelete, http.StatusBadRequest, "SELF_DELETE"},
	{ErrCustomerNotFound, http.StatusNotFound, "CUSTOMER_NOT_FOUND"},
	{ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{ErrInvalidProduct, http.StatusBadRequest, "INVALID_PRODUCT"},
	{ErrInvalidSlug, http.StatusBadRequest, "INVALID_SLUG"},
	{ErrSlugTaken, http.StatusConflict, "SLUG_TAKEN"},
	{ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	{ErrEmptyOrder, http.StatusBadRequest, "EMPTY_ORDER"},
	{ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{ErrOrderAlreadyCancelled, http.StatusConflict, "ORDER_ALREADY_CANCELLED"},
	{ErrOrderNotCancellable, http.StatusConflict, "ORDER_NOT_CANCELLABLE"},
	{ErrInvalidFileType, http.StatusBadRequest, "INVALID_FILE_TYPE"},
	{ErrFileTooLarge, http.StatusBadRequest, "FILE_TOO_LARGE"},
	{ErrInvalidObjectKey, http.StatusBadRequest, "INVALID_OBJECT_KEY"},
	{ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{ErrInvalidCurrency, http.StatusBadRequest, "INVALID_CURRENCY"},
	{ErrGatewayFailed, http.StatusBadGateway, "GATEWAY_ERROR"},
	{ErrInvalidSignature, http.StatusBadRequest, "INVALID_SIGNATURE"},
	{ErrGatewayUnavailable, http.StatusServiceUnavailable, "GATEWAY_UNAVAILABLE"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors collapse to a
// generic 500 so library details never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// BadRequest builds a 400 envelope for malformed input.
func BadRequest(message, code string) *echo.HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, code).Echo()
}

// HTTPErrorHandler renders every error raised by handlers or middleware as the
// JSON envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case ErrorResponse:
			resp = msg
		case string:
			resp = ErrorResponse{Error: msg, Code: codeForStatus(status)}
		default:
			resp = ErrorResponse{Error: http.StatusText(status), Code: codeForStatus(status)}
		}
	} else {
		mapped := MapErrorToHTTP(err)
		status = mapped.StatusCode
		resp = mapped.ToErrorResponse()
	}
	resp.Success = false

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, resp)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "FILE_TOO_LARGE"
	case http.StatusConflict:
		return "CONFLICT"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
