package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"storefront/internal/auth"
	"storefront/internal/errors"
	"storefront/internal/handler"
	"storefront/internal/metrics"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Admin   *handler.AdminHandler
	Orders  *handler.OrderHandler
	Product *handler.ProductHandler
	Media   *handler.MediaHandler
	Payment *handler.PaymentHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, log logrus.FieldLogger, gate *auth.Gate, h Handlers, health map[string]Pinger) {
	e.HTTPErrorHandler = errors.HTTPErrorHandler
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	e.Use(metrics.Middleware())

	e.GET("/healthz", healthz(health))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if h.Media.ServesObjects() {
		e.GET("/media/*", h.Media.ServeObject)
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/sign-up", h.Auth.SignUp)
	api.POST("/auth/sign-in", h.Auth.SignIn)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/shop/products", h.Product.ListShopProducts)
	api.GET("/shop/products/:slug", h.Product.GetShopProduct)

	// Authenticated routes
	secured := api.Group("", gate.Authenticate())
	secured.POST("/auth/sign-out", h.Auth.SignOut)
	secured.GET("/me", h.Auth.Me)
	secured.POST("/orders", h.Orders.CreateOrder)
	secured.POST("/users/upload-avatar", h.Media.UploadAvatar, middleware.BodyLimit("3M"))
	secured.POST("/admin/update-user-avatar", h.Admin.UpdateUserAvatar, middleware.BodyLimit("3M"))
	secured.POST("/razorpay/create-order", h.Payment.CreatePaymentOrder)
	secured.POST("/razorpay/verify-payment", h.Payment.VerifyPayment)

	// Admin routes
	admin := secured.Group("", auth.AdminOnly())
	admin.GET("/admin/users", h.Admin.ListUsers)
	admin.PATCH("/admin/change-user-role", h.Admin.ChangeUserRole)
	admin.DELETE("/admin/delete-user", h.Admin.DeleteUser)
	admin.POST("/admin/delete-user", h.Admin.DeleteUser)
	admin.POST("/admin/verify-user", h.Admin.VerifyUser)
	admin.GET("/admin/customers", h.Admin.ListCustomers)
	admin.GET("/admin/customers/:id", h.Admin.GetCustomer)
	admin.DELETE("/admin/delete-customer", h.Admin.DeleteCustomer)
	admin.POST("/admin/delete-customer", h.Admin.DeleteCustomer)

	admin.GET("/orders", h.Orders.ListOrders)
	admin.GET("/orders/:id", h.Orders.GetOrder)
	admin.POST("/orders/:id/cancel", h.Orders.CancelOrder)
	admin.PATCH("/orders/:id/status", h.Orders.UpdateOrderStatus)

	admin.POST("/products/upload-image", h.Media.UploadProductImage, middleware.BodyLimit("6M"))
	admin.DELETE("/products/delete-image", h.Media.DeleteProductImage)
	admin.GET("/products", h.Product.ListProducts)
	admin.POST("/products", h.Product.CreateProduct)
	admin.GET("/products/:id", h.Product.GetProduct)
	admin.PATCH("/products/:id", h.Product.UpdateProduct)
	admin.DELETE("/products/:id", h.Product.DeleteProduct)
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
			})
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.WithError(v.Error).Error("request failed")
			case v.Error != nil:
				entry.WithError(v.Error).Warn("request rejected")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}

func healthz(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		return c.JSON(status, echo.Map{"status": http.StatusText(status), "checks": checks})
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
