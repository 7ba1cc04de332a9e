package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"storefront/docs"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/handler"
	"storefront/internal/logger"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/storage"
)

// @title Storefront Back-Office API
// @version 1.0
// @description Orders, catalog, media and user administration for the storefront.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, log)
	if err != nil {
		log.WithError(err).Fatal("database init")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.DropAll(gormDB); err != nil {
			log.WithError(err).Warn("drop tables")
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		log.WithError(err).Fatal("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis unreachable, caching disabled until it recovers")
	}

	store := objectStore(ctx, cfg, log)
	publisher := eventPublisher(cfg, log)
	defer publisher.Close()
	gateway := paymentGateway(cfg, log)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	accountRepo := repository.NewAccountRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	customerRepo := repository.NewCustomerRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	gate := auth.NewGate(jwtService, sessionRepo, userRepo)

	// Initialize services
	authService := service.NewAuthService(userRepo, accountRepo, sessionRepo, jwtService, tokenStore, cfg.SessionTTL)
	userService := service.NewUserService(userRepo, cacheClient)
	customerService := service.NewCustomerService(customerRepo)
	catalogService := service.NewCatalogService(productRepo, cacheClient, cfg.ShopCacheTTL)
	orderService := service.NewOrderService(orderRepo, cacheClient, publisher, logger.Component(log, "orders"))
	mediaService := service.NewMediaService(store, userService)
	paymentService := service.NewPaymentService(gateway, logger.Component(log, "payments"))

	go service.NewSessionSweeper(sessionRepo, time.Hour, logger.Component(log, "sessions")).Run(ctx)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, log, gate, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService, cfg.CookieSecure),
		Admin:   handler.NewAdminHandler(userService, customerService, mediaService),
		Orders:  handler.NewOrderHandler(orderService),
		Product: handler.NewProductHandler(catalogService, cfg.ShopCacheTTL),
		Media:   handler.NewMediaHandler(mediaService, objectReader(store)),
		Payment: handler.NewPaymentHandler(paymentService),
	}, map[string]router.Pinger{
		"database": router.PingFunc(func(ctx context.Context) error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
		"redis": cacheClient,
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	log.WithField("url", swaggerURL(cfg)).Info("swagger documentation available")

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server start")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}

func objectStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) storage.ObjectStore {
	if cfg.R2Endpoint == "" || cfg.R2AccessKeyID == "" {
		log.Warn("R2 not configured, storing uploads in memory")
		return storage.NewMemoryStore("http://localhost:" + cfg.ServerPort + "/media")
	}
	r2, err := storage.NewR2(ctx, storage.R2Config{
		Endpoint:        cfg.R2Endpoint,
		Region:          cfg.R2Region,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Bucket:          cfg.R2Bucket,
		PublicURL:       cfg.R2PublicURL,
	})
	if err != nil {
		log.WithError(err).Fatal("object store init")
	}
	return r2
}

// objectReader exposes the in-memory store so its URLs resolve under /media.
func objectReader(store storage.ObjectStore) storage.ObjectReader {
	if mem, ok := store.(*storage.MemoryStore); ok {
		return mem
	}
	return nil
}

func eventPublisher(cfg *config.Config, log logrus.FieldLogger) events.Publisher {
	if cfg.AMQPURL == "" {
		log.Info("AMQP_URL not set, order events are not published")
		return events.NopPublisher{}
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.WithError(err).Warn("broker unreachable, order events are not published")
		return events.NopPublisher{}
	}
	return pub
}

func paymentGateway(cfg *config.Config, log logrus.FieldLogger) payment.Gateway {
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		log.Warn("Razorpay keys not set, payment endpoints will answer 503")
		return nil
	}
	gw, err := payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	if err != nil {
		log.WithError(err).Fatal("payment gateway init")
	}
	return gw
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
