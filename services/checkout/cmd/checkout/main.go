package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
	"github.com/Skotchmaster/storefront/pkg/outbox"

	checkoutcfg "github.com/Skotchmaster/storefront/services/checkout/internal/config"
	"github.com/Skotchmaster/storefront/services/checkout/internal/httpserver"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/payment"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
	"github.com/Skotchmaster/storefront/services/checkout/internal/service"
)

func main() {
	if err := godotenv.Load("services/checkout/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := checkoutcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}
	outboxRepo := outbox.NewGormRepository()

	var (
		catalog     service.Catalog = &service.CatalogReader{Repo: gormRepo}
		invalidator service.CatalogInvalidator
		rdb         *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cached := service.NewCachedCatalog(catalog, rdb, cfg.CatalogCacheTTL)
		catalog, invalidator = cached, cached
		logger.Info("catalog_cache_enabled", "addr", cfg.RedisAddr, "ttl", cfg.CatalogCacheTTL.String())
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		relay := outbox.NewProcessor(db, outboxRepo, producer, logger, cfg.OutboxBatchSize, cfg.OutboxInterval)
		go relay.Start(workerCtx)
	} else {
		logger.Warn("outbox_relay_disabled", "reason", "KAFKA_BROKERS not set")
	}

	cart := &service.CartService{Repo: gormRepo, Catalog: catalog}
	stock := &service.StockManager{Repo: gormRepo, Outbox: outboxRepo, Invalidator: invalidator}
	checkout := &service.Checkout{
		Repo:        gormRepo,
		Cart:        cart,
		Rates:       &service.RateResolver{Repo: gormRepo, DefaultLocationID: cfg.DefaultLocationID},
		Discounts:   &service.DiscountValidator{Repo: gormRepo},
		Stock:       stock,
		Gateway:     payment.NewClient(cfg.Payment.GatewayURL, cfg.Payment.APIKey, cfg.Payment.ReturnURL),
		Outbox:      outboxRepo,
		Invalidator: invalidator,
		Currency:    cfg.Currency,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpserver.NewValidator()
	e.HTTPErrorHandler = httpserver.ErrorHandler(e)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:     &httpserver.CartHTTP{Svc: cart},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: checkout, WebhookSecret: cfg.Payment.WebhookSecret},
		OrderHandler:    &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: gormRepo, Outbox: outboxRepo}, Checkout: checkout},
		AdminHandler:    &httpserver.AdminHTTP{Stock: stock, Analytics: &service.Analytics{Repo: gormRepo}},
		DB:              db,
		JWTSecret:       cfg.JWTAccessSecret,
		AuthClient:      authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("checkout listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	stopWorkers()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka_close_error", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("checkout stopped")
}
