package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/coupon"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/pincode"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Config loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port))

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Database schema applied")
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrder))

	eventPublisher := broker.NewEventPublisher(producer)

	pincodes := pincode.NewDirectory(db, redisClient, cfg.Redis.PincodeCacheTTL)
	coupons := coupon.NewEvaluator(db)
	aggregator := order.NewAggregator(pincodes, coupons, order.Options{
		TaxRatePercent: cfg.Business.GSTRatePercent,
		ShippingFee:    cfg.Business.ShippingFee,
	})

	gateway := payment.NewRazorpayGateway(cfg.Payment.RazorpayKeyID, cfg.Payment.RazorpayKeySecret)
	adapter := payment.NewAdapter(gateway, cfg.Payment.RazorpayKeySecret, cfg.Payment.Currency)

	orderService := service.NewOrderService(db, aggregator, adapter, coupons, redisClient, eventPublisher)
	paymentService := service.NewPaymentService(adapter, redisClient, cfg.Payment.IdempotencyTTL, eventPublisher)
	reviewService := service.NewReviewService(db)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	handler := api.NewHandler(api.Dependencies{
		Orders:    orderService,
		Payments:  paymentService,
		Reviews:   reviewService,
		Pincodes:  pincodes,
		Coupons:   coupons,
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		Checks: map[string]api.ReadinessCheck{
			"database": db.Ping,
			"redis":    redisClient.Ping,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
