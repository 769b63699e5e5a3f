package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/validation"
	"github.com/Skotchmaster/storefront/pkg/awsconf"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func openDB(ctx context.Context, cfg config.ServiceConfig) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return db.Open(ctx, cfg.DatabaseURL)
	}
	return db.OpenSQLite(ctx, cfg.SQLitePath)
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	gdb, err := openDB(initCtx, cfg)
	if err != nil {
		logger.Error("db init error", "error", err)
		os.Exit(1)
	}
	gormRepo := &repo.GormRepo{DB: gdb}
	if err := gormRepo.Migrate(initCtx); err != nil {
		logger.Error("db migrate error", "error", err)
		os.Exit(1)
	}

	publisher, orderStore, err := backends(initCtx, cfg, gormRepo)
	if err != nil {
		logger.Error("backend init error", "error", err)
		os.Exit(1)
	}

	v := validation.New()
	issuer := tokens.NewIssuer(cfg.JWTAccessSecret, cfg.TokenTTL)
	auth := &service.AuthService{Repo: gormRepo, Tokens: issuer, Events: publisher}
	orders := &service.OrderService{Orders: orderStore, Products: gormRepo, Events: publisher, Validate: v}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Validator = &validation.Echo{V: v}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowCredentials: true}))
	e.Use(middleware.Secure())

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure
	e.Use(csrf.Middleware(csrfCfg))

	httpserver.Register(e, &httpserver.Deps{
		ProductHandler:  &httpserver.ProductHTTP{Svc: &service.CatalogService{Repo: gormRepo}},
		UserHandler:     &httpserver.UserHTTP{Svc: auth, Secure: cfg.CookieSecure},
		OrderHandler:    &httpserver.OrderHTTP{Svc: orders},
		SessionHandler:  &httpserver.SessionHTTP{Cart: &service.CartService{Products: gormRepo}, Auth: auth, Secure: cfg.CookieSecure},
		CheckoutHandler: &httpserver.CheckoutHTTP{Orders: orders, Checkout: &service.CheckoutService{Orders: orders}},
		KeysHandler:     &httpserver.KeysHTTP{PayPalClientID: cfg.PayPalClientID},
		Sessions:        &httpserver.Sessions{Backend: cfg.SessionBackend, DB: gdb, Secure: cfg.CookieSecure},
		Gate:            authmw.NewGate(authmw.JWTResolver{Secret: cfg.JWTAccessSecret}),
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("server starting", "addr", addr, "order_store", cfg.OrderStore, "events", cfg.EventsBackend, "sessions", cfg.SessionBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("echo start", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("publisher close", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}

// backends picks the event publisher and order store named in the config.
func backends(ctx context.Context, cfg config.ServiceConfig, gormRepo *repo.GormRepo) (events.Publisher, service.OrderStore, error) {
	needAWS := cfg.EventsBackend == config.EventsSQS || cfg.OrderStore == config.OrdersDynamoDB

	var sqsClient *sqs.Client
	var dynamoClient *dynamodb.Client
	if needAWS {
		awsCfg, err := awsconf.Load(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, nil, err
		}
		sqsClient = sqs.NewFromConfig(awsCfg)
		dynamoClient = dynamodb.NewFromConfig(awsCfg)
	}

	var publisher events.Publisher
	switch cfg.EventsBackend {
	case config.EventsKafka:
		publisher = events.NewProducer(cfg.KafkaBrokers)
	case config.EventsSQS:
		publisher = events.NewSQSPublisher(sqsClient, cfg.SQSQueueURL)
	default:
		publisher = events.Nop{}
	}

	var orderStore service.OrderStore = gormRepo
	if cfg.OrderStore == config.OrdersDynamoDB {
		orderStore = repo.NewDynamoOrderRepo(dynamoClient, cfg.OrdersTable)
	}
	return publisher, orderStore, nil
}
