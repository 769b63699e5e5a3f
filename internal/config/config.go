package config

import (
	"os"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/pkg/config"
)

const (
	EventsKafka = "kafka"
	EventsSQS   = "sqs"
	EventsNone  = "none"

	OrdersGorm     = "gorm"
	OrdersDynamoDB = "dynamodb"

	SessionsCookie = "cookie"
	SessionsDB     = "db"
)

type ServiceConfig struct {
	config.Config

	EventsBackend string
	SQSQueueURL   string

	OrderStore  string
	OrdersTable string

	SessionBackend string
	CookieSecure   bool

	PayPalClientID string
	TokenTTL       time.Duration
}

// Load reads the storefront's configuration and stops the process when a
// required value is missing or a backend name is unknown.
func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "storefront"
	}

	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL or SQLITE_PATH")
	}
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")

	sc := ServiceConfig{
		Config:         cfg,
		EventsBackend:  config.EnvDefault("EVENTS_BACKEND", EventsNone),
		SQSQueueURL:    os.Getenv("SQS_QUEUE_URL"),
		OrderStore:     config.EnvDefault("ORDER_STORE", OrdersGorm),
		OrdersTable:    config.EnvDefault("ORDERS_TABLE", "orders"),
		SessionBackend: config.EnvDefault("SESSION_BACKEND", SessionsCookie),
		CookieSecure:   strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
		PayPalClientID: os.Getenv("PAYPAL_CLIENT_ID"),
		TokenTTL:       time.Duration(config.EnvIntDefault("TOKEN_TTL_HOURS", 24*30)) * time.Hour,
	}

	config.MustOneOf(sc.EventsBackend, "EVENTS_BACKEND", EventsKafka, EventsSQS, EventsNone)
	config.MustOneOf(sc.OrderStore, "ORDER_STORE", OrdersGorm, OrdersDynamoDB)
	config.MustOneOf(sc.SessionBackend, "SESSION_BACKEND", SessionsCookie, SessionsDB)

	switch sc.EventsBackend {
	case EventsKafka:
		if len(sc.KafkaBrokers) == 0 {
			config.MustNonEmpty("", "KAFKA_BROKERS")
		}
	case EventsSQS:
		config.MustNonEmpty(sc.SQSQueueURL, "SQS_QUEUE_URL")
	}

	return sc
}
