package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", "file::memory:")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("EVENTS_BACKEND", "")
	t.Setenv("ORDER_STORE", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("TOKEN_TTL_HOURS", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("SERVICE_NAME", "")

	cfg := Load()
	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, EventsNone, cfg.EventsBackend)
	assert.Equal(t, OrdersGorm, cfg.OrderStore)
	assert.Equal(t, SessionsCookie, cfg.SessionBackend)
	assert.Equal(t, "orders", cfg.OrdersTable)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SQLITE_PATH", "file::memory:")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("EVENTS_BACKEND", "sqs")
	t.Setenv("SQS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/123/orders")
	t.Setenv("ORDER_STORE", "dynamodb")
	t.Setenv("ORDERS_TABLE", "shop-orders")
	t.Setenv("SESSION_BACKEND", "db")
	t.Setenv("COOKIE_SECURE", "TRUE")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("PAYPAL_CLIENT_ID", "pp-123")

	cfg := Load()
	assert.Equal(t, EventsSQS, cfg.EventsBackend)
	assert.Equal(t, OrdersDynamoDB, cfg.OrderStore)
	assert.Equal(t, "shop-orders", cfg.OrdersTable)
	assert.Equal(t, SessionsDB, cfg.SessionBackend)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "pp-123", cfg.PayPalClientID)
}
