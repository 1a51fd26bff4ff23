package config

import (
	"strconv"
	"time"

	"github.com/Skotchmaster/storefront/pkg/config"
)

type PaymentConfig struct {
	GatewayURL    string
	APIKey        string
	WebhookSecret []byte
	ReturnURL     string
}

type ServiceConfig struct {
	config.Config

	DefaultLocationID uint
	Currency          string
	CatalogCacheTTL   time.Duration

	Payment PaymentConfig

	OutboxInterval  time.Duration
	OutboxBatchSize int
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "checkout"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	sc := ServiceConfig{
		Config:            cfg,
		DefaultLocationID: parseUint(config.EnvDefault("DEFAULT_LOCATION_ID", "")),
		Currency:          config.EnvDefault("CURRENCY", "USD"),
		CatalogCacheTTL:   config.EnvDurationDefault("CATALOG_CACHE_TTL", 10*time.Minute),
		Payment: PaymentConfig{
			GatewayURL:    config.EnvDefault("PAYMENT_GATEWAY_URL", ""),
			APIKey:        config.EnvDefault("PAYMENT_API_KEY", ""),
			WebhookSecret: []byte(config.EnvDefault("PAYMENT_WEBHOOK_SECRET", "")),
			ReturnURL:     config.EnvDefault("PAYMENT_RETURN_URL", ""),
		},
		OutboxInterval:  config.EnvDurationDefault("OUTBOX_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize: config.EnvIntDefault("OUTBOX_BATCH_SIZE", 50),
	}

	config.MustNonEmpty(sc.Payment.GatewayURL, "PAYMENT_GATEWAY_URL")
	config.MustNonEmptyBytes(sc.Payment.WebhookSecret, "PAYMENT_WEBHOOK_SECRET")

	return sc
}

func parseUint(s string) uint {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}
