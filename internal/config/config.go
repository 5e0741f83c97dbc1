package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Values come from environment variables;
// a .env file is loaded first when present.
type Config struct {
	Port        string
	PostgresURL string
	RedisAddr   string

	// PublicURL is the redirect-target fallback when a reservation request
	// carries no Origin header.
	PublicURL string

	StripeSecretKey     string
	StripeWebhookSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	// HoldTTL is the authoritative deadline for unpaid bookings. The checkout
	// session keeps a longer gateway-side expiry (CheckoutSessionExpiry).
	HoldTTL               time.Duration
	CheckoutSessionExpiry time.Duration

	ReleaseWorkerInterval time.Duration
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		PublicURL:             getEnv("PUBLIC_URL", "http://localhost:3000"),
		SMTPHost:              getEnv("SMTP_HOST", "localhost"),
		SMTPUser:              os.Getenv("SMTP_USER"),
		SMTPPassword:          os.Getenv("SMTP_PASSWORD"),
		MailFrom:              getEnv("MAIL_FROM", "no-reply@quickshow.local"),
		HoldTTL:               10 * time.Minute,
		CheckoutSessionExpiry: 30 * time.Minute,
		ReleaseWorkerInterval: 5 * time.Second,
	}

	var err error
	if cfg.PostgresURL, err = require("POSTGRES_URL"); err != nil {
		return Config{}, err
	}
	if cfg.StripeSecretKey, err = require("STRIPE_SECRET_KEY"); err != nil {
		return Config{}, err
	}
	if cfg.StripeWebhookSecret, err = require("STRIPE_WEBHOOK_SECRET"); err != nil {
		return Config{}, err
	}

	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.HoldTTL, err = getEnvDuration("HOLD_TTL", cfg.HoldTTL); err != nil {
		return Config{}, err
	}
	if cfg.CheckoutSessionExpiry, err = getEnvDuration("CHECKOUT_SESSION_EXPIRY", cfg.CheckoutSessionExpiry); err != nil {
		return Config{}, err
	}
	if cfg.ReleaseWorkerInterval, err = getEnvDuration("RELEASE_WORKER_INTERVAL", cfg.ReleaseWorkerInterval); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func require(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, v)
	}
	return d, nil
}
