package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the whole application configuration,
// populated from environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Booking  BookingConfig
	Gateway  GatewayConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
}

// BookingConfig carries the tunables the booking flow reads.
// PaymentTimeoutMinutes is snapshotted onto the booking at accept time.
type BookingConfig struct {
	PaymentTimeoutMinutes int
	VATRatePercent        int
	SweepIntervalSeconds  int
}

// GatewayConfig configures the external payment gateway client.
// SkipSignatureCheck disables webhook HMAC verification; it is meant for
// local development only and is logged loudly when enabled.
type GatewayConfig struct {
	MerchantID         string
	WebhookSecret      string // secret for HMAC-SHA256 over raw body
	APIURL             string
	ReturnURL          string // frontend callback URL
	WebhookURL         string // backend webhook URL
	TimeoutSeconds     int
	SkipSignatureCheck bool
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "BeautyBook API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "beautybook"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72),
		},
		Booking: BookingConfig{
			PaymentTimeoutMinutes: getEnvInt("BOOKING_PAYMENT_TIMEOUT_MINUTES", 5),
			VATRatePercent:        getEnvInt("BOOKING_VAT_RATE_PERCENT", 15),
			SweepIntervalSeconds:  getEnvInt("BOOKING_SWEEP_INTERVAL_SECONDS", 60),
		},
		Gateway: GatewayConfig{
			MerchantID:         getEnv("GATEWAY_MERCHANT_ID", ""),
			WebhookSecret:      getEnv("GATEWAY_WEBHOOK_SECRET", ""),
			APIURL:             getEnv("GATEWAY_API_URL", "https://sandbox.gateway.example.com"),
			ReturnURL:          getEnv("GATEWAY_RETURN_URL", "http://localhost:3000/payment/callback"),
			WebhookURL:         getEnv("GATEWAY_WEBHOOK_URL", "http://localhost:8080/api/v1/webhooks/payment"),
			TimeoutSeconds:     getEnvInt("GATEWAY_TIMEOUT_SECONDS", 10),
			SkipSignatureCheck: getEnvBool("GATEWAY_SKIP_SIGNATURE_CHECK", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks for misconfiguration that must not reach production.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Gateway.SkipSignatureCheck {
			return fmt.Errorf("GATEWAY_SKIP_SIGNATURE_CHECK must not be enabled in production")
		}
		if c.Gateway.MerchantID == "" {
			fmt.Println("WARNING: Gateway MerchantID not set - online payment will not work")
		}
	}

	if c.Booking.PaymentTimeoutMinutes <= 0 {
		return fmt.Errorf("BOOKING_PAYMENT_TIMEOUT_MINUTES must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
