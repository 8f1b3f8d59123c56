package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cart     CartConfig
	CORS     CORSConfig
	Strapi   StrapiConfig
	Payment  PaymentConfig
	Email    EmailConfig
	Webhook  WebhookConfig
	S3       S3Config
	Log      LogConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Cart storage backends
const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type CartConfig struct {
	Storage       string // redis, postgres, memory
	IdleTimeout   time.Duration
	PersistTTL    time.Duration
	SweepSchedule string
	SessionSecret string
	CookieName    string
	CookieMaxAge  time.Duration
	SecureCookie  bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type StrapiConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

type PaymentConfig struct {
	Stripe StripeConfig
}

type StripeConfig struct {
	SecretKey  string
	BaseURL    string
	SuccessURL string
	CancelURL  string
	Currency   string
}

type EmailConfig struct {
	Provider      string // postmark, sendgrid, log
	PostmarkToken string
	SendGridKey   string
	From          string
	ShopCopyTo    string
}

type WebhookConfig struct {
	Secret string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	ReceiptPrefix   string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	idleTimeout := parseDuration(getEnv("CART_IDLE_TIMEOUT", "24h"), 24*time.Hour)

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "storefront"),
			Password: getEnv("DB_PASSWORD", "storefront"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Cart: CartConfig{
			Storage:       strings.ToLower(getEnv("CART_STORAGE", StorageRedis)),
			IdleTimeout:   idleTimeout,
			PersistTTL:    parseDuration(getEnv("CART_PERSIST_TTL", (idleTimeout+7*24*time.Hour).String()), idleTimeout+7*24*time.Hour),
			SweepSchedule: getEnv("CART_SWEEP_SCHEDULE", "@every 15m"),
			SessionSecret: getEnv("CART_SESSION_SECRET", "change-me-cart-session-secret"),
			CookieName:    getEnv("CART_COOKIE_NAME", "cart_session"),
			CookieMaxAge:  parseDuration(getEnv("CART_COOKIE_MAX_AGE", "720h"), 30*24*time.Hour),
			SecureCookie:  parseBool(getEnv("CART_SECURE_COOKIE", "false")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Strapi: StrapiConfig{
			BaseURL:  getEnv("STRAPI_URL", "http://localhost:1337"),
			APIToken: getEnv("STRAPI_API_TOKEN", ""),
			Timeout:  parseDuration(getEnv("STRAPI_TIMEOUT", "10s"), 10*time.Second),
		},
		Payment: PaymentConfig{
			Stripe: StripeConfig{
				SecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
				BaseURL:    getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
				SuccessURL: getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
				CancelURL:  getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/cart"),
				Currency:   strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
			},
		},
		Email: EmailConfig{
			Provider:      strings.ToLower(getEnv("EMAIL_PROVIDER", "log")),
			PostmarkToken: getEnv("POSTMARK_SERVER_TOKEN", ""),
			SendGridKey:   getEnv("SENDGRID_API_KEY", ""),
			From:          getEnv("EMAIL_FROM", "orders@localhost"),
			ShopCopyTo:    getEnv("EMAIL_SHOP_COPY_TO", ""),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ReceiptPrefix:   getEnv("AWS_S3_RECEIPT_PREFIX", "receipts"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Cart.Storage {
	case StorageRedis, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("invalid CART_STORAGE %q: must be redis, postgres or memory", c.Cart.Storage)
	}
	if c.Cart.SessionSecret == "" {
		return fmt.Errorf("CART_SESSION_SECRET is required")
	}
	switch c.Email.Provider {
	case "postmark", "sendgrid", "log":
	default:
		return fmt.Errorf("invalid EMAIL_PROVIDER %q: must be postmark, sendgrid or log", c.Email.Provider)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil || duration <= 0 {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
