package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"catalog_back_end/internal/logger"
)

type Config struct {
	Port    string
	GinMode string
	AppEnv  string

	DataDir      string
	ProductsFile string
	OrdersFile   string
	PublicDir    string
	UploadDir    string

	MediaBackend   string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	RedisHost     string
	RedisPassword string
	RateLimit     int64

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	AllowedCountries    []string
	Currency            string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	NotifyEmail  string

	CORSOrigins []string
}

// Load merges the env file at path into the process environment, variables
// already set taking precedence, and builds the logger for the resulting APP_ENV
// before anything is logged.
func Load(path string) *Config {
	envErr := godotenv.Load(path)
	logger.Initialize(os.Getenv("APP_ENV"))

	if envErr != nil {
		logger.Log.Info("⚠️ No .env file found, using the process environment", zap.String("path", path))
	} else {
		logger.Log.Info("✅ .env file loaded", zap.String("path", path))
	}
	return FromEnv()
}

func FromEnv() *Config {
	port := env("PORT", "3000")
	dataDir := env("DATA_DIR", ".")
	publicDir := env("PUBLIC_DIR", "public")
	base := "http://localhost:" + port

	cfg := &Config{
		Port:    port,
		GinMode: os.Getenv("GIN_MODE"),
		AppEnv:  env("APP_ENV", "development"),

		DataDir:      dataDir,
		ProductsFile: inDir(dataDir, env("PRODUCTS_FILE", "products.json")),
		OrdersFile:   inDir(dataDir, env("ORDERS_FILE", "orders.json")),
		PublicDir:    publicDir,
		UploadDir:    env("UPLOAD_DIR", filepath.Join(publicDir, "uploads")),

		MediaBackend:   strings.ToLower(env("MEDIA_BACKEND", "disk")),
		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    env("MINIO_BUCKET", "catalog"),
		MinIOUseSSL:    boolEnv("MINIO_USE_SSL"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RateLimit:     100,

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),
		ElasticIndex:    env("ELASTIC_INDEX", "products"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:  env("CHECKOUT_SUCCESS_URL", base+"/success.html"),
		CheckoutCancelURL:   env("CHECKOUT_CANCEL_URL", base+"/cancel.html"),
		AllowedCountries:    list(env("CHECKOUT_ALLOWED_COUNTRIES", "US,CA,GB"), strings.ToUpper),
		Currency:            strings.ToLower(env("CHECKOUT_CURRENCY", "usd")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     587,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		NotifyEmail:  os.Getenv("NOTIFY_EMAIL"),

		CORSOrigins: list(env("CORS_ORIGINS", "*"), nil),
	}

	if raw := os.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.RateLimit = n
		} else {
			logger.Log.Warn("⚠️ Invalid RATE_LIMIT_PER_MINUTE, keeping default", zap.String("value", raw))
		}
	}
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 {
			cfg.SMTPPort = p
		} else {
			logger.Log.Warn("⚠️ Invalid SMTP_PORT, keeping default", zap.String("value", raw))
		}
	}
	return cfg
}

func (c *Config) UseMinIO() bool     { return c.MediaBackend == "minio" }
func (c *Config) RedisEnabled() bool  { return c.RedisHost != "" }
func (c *Config) SearchEnabled() bool { return c.ElasticURL != "" }

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && c.NotifyEmail != ""
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func inDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func list(raw string, norm func(string) string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if norm != nil {
			part = norm(part)
		}
		out = append(out, part)
	}
	return out
}
