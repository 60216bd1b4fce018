package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort  int
	CORSOrigins []string

	DatabaseURL         string
	PlatformDatabaseURL string
	TenantDir           string
	BaseDomain          string

	JWTAccessSecret     []byte
	SuperadminJWTSecret []byte
	AccessTokenTTL      time.Duration

	SuperAdminEmail    string
	SuperAdminPassword string

	KafkaBrokers      []string
	KafkaUpdatesTopic string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	Payments PaymentKeys

	UploadDir string
}

// PaymentKeys are process-wide gateway credentials. Tenants may override
// them with settings rows.
type PaymentKeys struct {
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	StripeSecretKey       string
	StripeWebhookSecret   string
	StripeSuccessURL      string
	StripeCancelURL       string
}

func Load() Config {
	access := []byte(os.Getenv("JWT_SECRET"))
	super := []byte(os.Getenv("SUPERADMIN_JWT_SECRET"))
	if len(super) == 0 {
		super = access
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "marketplace"),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		CORSOrigins: CSV(os.Getenv("CORS_ORIGINS")),

		DatabaseURL:         EnvDefault("DATABASE_URL", "sqlite://instance/marketplace.db"),
		PlatformDatabaseURL: EnvDefault("PLATFORM_DATABASE_URL", "sqlite://instance/superadmin.db"),
		TenantDir:           EnvDefault("TENANT_DIR", "instance/tenants"),
		BaseDomain:          strings.ToLower(os.Getenv("BASE_DOMAIN")),

		JWTAccessSecret:     access,
		SuperadminJWTSecret: super,
		AccessTokenTTL:      EnvDurationDefault("ACCESS_TOKEN_TTL", 24*time.Hour),

		SuperAdminEmail:    EnvDefault("SUPER_ADMIN_EMAIL", "admin@super.com"),
		SuperAdminPassword: EnvDefault("SUPER_ADMIN_PASSWORD", "admin123"),

		KafkaBrokers:      CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaUpdatesTopic: EnvDefault("KAFKA_UPDATES_TOPIC", "marketplace_updates"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		Payments: PaymentKeys{
			RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
			RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
			RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
			StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
			StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
			StripeSuccessURL:      EnvDefault("STRIPE_SUCCESS_URL", "http://localhost:5173/payment-status?success=true"),
			StripeCancelURL:       EnvDefault("STRIPE_CANCEL_URL", "http://localhost:5173/payment-status?success=false"),
		},

		UploadDir: EnvDefault("UPLOAD_DIR", "instance/uploads"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
