package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	SchedulerSecret        string
	StripeAPIKey           string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	InviteTTLDays          int
	ComplianceDeadlineDays int
	MaxPaymentRetries      int
	RetryBackoffDays       int
	GracePeriodDays        int
	QuizLength             int
	QuizPassPercent        int
	MonthlyFeeCents        int64
	CertificateMaxSizeMB   int
	DispatchInterval       time.Duration
	SeedEnabled            bool
	SeedToken              string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TUTELA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Tutela API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "tutela/certificates")
	v.SetDefault("invite.ttl_days", 14)
	v.SetDefault("compliance.deadline_days", 30)
	v.SetDefault("billing.max_retries", 3)
	v.SetDefault("billing.retry_backoff_days", 3)
	v.SetDefault("billing.grace_period_days", 7)
	v.SetDefault("billing.monthly_fee_cents", 4900)
	v.SetDefault("quiz.length", 10)
	v.SetDefault("quiz.pass_percent", 75)
	v.SetDefault("certificate.max_size_mb", 10)
	v.SetDefault("dispatch.interval", "30s")

	interval, err := time.ParseDuration(v.GetString("dispatch.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dispatch interval: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		SchedulerSecret:        v.GetString("scheduler.secret"),
		StripeAPIKey:           v.GetString("stripe.api_key"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		InviteTTLDays:          v.GetInt("invite.ttl_days"),
		ComplianceDeadlineDays: v.GetInt("compliance.deadline_days"),
		MaxPaymentRetries:      v.GetInt("billing.max_retries"),
		RetryBackoffDays:       v.GetInt("billing.retry_backoff_days"),
		GracePeriodDays:        v.GetInt("billing.grace_period_days"),
		QuizLength:             v.GetInt("quiz.length"),
		QuizPassPercent:        v.GetInt("quiz.pass_percent"),
		MonthlyFeeCents:        v.GetInt64("billing.monthly_fee_cents"),
		CertificateMaxSizeMB:   v.GetInt("certificate.max_size_mb"),
		DispatchInterval:       interval,
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SchedulerSecret == "" {
		return Config{}, fmt.Errorf("scheduler secret must be provided")
	}

	if cfg.InviteTTLDays <= 0 {
		cfg.InviteTTLDays = 14
	}

	if cfg.MaxPaymentRetries <= 0 {
		cfg.MaxPaymentRetries = 3
	}

	if cfg.QuizPassPercent <= 0 || cfg.QuizPassPercent > 100 {
		cfg.QuizPassPercent = 75
	}

	return cfg, nil
}
