package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeCurrency      string

	// Resend
	ResendAPIKey       string
	EmailFrom          string
	InternalFilesEmail string

	// Discord
	DiscordPublicKey  string
	DiscordWebhookURL string

	// Google Drive
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// RabbitMQ (optional)
	AMQPURL string

	// Expiry sweeper
	CronSecret      string
	SweeperSchedule string
	SweeperStatuses []string

	// Pricing
	PlatformFeePercent int64
	AcceptanceWindow   time.Duration

	// Server
	Port        string
	Environment string
	BaseURL     string
	FrontendURL string
	LogLevel    string
}

// ApplyDefaults registers defaults and environment bindings on v.
func ApplyDefaults(v *viper.Viper) {
	v.AutomaticEnv()

	v.SetDefault("SUPABASE_STORAGE_BUCKET", "song-uploads")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("EMAIL_FROM", "Song Requests <orders@example.com>")
	v.SetDefault("SWEEPER_SCHEDULE", "*/15 * * * *")
	v.SetDefault("SWEEPER_STATUSES", "pending")
	v.SetDefault("PLATFORM_FEE_PERCENT", 15)
	v.SetDefault("ACCEPTANCE_WINDOW_HOURS", 48)
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		SupabaseURL:            v.GetString("SUPABASE_URL"),
		SupabasePublishableKey: v.GetString("SUPABASE_PUBLISHABLE_KEY"),
		SupabaseJWTSecret:      v.GetString("SUPABASE_JWT_SECRET"),
		SupabaseStorageBucket:  v.GetString("SUPABASE_STORAGE_BUCKET"),

		DatabaseURL: v.GetString("DATABASE_URL"),

		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		StripeCurrency:      strings.ToLower(v.GetString("STRIPE_CURRENCY")),

		ResendAPIKey:       v.GetString("RESEND_API_KEY"),
		EmailFrom:          v.GetString("EMAIL_FROM"),
		InternalFilesEmail: v.GetString("INTERNAL_FILES_EMAIL"),

		DiscordPublicKey:  v.GetString("DISCORD_PUBLIC_KEY"),
		DiscordWebhookURL: v.GetString("DISCORD_WEBHOOK_URL"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),

		AMQPURL: v.GetString("AMQP_URL"),

		CronSecret:      v.GetString("CRON_SECRET"),
		SweeperSchedule: v.GetString("SWEEPER_SCHEDULE"),
		SweeperStatuses: splitList(v.GetString("SWEEPER_STATUSES")),

		PlatformFeePercent: v.GetInt64("PLATFORM_FEE_PERCENT"),
		AcceptanceWindow:   time.Duration(v.GetInt("ACCEPTANCE_WINDOW_HOURS")) * time.Hour,

		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		BaseURL:     v.GetString("BASE_URL"),
		FrontendURL: v.GetString("FRONTEND_URL"),
		LogLevel:    v.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.PlatformFeePercent < 0 || c.PlatformFeePercent > 100 {
		return fmt.Errorf("PLATFORM_FEE_PERCENT must be between 0 and 100, got %d", c.PlatformFeePercent)
	}
	if c.AcceptanceWindow <= 0 {
		return fmt.Errorf("ACCEPTANCE_WINDOW_HOURS must be positive")
	}
	if len(c.SweeperStatuses) == 0 {
		return fmt.Errorf("SWEEPER_STATUSES must name at least one status")
	}
	return nil
}

// DiscordEnabled reports whether interaction callbacks can be verified.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordPublicKey != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
