package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Billing  BillingConfig
	Auth     AuthConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	Driver  string
	DSN     string
	Timeout time.Duration
	Seed    bool
	// Seed admin account; no admin is created without a password.
	SeedAdminEmail    string
	SeedAdminPassword string
}

// BillingConfig holds the money and time settings shared by orders and invoices.
type BillingConfig struct {
	TaxRate       decimal.Decimal
	Timezone      string
	Location      *time.Location
	RequireServed bool
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// RedisConfig is optional; an empty Addr disables the menu cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// AMQPConfig is optional; an empty URL disables broker publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "restaurant.db")
	v.SetDefault("STORAGE_TIMEOUT", "5s")
	v.SetDefault("DB_SEED", false)
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@restaurant.local")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")

	v.SetDefault("TAX_RATE", "0.19")
	v.SetDefault("TIMEZONE", "America/Bogota")
	v.SetDefault("BILLING_REQUIRE_SERVED", false)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MENU_CACHE_TTL", "5m")

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "restaurant_events")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// .env is optional, real deployments inject the environment directly
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	taxRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("TAX_RATE")))
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("invalid TAX_RATE: must not be negative")
	}

	tz := v.GetString("TIMEZONE")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	timeout := v.GetDuration("STORAGE_TIMEOUT")
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid STORAGE_TIMEOUT: must be positive")
	}

	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	switch driver {
	case "sqlite", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if v.GetString("GIN_MODE") == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		secret = "dev-secret-change-me"
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			CORSOrigin:     v.GetString("CORS_ORIGIN"),
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Database: DatabaseConfig{
			Driver:            driver,
			DSN:               v.GetString("DB_DSN"),
			Timeout:           timeout,
			Seed:              v.GetBool("DB_SEED"),
			SeedAdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
			SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
		},
		Billing: BillingConfig{
			TaxRate:       taxRate,
			Timezone:      tz,
			Location:      loc,
			RequireServed: v.GetBool("BILLING_REQUIRE_SERVED"),
		},
		Auth: AuthConfig{
			JWTSecret: secret,
			TokenTTL:  v.GetDuration("JWT_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("MENU_CACHE_TTL"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}, nil
}
