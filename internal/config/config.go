// Package config loads process settings from the environment, after an
// optional .env file has been applied.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	// StoreDriver selects the persistence backend: "mysql" or "memory".
	StoreDriver       string        `envconfig:"STORE_DRIVER" default:"mysql"`
	DSN               string        `envconfig:"DB_DSN_PRIMARY"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	TxMaxRetries      int           `envconfig:"TX_MAX_RETRIES" default:"3"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"72h"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	PaymentAuthURL     string        `envconfig:"PAYMENT_AUTH_URL"`
	PaymentAuthTimeout time.Duration `envconfig:"PAYMENT_AUTH_TIMEOUT" default:"10s"`

	KafkaBrokers    string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`

	ReferralBonusPercent      decimal.Decimal `envconfig:"REFERRAL_BONUS_PERCENT" default:"10"`
	ReferralCommissionPercent decimal.Decimal `envconfig:"REFERRAL_COMMISSION_PERCENT" default:"5"`

	CORSAllowOrigin string `envconfig:"CORS_ALLOW_ORIGIN" default:"*"`
}

// Load reads .env (if present, without overriding real environment
// variables) and then the environment. It reports whether .env was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, dotenv, err
	}
	if err := cfg.validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "memory":
	case "mysql":
		if c.DSN == "" {
			return fmt.Errorf("DB_DSN_PRIMARY is required when STORE_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ReferralBonusPercent.IsNegative() || c.ReferralCommissionPercent.IsNegative() {
		return fmt.Errorf("referral percentages must not be negative")
	}
	return nil
}

// Brokers splits KAFKA_BROKERS on commas. Empty means events are not published.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c *Config) IsProduction() bool { return c.Env == "production" }
