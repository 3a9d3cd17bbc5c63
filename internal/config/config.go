package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	// RedisAddr empty keeps guest carts in process memory.
	RedisAddr string        `env:"REDIS_ADDR"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`
	GuestTTL  time.Duration `env:"GUEST_CART_TTL" envDefault:"720h"`

	JWTSecret string `env:"JWT_SECRET,required"`

	OpTimeout             time.Duration `env:"CART_OP_TIMEOUT" envDefault:"5s"`
	Currency              string        `env:"CART_CURRENCY" envDefault:"USD"`
	FreeShippingThreshold string        `env:"CART_FREE_SHIPPING_THRESHOLD" envDefault:"0"`
	ReconcilePolicy       string        `env:"CART_RECONCILE_POLICY" envDefault:"overwrite"`

	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	SecureCookie bool   `env:"GUEST_COOKIE_SECURE" envDefault:"true"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads the given variables instead of the process environment when environ is not nil.
func LoadFrom(environ map[string]string) (Config, error) {
	var opts env.Options
	if environ != nil {
		opts.Environment = environ
	}

	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("env.ParseAsWithOptions: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) CurrencyUnit() currency.Unit {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.USD
	}
	return unit
}

// FreeShipping is the threshold amount in CART_CURRENCY.
func (c Config) FreeShipping() domain.Money {
	threshold, err := decimal.NewFromString(c.FreeShippingThreshold)
	if err != nil {
		threshold = decimal.Zero
	}
	return domain.Money{Amount: threshold, Currency: c.CurrencyUnit()}
}

func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func (c Config) validate() error {
	if _, err := currency.ParseISO(c.Currency); err != nil {
		return fmt.Errorf("CART_CURRENCY[%s] is not valid: %w", c.Currency, err)
	}
	if _, err := decimal.NewFromString(c.FreeShippingThreshold); err != nil {
		return fmt.Errorf("CART_FREE_SHIPPING_THRESHOLD[%s] is not valid: %w", c.FreeShippingThreshold, err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL[%s] is not valid: %w", c.LogLevel, err)
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("CART_OP_TIMEOUT must be positive")
	}
	return nil
}
