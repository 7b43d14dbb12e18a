package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Env       string
	Port      string
	DSN       string
	JWTSecret string
	LogJSON   bool

	SettingsCacheTTL time.Duration

	AddressDefaultState   string
	AddressDefaultCountry string

	OrderNumberAttempts     int
	TrustClientVariantPrice bool

	// Se cargan en settings cuando las claves todavía no existen.
	DeliveryFeeDefault           decimal.Decimal
	FreeDeliveryThresholdDefault decimal.Decimal
}

func Default() Config {
	return Config{
		Env:                          "development",
		Port:                         "8080",
		LogJSON:                      false,
		SettingsCacheTTL:             5 * time.Minute,
		AddressDefaultState:          "Santa Fe",
		AddressDefaultCountry:        "Argentina",
		OrderNumberAttempts:          5,
		DeliveryFeeDefault:           decimal.NewFromInt(150),
		FreeDeliveryThresholdDefault: decimal.NewFromInt(2000),
	}
}

// Load aplica las variables de entorno sobre Default.
func Load() Config {
	return fromEnv(Default(), os.Getenv)
}

func fromEnv(c Config, getenv func(string) string) Config {
	if v := getenv("APP_ENV"); v != "" {
		c.Env = strings.ToLower(v)
	}
	if v := getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := getenv("LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogJSON = b
		}
	}
	if v := getenv("SETTINGS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.SettingsCacheTTL = d
		}
	}
	if v := getenv("ADDRESS_DEFAULT_STATE"); v != "" {
		c.AddressDefaultState = v
	}
	if v := getenv("ADDRESS_DEFAULT_COUNTRY"); v != "" {
		c.AddressDefaultCountry = v
	}
	if v := getenv("ORDER_NUMBER_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.OrderNumberAttempts = n
		}
	}
	if v := getenv("ORDERS_TRUST_CLIENT_VARIANT_PRICE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TrustClientVariantPrice = b
		}
	}
	if v := getenv("DELIVERY_FEE_DEFAULT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			c.DeliveryFeeDefault = d
		}
	}
	if v := getenv("FREE_DELIVERY_THRESHOLD_DEFAULT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			c.FreeDeliveryThresholdDefault = d
		}
	}
	c.DSN = dsn(getenv)
	return c
}

func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func dsn(getenv func(string) string) string {
	if v := strings.TrimSpace(getenv("DB_DSN")); v != "" {
		return v
	}
	first := func(def string, keys ...string) string {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				return v
			}
		}
		return def
	}
	host := first("localhost", "DB_HOST")
	port := first("5432", "DB_PORT")
	user := first("postgres", "DB_USER", "POSTGRES_USER")
	pass := first("postgres", "DB_PASSWORD", "POSTGRES_PASSWORD")
	name := first("marketplace", "DB_NAME", "POSTGRES_DB")
	ssl := first("disable", "DB_SSLMODE")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}
