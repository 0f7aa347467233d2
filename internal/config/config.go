package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Geo           GeoConfig            `koanf:"geo"`
	Alerting      AlertingConfig       `koanf:"alerting"`
	Cache         *CacheConfig         `koanf:"cache"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

type DatabaseConfig struct {
	URL          string `koanf:"url"`
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name"`
	SSLMode      string `koanf:"ssl_mode"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// DSN returns the connection string: URL verbatim when set, otherwise built
// from the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslMode)
}

// GeoConfig controls the geolocation resolver. Mode picks where resolution
// runs: "background" (persist first, resolve after) or "sync" (resolve on
// the ingest path when the submission asks for it).
type GeoConfig struct {
	Endpoint       string `koanf:"endpoint"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
	Mode           string `koanf:"mode" validate:"omitempty,oneof=sync background"`
}

// AlertingConfig controls the alert evaluator loop and notification
// delivery. ScanIntervalMinutes is how often the loop wakes up, not how
// often a given project is evaluated; per-project intervals live in
// alert_configs.
type AlertingConfig struct {
	ScanIntervalMinutes    int    `koanf:"scan_interval_minutes"`
	WebhookURL             string `koanf:"webhook_url"`
	DeliveryTimeoutSeconds int    `koanf:"delivery_timeout_seconds"`
}

// CacheConfig enables the optional Redis read-through cache for summary
// queries. Nil means no cache.
type CacheConfig struct {
	Addr       string `koanf:"addr" validate:"required"`
	Password   string `koanf:"password"`
	DB         int    `koanf:"db"`
	TTLSeconds int    `koanf:"ttl_seconds"`
}

// Load loads the configuration from WHOWHYWHEN_-prefixed environment
// variables using koanf and validates it. Invalid configuration is fatal.
func Load() (mainConfig *Config) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")
	err := k.Load(env.Provider("WHOWHYWHEN_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "WHOWHYWHEN_"))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load env variables")
	}

	mainConfig = &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal config")
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		logger.Fatal().Err(err).Msg("could not validate config")
	}

	mainConfig.applyDefaults()

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}
	mainConfig.Observability.ServiceName = "whowhywhen"
	mainConfig.Observability.Environment = mainConfig.Primary.Env
	if err := mainConfig.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return
}

func (c *Config) applyDefaults() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Geo.Endpoint == "" {
		c.Geo.Endpoint = "http://ip-api.com/json/"
	}
	if c.Geo.TimeoutSeconds == 0 {
		c.Geo.TimeoutSeconds = 5
	}
	if c.Geo.Mode == "" {
		c.Geo.Mode = "background"
	}
	if c.Alerting.ScanIntervalMinutes == 0 {
		c.Alerting.ScanIntervalMinutes = 10
	}
	if c.Alerting.DeliveryTimeoutSeconds == 0 {
		c.Alerting.DeliveryTimeoutSeconds = 10
	}
	if c.Cache != nil && c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 60
	}
}
