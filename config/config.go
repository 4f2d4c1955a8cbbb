package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. FLIGHTBOOKING_PROVIDER_CLIENT_SECRET.
const EnvPrefix = "FLIGHTBOOKING"

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Provider  ProviderConfig  `yaml:"provider"`
	Booking   BookingConfig   `yaml:"booking"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir" envconfig:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	SSLMode     string `yaml:"ssl_mode" envconfig:"ssl_mode"`
	AutoMigrate bool   `yaml:"auto_migrate" envconfig:"auto_migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic" envconfig:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic" envconfig:"notifications_topic"`
	GroupID            string   `yaml:"group_id" envconfig:"group_id"`
}

// ProviderConfig describes the flight offer provider (Amadeus self-service API).
type ProviderConfig struct {
	Name         string        `yaml:"name"`
	BaseURL      string        `yaml:"base_url" envconfig:"base_url"`
	AuthURL      string        `yaml:"auth_url" envconfig:"auth_url"`
	ClientID     string        `yaml:"client_id" envconfig:"client_id"`
	ClientSecret string        `yaml:"client_secret" envconfig:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxOffers    int           `yaml:"max_offers" envconfig:"max_offers"`
	CacheTTL     time.Duration `yaml:"cache_ttl" envconfig:"cache_ttl"`
}

type BookingConfig struct {
	Timezone             string        `yaml:"timezone"`
	LockTTL              time.Duration `yaml:"lock_ttl" envconfig:"lock_ttl"`
	StrictAvailability   bool          `yaml:"strict_availability" envconfig:"strict_availability"`
	ConfirmationLatency  time.Duration `yaml:"confirmation_latency" envconfig:"confirmation_latency"`
	CancellationLatency  time.Duration `yaml:"cancellation_latency" envconfig:"cancellation_latency"`
	CancellationFailRate *float64      `yaml:"cancellation_failure_rate" envconfig:"cancellation_failure_rate"`
	ExternalCallTimeout  time.Duration `yaml:"external_call_timeout" envconfig:"external_call_timeout"`
	DefaultPageSize      int           `yaml:"default_page_size" envconfig:"default_page_size"`
	EnableTestData       bool          `yaml:"enable_test_data" envconfig:"enable_test_data"`
}

// DefaultCancellationFailRate applies when cancellation_failure_rate is absent.
// An explicit 0 is kept and disables simulated refusals.
const DefaultCancellationFailRate = 0.05

func (b BookingConfig) CancellationFailureRate() float64 {
	if b.CancellationFailRate == nil {
		return DefaultCancellationFailRate
	}
	return *b.CancellationFailRate
}

// Location resolves Timezone, falling back to UTC.
func (b BookingConfig) Location() *time.Location {
	if b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ServiceName   string `yaml:"service_name" envconfig:"service_name"`
	Environment   string `yaml:"environment"`
	CollectorAddr string `yaml:"collector_addr" envconfig:"collector_addr"`
}

// LoadConfig reads the YAML file at path, applies FLIGHTBOOKING_* environment
// overrides (a .env file next to the process is honoured) and fills defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.GRPC.Address == "" {
		cfg.GRPC.Address = ":9090"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "flightbooking-notifier"
	}

	p := &cfg.Provider
	if p.Name == "" {
		p.Name = "AMADEUS"
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://test.api.amadeus.com/v2"
	}
	if p.AuthURL == "" {
		p.AuthURL = "https://test.api.amadeus.com/v1/security/oauth2/token"
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.MaxOffers == 0 {
		p.MaxOffers = 10
	}

	b := &cfg.Booking
	if b.LockTTL == 0 {
		b.LockTTL = 30 * time.Second
	}
	if b.ConfirmationLatency == 0 {
		b.ConfirmationLatency = time.Second
	}
	if b.CancellationLatency == 0 {
		b.CancellationLatency = 500 * time.Millisecond
	}
	if b.CancellationFailRate == nil {
		rate := DefaultCancellationFailRate
		b.CancellationFailRate = &rate
	}
	if b.ExternalCallTimeout == 0 {
		b.ExternalCallTimeout = 5 * time.Second
	}
	if b.DefaultPageSize == 0 {
		b.DefaultPageSize = 20
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "flightbooking"
	}
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if rate := c.Booking.CancellationFailureRate(); rate < 0 || rate > 1 {
		return fmt.Errorf("booking.cancellation_failure_rate must be within [0,1], got %v", rate)
	}
	if c.Booking.Timezone != "" {
		if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
			return fmt.Errorf("booking.timezone: %w", err)
		}
	}
	if c.Telemetry.Enabled && c.Telemetry.CollectorAddr == "" {
		return errors.New("telemetry.collector_addr is required when telemetry is enabled")
	}
	return nil
}
