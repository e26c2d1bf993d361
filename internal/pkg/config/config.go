package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Map       MapConfig       `mapstructure:"map"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Docs      DocsConfig      `mapstructure:"docs"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`
	WriteTimeout    int `mapstructure:"write_timeout"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// NATSConfig configures the event broker. An empty URL disables it.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig configures the cache. An empty address disables it.
type ValkeyConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

// MapConfig configures map sessions.
type MapConfig struct {
	InitialLat  float64 `mapstructure:"initial_lat"`
	InitialLng  float64 `mapstructure:"initial_lng"`
	InitialZoom int     `mapstructure:"initial_zoom"`
	FocusZoom   int     `mapstructure:"focus_zoom"`
	SearchZoom  int     `mapstructure:"search_zoom"`

	// ReplaceChangedBoundaries redraws a boundary whose shape or style
	// changed. Off, a boundary is drawn once and left alone.
	ReplaceChangedBoundaries bool `mapstructure:"replace_changed_boundaries"`

	PromptTimeout time.Duration `mapstructure:"prompt_timeout"`
	SearchDelay   time.Duration `mapstructure:"search_delay"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
}

type FeedConfig struct {
	UserInterval     time.Duration `mapstructure:"user_interval"`
	BoundaryInterval time.Duration `mapstructure:"boundary_interval"`
}

type GeocoderConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BaseURL       string        `mapstructure:"base_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	Email         string        `mapstructure:"email"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
}

// DocsConfig controls the Swagger UI routes. An empty SpecPath serves the
// bundled document.
type DocsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SpecPath string `mapstructure:"spec_path"`
	Title    string `mapstructure:"title"`
}

// Load reads configuration from .env, an optional config file and
// environment variables, in increasing order of precedence.
func Load(service string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.sqlite_path", "smarttrack.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "smarttrack")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "smarttrack")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "smarttrack:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("map.initial_lat", 28.6139)
	v.SetDefault("map.initial_lng", 77.209)
	v.SetDefault("map.initial_zoom", 13)
	v.SetDefault("map.focus_zoom", 15)
	v.SetDefault("map.search_zoom", 14)
	v.SetDefault("map.replace_changed_boundaries", false)
	v.SetDefault("map.prompt_timeout", 2*time.Minute)
	v.SetDefault("map.search_delay", 300*time.Millisecond)
	v.SetDefault("map.ping_interval", 30*time.Second)
	v.SetDefault("feed.user_interval", 5*time.Second)
	v.SetDefault("feed.boundary_interval", 30*time.Second)
	v.SetDefault("geocoder.enabled", true)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "smarttrack/1.0")
	v.SetDefault("geocoder.email", "")
	v.SetDefault("geocoder.timeout", 10*time.Second)
	v.SetDefault("geocoder.rate_per_second", 1.0)

	v.SetDefault("docs.enabled", true)
	v.SetDefault("docs.spec_path", "")
	v.SetDefault("docs.title", "")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Environment variables: SMARTTRACK_DATABASE_HOST → database.host
	v.SetEnvPrefix("SMARTTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "database.max_conns must be positive")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Storage.Driver))
	}

	if c.Map.InitialLat < -90 || c.Map.InitialLat > 90 || c.Map.InitialLng < -180 || c.Map.InitialLng > 180 {
		errs = append(errs, fmt.Sprintf("map initial center %.4f,%.4f out of range", c.Map.InitialLat, c.Map.InitialLng))
	}
	for name, z := range map[string]int{
		"map.initial_zoom": c.Map.InitialZoom,
		"map.focus_zoom":   c.Map.FocusZoom,
		"map.search_zoom":  c.Map.SearchZoom,
	} {
		if z < 1 || z > 19 {
			errs = append(errs, fmt.Sprintf("%s must be 1-19, got %d", name, z))
		}
	}
	if c.Feed.UserInterval <= 0 || c.Feed.BoundaryInterval <= 0 {
		errs = append(errs, "feed intervals must be positive")
	}
	if c.Geocoder.Enabled {
		if c.Geocoder.BaseURL == "" {
			errs = append(errs, "geocoder.base_url is required")
		}
		if c.Geocoder.UserAgent == "" {
			errs = append(errs, "geocoder.user_agent is required by the Nominatim usage policy")
		}
		if c.Geocoder.RatePerSecond <= 0 {
			errs = append(errs, "geocoder.rate_per_second must be positive")
		}
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
