package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/bluetecnologia/status_admin/internal/models"
)

type Config struct {
	Port           string
	GinMode        string
	ListingPath    string
	SessionIdleTTL time.Duration
	ConfigFile     string
	Gateway        GatewayConfig
	DB             DBConfig
	Logging        LoggingConfig
	// StatusCatalog is empty when the config file does not set one.
	StatusCatalog []models.StatusEntry

	v *viper.Viper
}

type GatewayConfig struct {
	Driver    string
	BaseURL   string
	JWTSecret string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Seed     bool
}

type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

const (
	DriverHTTP     = "http"
	DriverPostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("listing_path", "/")
	v.SetDefault("session_idle_ttl", "30m")
	v.SetDefault("gateway_driver", DriverHTTP)
	v.SetDefault("gateway_base_url", "")
	v.SetDefault("gateway_jwt_secret", "")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "status_db")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_seed", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 100)
	v.SetDefault("log_max_backups", 3)
}

// Load reads defaults, then the optional CONFIG_FILE, then the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:        v.GetString("port"),
		GinMode:     v.GetString("gin_mode"),
		ListingPath: v.GetString("listing_path"),
		ConfigFile:  v.ConfigFileUsed(),
		Gateway: GatewayConfig{
			Driver:    strings.ToLower(v.GetString("gateway_driver")),
			BaseURL:   strings.TrimRight(v.GetString("gateway_base_url"), "/"),
			JWTSecret: v.GetString("gateway_jwt_secret"),
		},
		DB: DBConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
			Seed:     v.GetBool("db_seed"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("log_level"),
			File:       v.GetString("log_file"),
			MaxSizeMB:  v.GetInt("log_max_size_mb"),
			MaxBackups: v.GetInt("log_max_backups"),
		},
		v: v,
	}

	ttl, err := time.ParseDuration(v.GetString("session_idle_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TTL: %w", err)
	}
	cfg.SessionIdleTTL = ttl

	entries, err := statusCatalog(v)
	if err != nil {
		return nil, err
	}
	cfg.StatusCatalog = entries

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func statusCatalog(v *viper.Viper) ([]models.StatusEntry, error) {
	var entries []models.StatusEntry
	if err := v.UnmarshalKey("status_catalog", &entries); err != nil {
		return nil, fmt.Errorf("invalid status_catalog: %w", err)
	}
	return entries, nil
}

// WatchCatalog calls onChange with the status_catalog of the config file
// every time the file changes. It does nothing without a config file.
func (c *Config) WatchCatalog(onChange func([]models.StatusEntry, error)) {
	if c.v == nil || c.ConfigFile == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(statusCatalog(c.v))
	})
	c.v.WatchConfig()
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if !strings.HasPrefix(cfg.ListingPath, "/") {
		return fmt.Errorf("LISTING_PATH must start with '/', got %q", cfg.ListingPath)
	}
	if cfg.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	switch cfg.Gateway.Driver {
	case DriverHTTP:
		if cfg.Gateway.BaseURL == "" {
			return fmt.Errorf("GATEWAY_BASE_URL is required when GATEWAY_DRIVER is %q", DriverHTTP)
		}
		if !strings.HasPrefix(cfg.Gateway.BaseURL, "http://") && !strings.HasPrefix(cfg.Gateway.BaseURL, "https://") {
			return fmt.Errorf("GATEWAY_BASE_URL must be an http(s) URL, got %q", cfg.Gateway.BaseURL)
		}
	case DriverPostgres:
		if cfg.DB.Host == "" || cfg.DB.Name == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required when GATEWAY_DRIVER is %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown GATEWAY_DRIVER %q (want %q or %q)", cfg.Gateway.Driver, DriverHTTP, DriverPostgres)
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid GIN_MODE %q", cfg.GinMode)
	}

	if cfg.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("LOG_MAX_SIZE_MB must be positive")
	}
	if cfg.Logging.MaxBackups < 0 {
		return fmt.Errorf("LOG_MAX_BACKUPS cannot be negative")
	}
	return nil
}
