package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
	DriverMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Library   LibraryConfig   `yaml:"library"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver             string `yaml:"driver"` // "postgres" (lib/pq), "pgx" or "memory"
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Database           string `yaml:"database"`
	SSLMode            string `yaml:"ssl_mode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMin int    `yaml:"conn_max_lifetime_minutes"`
	AutoMigrate        bool   `yaml:"auto_migrate"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LibraryConfig contains circulation policy
type LibraryConfig struct {
	ReservationTTLHours   int `yaml:"reservation_ttl_hours"`
	FineRatePerDay        int `yaml:"fine_rate_per_day"`
	DefaultBorrowDays     int `yaml:"default_borrow_days"`
	MinBorrowDays         int `yaml:"min_borrow_days"`
	MaxBorrowDays         int `yaml:"max_borrow_days"`
	DisplayUTCOffsetHours int `yaml:"display_utc_offset_hours"`
}

// SchedulerConfig contains cron schedule settings (with seconds field)
type SchedulerConfig struct {
	SweepExpiredReservations string `yaml:"sweep_expired_reservations"`
	ReportOverdueLoans       string `yaml:"report_overdue_loans"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML bytes, applying env overrides and defaults
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		// Display defaults to UTC+7; an explicit 0 in the file means UTC.
		Library: LibraryConfig{DisplayUTCOffsetHours: 7},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Library
	if val := os.Getenv("FINE_RATE_PER_DAY"); val != "" {
		fmt.Sscanf(val, "%d", &c.Library.FineRatePerDay)
	}
	if val := os.Getenv("DISPLAY_UTC_OFFSET_HOURS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Library.DisplayUTCOffsetHours)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 15
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverPGX:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeMin == 0 {
		c.Database.ConnMaxLifetimeMin = 60
	}

	// Library defaults
	if c.Library.ReservationTTLHours == 0 {
		c.Library.ReservationTTLHours = 24
	}
	if c.Library.FineRatePerDay == 0 {
		c.Library.FineRatePerDay = 5
	}
	if c.Library.MinBorrowDays == 0 {
		c.Library.MinBorrowDays = 1
	}
	if c.Library.MaxBorrowDays == 0 {
		c.Library.MaxBorrowDays = 30
	}
	if c.Library.DefaultBorrowDays == 0 {
		c.Library.DefaultBorrowDays = 14
	}
	if c.Library.ReservationTTLHours < 0 {
		return fmt.Errorf("invalid reservation ttl: %d hours", c.Library.ReservationTTLHours)
	}
	if c.Library.FineRatePerDay < 0 {
		return fmt.Errorf("invalid fine rate: %d", c.Library.FineRatePerDay)
	}
	if c.Library.MinBorrowDays < 1 || c.Library.MinBorrowDays > c.Library.MaxBorrowDays {
		return fmt.Errorf("invalid borrow day bounds: %d-%d", c.Library.MinBorrowDays, c.Library.MaxBorrowDays)
	}
	if c.Library.DefaultBorrowDays < c.Library.MinBorrowDays || c.Library.DefaultBorrowDays > c.Library.MaxBorrowDays {
		return fmt.Errorf("default borrow days %d outside %d-%d", c.Library.DefaultBorrowDays, c.Library.MinBorrowDays, c.Library.MaxBorrowDays)
	}
	if c.Library.DisplayUTCOffsetHours < -12 || c.Library.DisplayUTCOffsetHours > 14 {
		return fmt.Errorf("invalid display utc offset: %d", c.Library.DisplayUTCOffsetHours)
	}

	// Scheduler defaults
	if c.Scheduler.SweepExpiredReservations == "" {
		c.Scheduler.SweepExpiredReservations = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.ReportOverdueLoans == "" {
		c.Scheduler.ReportOverdueLoans = "0 0 2 * * *" // 2 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ReservationTTL returns how long a pending reservation stays claimable
func (c *Config) ReservationTTL() time.Duration {
	return time.Duration(c.Library.ReservationTTLHours) * time.Hour
}

// ConnMaxLifetime returns the pool connection lifetime
func (c *Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.Database.ConnMaxLifetimeMin) * time.Minute
}
