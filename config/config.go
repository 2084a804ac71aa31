// config.go - Handles configuration for the storefront and admin back-office

package config // Declares the package name

import ( // Import required packages
	"errors"        // For validation errors
	"fmt"           // For error wrapping
	"os"            // For reading environment variables and files
	"path/filepath" // For the config directory on Save
	"strconv"       // For numeric env vars
	"strings"       // For prefix checks
	"time"          // For duration getters

	"github.com/joho/godotenv"      // .env loading
	"github.com/shopspring/decimal" // Money values for shipping
	"gopkg.in/yaml.v3"              // YAML config files
)

// Config holds all configuration values.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	Email    EmailConfig    `yaml:"email"`
	Storage  StorageConfig  `yaml:"storage"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`             // Listen address, e.g. ":8080"
	BaseURL         string `yaml:"base_url"`         // Public URL used in links
	ShutdownTimeout string `yaml:"shutdown_timeout"` // Graceful shutdown window
}

// DatabaseConfig selects the GORM dialect.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`    // File path for sqlite, URL for postgres
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	TokenTTL     string `yaml:"token_ttl"`
	CookieName   string `yaml:"cookie_name"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

// AdminConfig bootstraps the first administrator. Nothing is created unless
// both email and password are set.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// EmailConfig configures the SMTP relay.
type EmailConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	From       string `yaml:"from"`
	StoreEmail string `yaml:"store_email"`
	Timeout    string `yaml:"timeout"`
}

// StorageConfig configures blob uploads.
type StorageConfig struct {
	BucketURL      string `yaml:"bucket_url"`      // gocloud URL: file:///..., s3://..., mem://
	PublicBaseURL  string `yaml:"public_base_url"` // Prefix for uploaded object URLs
	ServeDir       string `yaml:"serve_dir"`       // Serve a local bucket directory under PublicBaseURL
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// MQTTConfig configures the optional order event feed.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // Empty disables publishing
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// StoreConfig holds business settings.
type StoreConfig struct {
	Name              string  `yaml:"name"`
	OrderPrefix       string  `yaml:"order_prefix"`
	ShippingFee       float64 `yaml:"shipping_fee"`
	FreeShippingOver  float64 `yaml:"free_shipping_over"`
	LowStockThreshold int     `yaml:"low_stock_threshold"`
	SettingsTTL       string  `yaml:"settings_ttl"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			BaseURL:         "http://localhost:8080",
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data.db",
		},
		Auth: AuthConfig{
			JWTSecret:  "supersecret",
			TokenTTL:   "72h",
			CookieName: "kkmt_session",
		},
		Email: EmailConfig{
			Host:    "",
			Port:    587,
			Timeout: "15s",
		},
		Storage: StorageConfig{
			BucketURL:      "file:///tmp/kkmt-uploads?create_dir=true",
			PublicBaseURL:  "/uploads",
			ServeDir:       "/tmp/kkmt-uploads",
			MaxUploadBytes: 5 << 20,
		},
		MQTT: MQTTConfig{
			ClientID: "kkmt-store",
			Topic:    "kkmt/orders",
		},
		Store: StoreConfig{
			Name:              "Kuya Kardz Motorcycle Trading",
			OrderPrefix:       "KKMT",
			ShippingFee:       150,
			FreeShippingOver:  2000,
			LowStockThreshold: 10,
			SettingsTTL:       "60s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML file,
// and finally the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// .env is optional; a missing file is the normal production case
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	c.Server.Addr = getEnv("LISTEN_ADDR", c.Server.Addr)       // Listen address
	c.Server.BaseURL = getEnv("BASE_URL", c.Server.BaseURL)    // Public URL
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)  // Token signing key
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)     // Log level
	c.Store.Name = getEnv("STORE_NAME", c.Store.Name)          // Display name in emails
	c.MQTT.Broker = getEnv("MQTT_BROKER", c.MQTT.Broker)       // Order events broker
	c.Admin.Email = getEnv("ADMIN_EMAIL", c.Admin.Email)       // Bootstrap admin
	c.Admin.Password = getEnv("ADMIN_PASSWORD", c.Admin.Password)

	// DATABASE_URL switches to postgres, DB_PATH keeps sqlite
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.DSN = url
		if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
			c.Database.Driver = "postgres"
		}
	} else if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Driver = "sqlite"
		c.Database.DSN = path
	}

	// SMTP relay
	c.Email.Host = getEnv("SMTP_HOST", c.Email.Host)
	if port, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		c.Email.Port = port
	}
	c.Email.Username = getEnv("EMAIL_SERVER_USER", c.Email.Username)
	c.Email.Password = getEnv("EMAIL_SERVER_PASSWORD", c.Email.Password)
	c.Email.From = getEnv("EMAIL_FROM", c.Email.From)
	c.Email.StoreEmail = getEnv("STORE_EMAIL", c.Email.StoreEmail)

	// Blob storage
	c.Storage.BucketURL = getEnv("BLOB_BUCKET_URL", c.Storage.BucketURL)
	c.Storage.PublicBaseURL = getEnv("BLOB_PUBLIC_BASE_URL", c.Storage.PublicBaseURL)
}

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite", "postgres"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validDriver := false
	for _, d := range ValidDrivers {
		if c.Database.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn not configured (set DATABASE_URL or DB_PATH)")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret not configured (set JWT_SECRET)")
	}
	if len(c.Store.OrderPrefix) != 4 || strings.ToUpper(c.Store.OrderPrefix) != c.Store.OrderPrefix {
		return fmt.Errorf("order prefix must be 4 uppercase letters, got %q", c.Store.OrderPrefix)
	}
	if c.Store.ShippingFee < 0 || c.Store.FreeShippingOver < 0 {
		return errors.New("shipping fee and free shipping threshold must not be negative")
	}
	for name, raw := range map[string]string{
		"auth.token_ttl":          c.Auth.TokenTTL,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"store.settings_ttl":      c.Store.SettingsTTL,
		"email.timeout":           c.Email.Timeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// TokenTTL returns the session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return parseDuration(c.Auth.TokenTTL, 72*time.Hour)
}

// ShutdownTimeout returns the graceful shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// SettingsTTL returns how long effective store settings are cached.
func (c *Config) SettingsTTL() time.Duration {
	return parseDuration(c.Store.SettingsTTL, time.Minute)
}

// EmailTimeout bounds a single SMTP delivery.
func (c *Config) EmailTimeout() time.Duration {
	return parseDuration(c.Email.Timeout, 15*time.Second)
}

// ShippingFeeAmount returns the flat shipping fee as money.
func (s StoreConfig) ShippingFeeAmount() decimal.Decimal {
	return decimal.NewFromFloat(s.ShippingFee).Round(2)
}

// FreeShippingThreshold returns the subtotal above which shipping is free.
func (s StoreConfig) FreeShippingThreshold() decimal.Decimal {
	return decimal.NewFromFloat(s.FreeShippingOver).Round(2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string { // Helper to get env var or fallback
	if value := os.Getenv(key); value != "" { // If env var is set, use it
		return value
	}
	return fallback // Otherwise, use fallback value
}
