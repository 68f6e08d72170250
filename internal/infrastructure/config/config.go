package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Inventory InventoryConfig
	Sync      SyncConfig
	Platforms PlatformsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings for the idempotency store
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodySize  int64
}

// InventoryConfig holds stock engine settings
type InventoryConfig struct {
	// MultiWarehouse enables per-warehouse stock buckets and transfers.
	// When disabled the allocator is inert and movements carry no warehouse.
	MultiWarehouse bool
	// IdempotencyTTL is how long applied (order, status) keys are remembered
	IdempotencyTTL time.Duration
}

// SyncConfig holds reconciler settings
type SyncConfig struct {
	// WorkersPerPlatform is the number of concurrent pushers per platform
	WorkersPerPlatform int
	// QueueSize is the per-platform pending queue capacity
	QueueSize int
	// MaxAttempts bounds retries of a single job, first attempt included
	MaxAttempts int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt
	RetryBaseDelay time.Duration
	// RetryMaxDelay caps the backoff delay
	RetryMaxDelay time.Duration
	// PushTimeout bounds a single outbound platform call
	PushTimeout time.Duration
	// ShutdownTimeout bounds draining in-flight pushes on stop
	ShutdownTimeout time.Duration
}

// PlatformsConfig holds per-storefront adapter settings
type PlatformsConfig struct {
	WooCommerce WooCommerceConfig
	PrestaShop  PrestaShopConfig
	Shopify     ShopifyConfig
}

// WooCommerceConfig holds WooCommerce REST API settings
type WooCommerceConfig struct {
	Enabled        bool
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	TimeoutSeconds int
}

// PrestaShopConfig holds PrestaShop webservice settings
type PrestaShopConfig struct {
	Enabled        bool
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// ShopifyConfig holds Shopify Admin API settings
type ShopifyConfig struct {
	Enabled        bool
	ShopDomain     string
	AccessToken    string
	LocationID     string
	TimeoutSeconds int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOCKPILOT_ prefix (e.g., STOCKPILOT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOCKPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
			MaxBodySize:  v.GetInt64("http.max_body_size"),
		},
		Inventory: InventoryConfig{
			MultiWarehouse: v.GetBool("inventory.multi_warehouse"),
			IdempotencyTTL: v.GetDuration("inventory.idempotency_ttl"),
		},
		Sync: SyncConfig{
			WorkersPerPlatform: v.GetInt("sync.workers_per_platform"),
			QueueSize:          v.GetInt("sync.queue_size"),
			MaxAttempts:        v.GetInt("sync.max_attempts"),
			RetryBaseDelay:     v.GetDuration("sync.retry_base_delay"),
			RetryMaxDelay:      v.GetDuration("sync.retry_max_delay"),
			PushTimeout:        v.GetDuration("sync.push_timeout"),
			ShutdownTimeout:    v.GetDuration("sync.shutdown_timeout"),
		},
		Platforms: PlatformsConfig{
			WooCommerce: WooCommerceConfig{
				Enabled:        v.GetBool("platforms.woocommerce.enabled"),
				BaseURL:        v.GetString("platforms.woocommerce.base_url"),
				ConsumerKey:    v.GetString("platforms.woocommerce.consumer_key"),
				ConsumerSecret: v.GetString("platforms.woocommerce.consumer_secret"),
				TimeoutSeconds: v.GetInt("platforms.woocommerce.timeout_seconds"),
			},
			PrestaShop: PrestaShopConfig{
				Enabled:        v.GetBool("platforms.prestashop.enabled"),
				BaseURL:        v.GetString("platforms.prestashop.base_url"),
				APIKey:         v.GetString("platforms.prestashop.api_key"),
				TimeoutSeconds: v.GetInt("platforms.prestashop.timeout_seconds"),
			},
			Shopify: ShopifyConfig{
				Enabled:        v.GetBool("platforms.shopify.enabled"),
				ShopDomain:     v.GetString("platforms.shopify.shop_domain"),
				AccessToken:    v.GetString("platforms.shopify.access_token"),
				LocationID:     v.GetString("platforms.shopify.location_id"),
				TimeoutSeconds: v.GetInt("platforms.shopify.timeout_seconds"),
			},
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stockpilot"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "stockpilot"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Inventory.IdempotencyTTL == 0 {
		cfg.Inventory.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Sync.WorkersPerPlatform == 0 {
		cfg.Sync.WorkersPerPlatform = 3
	}
	if cfg.Sync.QueueSize == 0 {
		cfg.Sync.QueueSize = 256
	}
	if cfg.Sync.MaxAttempts == 0 {
		cfg.Sync.MaxAttempts = 3
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = 2 * time.Second
	}
	if cfg.Sync.RetryMaxDelay == 0 {
		cfg.Sync.RetryMaxDelay = time.Minute
	}
	if cfg.Sync.PushTimeout == 0 {
		cfg.Sync.PushTimeout = 30 * time.Second
	}
	if cfg.Sync.ShutdownTimeout == 0 {
		cfg.Sync.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Platforms.WooCommerce.TimeoutSeconds == 0 {
		cfg.Platforms.WooCommerce.TimeoutSeconds = 30
	}
	if cfg.Platforms.PrestaShop.TimeoutSeconds == 0 {
		cfg.Platforms.PrestaShop.TimeoutSeconds = 30
	}
	if cfg.Platforms.Shopify.TimeoutSeconds == 0 {
		cfg.Platforms.Shopify.TimeoutSeconds = 30
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("sync.max_attempts must be at least 1")
	}
	if c.Sync.RetryBaseDelay > c.Sync.RetryMaxDelay {
		return fmt.Errorf("sync.retry_base_delay cannot exceed sync.retry_max_delay")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Platforms.WooCommerce.Enabled && c.Platforms.WooCommerce.ConsumerSecret == "" {
			return fmt.Errorf("platforms.woocommerce.consumer_secret is required when enabled in production")
		}
		if c.Platforms.PrestaShop.Enabled && c.Platforms.PrestaShop.APIKey == "" {
			return fmt.Errorf("platforms.prestashop.api_key is required when enabled in production")
		}
		if c.Platforms.Shopify.Enabled && c.Platforms.Shopify.AccessToken == "" {
			return fmt.Errorf("platforms.shopify.access_token is required when enabled in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns the host:port address for the Redis client
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
