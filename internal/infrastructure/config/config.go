package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Accepted values for the selector settings
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ImageBackendWooCommerce = "woocommerce"
	ImageBackendS3          = "s3"

	SessionStoreDatabase = "database"
	SessionStoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	WooCommerce WooCommerceConfig
	Images      ImagesConfig
	Variation   VariationConfig
	Session     SessionConfig
	Telemetry   TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	StoreRateLimit   int // store-calling requests per minute per client, negative disables
}

// WooCommerceConfig holds the store connection
type WooCommerceConfig struct {
	StoreURL             string
	ConsumerKey          string
	ConsumerSecret       string
	APIVersion           string
	Timeout              time.Duration
	MaxRetries           int
	WordPressUser        string // media uploads, falls back to the consumer key
	WordPressAppPassword string
}

// ImagesConfig selects where variation images are uploaded
type ImagesConfig struct {
	Backend  string // woocommerce, s3
	MaxBytes int64
	S3       S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Endpoint     string // empty for AWS
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool   // required by MinIO
	PublicURL    string // base URL used to build image links
	KeyPrefix    string
}

// VariationConfig holds generation limits
type VariationConfig struct {
	MaxCombinations int // negative disables the ceiling
	Currency        string
	Locale          string
}

// SessionConfig holds editing session storage settings
type SessionConfig struct {
	Store         string // database, memory
	CacheTTL      time.Duration
	MaxIdle       time.Duration // negative keeps idle sessions forever
	SweepInterval time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool // export zap logs through the OTLP log bridge
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with HARMONY_ prefix (e.g., HARMONY_WOOCOMMERCE_CONSUMER_KEY)
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

	v.SetEnvPrefix("HARMONY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
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
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			StoreRateLimit:   v.GetInt("http.store_rate_limit"),
		},
		WooCommerce: WooCommerceConfig{
			StoreURL:             v.GetString("woocommerce.store_url"),
			ConsumerKey:          v.GetString("woocommerce.consumer_key"),
			ConsumerSecret:       v.GetString("woocommerce.consumer_secret"),
			APIVersion:           v.GetString("woocommerce.api_version"),
			Timeout:              v.GetDuration("woocommerce.timeout"),
			MaxRetries:           v.GetInt("woocommerce.max_retries"),
			WordPressUser:        v.GetString("woocommerce.wordpress_user"),
			WordPressAppPassword: v.GetString("woocommerce.wordpress_app_password"),
		},
		Images: ImagesConfig{
			Backend:  v.GetString("images.backend"),
			MaxBytes: v.GetInt64("images.max_bytes"),
			S3: S3Config{
				Endpoint:     v.GetString("images.s3.endpoint"),
				Region:       v.GetString("images.s3.region"),
				Bucket:       v.GetString("images.s3.bucket"),
				AccessKey:    v.GetString("images.s3.access_key"),
				SecretKey:    v.GetString("images.s3.secret_key"),
				UseSSL:       v.GetBool("images.s3.use_ssl"),
				UsePathStyle: v.GetBool("images.s3.use_path_style"),
				PublicURL:    v.GetString("images.s3.public_url"),
				KeyPrefix:    v.GetString("images.s3.key_prefix"),
			},
		},
		Variation: VariationConfig{
			MaxCombinations: v.GetInt("variation.max_combinations"),
			Currency:        v.GetString("variation.currency"),
			Locale:          v.GetString("variation.locale"),
		},
		Session: SessionConfig{
			Store:         v.GetString("session.store"),
			CacheTTL:      v.GetDuration("session.cache_ttl"),
			MaxIdle:       v.GetDuration("session.max_idle"),
			SweepInterval: v.GetDuration("session.sweep_interval"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
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
		cfg.App.Name = "harmony"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
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
		cfg.Database.DBName = "harmony"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "harmony.db"
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
		cfg.HTTP.WriteTimeout = 60 * time.Second // submit waits on the store
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 12 << 20 // image upload plus multipart overhead
	}
	// No default origins: cross-origin requests stay disabled until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.HTTP.StoreRateLimit == 0 {
		cfg.HTTP.StoreRateLimit = 60
	}
	if cfg.WooCommerce.APIVersion == "" {
		cfg.WooCommerce.APIVersion = "wc/v3"
	}
	if cfg.WooCommerce.Timeout == 0 {
		cfg.WooCommerce.Timeout = 30 * time.Second
	}
	if cfg.WooCommerce.MaxRetries == 0 {
		cfg.WooCommerce.MaxRetries = 3
	}
	if cfg.Images.Backend == "" {
		cfg.Images.Backend = ImageBackendWooCommerce
	}
	if cfg.Images.MaxBytes == 0 {
		cfg.Images.MaxBytes = 10 << 20
	}
	if cfg.Images.S3.Region == "" {
		cfg.Images.S3.Region = "us-east-1"
	}
	if cfg.Images.S3.KeyPrefix == "" {
		cfg.Images.S3.KeyPrefix = "variations"
	}
	if cfg.Variation.MaxCombinations == 0 {
		cfg.Variation.MaxCombinations = 1000
	}
	if cfg.Variation.Currency == "" {
		cfg.Variation.Currency = "USD"
	}
	if cfg.Variation.Locale == "" {
		cfg.Variation.Locale = "en"
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = SessionStoreDatabase
	}
	if cfg.Session.CacheTTL == 0 {
		cfg.Session.CacheTTL = 30 * time.Minute
	}
	if cfg.Session.MaxIdle == 0 {
		cfg.Session.MaxIdle = 7 * 24 * time.Hour
	}
	if cfg.Session.SweepInterval == 0 {
		cfg.Session.SweepInterval = time.Hour
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "harmony"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
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

	switch c.Images.Backend {
	case ImageBackendWooCommerce:
	case ImageBackendS3:
		if c.Images.S3.Bucket == "" {
			return fmt.Errorf("images.s3.bucket is required when images.backend is s3")
		}
	default:
		return fmt.Errorf("images.backend must be woocommerce or s3, got %q", c.Images.Backend)
	}

	switch c.Session.Store {
	case SessionStoreDatabase, SessionStoreMemory:
	default:
		return fmt.Errorf("session.store must be database or memory, got %q", c.Session.Store)
	}

	if c.WooCommerce.MaxRetries < 0 {
		return fmt.Errorf("woocommerce.max_retries cannot be negative")
	}

	if c.App.Env == "production" {
		if c.WooCommerce.StoreURL == "" {
			return fmt.Errorf("woocommerce.store_url is required in production")
		}
		if !strings.HasPrefix(strings.ToLower(c.WooCommerce.StoreURL), "https://") {
			return fmt.Errorf("woocommerce.store_url must use https in production")
		}
		if c.WooCommerce.ConsumerKey == "" || c.WooCommerce.ConsumerSecret == "" {
			return fmt.Errorf("woocommerce.consumer_key and woocommerce.consumer_secret are required in production")
		}
		if c.Database.Driver == DriverPostgres {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
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
