package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Remote      RemoteConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Auth        AuthConfig
	Owners      OwnersConfig
	Export      ExportConfig
	Storage     StorageConfig
	Chrome      ChromeConfig
	Telemetry   TelemetryConfig
	Profiler    ProfilerConfig
	Metrics     MetricsConfig
	Idempotency IdempotencyConfig
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
}

// RemoteConfig points at the remote order API
type RemoteConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// BulkDeleteConcurrency caps parallel deletes in one bulk delete (0 = unbounded)
	BulkDeleteConcurrency int
}

// DatabaseConfig holds the local database settings. The local database only
// stores device-local records: addresses, tickets and the activity log.
type DatabaseConfig struct {
	Driver          string // sqlite or postgres
	Path            string // sqlite file path, ":memory:" allowed
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	// MigrateOnStart applies pending migrations when the server starts
	MigrateOnStart bool
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// AuthConfig controls dashboard login
type AuthConfig struct {
	Enabled    bool
	Users      []UserConfig
	Revocation RevocationConfig
	// LoginRate is the sustained login attempts per minute per client IP
	LoginRate  float64
	LoginBurst int
}

// RevocationConfig selects where logged-out token IDs are kept
type RevocationConfig struct {
	Backend string // memory or redis
	Redis   RedisConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IdempotencyConfig controls the duplicate-submission guard on bulk routes
type IdempotencyConfig struct {
	Backend          string // memory or redis
	TTL              time.Duration
	FallbackToMemory bool
	Redis            RedisConfig
}

// UserConfig is one configured dashboard user
type UserConfig struct {
	Username     string   `mapstructure:"username" validate:"required"`
	PasswordHash string   `mapstructure:"password_hash" validate:"required"`
	Owners       []string `mapstructure:"owners" validate:"required,min=1,dive,required"`
}

// OwnersConfig lists the known owners and the owner views
type OwnersConfig struct {
	Names []string
	// Views maps a view name to the owner it is fixed to
	Views map[string]string
}

// ExportConfig controls persisting of generated exports
type ExportConfig struct {
	PersistArtifacts bool
	Backend          string // filesystem or s3
	BasePath         string
	// BaseURL prefixes filesystem artifact URLs; the API serves them at
	// /api/v1/views/<view>/artifacts/...
	BaseURL string
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint          string
	Bucket            string
	AccessKey         string
	SecretKey         string
	Region            string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// ChromeConfig holds headless Chrome settings for PDF and PNG rendering
type ChromeConfig struct {
	RemoteURL string
	NoSandbox bool
	Timeout   time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)

	// Local database instrumentation
	DBTraceEnabled    bool          // Create spans for local database queries
	DBLogFullSQL      bool          // Include query variables in spans and SQL logs (never in production)
	DBSlowQueryThresh time.Duration // Queries slower than this are flagged
	DBMetricsEnabled  bool          // Export query and pool metrics

	// OTLP push of metrics and logs
	MetricsEnabled        bool
	MetricsExportInterval time.Duration
	LogsEnabled           bool
	LogsLevel             string // minimum level exported, defaults to log.level

	// SpanProfilesEnabled links spans to Pyroscope CPU profiles
	SpanProfilesEnabled bool
}

// ProfilerConfig holds Pyroscope continuous profiling settings
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	// HTTPLabels attaches method and route labels to request profiles
	HTTPLabels bool
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ORDERDESK_ prefix (e.g., ORDERDESK_REMOTE_BASE_URL)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// A missing .env is fine; existing environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Enable environment variable override
	v.SetEnvPrefix("ORDERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.migrate_on_start", true)
	v.SetDefault("profiler.http_labels", true)
	v.SetDefault("idempotency.fallback_to_memory", true)

	var users []UserConfig
	if err := v.UnmarshalKey("auth.users", &users); err != nil {
		return nil, fmt.Errorf("error reading auth.users: %w", err)
	}

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
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
		},
		Remote: RemoteConfig{
			BaseURL:               v.GetString("remote.base_url"),
			Timeout:               v.GetDuration("remote.timeout"),
			UserAgent:             v.GetString("remote.user_agent"),
			BulkDeleteConcurrency: v.GetInt("remote.bulk_delete_concurrency"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Path:            v.GetString("database.path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			MigrateOnStart:  v.GetBool("database.migrate_on_start"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Auth: AuthConfig{
			Enabled:    v.GetBool("auth.enabled"),
			Users:      users,
			LoginRate:  v.GetFloat64("auth.login_rate"),
			LoginBurst: v.GetInt("auth.login_burst"),
			Revocation: RevocationConfig{
				Backend: v.GetString("auth.revocation.backend"),
				Redis: RedisConfig{
					Host:     v.GetString("auth.revocation.redis.host"),
					Port:     v.GetInt("auth.revocation.redis.port"),
					Password: v.GetString("auth.revocation.redis.password"),
					DB:       v.GetInt("auth.revocation.redis.db"),
				},
			},
		},
		Owners: OwnersConfig{
			Names: v.GetStringSlice("owners.names"),
			Views: v.GetStringMapString("owners.views"),
		},
		Export: ExportConfig{
			PersistArtifacts: v.GetBool("export.persist_artifacts"),
			Backend:          v.GetString("export.backend"),
			BasePath:         v.GetString("export.base_path"),
			BaseURL:          v.GetString("export.base_url"),
		},
		Storage: StorageConfig{
			Endpoint:          v.GetString("storage.endpoint"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			Region:            v.GetString("storage.region"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Chrome: ChromeConfig{
			RemoteURL: v.GetString("chrome.remote_url"),
			NoSandbox: v.GetBool("chrome.no_sandbox"),
			Timeout:   v.GetDuration("chrome.timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),

			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			DBMetricsEnabled:  v.GetBool("telemetry.db_metrics_enabled"),

			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
			LogsLevel:             v.GetString("telemetry.logs_level"),

			SpanProfilesEnabled: v.GetBool("telemetry.span_profiles_enabled"),
		},
		Profiler: ProfilerConfig{
			Enabled:           v.GetBool("profiler.enabled"),
			ServerAddress:     v.GetString("profiler.server_address"),
			ApplicationName:   v.GetString("profiler.application_name"),
			BasicAuthUser:     v.GetString("profiler.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiler.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiler.profile_types"),
			HTTPLabels:        v.GetBool("profiler.http_labels"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
		Idempotency: IdempotencyConfig{
			Backend:          v.GetString("idempotency.backend"),
			TTL:              v.GetDuration("idempotency.ttl"),
			FallbackToMemory: v.GetBool("idempotency.fallback_to_memory"),
			Redis: RedisConfig{
				Host:     v.GetString("idempotency.redis.host"),
				Port:     v.GetInt("idempotency.redis.port"),
				Password: v.GetString("idempotency.redis.password"),
				DB:       v.GetInt("idempotency.redis.db"),
			},
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "orderdesk"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
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
		// PDF rendering can take several seconds
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"}
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "http://localhost:5000"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 30 * time.Second
	}
	if cfg.Remote.UserAgent == "" {
		cfg.Remote.UserAgent = "orderdesk/1.0"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join("data", "orderdesk.db")
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
		cfg.Database.DBName = "orderdesk"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 12 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "orderdesk"
	}
	if cfg.Auth.Revocation.Backend == "" {
		cfg.Auth.Revocation.Backend = "memory"
	}
	if cfg.Auth.LoginRate == 0 {
		cfg.Auth.LoginRate = 10
	}
	if cfg.Auth.LoginBurst == 0 {
		cfg.Auth.LoginBurst = 5
	}
	if cfg.Auth.Revocation.Redis.Host == "" {
		cfg.Auth.Revocation.Redis.Host = "localhost"
	}
	if cfg.Auth.Revocation.Redis.Port == 0 {
		cfg.Auth.Revocation.Redis.Port = 6379
	}
	if len(cfg.Owners.Names) == 0 {
		cfg.Owners.Names = []string{"Ahsan", "Wahab"}
	}
	if len(cfg.Owners.Views) == 0 {
		cfg.Owners.Views = map[string]string{"wahab": "Wahab"}
	}
	if cfg.Export.Backend == "" {
		cfg.Export.Backend = "filesystem"
	}
	if cfg.Export.BasePath == "" {
		cfg.Export.BasePath = filepath.Join("data", "exports")
	}
	if cfg.Export.BaseURL == "" {
		cfg.Export.BaseURL = "/api/v1/views"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Chrome.Timeout == 0 {
		cfg.Chrome.Timeout = 30 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "orderdesk"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = cfg.Log.Level
	}
	if cfg.Profiler.ApplicationName == "" {
		cfg.Profiler.ApplicationName = cfg.App.Name
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Idempotency.Backend == "" {
		cfg.Idempotency.Backend = "memory"
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 10 * time.Minute
	}
	if cfg.Idempotency.Redis.Host == "" {
		cfg.Idempotency.Redis.Host = "localhost"
	}
	if cfg.Idempotency.Redis.Port == 0 {
		cfg.Idempotency.Redis.Port = 6379
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url must be an absolute URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.BulkDeleteConcurrency < 0 {
		return fmt.Errorf("remote.bulk_delete_concurrency cannot be negative")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Export.Backend {
	case "filesystem", "s3":
	default:
		return fmt.Errorf("export.backend must be filesystem or s3, got %q", c.Export.Backend)
	}
	if c.Export.PersistArtifacts && c.Export.Backend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when exports are stored in s3")
	}

	switch c.Idempotency.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("idempotency.backend must be memory or redis, got %q", c.Idempotency.Backend)
	}

	if c.Auth.Enabled {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required when auth is enabled")
		}
		if len(c.Auth.Users) == 0 {
			return fmt.Errorf("auth.users must list at least one user when auth is enabled")
		}
		switch c.Auth.Revocation.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("auth.revocation.backend must be memory or redis, got %q", c.Auth.Revocation.Backend)
		}
		validate := validator.New()
		for i, u := range c.Auth.Users {
			if err := validate.Struct(u); err != nil {
				return fmt.Errorf("auth.users[%d]: %w", i, err)
			}
		}
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if !c.Auth.Enabled {
			return fmt.Errorf("auth.enabled must be true in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Profiler.Enabled && c.Profiler.ServerAddress == "" {
		return fmt.Errorf("profiler.server_address is required when profiling is enabled")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the postgres connection string with properly escaped values
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
