package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var configValidator = validator.New()

// Config represents the application configuration for the scaling-group
// DNS reconciler.
type Config struct {
	// CloudProvider selects which InstanceDiscovery/DNSProvider adapters
	// the composition root wires (TN-200-equivalent profile switch).
	CloudProvider string `mapstructure:"cloud_provider"`

	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Lock     LockConfig     `mapstructure:"lock"`
	App      AppConfig      `mapstructure:"app"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`

	DB             DBConfig             `mapstructure:"db"`
	EC2Readiness   EC2ReadinessConfig   `mapstructure:"ec2_readiness"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	MessageBroker  MessageBrokerConfig  `mapstructure:"message_broker"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
	Alarms         AlarmsConfig         `mapstructure:"alarms"`
	ThreadPool     ThreadPoolConfig     `mapstructure:"thread_pool"`
}

// ServerConfig holds HTTP server settings. cmd/reconciler does not read it;
// its metrics listener port comes from MonitoringConfig.
type ServerConfig struct {
	Port                    int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	Host                    string        `mapstructure:"host" validate:"required"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	IdleTimeout             time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// DatabaseConfig holds Postgres connection settings, used when db_provider
// selects the Postgres KVStore implementation.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	URL             string        `mapstructure:"url"`
}

// RedisConfig holds Redis connection settings, used by the LockStore and,
// when db_provider selects it, the Redis KVStore implementation.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// LogConfig holds logging-related configuration
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// CacheConfig holds cache TTL settings. The Config Loader does not read
// them: its sync.Once-cached SGConfiguration set is kept for the loader's
// lifetime with no TTL.
type CacheConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	MaxTTL          time.Duration `mapstructure:"max_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxKeys         int64         `mapstructure:"max_keys"`
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
}

// LockConfig holds distributed lock configuration for the per-scaling-group
// LockStore.
type LockConfig struct {
	TTL            time.Duration `mapstructure:"ttl"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	ReleaseTimeout time.Duration `mapstructure:"release_timeout"`
	ValuePrefix    string        `mapstructure:"value_prefix"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	Timezone    string `mapstructure:"timezone"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// DBConfig holds the KVStore backend selection and the keys the Config
// Loader reads, per spec.md §6's db_provider/db_table_name/
// db_config_iac_item_key_id/db_config_external_item_key_id variables.
type DBConfig struct {
	Provider              string `mapstructure:"provider" validate:"required,oneof=redis postgres dynamodb sqlite"` // redis|postgres|dynamodb|sqlite
	TableName             string `mapstructure:"table_name"`
	ConfigIaCItemKeyID    string `mapstructure:"config_iac_item_key_id"`
	ConfigExternalItemKey string `mapstructure:"config_external_item_key_id"`
	SQLiteFile            string `mapstructure:"sqlite_file"` // path for db_provider=sqlite; empty means in-memory
}

// EC2ReadinessConfig holds the default readiness probe settings applied
// when an SGConfiguration omits its own readiness block.
type EC2ReadinessConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	IntervalS      int    `mapstructure:"interval_seconds"`
	TimeoutS       int    `mapstructure:"timeout_seconds"`
	TagKey         string `mapstructure:"tag_key"`
	TagValue       string `mapstructure:"tag_value"`
}

// ReconciliationConfig holds pipeline-wide tuning knobs.
type ReconciliationConfig struct {
	MaxConcurrency     int      `mapstructure:"max_concurrency" validate:"required,min=1"`
	ScalingGroupValidStates []string `mapstructure:"scaling_group_valid_states"`
}

// MessageBrokerConfig selects and configures the Queue adapter used to
// enqueue reconciliation envelopes for asynchronous processing.
type MessageBrokerConfig struct {
	Provider string `mapstructure:"provider"` // sqs|mock
	URL      string `mapstructure:"url"`
}

// MonitoringConfig selects and configures the MetricsSink adapter.
type MonitoringConfig struct {
	MetricsEnabled   bool   `mapstructure:"metrics_enabled"`
	MetricsProvider  string `mapstructure:"metrics_provider"` // prometheus
	MetricsNamespace string `mapstructure:"metrics_namespace"`
	MetricsPort      int    `mapstructure:"metrics_port"`
}

// AlarmsConfig configures alarm notification routing for threshold
// breaches surfaced by the MetricsSink.
type AlarmsConfig struct {
	Enabled                bool   `mapstructure:"enabled"`
	NotificationDestination string `mapstructure:"notification_destination"`
}

// ThreadPoolConfig bounds the Task Scheduler's worker-pool capacity, per
// spec.md §4.9's `min(env("THREAD_POOL_SIZE", 1000), 1023)` formula.
type ThreadPoolConfig struct {
	Size int `mapstructure:"size"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables only
func LoadConfigFromEnv() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("cloud_provider", "aws")

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.graceful_shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "asgdns")
	viper.SetDefault("database.username", "dev")
	viper.SetDefault("database.password", "dev")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.min_connections", 5)
	viper.SetDefault("database.max_conn_lifetime", "1h")
	viper.SetDefault("database.max_conn_idle_time", "30m")
	viper.SetDefault("database.connect_timeout", "10s")
	viper.SetDefault("database.query_timeout", "30s")

	// Redis defaults
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.dial_timeout", "5s")
	viper.SetDefault("redis.read_timeout", "3s")
	viper.SetDefault("redis.write_timeout", "3s")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.min_retry_backoff", "100ms")
	viper.SetDefault("redis.max_retry_backoff", "500ms")

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.filename", "")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	// Cache defaults
	viper.SetDefault("cache.default_ttl", "1h")
	viper.SetDefault("cache.max_ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.max_keys", 10000)
	viper.SetDefault("cache.enable_metrics", true)

	// Lock defaults
	viper.SetDefault("lock.ttl", "30s")
	viper.SetDefault("lock.max_retries", 3)
	viper.SetDefault("lock.retry_interval", "100ms")
	viper.SetDefault("lock.acquire_timeout", "5s")
	viper.SetDefault("lock.release_timeout", "2s")
	viper.SetDefault("lock.value_prefix", "lock")

	// App defaults
	viper.SetDefault("app.name", "asg-dns-reconciler")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.timezone", "UTC")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("metrics.port", 8080)

	// db_provider/db_table_name/db_config_*_item_key_id (spec.md §6)
	viper.SetDefault("db.provider", "redis")
	viper.SetDefault("db.table_name", "asg_dns_configurations")
	viper.SetDefault("db.config_iac_item_key_id", "iac")
	viper.SetDefault("db.config_external_item_key_id", "external")
	viper.SetDefault("db.sqlite_file", "")

	// ec2_readiness_* (spec.md §6)
	viper.SetDefault("ec2_readiness.enabled", false)
	viper.SetDefault("ec2_readiness.interval_seconds", 5)
	viper.SetDefault("ec2_readiness.timeout_seconds", 120)
	viper.SetDefault("ec2_readiness.tag_key", "")
	viper.SetDefault("ec2_readiness.tag_value", "")

	// reconciliation_max_concurrency/scaling_group_valid_states (spec.md §6)
	viper.SetDefault("reconciliation.max_concurrency", 10)
	viper.SetDefault("reconciliation.scaling_group_valid_states", []string{"InService"})

	// message_broker/message_broker_url (spec.md §6)
	viper.SetDefault("message_broker.provider", "mock")
	viper.SetDefault("message_broker.url", "")

	// monitoring_metrics_*/alarms_* (spec.md §6)
	viper.SetDefault("monitoring.metrics_enabled", true)
	viper.SetDefault("monitoring.metrics_provider", "prometheus")
	viper.SetDefault("monitoring.metrics_namespace", "asg_dns_reconciler")
	viper.SetDefault("monitoring.metrics_port", 9108)
	viper.SetDefault("alarms.enabled", false)
	viper.SetDefault("alarms.notification_destination", "")

	// THREAD_POOL_SIZE (spec.md §4.9); capped at 1023 by
	// processing.CapacityFromEnv regardless of what is configured here.
	viper.SetDefault("thread_pool.size", 1000)
}

// Validate validates the configuration. Struct-tag rules cover the
// field-level checks; the provider-conditional rule below is easier to
// express directly than through a validator struct-level hook.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.DB.Provider == "postgres" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty (required for db_provider=postgres)")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name cannot be empty (required for db_provider=postgres)")
		}
	}

	return nil
}

// GetDatabaseURL constructs database URL from configuration
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("%s://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Driver,
		c.Database.Username,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		sslMode,
	)
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDebug returns true if debug mode is enabled
func (c *Config) IsDebug() bool {
	return c.App.Debug || c.IsDevelopment()
}
