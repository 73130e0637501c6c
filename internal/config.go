package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server" envPrefix:"HTTP_"`
	Database      DatabaseConfig      `mapstructure:"database" envPrefix:"DB_"`
	Security      SecurityConfig      `mapstructure:"security" envPrefix:"SECURITY_" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Hierarchy     HierarchyConfig     `mapstructure:"hierarchy" envPrefix:"HIERARCHY_"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"PORT" envDefault:"8080" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" env:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"ALLOWED_ORIGINS" envDefault:"*"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"15s"`
	OpenAPISpecPath   string        `mapstructure:"openapi_spec_path" env:"OPENAPI_SPEC_PATH" envDefault:"./api/openapi.yml"`
	ValidateRequests  bool          `mapstructure:"validate_requests" env:"VALIDATE_REQUESTS" envDefault:"false"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS" envDefault:"20" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS" envDefault:"5" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME" envDefault:"30m" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME" envDefault:"5m" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" env:"SOURCE" validate:"required"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" env:"ACCESS_TOKEN_SECRET" validate:"required,min=16"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET" validate:"required,min=16"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" env:"ACCESS_TOKEN_DURATION" envDefault:"15m" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" env:"REFRESH_TOKEN_DURATION" envDefault:"168h" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10" validate:"required,min=4,max=15"`
}

type ObservabilityConfig struct {
	Environment string        `mapstructure:"environment" env:"APP_ENV" envDefault:"development"`
	Metrics     MetricsConfig `mapstructure:"metrics" envPrefix:"METRICS_"`
	Tracing     TracingConfig `mapstructure:"tracing" envPrefix:"TRACING_"`
	Logging     LoggingConfig `mapstructure:"logging" envPrefix:"LOG_"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"ENABLED" envDefault:"false"`
	Path    string `mapstructure:"path" env:"PATH" envDefault:"/metrics" validate:"required_if=Enabled true"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled" env:"ENABLED" envDefault:"false"`
	ServiceName  string  `mapstructure:"service_name" env:"SERVICE_NAME" envDefault:"org-management" validate:"required_if=Enabled true"`
	SamplingRate float64 `mapstructure:"sampling_rate" env:"SAMPLING_RATE" envDefault:"1" validate:"min=0,max=1"`
	CollectorURL string  `mapstructure:"collector_url" env:"COLLECTOR_URL" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" env:"FORMAT" envDefault:"text" validate:"required,oneof=json text"`
}

// HierarchyConfig tunes the org-hierarchy resolver.
type HierarchyConfig struct {
	AdminRoles       []string `mapstructure:"admin_roles" env:"ADMIN_ROLES" envDefault:"CEO,Admin" envSeparator:","`
	AdminBatchSize   int      `mapstructure:"admin_batch_size" env:"ADMIN_BATCH_SIZE" envDefault:"1000" validate:"min=1,max=100000"`
	DetailBatchSize  int      `mapstructure:"detail_batch_size" env:"DETAIL_BATCH_SIZE" envDefault:"500" validate:"min=1,max=10000"`
	StrictCycleCheck bool     `mapstructure:"strict_cycle_check" env:"STRICT_CYCLE_CHECK" envDefault:"false"`
}

// ----------------- LOADING -----------------

// LoadConfigFromEnv builds the config from process environment variables.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.OpenAPISpecPath == "" {
		c.Server.OpenAPISpecPath = "./api/openapi.yml"
	}
	if len(c.Hierarchy.AdminRoles) == 0 {
		c.Hierarchy.AdminRoles = []string{"CEO", "Admin"}
	}
	if c.Hierarchy.AdminBatchSize == 0 {
		c.Hierarchy.AdminBatchSize = 1000
	}
	if c.Hierarchy.DetailBatchSize == 0 {
		c.Hierarchy.DetailBatchSize = 500
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

// ----------------- VALIDATION -----------------

var validate = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits AllowedOrigins into trimmed entries.
func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	return nil
}
