package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Logger    LoggerConfig    `yaml:"logger"`
	Security  SecurityConfig  `yaml:"security"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"SERVER_HOST" validate:"required"`
	Port            int           `yaml:"port" envconfig:"SERVER_PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"SERVER_IDLE_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

type DataConfig struct {
	CSVFile     string        `yaml:"csv_file" envconfig:"CSV_FILE" validate:"required"`
	LoadTimeout time.Duration `yaml:"load_timeout" envconfig:"CSV_LOAD_TIMEOUT" validate:"gt=0"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT" validate:"oneof=json text"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit" envconfig:"SECURITY_RATE_LIMIT_ENABLED"`
	RateLimitRPS    int      `yaml:"rate_limit_rps" envconfig:"SECURITY_RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" envconfig:"SECURITY_RATE_LIMIT_BURST" validate:"gt=0"`
	AllowedOrigins  []string `yaml:"allowed_origins" envconfig:"SECURITY_ALLOWED_ORIGINS" validate:"dive,required"`
	TrustedProxies  []string `yaml:"trusted_proxies" envconfig:"SECURITY_TRUSTED_PROXIES"`
}

type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"OTEL_SERVICE_NAME" validate:"required"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Data: DataConfig{
			CSVFile:     "data.csv",
			LoadTimeout: 60 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "ecom-dashboard",
			MetricsEnabled: true,
		},
	}
}

// Load builds the configuration from the defaults, then an optional YAML file
// named by CONFIG_FILE, then the environment. Later sources win.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Fields whose variable is unset are left alone.
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
