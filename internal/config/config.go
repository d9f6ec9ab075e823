package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Parking   ParkingConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	HTTP      HTTPConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        string
}

type ParkingConfig struct {
	// TotalSpaces is read once at startup and never changes.
	TotalSpaces int
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

type TelemetryConfig struct {
	Enabled        bool
	ServiceName    string
	Endpoint       string
	ExportInterval time.Duration
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load resolves configuration from, lowest priority first: built-in
// defaults, car-park.yaml in . or /etc/car-park, CARPARK_* environment
// variables. OTEL_SERVICE_NAME and OTEL_EXPORTER_OTLP_ENDPOINT are also
// honoured for the telemetry section.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("car-park")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/car-park")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("CARPARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("telemetry.service_name", "CARPARK_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("telemetry.endpoint", "CARPARK_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"); err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: v.GetString("app.environment"),
			Port:        v.GetString("app.port"),
		},
		Parking: ParkingConfig{
			TotalSpaces: v.GetInt("parking.total_spaces"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Telemetry: TelemetryConfig{
			Enabled:        v.GetBool("telemetry.enabled"),
			ServiceName:    v.GetString("telemetry.service_name"),
			Endpoint:       v.GetString("telemetry.endpoint"),
			ExportInterval: v.GetDuration("telemetry.export_interval"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "car-park")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("parking.total_spaces", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "car-park-service")
	v.SetDefault("telemetry.endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.export_interval", 5*time.Second)

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
}

func (c *Config) Validate() error {
	if c.Parking.TotalSpaces <= 0 {
		return fmt.Errorf("parking.total_spaces must be greater than 0, got %d", c.Parking.TotalSpaces)
	}
	if c.App.Port == "" {
		return fmt.Errorf("app.port is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
