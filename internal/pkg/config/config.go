package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Projection ProjectionConfig `mapstructure:"projection"`
	Render     RenderConfig     `mapstructure:"render"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Log        LogConfig        `mapstructure:"log"`
}

// ProjectionConfig is the scenario: two reference points and the sampled ranges.
type ProjectionConfig struct {
	LatPoint1     float64   `mapstructure:"lat_point_1"`
	LonPoint1     float64   `mapstructure:"lon_point_1"`
	LatPoint2     float64   `mapstructure:"lat_point_2"`
	LonPoint2     float64   `mapstructure:"lon_point_2"`
	LatRange      []float64 `mapstructure:"lat_range"`
	LonRange      []float64 `mapstructure:"lon_range"`
	LatSamples    int       `mapstructure:"lat_samples"`
	LonSamples    int       `mapstructure:"lon_samples"`
	Output        string    `mapstructure:"output"`
	GeoJSONOutput string    `mapstructure:"geojson_output"`
	Validate      bool      `mapstructure:"validate"`
	Parallel      bool      `mapstructure:"parallel"`
}

// Scenario converts the flat configuration into a domain.Scenario.
func (p ProjectionConfig) Scenario() domain.Scenario {
	return domain.Scenario{
		Reference: domain.ReferencePair{
			First:  domain.GeoPoint{Lat: p.LatPoint1, Lon: p.LonPoint1},
			Second: domain.GeoPoint{Lat: p.LatPoint2, Lon: p.LonPoint2},
		},
		LatRange:   toRange(p.LatRange),
		LonRange:   toRange(p.LonRange),
		LatSamples: p.LatSamples,
		LonSamples: p.LonSamples,
	}
}

func toRange(v []float64) domain.Range {
	if len(v) != 2 {
		return domain.Range{}
	}
	return domain.Range{Min: v[0], Max: v[1]}
}

type RenderConfig struct {
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
	Padding   int     `mapstructure:"padding"`
	LineWidth float64 `mapstructure:"line_width"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: OBLIQUEMERC_PROJECTION_LAT_POINT_1 → projection.lat_point_1
	v.SetEnvPrefix("OBLIQUEMERC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	def := domain.DefaultScenario()
	v.SetDefault("projection.lat_point_1", def.Reference.First.Lat)
	v.SetDefault("projection.lon_point_1", def.Reference.First.Lon)
	v.SetDefault("projection.lat_point_2", def.Reference.Second.Lat)
	v.SetDefault("projection.lon_point_2", def.Reference.Second.Lon)
	v.SetDefault("projection.lat_range", []float64{def.LatRange.Min, def.LatRange.Max})
	v.SetDefault("projection.lon_range", []float64{def.LonRange.Min, def.LonRange.Max})
	v.SetDefault("projection.lat_samples", def.LatSamples)
	v.SetDefault("projection.lon_samples", def.LonSamples)
	v.SetDefault("projection.output", "oblique_merc.png")
	v.SetDefault("projection.geojson_output", "")
	v.SetDefault("projection.validate", false)
	v.SetDefault("projection.parallel", true)

	v.SetDefault("render.width", 640)
	v.SetDefault("render.height", 480)
	v.SetDefault("render.padding", 24)
	v.SetDefault("render.line_width", 1.0)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "obliquemerc")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "obliquemerc")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.ttl_seconds", 3600)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	p := c.Projection
	if len(p.LatRange) != 2 {
		errs = append(errs, fmt.Sprintf("projection.lat_range must have 2 values, got %d", len(p.LatRange)))
	}
	if len(p.LonRange) != 2 {
		errs = append(errs, fmt.Sprintf("projection.lon_range must have 2 values, got %d", len(p.LonRange)))
	}
	if len(p.LatRange) == 2 && len(p.LonRange) == 2 {
		if err := p.Scenario().Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if p.Output == "" {
		errs = append(errs, "projection.output is required")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Sprintf("render size must be positive, got %dx%d", c.Render.Width, c.Render.Height))
	}
	if c.Render.Padding < 0 || 2*c.Render.Padding >= c.Render.Width || 2*c.Render.Padding >= c.Render.Height {
		errs = append(errs, fmt.Sprintf("render.padding %d does not fit a %dx%d image", c.Render.Padding, c.Render.Width, c.Render.Height))
	}
	if c.Render.LineWidth <= 0 {
		errs = append(errs, "render.line_width must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Valkey.TTLSeconds < 0 {
		errs = append(errs, "valkey.ttl_seconds must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
