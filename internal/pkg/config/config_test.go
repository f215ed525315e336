package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/obliquemerc/internal/core/domain"
)

func TestLoad_DefaultsReproduceBaseScenario(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("obliquemerc-test")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultScenario(), cfg.Projection.Scenario())
	assert.Equal(t, "oblique_merc.png", cfg.Projection.Output)
	assert.Equal(t, 640, cfg.Render.Width)
	assert.Equal(t, 480, cfg.Render.Height)
	assert.Equal(t, "obliquemerc-test", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.Projection.Validate)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OBLIQUEMERC_PROJECTION_LAT_POINT_1", "12.5")
	t.Setenv("OBLIQUEMERC_PROJECTION_LAT_SAMPLES", "21")
	t.Setenv("OBLIQUEMERC_RENDER_WIDTH", "1024")

	cfg, err := Load("obliquemerc-test")
	require.NoError(t, err)
	assert.Equal(t, 12.5, cfg.Projection.LatPoint1)
	assert.Equal(t, 21, cfg.Projection.Scenario().LatSamples)
	assert.Equal(t, 1024, cfg.Render.Width)
}

func validConfig() *Config {
	def := domain.DefaultScenario()
	return &Config{
		Projection: ProjectionConfig{
			LatPoint1:  def.Reference.First.Lat,
			LonPoint1:  def.Reference.First.Lon,
			LatPoint2:  def.Reference.Second.Lat,
			LonPoint2:  def.Reference.Second.Lon,
			LatRange:   []float64{10, 60},
			LonRange:   []float64{100, 160},
			LatSamples: 11,
			LonSamples: 11,
			Output:     "out.png",
		},
		Render: RenderConfig{Width: 640, Height: 480, Padding: 24, LineWidth: 1},
		Server: ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short lat range", func(c *Config) { c.Projection.LatRange = []float64{10} }, "projection.lat_range"},
		{"pole in lat range", func(c *Config) { c.Projection.LatRange = []float64{0, 90} }, "strictly within"},
		{"one sample", func(c *Config) { c.Projection.LonSamples = 1 }, "at least 2 samples"},
		{"no output", func(c *Config) { c.Projection.Output = "" }, "projection.output"},
		{"zero width", func(c *Config) { c.Render.Width = 0 }, "render size"},
		{"padding too big", func(c *Config) { c.Render.Padding = 300 }, "render.padding"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"db needs name when enabled", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, Host: "db", Port: 5432}
		}, "database.dbname"},
		{"nats needs url when enabled", func(c *Config) { c.NATS = NATSConfig{Enabled: true} }, "nats.url"},
		{"valkey address ignored when disabled", func(c *Config) { c.Valkey = ValkeyConfig{} }, ""},
		{"valkey needs address when enabled", func(c *Config) { c.Valkey = ValkeyConfig{Enabled: true} }, "valkey.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", d.DSN())
}
