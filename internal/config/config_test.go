package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray
// car-park.yaml is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	// Empty values are ignored by viper, which leaves the defaults in place.
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "car-park", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 50, cfg.Parking.TotalSpaces)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "car-park-service", cfg.Telemetry.ServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.ExportInterval)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CARPARK_APP_PORT", "9090")
	t.Setenv("CARPARK_PARKING_TOTAL_SPACES", "12")
	t.Setenv("CARPARK_LOG_FORMAT", "console")
	t.Setenv("CARPARK_TELEMETRY_ENABLED", "false")
	t.Setenv("OTEL_SERVICE_NAME", "car-park-staging")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 12, cfg.Parking.TotalSpaces)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "car-park-staging", cfg.Telemetry.ServiceName)
	assert.Equal(t, "http://collector:4318", cfg.Telemetry.Endpoint)
}

func TestLoadFromFile(t *testing.T) {
	dir := chdirTemp(t)
	yaml := []byte("parking:\n  total_spaces: 7\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "car-park.yaml"), yaml, 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Parking.TotalSpaces)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "car-park.yaml"),
		[]byte("parking:\n  total_spaces: 7\n"), 0o600))
	t.Setenv("CARPARK_PARKING_TOTAL_SPACES", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Parking.TotalSpaces)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero spaces", "parking.total_spaces", "0"},
		{"negative spaces", "parking.total_spaces", "-4"},
		{"bad log level", "log.level", "loud"},
		{"bad log format", "log.format", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			v := viper.New()
			v.Set(tt.key, tt.val)

			_, err := LoadFrom(v)
			assert.Error(t, err)
		})
	}
}
