package config

import (
	"os"
	"path/filepath"
	"testing"

	"trend-pulse/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: pulse-test
port: 9090
ingestion:
  sources:
    - id: insta
    - id: tiktok
      enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigLayersOverDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "pulse-test", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30, cfg.Ingestion.TickSeconds)
	assert.Equal(t, 5, cfg.Ingestion.ErrorThreshold)
	assert.Equal(t, 1000, cfg.Stream.BufferCapacity)
	assert.Equal(t, 50, cfg.Stream.BatchSize)
	assert.Equal(t, 5.0, cfg.Analysis.TrendThresholds["engagement"])
	assert.Equal(t, 2.0, cfg.Analysis.TrendThresholds["followers"])
	assert.Equal(t, []string{"high", "critical"}, cfg.Broadcast.UrgentPriorities)

	require.Len(t, cfg.Ingestion.Sources, 2)
	assert.True(t, cfg.Ingestion.Sources[0].IsEnabled())
	assert.False(t, cfg.Ingestion.Sources[1].IsEnabled())
}

func TestNewConfigEnvOverride(t *testing.T) {
	t.Setenv("PULSE_PORT", "9191")
	t.Setenv("PULSE_LOG_LEVEL", "DEBUG")

	cfg, err := NewConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "DEBUG", cfg.LogLevel)

	t.Setenv("PULSE_PORT", "not-a-port")
	_, err = NewConfig(writeConfig(t, minimalYAML))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"no sources":         func(c *Config) { c.Ingestion.Sources = nil },
		"low port":           func(c *Config) { c.Port = 80 },
		"window too small":   func(c *Config) { c.Analysis.TrendWindow = 1 },
		"unknown field":      func(c *Config) { c.Analysis.TrendThresholds["mood"] = 1 },
		"bad probability":    func(c *Config) { c.Recommendations.TriggerProbability = 1.5 },
		"empty prime time":   func(c *Config) { c.Recommendations.PrimeTimeEndHour = c.Recommendations.PrimeTimeStartHour },
		"bad priority":       func(c *Config) { c.Broadcast.UrgentPriorities = []string{"urgent"} },
		"sqlite without db":  func(c *Config) { c.Storage.DBType = "sqlite" },
		"http without url":   func(c *Config) { c.Ingestion.Adapter = "http" },
		"unsupported db":     func(c *Config) { c.Storage.DBType = "mongo" },
		"duplicate sourceId": func(c *Config) { c.Ingestion.Sources = append(c.Ingestion.Sources, c.Ingestion.Sources[0]) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := &Config{MConfig: Default()}
			c.Ingestion.Sources = []models.MSourceConfig{{ID: "a"}}
			require.NoError(t, c.Validate())
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateAcceptsOvernightPrimeTime(t *testing.T) {
	c := &Config{MConfig: Default()}
	c.Ingestion.Sources = []models.MSourceConfig{{ID: "a"}}
	c.Recommendations.PrimeTimeStartHour = 22
	c.Recommendations.PrimeTimeEndHour = 2
	assert.NoError(t, c.Validate())

	c.Recommendations.PrimeTimeStartHour = 0
	c.Recommendations.PrimeTimeEndHour = 24
	assert.NoError(t, c.Validate())

	c.Recommendations.PrimeTimeEndHour = 0
	assert.Error(t, c.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	cfg, err := NewConfig(path)
	require.NoError(t, err)

	cfg.Port = 9300
	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 9300, reloaded.Port)
	assert.Equal(t, cfg.Ingestion.Sources[0].ID, reloaded.Ingestion.Sources[0].ID)
}
