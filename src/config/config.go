package config

import (
	"fmt"
	"os"
	"strconv"

	"trend-pulse/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Default returns the built-in configuration every file is layered over.
func Default() *models.MConfig {
	return &models.MConfig{
		Name:      "trend-pulse",
		Host:      "0.0.0.0",
		Port:      8080,
		LogLevel:  "INFO",
		LogFormat: "text",
		GrpcHost:  "127.0.0.1",
		GrpcPort:  0,
		Storage: models.MStorageConfig{
			QueueSize: 256,
		},
		Network: models.MNetworkConfig{
			RequestTimeout: 10,
			MaxRetries:     2,
		},
		Ingestion: models.MIngestionConfig{
			TickSeconds:           30,
			ErrorThreshold:        5,
			ReconnectDelaySeconds: 5,
			Adapter:               "simulated",
		},
		Stream: models.MStreamConfig{
			BufferCapacity:       1000,
			DrainIntervalSeconds: 5,
			BatchSize:            50,
		},
		Analysis: models.MAnalysisConfig{
			TrendWindow: 5,
			HistorySize: 50,
			TrendThresholds: map[string]float64{
				models.FieldEngagement: 5,
				models.FieldFollowers:  2,
			},
			AlertHistorySize: 50,
		},
		Dashboard: models.MDashboardConfig{
			RefreshIntervalSeconds: 10,
			RetentionMinutes:       60,
			MinTrendConfidence:     70,
			RecentMetricsLimit:     200,
		},
		Recommendations: models.MRecommendationsConfig{
			QueueSize:          10,
			TriggerProbability: 0.1,
			PrimeTimeStartHour: 18,
			PrimeTimeEndHour:   21,
		},
		Broadcast: models.MBroadcastConfig{
			UrgentPriorities: []string{string(models.PriorityHigh), string(models.PriorityCritical)},
			ClientBuffer:     256,
			MessageRate:      20,
			MessageBurst:     40,
		},
	}
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal over defaults so omitted keys keep their defaults
	modelConfig := Default()
	if err := yaml.Unmarshal(data, modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: modelConfig}

	// 3. Environment overrides
	LoadEnvFiles()
	if err := config.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// LoadEnvFiles loads .env files from the working directory when present.
// Variables already set in the process environment win.
func LoadEnvFiles() []string {
	var loaded []string
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			continue
		}
		loaded = append(loaded, file)
	}
	return loaded
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides file values with PULSE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PULSE_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("PULSE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PULSE_PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("PULSE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PULSE_DB_TYPE"); v != "" {
		c.Storage.DBType = v
	}
	if v := os.Getenv("PULSE_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("PULSE_DB_CONNECTION_STRING"); v != "" {
		c.Storage.DBConnectionString = v
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Ingestion
	in := c.Ingestion
	if in.TickSeconds <= 0 {
		return fmt.Errorf("ingestion tick must be greater than 0")
	}
	if in.ErrorThreshold <= 0 {
		return fmt.Errorf("error threshold must be greater than 0")
	}
	if in.ReconnectDelaySeconds <= 0 {
		return fmt.Errorf("reconnect delay must be greater than 0")
	}
	switch in.Adapter {
	case "simulated":
		if in.FailureRate < 0 || in.FailureRate > 1 {
			return fmt.Errorf("failure rate must be within [0,1]")
		}
	case "http":
		if in.BaseURL == "" {
			return fmt.Errorf("base_url is required for the http adapter")
		}
	default:
		return fmt.Errorf("unsupported adapter: %s", in.Adapter)
	}
	if len(in.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	seen := make(map[string]bool, len(in.Sources))
	for i, src := range in.Sources {
		if src.ID == "" {
			return fmt.Errorf("source %d must have an id", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("duplicate source id '%s'", src.ID)
		}
		seen[src.ID] = true
	}

	// Stream
	if c.Stream.BufferCapacity <= 0 {
		return fmt.Errorf("buffer capacity must be greater than 0")
	}
	if c.Stream.DrainIntervalSeconds <= 0 {
		return fmt.Errorf("drain interval must be greater than 0")
	}
	if c.Stream.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than 0")
	}

	// Analysis
	if c.Analysis.TrendWindow < 2 {
		return fmt.Errorf("trend window must hold at least 2 points")
	}
	if c.Analysis.HistorySize < c.Analysis.TrendWindow {
		return fmt.Errorf("history size must be at least the trend window")
	}
	for field, threshold := range c.Analysis.TrendThresholds {
		if _, ok := (models.MMetricSample{}).Field(field); !ok {
			return fmt.Errorf("unknown trend field '%s'", field)
		}
		if threshold < 0 {
			return fmt.Errorf("trend threshold for '%s' cannot be negative", field)
		}
	}
	if c.Analysis.AlertHistorySize <= 0 {
		return fmt.Errorf("alert history size must be greater than 0")
	}

	// Dashboard
	if c.Dashboard.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("dashboard refresh interval must be greater than 0")
	}
	if c.Dashboard.RetentionMinutes <= 0 {
		return fmt.Errorf("retention must be greater than 0")
	}
	if c.Dashboard.MinTrendConfidence < 0 || c.Dashboard.MinTrendConfidence > 100 {
		return fmt.Errorf("min trend confidence must be within [0,100]")
	}
	if c.Dashboard.RecentMetricsLimit <= 0 {
		return fmt.Errorf("recent metrics limit must be greater than 0")
	}

	// Recommendations
	r := c.Recommendations
	if r.QueueSize <= 0 {
		return fmt.Errorf("recommendation queue size must be greater than 0")
	}
	if r.TriggerProbability < 0 || r.TriggerProbability > 1 {
		return fmt.Errorf("trigger probability must be within [0,1]")
	}
	if r.PrimeTimeStartHour < 0 || r.PrimeTimeStartHour > 23 || r.PrimeTimeEndHour < 0 || r.PrimeTimeEndHour > 24 {
		return fmt.Errorf("prime time hours must be within 0-23 (end may be 24)")
	}
	if r.PrimeTimeStartHour == r.PrimeTimeEndHour {
		return fmt.Errorf("prime time window is empty: start %d, end %d", r.PrimeTimeStartHour, r.PrimeTimeEndHour)
	}

	// Broadcast
	for _, p := range c.Broadcast.UrgentPriorities {
		if _, err := models.ParsePriority(p); err != nil {
			return err
		}
	}
	if c.Broadcast.ClientBuffer <= 0 {
		return fmt.Errorf("client buffer must be greater than 0")
	}
	if c.Broadcast.MessageRate <= 0 || c.Broadcast.MessageBurst <= 0 {
		return fmt.Errorf("message rate and burst must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
