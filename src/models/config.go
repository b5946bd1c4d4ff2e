package models

// MConfig Structure
type MConfig struct {
	Name            string                 `yaml:"name"`
	Host            string                 `yaml:"host"`
	Port            int                    `yaml:"port"`
	LogLevel        string                 `yaml:"log_level"`
	LogFormat       string                 `yaml:"log_format"`
	GrpcHost        string                 `yaml:"grpc_host"`
	GrpcPort        int                    `yaml:"grpc_port"`
	Storage         MStorageConfig         `yaml:"storage"`
	Network         MNetworkConfig         `yaml:"network"`
	Ingestion       MIngestionConfig       `yaml:"ingestion"`
	Stream          MStreamConfig          `yaml:"stream"`
	Analysis        MAnalysisConfig        `yaml:"analysis"`
	Dashboard       MDashboardConfig       `yaml:"dashboard"`
	Recommendations MRecommendationsConfig `yaml:"recommendations"`
	Broadcast       MBroadcastConfig       `yaml:"broadcast"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "", "sqlite" or "postgres"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	QueueSize          int    `yaml:"queue_size"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

type MIngestionConfig struct {
	TickSeconds           int             `yaml:"tick_seconds"`
	ErrorThreshold        int             `yaml:"error_threshold"`
	ReconnectDelaySeconds int             `yaml:"reconnect_delay_seconds"`
	Adapter               string          `yaml:"adapter"` // "simulated" or "http"
	BaseURL               string          `yaml:"base_url"`
	FailureRate           float64         `yaml:"failure_rate"` // simulated adapter only
	Sources               []MSourceConfig `yaml:"sources"`
}

type MSourceConfig struct {
	ID      string `yaml:"id"`
	Enabled *bool  `yaml:"enabled"` // Optional, defaults to true
}

// IsEnabled treats a missing flag as enabled.
func (s MSourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type MStreamConfig struct {
	BufferCapacity       int `yaml:"buffer_capacity"`
	DrainIntervalSeconds int `yaml:"drain_interval_seconds"`
	BatchSize            int `yaml:"batch_size"`
}

type MAnalysisConfig struct {
	TrendWindow      int                `yaml:"trend_window"`
	HistorySize      int                `yaml:"history_size"`
	TrendThresholds  map[string]float64 `yaml:"trend_thresholds"`
	AlertHistorySize int                `yaml:"alert_history_size"`
}

type MDashboardConfig struct {
	RefreshIntervalSeconds int     `yaml:"refresh_interval_seconds"`
	RetentionMinutes       int     `yaml:"retention_minutes"`
	MinTrendConfidence     float64 `yaml:"min_trend_confidence"`
	RecentMetricsLimit     int     `yaml:"recent_metrics_limit"`
}

type MRecommendationsConfig struct {
	QueueSize          int     `yaml:"queue_size"`
	TriggerProbability float64 `yaml:"trigger_probability"`
	PrimeTimeStartHour int     `yaml:"prime_time_start_hour"`
	PrimeTimeEndHour   int     `yaml:"prime_time_end_hour"`
	Calendar           string  `yaml:"calendar"` // Optional MIC, e.g. "xnys"
}

type MBroadcastConfig struct {
	UrgentPriorities []string `yaml:"urgent_priorities"`
	ClientBuffer     int      `yaml:"client_buffer"`
	MessageRate      float64  `yaml:"message_rate"`
	MessageBurst     int      `yaml:"message_burst"`
}
