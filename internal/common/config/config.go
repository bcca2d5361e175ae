// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Resources     ResourcesConfig         `mapstructure:"resources"`
	Writer        WriterConfig            `mapstructure:"writer"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// GetAddress returns address, or host:port when address is unset.
func (r RedisConfig) GetAddress() string {
	if r.Address != "" {
		return r.Address
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for the generation service and the data API.
type APIsConfig struct {
	OpenAI OpenAIConfig  `mapstructure:"openai"`
	Data   DataAPIConfig `mapstructure:"data"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
}

// DataAPIConfig describes the upstream data service used for enrichment.
type DataAPIConfig struct {
	BaseURL    string           `mapstructure:"base_url"`
	Timeout    int              `mapstructure:"timeout"` // milliseconds
	MaxRetries int              `mapstructure:"max_retries"`
	Endpoints  []EndpointConfig `mapstructure:"endpoints"`
}

type EndpointConfig struct {
	Name       string `mapstructure:"name"`
	Path       string `mapstructure:"path"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// ResourcesConfig locates the template catalog and the text sources.
type ResourcesConfig struct {
	Dir             string `mapstructure:"dir"`
	TemplatesFile   string `mapstructure:"templates_file"`
	DataSourcesFile string `mapstructure:"data_sources_file"`
}

type WriterConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	// Sources maps a data source name to the enrichment operation producing it.
	Sources map[string]string `mapstructure:"sources"`
	// SourceIDs names, per data source, the field used as the id of items
	// that do not carry one.
	SourceIDs map[string]string `mapstructure:"source_ids"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	MetricsAddress string `mapstructure:"metrics_address"`
	TraceStdout    bool   `mapstructure:"trace_stdout"`
}
