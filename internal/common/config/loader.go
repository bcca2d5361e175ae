// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml from the usual locations, merges config.<env>.yaml
// on top and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment file is optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} references in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// overrideFromEnv applies the variables the deployment scripts export.
func overrideFromEnv(cfg *Config) {
	if val := os.Getenv("REDIS_HOST"); val != "" {
		cfg.Database.Redis.Host = val
		cfg.Database.Redis.Address = ""
	}
	if val := os.Getenv("REDIS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Database.Redis.Port = port
			cfg.Database.Redis.Address = ""
		}
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Database.Redis.Password = val
	}

	if cfg.APIs.OpenAI.APIKey == "" {
		cfg.APIs.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if val := os.Getenv("OPENAI_MODEL"); val != "" {
		cfg.APIs.OpenAI.Model = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "iq-writer"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Redis defaults
	if cfg.Database.Redis.Host == "" {
		cfg.Database.Redis.Host = "localhost"
	}
	if cfg.Database.Redis.Port == 0 {
		cfg.Database.Redis.Port = 6379
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	// Generation defaults
	if cfg.APIs.OpenAI.Model == "" {
		cfg.APIs.OpenAI.Model = "gpt-4.1-nano"
	}
	if cfg.APIs.OpenAI.Temperature == 0 {
		cfg.APIs.OpenAI.Temperature = 0.4
	}
	if cfg.APIs.OpenAI.Timeout == 0 {
		cfg.APIs.OpenAI.Timeout = 60000
	}
	if cfg.APIs.OpenAI.MaxRetries == 0 {
		cfg.APIs.OpenAI.MaxRetries = 2
	}

	// Data API defaults
	if cfg.APIs.Data.BaseURL == "" {
		cfg.APIs.Data.BaseURL = "https://potterapi-fedeperin.vercel.app/en"
	}
	if cfg.APIs.Data.Timeout == 0 {
		cfg.APIs.Data.Timeout = 10000
	}
	if cfg.APIs.Data.MaxRetries == 0 {
		cfg.APIs.Data.MaxRetries = 2
	}
	if len(cfg.APIs.Data.Endpoints) == 0 {
		cfg.APIs.Data.Endpoints = DefaultEndpoints()
	}

	// Resource layout defaults
	if cfg.Resources.Dir == "" {
		cfg.Resources.Dir = "resources"
	}
	if cfg.Resources.TemplatesFile == "" {
		cfg.Resources.TemplatesFile = filepath.Join(cfg.Resources.Dir, "prompt-templates.yaml")
	}
	if cfg.Resources.DataSourcesFile == "" {
		cfg.Resources.DataSourcesFile = filepath.Join(cfg.Resources.Dir, "data-sources.yaml")
	}

	if cfg.Writer.Concurrency == 0 {
		cfg.Writer.Concurrency = 4
	}

	if cfg.Observability.MetricsAddress == "" {
		cfg.Observability.MetricsAddress = ":8080"
	}
}

// DefaultEndpoints is the data API endpoint table used when none is configured.
func DefaultEndpoints() []EndpointConfig {
	const month = 30 * 24 * 60 * 60
	return []EndpointConfig{
		{Name: "get_characters", Path: "/characters", TTLSeconds: month},
		{Name: "get_books", Path: "/books", TTLSeconds: month},
		{Name: "get_houses", Path: "/houses", TTLSeconds: month},
		{Name: "get_spells", Path: "/spells", TTLSeconds: month},
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Redis.GetAddress() == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Writer.Concurrency < 0 {
		return fmt.Errorf("writer.concurrency must not be negative")
	}

	if cfg.APIs.OpenAI.Temperature < 0 || cfg.APIs.OpenAI.Temperature > 2 {
		return fmt.Errorf("apis.openai.temperature must be between 0 and 2")
	}

	seen := make(map[string]bool, len(cfg.APIs.Data.Endpoints))
	for _, ep := range cfg.APIs.Data.Endpoints {
		if ep.Name == "" || ep.Path == "" {
			return fmt.Errorf("apis.data.endpoints entries need a name and a path")
		}
		if seen[ep.Name] {
			return fmt.Errorf("apis.data.endpoints: duplicate endpoint %q", ep.Name)
		}
		seen[ep.Name] = true
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
