package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/apimon/apimon/pkg/output"
)

// EndpointSpec describes a single HTTP endpoint to probe.
type EndpointSpec struct {
	Path           string `mapstructure:"path" yaml:"path"`
	Method         string `mapstructure:"method" yaml:"method"`
	ExpectedStatus int    `mapstructure:"expected_status" yaml:"expected_status"`
	// Timeout overrides the global monitoring timeout for this endpoint,
	// in seconds. Zero means use the global value.
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
}

// APIConfig holds the HTTP API monitoring target.
type APIConfig struct {
	BaseURL     string         `mapstructure:"base_url" yaml:"base_url"`
	ExternalURL string         `mapstructure:"external_url" yaml:"external_url"`
	Endpoints   []EndpointSpec `mapstructure:"endpoints" yaml:"endpoints"`
}

// MonitoringConfig holds the polling parameters.
type MonitoringConfig struct {
	// Interval between monitoring cycles, in seconds.
	Interval int `mapstructure:"interval" yaml:"interval"`
	// Timeout for each endpoint request, in seconds.
	Timeout int `mapstructure:"timeout" yaml:"timeout"`
	// Retries per endpoint before reporting it down.
	Retries int `mapstructure:"retries" yaml:"retries"`
	// TailLines of container log to collect for failing pods.
	TailLines int64 `mapstructure:"tail_lines" yaml:"tail_lines"`
}

// KubernetesConfig selects the pods to inspect.
type KubernetesConfig struct {
	Namespace string            `mapstructure:"namespace" yaml:"namespace"`
	Labels    map[string]string `mapstructure:"labels" yaml:"labels"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`
	File          string `mapstructure:"file" yaml:"file"`
	MaxSizeMB     int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// ResourceThresholds holds quantity strings for one resource type,
// e.g. "20m" for CPU or "25Mi" for memory.
type ResourceThresholds struct {
	High    string `mapstructure:"high" yaml:"high"`
	Low     string `mapstructure:"low" yaml:"low"`
	Request string `mapstructure:"request" yaml:"request"`
	Limit   string `mapstructure:"limit" yaml:"limit"`
}

// AnalysisConfig holds the classification thresholds.
type AnalysisConfig struct {
	CPU    ResourceThresholds `mapstructure:"cpu" yaml:"cpu"`
	Memory ResourceThresholds `mapstructure:"memory" yaml:"memory"`
}

// OutputConfig controls report rendering and artifact placement.
type OutputConfig struct {
	// Format of the cycle summary: text, yaml or json.
	Format string `mapstructure:"format" yaml:"format"`
	// Dir is the root directory for pod log and analysis report files.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// StaticConfig represents the static configuration for apimon.
type StaticConfig struct {
	API        APIConfig        `mapstructure:"api" yaml:"api"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring"`
	Kubernetes KubernetesConfig `mapstructure:"kubernetes" yaml:"kubernetes"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Analysis   AnalysisConfig   `mapstructure:"analysis" yaml:"analysis"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`

	// StatusPort enables the status HTTP server when > 0.
	StatusPort int `mapstructure:"status_port" yaml:"status_port"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *StaticConfig {
	return &StaticConfig{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		Monitoring: MonitoringConfig{
			Interval:  60,
			Timeout:   5,
			Retries:   3,
			TailLines: 100,
		},
		Kubernetes: KubernetesConfig{
			Namespace: "default",
		},
		Logging: LoggingConfig{
			Level:         "info",
			File:          "logs/monitor.log",
			MaxSizeMB:     10,
			RetentionDays: 7,
		},
		Analysis: AnalysisConfig{
			CPU: ResourceThresholds{
				High:    "20m",
				Low:     "5m",
				Request: "12m",
				Limit:   "25m",
			},
			Memory: ResourceThresholds{
				High:    "25Mi",
				Low:     "10Mi",
				Request: "20Mi",
				Limit:   "40Mi",
			},
		},
		Output: OutputConfig{
			Format: "text",
			Dir:    "logs",
		},
		StatusPort: 0,
	}
}

// Validate validates the configuration.
func (c *StaticConfig) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must start with http:// or https://, got %s", c.API.BaseURL)
	}

	for i, ep := range c.API.Endpoints {
		if ep.Path == "" {
			return fmt.Errorf("api.endpoints[%d]: path is required", i)
		}
		if ep.ExpectedStatus < 100 || ep.ExpectedStatus > 599 {
			return fmt.Errorf("api.endpoints[%d]: expected_status must be a valid HTTP status, got %d", i, ep.ExpectedStatus)
		}
		if ep.Timeout < 0 {
			return fmt.Errorf("api.endpoints[%d]: timeout must not be negative, got %d", i, ep.Timeout)
		}
	}

	if c.Monitoring.Interval <= 0 {
		return fmt.Errorf("monitoring.interval must be positive, got %d", c.Monitoring.Interval)
	}
	if c.Monitoring.Timeout <= 0 {
		return fmt.Errorf("monitoring.timeout must be positive, got %d", c.Monitoring.Timeout)
	}
	if c.Monitoring.Retries <= 0 {
		return fmt.Errorf("monitoring.retries must be positive, got %d", c.Monitoring.Retries)
	}
	if c.Monitoring.TailLines <= 0 {
		return fmt.Errorf("monitoring.tail_lines must be positive, got %d", c.Monitoring.TailLines)
	}

	if c.Kubernetes.Namespace == "" {
		return fmt.Errorf("kubernetes.namespace is required")
	}

	if !output.IsValidFormat(c.Output.Format) {
		return fmt.Errorf("output.format must be one of: text, yaml, json, got %s", c.Output.Format)
	}

	if c.StatusPort < 0 || c.StatusPort > 65535 {
		return fmt.Errorf("status_port must be between 0 and 65535, got %d", c.StatusPort)
	}

	return nil
}

// LoadConfig loads configuration from a YAML file, applying environment
// overrides. An empty path yields the defaults plus any overrides.
func LoadConfig(configPath string) (*StaticConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	// Legacy environment overrides kept for deployment compatibility.
	_ = v.BindEnv("api.base_url", "API_BASE_URL")
	_ = v.BindEnv("api.external_url", "API_EXTERNAL_URL")
	_ = v.BindEnv("kubernetes.namespace", "K8S_NAMESPACE")

	v.SetEnvPrefix("APIMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	config := &StaticConfig{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.external_url", defaults.API.ExternalURL)
	v.SetDefault("monitoring.interval", defaults.Monitoring.Interval)
	v.SetDefault("monitoring.timeout", defaults.Monitoring.Timeout)
	v.SetDefault("monitoring.retries", defaults.Monitoring.Retries)
	v.SetDefault("monitoring.tail_lines", defaults.Monitoring.TailLines)
	v.SetDefault("kubernetes.namespace", defaults.Kubernetes.Namespace)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.retention_days", defaults.Logging.RetentionDays)
	v.SetDefault("analysis.cpu.high", defaults.Analysis.CPU.High)
	v.SetDefault("analysis.cpu.low", defaults.Analysis.CPU.Low)
	v.SetDefault("analysis.cpu.request", defaults.Analysis.CPU.Request)
	v.SetDefault("analysis.cpu.limit", defaults.Analysis.CPU.Limit)
	v.SetDefault("analysis.memory.high", defaults.Analysis.Memory.High)
	v.SetDefault("analysis.memory.low", defaults.Analysis.Memory.Low)
	v.SetDefault("analysis.memory.request", defaults.Analysis.Memory.Request)
	v.SetDefault("analysis.memory.limit", defaults.Analysis.Memory.Limit)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("status_port", defaults.StatusPort)
}
