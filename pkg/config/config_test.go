package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Monitoring.Interval != 60 {
		t.Errorf("Expected default interval to be 60, got %d", config.Monitoring.Interval)
	}

	if config.Monitoring.Retries != 3 {
		t.Errorf("Expected default retries to be 3, got %d", config.Monitoring.Retries)
	}

	if config.Kubernetes.Namespace != "default" {
		t.Errorf("Expected default namespace to be 'default', got '%s'", config.Kubernetes.Namespace)
	}

	if config.Output.Format != "text" {
		t.Errorf("Expected default output format to be 'text', got '%s'", config.Output.Format)
	}

	if config.Analysis.CPU.High != "20m" {
		t.Errorf("Expected default CPU high threshold to be '20m', got '%s'", config.Analysis.CPU.High)
	}

	if config.Analysis.Memory.High != "25Mi" {
		t.Errorf("Expected default memory high threshold to be '25Mi', got '%s'", config.Analysis.Memory.High)
	}

	if config.StatusPort != 0 {
		t.Errorf("Expected default status port to be 0, got %d", config.StatusPort)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func(mutate func(c *StaticConfig)) *StaticConfig {
		c := DefaultConfig()
		mutate(c)
		return c
	}

	tests := []struct {
		name    string
		config  *StaticConfig
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "valid endpoints",
			config: valid(func(c *StaticConfig) {
				c.API.Endpoints = []EndpointSpec{
					{Path: "/health", Method: "GET", ExpectedStatus: 200},
					{Path: "/items", Method: "POST", ExpectedStatus: 201, Timeout: 10},
				}
			}),
			wantErr: false,
		},
		{
			name: "base URL without protocol",
			config: valid(func(c *StaticConfig) {
				c.API.BaseURL = "localhost:8000"
			}),
			wantErr: true,
		},
		{
			name: "endpoint without path",
			config: valid(func(c *StaticConfig) {
				c.API.Endpoints = []EndpointSpec{{Method: "GET", ExpectedStatus: 200}}
			}),
			wantErr: true,
		},
		{
			name: "endpoint with bogus status",
			config: valid(func(c *StaticConfig) {
				c.API.Endpoints = []EndpointSpec{{Path: "/health", ExpectedStatus: 42}}
			}),
			wantErr: true,
		},
		{
			name: "endpoint with negative timeout",
			config: valid(func(c *StaticConfig) {
				c.API.Endpoints = []EndpointSpec{{Path: "/health", ExpectedStatus: 200, Timeout: -1}}
			}),
			wantErr: true,
		},
		{
			name: "zero interval",
			config: valid(func(c *StaticConfig) {
				c.Monitoring.Interval = 0
			}),
			wantErr: true,
		},
		{
			name: "negative retries",
			config: valid(func(c *StaticConfig) {
				c.Monitoring.Retries = -1
			}),
			wantErr: true,
		},
		{
			name: "zero tail lines",
			config: valid(func(c *StaticConfig) {
				c.Monitoring.TailLines = 0
			}),
			wantErr: true,
		},
		{
			name: "empty namespace",
			config: valid(func(c *StaticConfig) {
				c.Kubernetes.Namespace = ""
			}),
			wantErr: true,
		},
		{
			name: "invalid output format",
			config: valid(func(c *StaticConfig) {
				c.Output.Format = "xml"
			}),
			wantErr: true,
		},
		{
			name: "valid yaml output format",
			config: valid(func(c *StaticConfig) {
				c.Output.Format = "yaml"
			}),
			wantErr: false,
		},
		{
			name: "output format is case insensitive",
			config: valid(func(c *StaticConfig) {
				c.Output.Format = "TEXT"
			}),
			wantErr: false,
		},
		{
			name: "status port too high",
			config: valid(func(c *StaticConfig) {
				c.StatusPort = 65536
			}),
			wantErr: true,
		},
		{
			name: "valid status port",
			config: valid(func(c *StaticConfig) {
				c.StatusPort = 9090
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
api:
  base_url: http://api.example.com:8000
  endpoints:
    - path: /health
      method: GET
      expected_status: 200
    - path: /items
      method: GET
      expected_status: 200
      timeout: 10
monitoring:
  interval: 30
  timeout: 3
  retries: 2
kubernetes:
  namespace: staging
  labels:
    app: fastapi-app
analysis:
  cpu:
    high: 50m
    low: 10m
    request: 25m
    limit: 100m
output:
  format: json
status_port: 9090
`

	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.API.BaseURL != "http://api.example.com:8000" {
		t.Errorf("Expected base URL 'http://api.example.com:8000', got '%s'", config.API.BaseURL)
	}

	if len(config.API.Endpoints) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(config.API.Endpoints))
	}

	if config.API.Endpoints[1].Timeout != 10 {
		t.Errorf("Expected endpoint timeout 10, got %d", config.API.Endpoints[1].Timeout)
	}

	if config.Monitoring.Interval != 30 {
		t.Errorf("Expected interval 30, got %d", config.Monitoring.Interval)
	}

	if config.Kubernetes.Namespace != "staging" {
		t.Errorf("Expected namespace 'staging', got '%s'", config.Kubernetes.Namespace)
	}

	if config.Kubernetes.Labels["app"] != "fastapi-app" {
		t.Errorf("Expected label app=fastapi-app, got '%s'", config.Kubernetes.Labels["app"])
	}

	if config.Analysis.CPU.High != "50m" {
		t.Errorf("Expected CPU high threshold '50m', got '%s'", config.Analysis.CPU.High)
	}

	// Defaults survive a partial file.
	if config.Analysis.Memory.High != "25Mi" {
		t.Errorf("Expected memory high threshold default '25Mi', got '%s'", config.Analysis.Memory.High)
	}

	if config.StatusPort != 9090 {
		t.Errorf("Expected status port 9090, got %d", config.StatusPort)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig with empty path failed: %v", err)
	}

	if config.Monitoring.Interval != 60 {
		t.Errorf("Expected default interval 60, got %d", config.Monitoring.Interval)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://override.example.com")
	t.Setenv("K8S_NAMESPACE", "production")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.API.BaseURL != "http://override.example.com" {
		t.Errorf("Expected env override base URL, got '%s'", config.API.BaseURL)
	}

	if config.Kubernetes.Namespace != "production" {
		t.Errorf("Expected env override namespace 'production', got '%s'", config.Kubernetes.Namespace)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
monitoring:
  interval: -5
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("Expected validation error for negative interval")
	}
}
