package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const jsonContentType = "application/json"

// DefaultConfig returns routes implementing the benchmark target contract:
// GET /health, POST /api/products and POST /graphql.
func DefaultConfig() *Config {
	jsonHeaders := map[string]string{"Content-Type": jsonContentType}
	return &Config{
		Name: "stub",
		Port: 3000,
		Host: "localhost",
		Routes: []Route{
			{
				Name:    "Health Check",
				Method:  http.MethodGet,
				Path:    "/health",
				Status:  http.StatusOK,
				Headers: jsonHeaders,
				Body:    `{"status":"ok"}`,
			},
			{
				Name:    "Create Product",
				Method:  http.MethodPost,
				Path:    "/api/products",
				Status:  http.StatusCreated,
				Headers: jsonHeaders,
				Body:    `{"id":"00000000-0000-0000-0000-000000000001","name":"Test Product","description":"A test product for benchmarking","price":1999,"inventory":100}`,
			},
			{
				Name:    "GraphQL Query",
				Method:  http.MethodPost,
				Path:    "/graphql",
				Status:  http.StatusOK,
				Headers: jsonHeaders,
				Body:    `{"data":{"products":[{"id":"00000000-0000-0000-0000-000000000001","name":"Test Product","price":1999,"inventory":100}]}}`,
			},
		},
	}
}

// LoadConfig loads a stub configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// validateConfig validates the stub configuration
func validateConfig(config *Config) error {
	if len(config.Routes) == 0 {
		return fmt.Errorf("no routes defined")
	}

	for i, route := range config.Routes {
		if route.Method == "" {
			return fmt.Errorf("route %d: method is required", i)
		}
		if route.Path == "" {
			return fmt.Errorf("route %d: path is required", i)
		}
		switch route.PathType {
		case "", "exact", "prefix":
		case "regex":
			if _, err := regexp.Compile(route.Path); err != nil {
				return fmt.Errorf("route %d: invalid regex %q: %w", i, route.Path, err)
			}
		default:
			return fmt.Errorf("route %d: pathType must be 'exact', 'prefix', or 'regex'", i)
		}
		if route.Delay < 0 {
			return fmt.Errorf("route %d: delay cannot be negative", i)
		}
	}

	return nil
}

// SaveConfig saves a stub configuration to a file
func SaveConfig(config *Config, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, or .json)", ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
