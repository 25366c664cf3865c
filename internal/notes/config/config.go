package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App    AppConfig    `json:"app" yaml:"app"`
	API    APIConfig    `json:"api" yaml:"api"`
	Log    LogConfig    `json:"log" yaml:"log"`
	Events EventsConfig `json:"events" yaml:"events"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Debug       bool   `json:"debug" yaml:"debug"`
	Environment string `json:"environment" yaml:"environment"`
}

// APIConfig represents API configuration
type APIConfig struct {
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	MaxRequestSize  int64  `json:"max_request_size" yaml:"max_request_size"`
	ShutdownTimeout int    `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

// EventsConfig represents change feed configuration
type EventsConfig struct {
	Buffer int `json:"buffer" yaml:"buffer"`
}

// Load loads configuration from the YAML file in configDir and environment variables.
// Environment variables win over YAML, YAML wins over defaults.
func Load(configDir string) (*Config, error) {
	yamlConfig, err := loadYAMLConfig(configDir)
	if err != nil {
		return nil, err
	}

	config := &Config{}

	config.App = AppConfig{
		Name:        getEnvWithYAML("APP_NAME", yamlConfig, "app.name", "notes"),
		Version:     getEnvWithYAML("APP_VERSION", yamlConfig, "app.version", "1.0.0"),
		Debug:       getEnvBoolWithYAML("DEBUG", yamlConfig, "app.debug", false),
		Environment: getEnvWithYAML("ENVIRONMENT", yamlConfig, "app.environment", "development"),
	}

	config.API = APIConfig{
		Host:            getEnvWithYAML("API_HOST", yamlConfig, "api.host", "127.0.0.1"),
		Port:            getEnvIntWithYAML("API_PORT", yamlConfig, "api.port", 4000),
		MaxRequestSize:  getEnvInt64WithYAML("MAX_REQUEST_SIZE", yamlConfig, "api.max_request_size", 1<<20),
		ShutdownTimeout: getEnvIntWithYAML("API_SHUTDOWN_TIMEOUT", yamlConfig, "api.shutdown_timeout", 5),
	}

	config.Log = LogConfig{
		Level:  getEnvWithYAML("LOG_LEVEL", yamlConfig, "log.level", "INFO"),
		Format: getEnvWithYAML("LOG_FORMAT", yamlConfig, "log.format", "text"),
		File:   getEnvWithYAML("LOG_FILE", yamlConfig, "log.file", ""),
	}

	config.Events = EventsConfig{
		Buffer: getEnvIntWithYAML("EVENTS_BUFFER", yamlConfig, "events.buffer", 64),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	if c.API.MaxRequestSize <= 0 {
		return fmt.Errorf("invalid max request size %d", c.API.MaxRequestSize)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	if c.Events.Buffer <= 0 {
		return fmt.Errorf("invalid events buffer %d", c.Events.Buffer)
	}
	return nil
}

// loadYAMLConfig loads app_config.yaml from configDir; a missing file is not an error
func loadYAMLConfig(configDir string) (map[string]interface{}, error) {
	yamlConfig := make(map[string]interface{})
	if configDir == "" {
		return yamlConfig, nil
	}

	appConfigPath := filepath.Join(configDir, "app_config.yaml")
	data, err := os.ReadFile(appConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return yamlConfig, nil
		}
		return nil, fmt.Errorf("read %s: %w", appConfigPath, err)
	}
	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return nil, fmt.Errorf("parse %s: %w", appConfigPath, err)
	}
	if yamlConfig == nil {
		yamlConfig = make(map[string]interface{})
	}
	return yamlConfig, nil
}

// getEnvWithYAML gets environment variable with YAML fallback
func getEnvWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		return yamlValue
	}

	return defaultValue
}

// getEnvIntWithYAML gets integer environment variable with YAML fallback
func getEnvIntWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int) int {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if intValue, err := strconv.Atoi(yamlValue); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvInt64WithYAML gets int64 environment variable with YAML fallback
func getEnvInt64WithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int64) int64 {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if intValue, err := strconv.ParseInt(yamlValue, 10, 64); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvBoolWithYAML gets boolean environment variable with YAML fallback
func getEnvBoolWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue bool) bool {
	if value := os.Getenv(envKey); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if boolValue, err := strconv.ParseBool(yamlValue); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

// getYAMLValue gets value from YAML config using dot notation path.
// Scalars of any type are rendered as strings.
func getYAMLValue(config map[string]interface{}, path string) string {
	parts := strings.Split(path, ".")
	current := config

	for i, part := range parts {
		if i == len(parts)-1 {
			value, ok := current[part]
			if !ok || value == nil {
				return ""
			}
			switch v := value.(type) {
			case string:
				return v
			case int, int64, float64, bool:
				return fmt.Sprint(v)
			}
			return ""
		}

		next, ok := current[part].(map[string]interface{})
		if !ok {
			return ""
		}
		current = next
	}

	return ""
}
