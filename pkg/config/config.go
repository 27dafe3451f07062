package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the pipeline
type Config struct {
	// Wikidata and Wikipedia endpoints
	Wikidata WikidataConfig `yaml:"wikidata" json:"wikidata"`

	// Fetch tunables shared by all commands
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Retry policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Translation provider
	Translate TranslateConfig `yaml:"translate" json:"translate"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WikidataConfig holds endpoint configuration
type WikidataConfig struct {
	SPARQLEndpoint string `yaml:"sparql_endpoint" json:"sparql_endpoint"`
	APIEndpoint    string `yaml:"api_endpoint" json:"api_endpoint"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
}

// FetchConfig holds page and batch tunables
type FetchConfig struct {
	BatchSize         int           `yaml:"batch_size" json:"batch_size"`
	LabelBatchSize    int           `yaml:"label_batch_size" json:"label_batch_size"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	CourtesyDelay     time.Duration `yaml:"courtesy_delay" json:"courtesy_delay"`
	FlushEveryBatches int           `yaml:"flush_every_batches" json:"flush_every_batches"`
}

// RetryConfig holds retry policy configuration.
// Policy selects the backoff growth: "linear" or "exponential".
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Policy      string        `yaml:"policy" json:"policy"`
}

// OutputConfig holds output location configuration
type OutputConfig struct {
	BaseDirectory  string `yaml:"base_directory" json:"base_directory"`
	SnapshotPrefix string `yaml:"snapshot_prefix" json:"snapshot_prefix"`
}

// TranslateConfig holds translation provider configuration
type TranslateConfig struct {
	Endpoint   string `yaml:"endpoint" json:"endpoint"`
	AuthKey    string `yaml:"auth_key" json:"auth_key"`
	SourceLang string `yaml:"source_lang" json:"source_lang"`
	TargetLang string `yaml:"target_lang" json:"target_lang"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Wikidata: WikidataConfig{
			SPARQLEndpoint: "https://query.wikidata.org/sparql",
			APIEndpoint:    "https://www.wikidata.org/w/api.php",
			UserAgent:      "wikiscrape/1.0 (soc.evgeniiatcoi@gmail.com)",
		},
		Fetch: FetchConfig{
			BatchSize:         500,
			LabelBatchSize:    50,
			Timeout:           300 * time.Second,
			CourtesyDelay:     time.Second,
			FlushEveryBatches: 20,
		},
		Retry: RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   20 * time.Second,
			MaxDelay:    10 * time.Minute,
			Policy:      "exponential",
		},
		Output: OutputConfig{
			BaseDirectory:  "./data",
			SnapshotPrefix: "intermediate_results",
		},
		Translate: TranslateConfig{
			Endpoint:   "https://api.deepl.com/v2/translate",
			SourceLang: "DE",
			TargetLang: "EN-US",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if agent := os.Getenv("WIKISCRAPE_USER_AGENT"); agent != "" {
		c.Wikidata.UserAgent = agent
	}
	if endpoint := os.Getenv("WIKISCRAPE_SPARQL_ENDPOINT"); endpoint != "" {
		c.Wikidata.SPARQLEndpoint = endpoint
	}
	if batch := os.Getenv("WIKISCRAPE_BATCH_SIZE"); batch != "" {
		var val int
		fmt.Sscanf(batch, "%d", &val)
		if val > 0 {
			c.Fetch.BatchSize = val
		}
	}
	if retries := os.Getenv("WIKISCRAPE_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.Retry.MaxAttempts = val
		}
	}
	if outputDir := os.Getenv("WIKISCRAPE_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if authKey := os.Getenv("WIKISCRAPE_DEEPL_AUTH_KEY"); authKey != "" {
		c.Translate.AuthKey = authKey
	}
	if logLevel := os.Getenv("WIKISCRAPE_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".wikiscrape.yaml",
		".wikiscrape.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "wikiscrape", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".wikiscrape.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Wikidata.SPARQLEndpoint == "" {
		errs = append(errs, errors.New("SPARQL endpoint is required"))
	}
	if c.Wikidata.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Fetch.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Fetch.LabelBatchSize <= 0 {
		errs = append(errs, errors.New("label batch size must be positive"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Fetch.FlushEveryBatches <= 0 {
		errs = append(errs, errors.New("flush interval must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max retry attempts must be positive"))
	}
	switch strings.ToLower(c.Retry.Policy) {
	case "linear", "exponential":
	default:
		errs = append(errs, errors.New("retry policy must be linear or exponential"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.SnapshotPrefix == "" {
		errs = append(errs, errors.New("snapshot prefix is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if batchSize, ok := flags["batch-size"].(int); ok && batchSize > 0 {
		c.Fetch.BatchSize = batchSize
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries > 0 {
		c.Retry.MaxAttempts = maxRetries
	}
	if policy, ok := flags["backoff"].(string); ok && policy != "" {
		c.Retry.Policy = policy
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wikiscrape.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
