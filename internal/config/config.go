package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the refind API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Matching MatchingConfig `yaml:"matching"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AIConfig holds the embedding, vision, and summarizer provider settings.
type AIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	Dimensions     int    `yaml:"dimensions"`
	VisionModel    string `yaml:"vision_model"`
	SummaryModel   string `yaml:"summary_model"`
}

// MatchingConfig holds the decision pipeline thresholds. Taxonomy tables
// may be overridden per deployment via TaxonomyPath.
type MatchingConfig struct {
	ScoreThreshold    float64 `yaml:"score_threshold"`     // minimum similarity, inclusive
	OverrideThreshold float64 `yaml:"override_threshold"`  // waives category compatibility
	MaxDistanceKM     float64 `yaml:"max_distance_km"`     // geo-gate cutoff
	SelfMatchScore    float64 `yaml:"self_match_score"`    // scores at/above are duplicate index entries
	TopK              int     `yaml:"top_k"`               // candidates fetched per run
	UpsertTimeoutSec  int     `yaml:"upsert_timeout_sec"`  // vector index upsert path
	FetchConcurrency  int     `yaml:"fetch_concurrency"`   // parallel candidate detail reads
	HNSWM             int     `yaml:"hnsw_m"`              // vector index build parameter
	HNSWEFConstruct   int     `yaml:"hnsw_ef_construction"`
	TaxonomyPath      string  `yaml:"taxonomy_path"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Matching.ScoreThreshold <= 0 {
		c.Matching.ScoreThreshold = 0.70
	}
	if c.Matching.OverrideThreshold <= 0 {
		c.Matching.OverrideThreshold = 0.85
	}
	if c.Matching.MaxDistanceKM <= 0 {
		c.Matching.MaxDistanceKM = 2.0
	}
	if c.Matching.SelfMatchScore <= 0 {
		c.Matching.SelfMatchScore = 0.9999
	}
	if c.Matching.TopK <= 0 {
		c.Matching.TopK = 10
	}
	if c.Matching.UpsertTimeoutSec <= 0 {
		c.Matching.UpsertTimeoutSec = 30
	}
	if c.Matching.FetchConcurrency <= 0 {
		c.Matching.FetchConcurrency = 4
	}
	if c.Matching.HNSWM <= 0 {
		c.Matching.HNSWM = 16
	}
	if c.Matching.HNSWEFConstruct <= 0 {
		c.Matching.HNSWEFConstruct = 200
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "refind:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Matching.ScoreThreshold > 1 {
		return fmt.Errorf("matching.score_threshold must be in (0, 1], got %f", c.Matching.ScoreThreshold)
	}
	if c.Matching.OverrideThreshold > 1 {
		return fmt.Errorf("matching.override_threshold must be in (0, 1], got %f", c.Matching.OverrideThreshold)
	}
	if c.Matching.OverrideThreshold < c.Matching.ScoreThreshold {
		return fmt.Errorf("matching.override_threshold (%f) must not be below score_threshold (%f)",
			c.Matching.OverrideThreshold, c.Matching.ScoreThreshold)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
