package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vfiala/photo-inspector/internal/scanner"
)

//go:embed models.yaml
var modelsYAML []byte

// Config holds the runtime configuration, loaded from environment
// variables with sensible defaults.
type Config struct {
	Embedding EmbeddingConfig
	Scan      ScanConfig
	Cluster   ClusterConfig
	Database  DatabaseConfig
	Web       WebConfig
	Models    ModelsConfig
}

type EmbeddingConfig struct {
	URL     string // embedding server base URL, defaults to http://localhost:8000
	Model   string // model preset name, defaults to siglip2-base
	Dim     int    // vector dimensionality, defaults to the preset's dim
	Workers int    // parallel embedding workers (default 5)
}

type ScanConfig struct {
	Extensions []string // image extensions to pick up while scanning
}

type ClusterConfig struct {
	Threshold   float64 // default similarity cutoff in (0,1]
	Approximate bool    // use the HNSW representative index
}

type DatabaseConfig struct {
	URL string // PostgreSQL URL for the embedding cache; empty disables caching
}

type WebConfig struct {
	Host string
	Port int
}

// ModelsConfig maps model preset names to their properties.
type ModelsConfig struct {
	Models map[string]ModelPreset `yaml:"models"`
}

// ModelPreset describes one embedding model option.
type ModelPreset struct {
	Dim int `yaml:"dim"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float in (0, 1].
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envExtensions reads a comma-separated extension list.
func envExtensions(key string) []string {
	s := os.Getenv(key)
	if s == "" {
		return append([]string(nil), scanner.DefaultExtensions...)
	}
	return scanner.NormalizeExtensions(strings.Split(s, ","))
}

// Load builds the configuration from the environment and the embedded
// model presets.
func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// Embedded file, this cannot fail in a correct build.
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = "siglip2-base"
	}

	dim := envInt("EMBEDDING_DIM", 0)
	if dim == 0 {
		if preset, ok := models.Models[model]; ok {
			dim = preset.Dim
		} else {
			dim = 768
		}
	}

	return &Config{
		Embedding: EmbeddingConfig{
			URL:     os.Getenv("EMBEDDING_URL"),
			Model:   model,
			Dim:     dim,
			Workers: envInt("WORKER_COUNT", 5),
		},
		Scan: ScanConfig{
			Extensions: envExtensions("SCAN_EXTENSIONS"),
		},
		Cluster: ClusterConfig{
			Threshold:   envFloat("SIMILARITY_THRESHOLD", 0.8),
			Approximate: os.Getenv("CLUSTER_APPROXIMATE") == "true",
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Web: WebConfig{
			Host: envOr("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Models: models,
	}
}

// envOr returns the env value or a default when unset.
func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// ModelDim returns the dimensionality for a model preset, or 0 when the
// model is unknown.
func (c *Config) ModelDim(model string) int {
	if preset, ok := c.Models.Models[model]; ok {
		return preset.Dim
	}
	return 0
}
