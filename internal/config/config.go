package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete CBIR configuration, covering storage
// layout, the vector/metric choice, every index engine's tunables, the
// embedder, and the benchmark harness defaults.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Vector    VectorConfig    `yaml:"vector" json:"vector"`
	LSH       LSHConfig       `yaml:"lsh" json:"lsh"`
	NSW       NSWConfig       `yaml:"nsw" json:"nsw"`
	Annoy     AnnoyConfig     `yaml:"annoy" json:"annoy"`
	Embedder  EmbedderConfig  `yaml:"embedder" json:"embedder"`
	Benchmark BenchmarkConfig `yaml:"benchmark" json:"benchmark"`
}

// StoreConfig configures where the vector store and index snapshots live on disk.
type StoreConfig struct {
	// DataDir is the root directory for all persisted state.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// VectorsFile is the gob-encoded vector map, relative to DataDir.
	VectorsFile string `yaml:"vectors_file" json:"vectors_file"`

	// MetadataFile is the JSON metadata map, relative to DataDir.
	MetadataFile string `yaml:"metadata_file" json:"metadata_file"`

	// LSHPrefix is the filename prefix for LSH's table/plane snapshot files.
	LSHPrefix string `yaml:"lsh_prefix" json:"lsh_prefix"`
}

// VectorConfig configures the fixed embedding dimensionality and distance metric.
type VectorConfig struct {
	// Dimensions is the fixed vector length every stored item must satisfy.
	Dimensions int `yaml:"dimensions" json:"dimensions"`

	// Metric selects the distance function for brute-force search.
	// Options: "euclidean" (default), "cosine", "manhattan".
	Metric string `yaml:"metric" json:"metric"`
}

// LSHConfig configures the random-hyperplane locality-sensitive hash index.
type LSHConfig struct {
	// NumBits is the number of random hyperplanes per table; each hyperplane
	// contributes one bit to an item's hash bucket.
	NumBits int `yaml:"num_bits" json:"num_bits"`

	// NumTables is the number of independent hash tables; a candidate
	// surfaces if it shares a bucket with the query in any one table.
	NumTables int `yaml:"num_tables" json:"num_tables"`
}

// NSWConfig configures the navigable small world graph index.
type NSWConfig struct {
	// M is the maximum number of neighbors kept per node.
	M int `yaml:"m" json:"m"`

	// EfConstruction controls beam width while inserting a node.
	EfConstruction int `yaml:"ef_construction" json:"ef_construction"`

	// Ef controls beam width for Query, independent of EfConstruction.
	Ef int `yaml:"ef" json:"ef"`
}

// AnnoyConfig configures the random-projection tree forest index.
type AnnoyConfig struct {
	// NumTrees is the forest size.
	NumTrees int `yaml:"num_trees" json:"num_trees"`

	// MaxLeafSize is the point count at which a node stops splitting.
	MaxLeafSize int `yaml:"max_leaf_size" json:"max_leaf_size"`
}

// EmbedderConfig configures which Embedder implementation the Retriever wires up.
type EmbedderConfig struct {
	// Provider selects the embedder. Options: "static" (default, deterministic
	// hash-based stand-in) or "external" (HTTP feature-extraction service).
	Provider string `yaml:"provider" json:"provider"`

	// Endpoint is the external embedder's base URL. Only used when Provider is "external".
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// TimeoutSeconds bounds a single external embedding request.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// MaxRetries bounds the external embedder's exponential backoff retry loop.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// CacheSize is the number of entries kept in the LRU embedding cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// BenchmarkConfig configures the default parameters of the algorithm benchmark harness.
type BenchmarkConfig struct {
	// NumQueries is the default number of random queries sampled per run.
	NumQueries int `yaml:"num_queries" json:"num_queries"`

	// K is the default neighbor count requested per query.
	K int `yaml:"k" json:"k"`
}

// NewConfig returns a Config populated with the documented hardcoded defaults,
// the first layer of the config resolution order (defaults, then user/global
// config, then project .cbir.yaml, then CBIR_* environment overrides).
func NewConfig() *Config {
	home, err := os.UserHomeDir()
	dataDir := filepath.Join(os.TempDir(), ".cbir")
	if err == nil {
		dataDir = filepath.Join(home, ".cbir")
	}

	return &Config{
		Version: 1,
		Store: StoreConfig{
			DataDir:      dataDir,
			VectorsFile:  "vectors.gob",
			MetadataFile: "metadata.json",
			LSHPrefix:    "lsh",
		},
		Vector: VectorConfig{
			Dimensions: 512,
			Metric:     "euclidean",
		},
		LSH: LSHConfig{
			NumBits:   6,
			NumTables: 4,
		},
		NSW: NSWConfig{
			M:              16,
			EfConstruction: 100,
			Ef:             50,
		},
		Annoy: AnnoyConfig{
			NumTrees:    15,
			MaxLeafSize: 15,
		},
		Embedder: EmbedderConfig{
			Provider:       "static",
			Endpoint:       "",
			TimeoutSeconds: 10,
			MaxRetries:     3,
			CacheSize:      1024,
		},
		Benchmark: BenchmarkConfig{
			NumQueries: 50,
			K:          10,
		},
	}
}

// GetUserConfigPath returns the path to the user/global CBIR configuration file.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cbir", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "cbir", "config.yaml")
	}
	return filepath.Join(home, ".config", "cbir", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration from the specified directory, applying overrides
// in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/cbir/config.yaml)
//  3. Project config (.cbir.yaml in dir)
//  4. Environment variables (CBIR_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .cbir.yaml or .cbir.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".cbir.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".cbir.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.VectorsFile != "" {
		c.Store.VectorsFile = other.Store.VectorsFile
	}
	if other.Store.MetadataFile != "" {
		c.Store.MetadataFile = other.Store.MetadataFile
	}
	if other.Store.LSHPrefix != "" {
		c.Store.LSHPrefix = other.Store.LSHPrefix
	}

	if other.Vector.Dimensions != 0 {
		c.Vector.Dimensions = other.Vector.Dimensions
	}
	if other.Vector.Metric != "" {
		c.Vector.Metric = other.Vector.Metric
	}

	if other.LSH.NumBits != 0 {
		c.LSH.NumBits = other.LSH.NumBits
	}
	if other.LSH.NumTables != 0 {
		c.LSH.NumTables = other.LSH.NumTables
	}

	if other.NSW.M != 0 {
		c.NSW.M = other.NSW.M
	}
	if other.NSW.EfConstruction != 0 {
		c.NSW.EfConstruction = other.NSW.EfConstruction
	}
	if other.NSW.Ef != 0 {
		c.NSW.Ef = other.NSW.Ef
	}

	if other.Annoy.NumTrees != 0 {
		c.Annoy.NumTrees = other.Annoy.NumTrees
	}
	if other.Annoy.MaxLeafSize != 0 {
		c.Annoy.MaxLeafSize = other.Annoy.MaxLeafSize
	}

	if other.Embedder.Provider != "" {
		c.Embedder.Provider = other.Embedder.Provider
	}
	if other.Embedder.Endpoint != "" {
		c.Embedder.Endpoint = other.Embedder.Endpoint
	}
	if other.Embedder.TimeoutSeconds != 0 {
		c.Embedder.TimeoutSeconds = other.Embedder.TimeoutSeconds
	}
	if other.Embedder.MaxRetries != 0 {
		c.Embedder.MaxRetries = other.Embedder.MaxRetries
	}
	if other.Embedder.CacheSize != 0 {
		c.Embedder.CacheSize = other.Embedder.CacheSize
	}

	if other.Benchmark.NumQueries != 0 {
		c.Benchmark.NumQueries = other.Benchmark.NumQueries
	}
	if other.Benchmark.K != 0 {
		c.Benchmark.K = other.Benchmark.K
	}
}

// applyEnvOverrides applies CBIR_* environment variable overrides, the
// highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CBIR_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("CBIR_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Vector.Dimensions = n
		}
	}
	if v := os.Getenv("CBIR_METRIC"); v != "" {
		c.Vector.Metric = strings.ToLower(v)
	}
	if v := os.Getenv("CBIR_EMBEDDER_PROVIDER"); v != "" {
		c.Embedder.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("CBIR_EMBEDDER_ENDPOINT"); v != "" {
		c.Embedder.Endpoint = v
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Vector.Dimensions <= 0 {
		return fmt.Errorf("vector.dimensions must be positive, got %d", c.Vector.Dimensions)
	}

	validMetrics := map[string]bool{"euclidean": true, "cosine": true, "manhattan": true}
	if !validMetrics[strings.ToLower(c.Vector.Metric)] {
		return fmt.Errorf("vector.metric must be 'euclidean', 'cosine', or 'manhattan', got %s", c.Vector.Metric)
	}

	if c.LSH.NumBits <= 0 {
		return fmt.Errorf("lsh.num_bits must be positive, got %d", c.LSH.NumBits)
	}
	if c.LSH.NumTables <= 0 {
		return fmt.Errorf("lsh.num_tables must be positive, got %d", c.LSH.NumTables)
	}

	if c.NSW.M <= 0 {
		return fmt.Errorf("nsw.m must be positive, got %d", c.NSW.M)
	}
	if c.NSW.EfConstruction <= 0 {
		return fmt.Errorf("nsw.ef_construction must be positive, got %d", c.NSW.EfConstruction)
	}
	if c.NSW.Ef <= 0 {
		return fmt.Errorf("nsw.ef must be positive, got %d", c.NSW.Ef)
	}

	if c.Annoy.NumTrees <= 0 {
		return fmt.Errorf("annoy.num_trees must be positive, got %d", c.Annoy.NumTrees)
	}
	if c.Annoy.MaxLeafSize <= 0 {
		return fmt.Errorf("annoy.max_leaf_size must be positive, got %d", c.Annoy.MaxLeafSize)
	}

	validProviders := map[string]bool{"static": true, "external": true}
	if !validProviders[strings.ToLower(c.Embedder.Provider)] {
		return fmt.Errorf("embedder.provider must be 'static' or 'external', got %s", c.Embedder.Provider)
	}
	if strings.ToLower(c.Embedder.Provider) == "external" && c.Embedder.Endpoint == "" {
		return fmt.Errorf("embedder.endpoint is required when embedder.provider is 'external'")
	}

	if c.Benchmark.NumQueries <= 0 {
		return fmt.Errorf("benchmark.num_queries must be positive, got %d", c.Benchmark.NumQueries)
	}
	if c.Benchmark.K <= 0 {
		return fmt.Errorf("benchmark.k must be positive, got %d", c.Benchmark.K)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// VectorsPath returns the absolute path to the gob-encoded vector snapshot.
func (c *Config) VectorsPath() string {
	return filepath.Join(c.Store.DataDir, c.Store.VectorsFile)
}

// MetadataPath returns the absolute path to the JSON metadata snapshot.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.Store.DataDir, c.Store.MetadataFile)
}

// LSHPrefixPath returns the absolute path prefix LSH derives its table and
// plane snapshot filenames from.
func (c *Config) LSHPrefixPath() string {
	return filepath.Join(c.Store.DataDir, c.Store.LSHPrefix)
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
