package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration record consumed by the core.
// The core never parses config files or env vars itself; an adapter
// (CLI, server) builds one of these and passes it down.
type Config struct {
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Limits   LimitsConfig   `yaml:"limits" json:"limits"`
}

// IndexingConfig controls chunking and file selection.
type IndexingConfig struct {
	ChunkSize       int      `yaml:"chunk_size" json:"chunk_size"`
	Overlap         int      `yaml:"overlap" json:"overlap"`
	MaxFileSizeMB   int      `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	IncludePatterns []string `yaml:"include_patterns" json:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"`
}

// StorageConfig controls where session directories live on disk.
type StorageConfig struct {
	// IndexDir is the absolute path under which sessions/<id>/ directories
	// are created.
	IndexDir string `yaml:"index_dir" json:"index_dir"`
}

// SearchConfig bounds query-time parameters.
type SearchConfig struct {
	DefaultK       int `yaml:"default_k" json:"default_k"`
	MaxK           int `yaml:"max_k" json:"max_k"`
	MaxQueryLength int `yaml:"max_query_length" json:"max_query_length"`
}

// LimitsConfig bounds resource usage across concurrent operations.
type LimitsConfig struct {
	MaxConcurrentIndexes int `yaml:"max_concurrent_indexes" json:"max_concurrent_indexes"`
	RequestTimeoutSec    int `yaml:"request_timeout_sec" json:"request_timeout_sec"`
}

// defaultExcludePatterns are always excluded unless overridden.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/*.png",
	"**/*.jpg",
	"**/*.jpeg",
	"**/*.gif",
	"**/*.pdf",
	"**/*.zip",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// defaultIncludePatterns matches common source-code extensions.
var defaultIncludePatterns = []string{
	"**/*.go",
	"**/*.py",
	"**/*.js",
	"**/*.jsx",
	"**/*.ts",
	"**/*.tsx",
	"**/*.java",
	"**/*.c",
	"**/*.h",
	"**/*.cpp",
	"**/*.hpp",
	"**/*.rs",
	"**/*.rb",
	"**/*.php",
	"**/*.cs",
	"**/*.md",
	"**/*.yaml",
	"**/*.yml",
	"**/*.json",
}

// NewConfig returns a Config populated with the defaults named in the
// external interface specification.
func NewConfig() *Config {
	return &Config{
		Indexing: IndexingConfig{
			ChunkSize:       512,
			Overlap:         64,
			MaxFileSizeMB:   10,
			IncludePatterns: append([]string{}, defaultIncludePatterns...),
			ExcludePatterns: append([]string{}, defaultExcludePatterns...),
		},
		Storage: StorageConfig{
			IndexDir: defaultIndexDir(),
		},
		Search: SearchConfig{
			DefaultK:       10,
			MaxK:           100,
			MaxQueryLength: 500,
		},
		Limits: LimitsConfig{
			MaxConcurrentIndexes: 1,
			RequestTimeoutSec:    300,
		},
	}
}

// defaultIndexDir returns ~/.shebe/sessions, falling back to a temp
// directory when the home directory cannot be resolved.
func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".shebe", "sessions")
	}
	return filepath.Join(home, ".shebe", "sessions")
}

// GetUserConfigPath returns the path to the user/global configuration
// file, following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shebe", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "shebe", "config.yaml")
	}
	return filepath.Join(home, ".config", "shebe", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds a Config starting from defaults, then overlaying the user
// config file (~/.config/shebe/config.yaml) if present, then a project
// config file (.shebe.yaml or .shebe.yml) inside dir if present. The
// result is validated before being returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config from %s: %w", userPath, err)
		}
	}

	if err := cfg.loadFromProjectFile(dir); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromProjectFile loads .shebe.yaml or .shebe.yml from dir, if either
// exists. Absence of both is not an error; defaults (and any user config)
// apply.
func (c *Config) loadFromProjectFile(dir string) error {
	yamlPath := filepath.Join(dir, ".shebe.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".shebe.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML reads and merges configuration from a YAML file. Only
// non-zero fields in the parsed document override the receiver.
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

// mergeWith overlays non-zero values from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Indexing.ChunkSize != 0 {
		c.Indexing.ChunkSize = other.Indexing.ChunkSize
	}
	if other.Indexing.Overlap != 0 {
		c.Indexing.Overlap = other.Indexing.Overlap
	}
	if other.Indexing.MaxFileSizeMB != 0 {
		c.Indexing.MaxFileSizeMB = other.Indexing.MaxFileSizeMB
	}
	if len(other.Indexing.IncludePatterns) > 0 {
		c.Indexing.IncludePatterns = other.Indexing.IncludePatterns
	}
	if len(other.Indexing.ExcludePatterns) > 0 {
		c.Indexing.ExcludePatterns = other.Indexing.ExcludePatterns
	}

	if other.Storage.IndexDir != "" {
		c.Storage.IndexDir = other.Storage.IndexDir
	}

	if other.Search.DefaultK != 0 {
		c.Search.DefaultK = other.Search.DefaultK
	}
	if other.Search.MaxK != 0 {
		c.Search.MaxK = other.Search.MaxK
	}
	if other.Search.MaxQueryLength != 0 {
		c.Search.MaxQueryLength = other.Search.MaxQueryLength
	}

	if other.Limits.MaxConcurrentIndexes != 0 {
		c.Limits.MaxConcurrentIndexes = other.Limits.MaxConcurrentIndexes
	}
	if other.Limits.RequestTimeoutSec != 0 {
		c.Limits.RequestTimeoutSec = other.Limits.RequestTimeoutSec
	}
}

// Validate checks the invariants named in the external interface
// specification.
func (c *Config) Validate() error {
	if c.Indexing.ChunkSize < 1 {
		return fmt.Errorf("indexing.chunk_size must be >= 1, got %d", c.Indexing.ChunkSize)
	}
	if c.Indexing.Overlap >= c.Indexing.ChunkSize {
		return fmt.Errorf("indexing.overlap (%d) must be less than chunk_size (%d)", c.Indexing.Overlap, c.Indexing.ChunkSize)
	}
	if c.Indexing.Overlap < 0 {
		return fmt.Errorf("indexing.overlap must be >= 0, got %d", c.Indexing.Overlap)
	}
	if c.Search.DefaultK < 1 {
		return fmt.Errorf("search.default_k must be >= 1, got %d", c.Search.DefaultK)
	}
	if c.Search.DefaultK > c.Search.MaxK {
		return fmt.Errorf("search.default_k (%d) must be <= max_k (%d)", c.Search.DefaultK, c.Search.MaxK)
	}
	if c.Search.MaxQueryLength < 1 {
		return fmt.Errorf("search.max_query_length must be >= 1, got %d", c.Search.MaxQueryLength)
	}
	if c.Limits.MaxConcurrentIndexes < 1 {
		return fmt.Errorf("limits.max_concurrent_indexes must be >= 1, got %d", c.Limits.MaxConcurrentIndexes)
	}
	if c.Limits.RequestTimeoutSec < 1 {
		return fmt.Errorf("limits.request_timeout_sec must be >= 1, got %d", c.Limits.RequestTimeoutSec)
	}
	return nil
}

// WriteYAML serializes the config to path as YAML.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists reports whether path exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
