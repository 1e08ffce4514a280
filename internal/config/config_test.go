package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 512, cfg.Indexing.ChunkSize)
	assert.Equal(t, 64, cfg.Indexing.Overlap)
	assert.Equal(t, 10, cfg.Indexing.MaxFileSizeMB)
	assert.NotEmpty(t, cfg.Indexing.IncludePatterns)
	assert.NotEmpty(t, cfg.Indexing.ExcludePatterns)
	assert.NotEmpty(t, cfg.Storage.IndexDir)
	assert.Equal(t, 10, cfg.Search.DefaultK)
	assert.Equal(t, 100, cfg.Search.MaxK)
	assert.Equal(t, 500, cfg.Search.MaxQueryLength)
	assert.Equal(t, 1, cfg.Limits.MaxConcurrentIndexes)
	assert.Equal(t, 300, cfg.Limits.RequestTimeoutSec)
}

func TestNewConfig_IsValid(t *testing.T) {
	assert.NoError(t, NewConfig().Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 512, cfg.Indexing.ChunkSize)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
indexing:
  chunk_size: 2000
  overlap: 100
search:
  default_k: 5
  max_k: 50
`
	err := os.WriteFile(filepath.Join(tmpDir, ".shebe.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Indexing.ChunkSize)
	assert.Equal(t, 100, cfg.Indexing.Overlap)
	assert.Equal(t, 5, cfg.Search.DefaultK)
	assert.Equal(t, 50, cfg.Search.MaxK)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
indexing:
  chunk_size: 256
`
	err := os.WriteFile(filepath.Join(tmpDir, ".shebe.yml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Indexing.ChunkSize)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	tmpDir := t.TempDir()
	yamlContent := "indexing:\n  chunk_size: 111\n"
	ymlContent := "indexing:\n  chunk_size: 222\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shebe.yaml"), []byte(yamlContent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shebe.yml"), []byte(ymlContent), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 111, cfg.Indexing.ChunkSize)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := "indexing:\n  chunk_size: [invalid yaml syntax\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shebe.yaml"), []byte(invalidContent), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := "indexing:\n  chunk_size: \"not-a-number\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shebe.yaml"), []byte(invalidContent), 0o644))

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestGetUserConfigPath_DefaultsToXDGLocation(t *testing.T) {
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Unsetenv("XDG_CONFIG_HOME")
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	path := GetUserConfigPath()
	assert.Contains(t, path, ".config")
	assert.Contains(t, path, "shebe")
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	path := GetUserConfigPath()
	assert.Equal(t, "/tmp/xdg-test/shebe/config.yaml", path)
}

func TestGetUserConfigDir_ReturnsParentOfConfigPath(t *testing.T) {
	assert.Equal(t, filepath.Dir(GetUserConfigPath()), GetUserConfigDir())
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	assert.False(t, UserConfigExists())
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	tmpDir := t.TempDir()
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	configDir := filepath.Join(tmpDir, "shebe")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("indexing:\n"), 0o644))

	assert.True(t, UserConfigExists())
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	configDir := filepath.Join(tmpDir, "shebe")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("search:\n  default_k: 25\n"), 0o644))

	projectDir := t.TempDir()
	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Search.DefaultK)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	tmpDir := t.TempDir()
	origXDG := os.Getenv("XDG_CONFIG_HOME")
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Setenv("XDG_CONFIG_HOME", origXDG)

	configDir := filepath.Join(tmpDir, "shebe")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("search:\n  default_k: 25\n"), 0o644))

	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".shebe.yaml"), []byte("search:\n  default_k: 7\n"), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.DefaultK)
}

func TestValidate_ChunkSizeMustBePositive(t *testing.T) {
	cfg := NewConfig()
	cfg.Indexing.ChunkSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_OverlapMustBeLessThanChunkSize(t *testing.T) {
	cfg := NewConfig()
	cfg.Indexing.ChunkSize = 100
	cfg.Indexing.Overlap = 100
	assert.Error(t, cfg.Validate())
}

func TestValidate_DefaultKMustNotExceedMaxK(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.DefaultK = 200
	cfg.Search.MaxK = 100
	assert.Error(t, cfg.Validate())
}

func TestValidate_MaxQueryLengthMustBePositive(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.MaxQueryLength = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_MaxConcurrentIndexesMustBePositive(t *testing.T) {
	cfg := NewConfig()
	cfg.Limits.MaxConcurrentIndexes = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RequestTimeoutMustBePositive(t *testing.T) {
	cfg := NewConfig()
	cfg.Limits.RequestTimeoutSec = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_MergeExcludePatterns_ReplacesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "indexing:\n  exclude_patterns:\n    - \"**/testdata/**\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shebe.yaml"), []byte(configContent), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, []string{"**/testdata/**"}, cfg.Indexing.ExcludePatterns)
}

func TestLoad_ZeroValuesNotMerged(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "indexing:\n  chunk_size: 999\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shebe.yaml"), []byte(configContent), 0o644))

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 999, cfg.Indexing.ChunkSize)
	assert.Equal(t, 64, cfg.Indexing.Overlap) // untouched field keeps its default
}
