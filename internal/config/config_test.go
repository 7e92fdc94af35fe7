package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Library: LibraryConfig{DataPath: "/some/path"},
		Catalog: CatalogConfig{RPS: 1.0},
		Discovery: DiscoveryConfig{
			PageSize: 25,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Library.DataPath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data path cannot be empty")
}

func TestValidate_EmptyEndpointAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Endpoint = ""
	assert.NoError(t, cfg.Validate(), "discovery can be configured later")
}

func TestValidate_PageSizeBounds(t *testing.T) {
	for _, size := range []int{0, -5, 101, 1000} {
		cfg := validConfig()
		cfg.Discovery.PageSize = size
		assert.Error(t, cfg.Validate(), "page size %d", size)
	}
	for _, size := range []int{1, 25, 100} {
		cfg := validConfig()
		cfg.Discovery.PageSize = size
		assert.NoError(t, cfg.Validate(), "page size %d", size)
	}
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}
	err := cfg.expandDataPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "SceneScout", "data"), cfg.Library.DataPath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := &Config{Library: LibraryConfig{DataPath: "~/my-data"}}
	err := cfg.expandDataPath()
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "my-data"), cfg.Library.DataPath)
}

func TestExpandDataPath_AbsolutePath(t *testing.T) {
	cfg := &Config{Library: LibraryConfig{DataPath: "/absolute/path/to/data"}}
	err := cfg.expandDataPath()
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path/to/data", cfg.Library.DataPath)
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{Library: LibraryConfig{DataPath: "/data"}}
	assert.Equal(t, "/data/scenescout.db", cfg.DatabasePath())
}

func TestGetConfigValue_Precedence(t *testing.T) {
	result := getConfigValue("flag-value", "ENV_KEY", "default-value")
	assert.Equal(t, "flag-value", result)

	os.Setenv("TEST_ENV_KEY", "env-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_ENV_KEY")      //nolint:errcheck // Test cleanup

	result = getConfigValue("", "TEST_ENV_KEY", "default-value")
	assert.Equal(t, "env-value", result)

	result = getConfigValue("", "NONEXISTENT_KEY", "default-value")
	assert.Equal(t, "default-value", result)
}

func TestGetIntConfigValue(t *testing.T) {
	assert.Equal(t, 42, getIntConfigValue("42", "NOPE", 7))
	assert.Equal(t, 7, getIntConfigValue("", "NOPE", 7))
	assert.Equal(t, 7, getIntConfigValue("not-a-number", "NOPE", 7))
}

func TestGetFloatConfigValue(t *testing.T) {
	assert.Equal(t, 0.5, getFloatConfigValue("0.5", "NOPE", 1.0))
	assert.Equal(t, 1.0, getFloatConfigValue("", "NOPE", 1.0))
	assert.Equal(t, 1.0, getFloatConfigValue("garbage", "NOPE", 1.0))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a"}, splitList("a"))
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a, b ,c"))
	assert.Equal(t, []string{"a", "b"}, splitList("a,,b,"))
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
CATALOG_ENDPOINT=https://catalog.test/graphql
LOG_LEVEL=debug
QUOTED_VALUE="some value"
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	os.Unsetenv("CATALOG_ENDPOINT") //nolint:errcheck // Test cleanup
	os.Unsetenv("LOG_LEVEL")        //nolint:errcheck // Test cleanup
	os.Unsetenv("QUOTED_VALUE")     //nolint:errcheck // Test cleanup
	defer func() {
		os.Unsetenv("CATALOG_ENDPOINT") //nolint:errcheck // Test cleanup
		os.Unsetenv("LOG_LEVEL")        //nolint:errcheck // Test cleanup
		os.Unsetenv("QUOTED_VALUE")     //nolint:errcheck // Test cleanup
	}()

	err = loadEnvFile(envFile)
	require.NoError(t, err)

	assert.Equal(t, "https://catalog.test/graphql", os.Getenv("CATALOG_ENDPOINT"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	err = loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	os.Setenv("TEST_VAR", "original-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_VAR")           //nolint:errcheck // Test cleanup

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	err := os.WriteFile(envFile, []byte("TEST_VAR=new-value"), 0o644)
	require.NoError(t, err)

	err = loadEnvFile(envFile)
	require.NoError(t, err)
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestDurationDefaultsParse(t *testing.T) {
	for _, d := range []string{"15s", "30s", "60s", "500ms", "8s", "5s"} {
		_, err := time.ParseDuration(d)
		assert.NoError(t, err)
	}
}
