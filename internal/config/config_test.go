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
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Storage: StorageConfig{
			Backend:  BackendBadger,
			DataPath: "/some/path",
		},
		Detector: DetectorConfig{Threshold: 0.7},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
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

func TestValidate_StorageBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = BackendSQLite
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "postgres"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Threshold(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		cfg := validConfig()
		cfg.Detector.Threshold = v
		assert.NoError(t, cfg.Validate(), "threshold %v", v)
	}
	for _, v := range []float64{-0.1, 1.1} {
		cfg := validConfig()
		cfg.Detector.Threshold = v
		assert.Error(t, cfg.Validate(), "threshold %v", v)
	}
}

func TestValidate_Janitor(t *testing.T) {
	cfg := validConfig()
	cfg.Janitor = JanitorConfig{Enabled: true, MaxAge: 30 * 24 * time.Hour, Interval: time.Hour}
	assert.NoError(t, cfg.Validate())

	cfg.Janitor.MaxAge = 0
	assert.Error(t, cfg.Validate())

	// Disabled janitor skips the duration checks.
	cfg.Janitor = JanitorConfig{Enabled: false}
	assert.NoError(t, cfg.Validate())
}

func TestStorageConfig_Paths(t *testing.T) {
	c := StorageConfig{Backend: BackendBadger, DataPath: "/data"}
	assert.Equal(t, filepath.Join("/data", "db"), c.DatabasePath())
	assert.Equal(t, filepath.Join("/data", "thumbnails"), c.ThumbnailPath())

	c.Backend = BackendSQLite
	assert.Equal(t, filepath.Join("/data", "prompts.sqlite"), c.DatabasePath())
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("PROMPTLIB_TEST_KEY", "from-env")

	assert.Equal(t, "from-flag", getConfigValue("from-flag", "PROMPTLIB_TEST_KEY", "fallback"))
	assert.Equal(t, "from-env", getConfigValue("", "PROMPTLIB_TEST_KEY", "fallback"))

	os.Unsetenv("PROMPTLIB_TEST_KEY")
	assert.Equal(t, "fallback", getConfigValue("", "PROMPTLIB_TEST_KEY", "fallback"))
}

func TestGetBoolConfigValue(t *testing.T) {
	assert.True(t, getBoolConfigValue("true", "PROMPTLIB_NOPE", false))
	assert.True(t, getBoolConfigValue("1", "PROMPTLIB_NOPE", false))
	assert.True(t, getBoolConfigValue("YES", "PROMPTLIB_NOPE", false))
	assert.False(t, getBoolConfigValue("no", "PROMPTLIB_NOPE", true))
	assert.True(t, getBoolConfigValue("", "PROMPTLIB_NOPE", true))
}

func TestGetFloatConfigValue(t *testing.T) {
	assert.Equal(t, 0.42, getFloatConfigValue("0.42", "PROMPTLIB_NOPE", 0.7))
	assert.Equal(t, 0.7, getFloatConfigValue("", "PROMPTLIB_NOPE", 0.7))
	assert.Equal(t, 0.7, getFloatConfigValue("not-a-number", "PROMPTLIB_NOPE", 0.7))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("30s", "PROMPTLIB_NOPE", "15s")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	d, err = parseDurationValue("", "PROMPTLIB_NOPE", "15s")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	_, err = parseDurationValue("soon", "PROMPTLIB_NOPE", "15s")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nPROMPTLIB_ENVFILE_A=hello\nPROMPTLIB_ENVFILE_B=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("PROMPTLIB_ENVFILE_A")
		os.Unsetenv("PROMPTLIB_ENVFILE_B")
	})

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "hello", os.Getenv("PROMPTLIB_ENVFILE_A"))
	assert.Equal(t, "quoted", os.Getenv("PROMPTLIB_ENVFILE_B"))

	// Existing env vars win over the file.
	t.Setenv("PROMPTLIB_ENVFILE_C", "already")
	require.NoError(t, os.WriteFile(path, []byte("PROMPTLIB_ENVFILE_C=file\n"), 0o600))
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "already", os.Getenv("PROMPTLIB_ENVFILE_C"))
}

func TestLoadEnvFile_BadLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JUSTAKEY\n"), 0o600))

	assert.Error(t, loadEnvFile(path))
}
