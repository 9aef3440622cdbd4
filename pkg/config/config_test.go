package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clear all variables LoadConfig reads, so the tests do not depend on the callers environment.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ENV_PORT, "")
	t.Setenv(ENV_WEBHOOK_SECRET, "")
	t.Setenv(ENV_LOG_LEVEL, "")
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)
	assert := assert.New(t)

	c, err := LoadConfig("", false, "")
	require.NoError(t, err, "Should fall back to defaults without a config file")

	assert.Equal(DEFAULT_LOG_LEVEL, c.LogLevel)
	assert.Equal(DEFAULT_SERVER_PORT, c.Server.Port)
	assert.Equal(DEFAULT_WEBHOOK_SECRET, c.Webhook.Secret)
	assert.Equal(int64(100*1024), c.Server.MaxBodyBytes)
	assert.False(c.Server.SSL.Enabled)
}

func TestLoadConfig(t *testing.T) {
	tMatrix := []struct {
		Name     string
		Path     string
		Env      bool
		Override string
		Result   Config
		Error    bool
	}{
		{
			Name: "ValidConfig",
			Path: "testdata/valid-config.yaml",
			Result: Config{
				LogLevel: "debug",
				Server: ServerConfig{
					Port:         8080,
					MaxBodySize:  "1MB",
					MaxBodyBytes: 1024 * 1024,
				},
				Webhook: WebhookConfig{
					Secret: "file-secret",
				},
			},
		},
		{
			Name:     "LogLevelOverride",
			Path:     "testdata/valid-config.yaml",
			Override: "error",
			Result: Config{
				LogLevel: "error",
				Server: ServerConfig{
					Port:         8080,
					MaxBodySize:  "1MB",
					MaxBodyBytes: 1024 * 1024,
				},
				Webhook: WebhookConfig{
					Secret: "file-secret",
				},
			},
		},
		{
			Name: "ExpandEnv",
			Path: "testdata/env-config.yaml",
			Env:  true,
			Result: Config{
				LogLevel: "warn",
				Server: ServerConfig{
					Port:         DEFAULT_SERVER_PORT,
					MaxBodySize:  DEFAULT_MAX_BODY_SIZE,
					MaxBodyBytes: 100 * 1024,
				},
				Webhook: WebhookConfig{
					Secret: "expanded-secret",
				},
			},
		},
		{
			Name: "NoExpandEnv",
			Path: "testdata/env-config.yaml",
			Result: Config{
				LogLevel: "warn",
				Server: ServerConfig{
					Port:         DEFAULT_SERVER_PORT,
					MaxBodySize:  DEFAULT_MAX_BODY_SIZE,
					MaxBodyBytes: 100 * 1024,
				},
				Webhook: WebhookConfig{
					Secret: "${TEST_WEBHOOK_FILE_SECRET}",
				},
			},
		},
		{
			Name:  "IncompleteSSL",
			Path:  "testdata/invalid-ssl.yaml",
			Error: true,
		},
		{
			Name:  "InvalidBodySize",
			Path:  "testdata/invalid-body-size.yaml",
			Error: true,
		},
		{
			Name:  "InvalidYAML",
			Path:  "testdata/not-yaml.yaml",
			Error: true,
		},
		{
			Name:  "MissingFile",
			Path:  "testdata/does-not-exist.yaml",
			Error: true,
		},
		{
			Name:     "InvalidLogLevel",
			Path:     "testdata/valid-config.yaml",
			Override: "verbose",
			Error:    true,
		},
	}

	for _, tCase := range tMatrix {
		t.Run(tCase.Name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TEST_WEBHOOK_FILE_SECRET", "expanded-secret")
			t.Cleanup(func() {
				_ = setLogLevel(DEFAULT_LOG_LEVEL)
			})

			c, err := LoadConfig(tCase.Path, tCase.Env, tCase.Override)

			if tCase.Error {
				assert.Error(t, err, "Should fail to load the config")
				assert.Equal(t, Config{}, c, "Should return an empty config on error")
				return
			}
			require.NoError(t, err, "Should load the config")
			assert.Equal(t, tCase.Result, c, "Config should match")
		})
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	assert := assert.New(t)
	clearEnv(t)
	t.Setenv(ENV_PORT, "9090")
	t.Setenv(ENV_WEBHOOK_SECRET, "env-secret")
	t.Setenv(ENV_LOG_LEVEL, "warn")
	t.Cleanup(func() {
		_ = setLogLevel(DEFAULT_LOG_LEVEL)
	})

	c, err := LoadConfig("testdata/valid-config.yaml", false, "")
	require.NoError(t, err, "Should load the config")

	assert.Equal(9090, c.Server.Port, "Environment should override the file port")
	assert.Equal("env-secret", c.Webhook.Secret, "Environment should override the file secret")
	assert.Equal("warn", c.LogLevel, "Environment should override the file log level")
	assert.Equal(slog.LevelWarn, logLevel.Level())

	c, err = LoadConfig("testdata/valid-config.yaml", false, "debug")
	require.NoError(t, err, "Should load the config")
	assert.Equal("debug", c.LogLevel, "Flag should override the environment log level")
}

func TestLoadConfigInvalidEnvironment(t *testing.T) {
	tMatrix := map[string]string{
		"NotANumber": "http",
		"TooLarge":   "70000",
		"Zero":       "0",
	}

	for name, port := range tMatrix {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(ENV_PORT, port)

			_, err := LoadConfig("", false, "")
			assert.Error(t, err, "Should reject port %s", port)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	assert := assert.New(t)

	// Register cleanup for the variables, then remove them so the env file can provide them.
	t.Setenv(ENV_WEBHOOK_SECRET, "")
	t.Setenv(ENV_PORT, "")
	t.Setenv(ENV_LOG_LEVEL, "")
	require.NoError(t, os.Unsetenv(ENV_WEBHOOK_SECRET))
	require.NoError(t, os.Unsetenv(ENV_PORT))
	t.Cleanup(func() {
		_ = setLogLevel(DEFAULT_LOG_LEVEL)
	})

	dir := t.TempDir()
	t.Chdir(dir)
	err := os.WriteFile(filepath.Join(dir, DEFAULT_ENV_FILE), []byte("WEBHOOK_SECRET=dotenv-secret\nPORT=4000\n"), 0600)
	require.NoError(t, err, "Should write env file")

	c, err := LoadConfig("", false, "")
	require.NoError(t, err, "Should load the config")

	assert.Equal("dotenv-secret", c.Webhook.Secret)
	assert.Equal(4000, c.Server.Port)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err, "A missing env file should be ignored")
}

func TestSetLogLevel(t *testing.T) {
	t.Cleanup(func() {
		_ = setLogLevel(DEFAULT_LOG_LEVEL)
	})

	tMatrix := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	for level, expected := range tMatrix {
		t.Run(level, func(t *testing.T) {
			err := setLogLevel(level)
			assert.NoError(t, err)
			assert.Equal(t, expected, logLevel.Level())
		})
	}

	assert.Error(t, setLogLevel("trace"), "Should reject unknown log levels")
}
