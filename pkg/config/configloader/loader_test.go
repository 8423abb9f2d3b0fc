package configloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	Shutdown struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"shutdown"`
}

func (c *testConfig) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_LoadFrom_Layering(t *testing.T) {
	testCases := []struct {
		name          string
		yaml          string
		dotenv        string
		env           map[string]string
		expectedPort  int
		expectedLevel string
	}{
		{
			name:          "yaml only",
			yaml:          "server:\n  port: 8080\nlog:\n  level: info\nshutdown:\n  timeout: 5s\n",
			expectedPort:  8080,
			expectedLevel: "info",
		},
		{
			name:          "dotenv overrides yaml",
			yaml:          "server:\n  port: 8080\nlog:\n  level: info\n",
			dotenv:        "TESTSVC_LOG_LEVEL=debug\n",
			expectedPort:  8080,
			expectedLevel: "debug",
		},
		{
			name:          "process env overrides dotenv",
			yaml:          "server:\n  port: 8080\n",
			dotenv:        "TESTSVC_SERVER_PORT=9090\n",
			env:           map[string]string{"TESTSVC_SERVER_PORT": "7070"},
			expectedPort:  7070,
			expectedLevel: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			dir := t.TempDir()
			src := Sources{
				ConfigFile: writeFile(t, dir, "config.yaml", tc.yaml),
				EnvFile:    filepath.Join(dir, ".env"),
				EnvPrefix:  "TESTSVC_",
			}
			if tc.dotenv != "" {
				writeFile(t, dir, ".env", tc.dotenv)
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			// when
			cfg, err := LoadFrom[*testConfig](src)

			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedPort, cfg.Server.Port)
			assert.Equal(t, tc.expectedLevel, cfg.Log.Level)
		})
	}
}

func Test_LoadFrom_ParsesDurations(t *testing.T) {
	// given
	dir := t.TempDir()
	src := Sources{
		ConfigFile: writeFile(t, dir, "config.yaml", "server:\n  port: 1\nshutdown:\n  timeout: 1500ms\n"),
		EnvPrefix:  "TESTSVC_",
	}

	// when
	cfg, err := LoadFrom[*testConfig](src)

	// then
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Shutdown.Timeout)
}

func Test_LoadFrom_MissingFilesAndValidationError(t *testing.T) {
	// given
	dir := t.TempDir()
	src := Sources{
		ConfigFile: filepath.Join(dir, "missing.yaml"),
		EnvFile:    filepath.Join(dir, "missing.env"),
		EnvPrefix:  "TESTSVC_",
	}

	// when
	_, err := LoadFrom[*testConfig](src)

	// then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func Test_DefaultSources(t *testing.T) {
	src := DefaultSources("inventory")

	assert.Equal(t, "config.yaml", src.ConfigFile)
	assert.Equal(t, ".env", src.EnvFile)
	assert.Equal(t, "INVENTORY_", src.EnvPrefix)
}
