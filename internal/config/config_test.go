package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for _, key := range []string{EnvServer, EnvStore, EnvSQLitePath, EnvDashboardPort,
		EnvRequestTimeout, EnvTranscript, EnvLogLevel, EnvRedisHost, EnvRedisPort,
		EnvRedisUser, EnvRedisPassword} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv(EnvStateDir, filepath.Join(dir, "state"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, filepath.Join(dir, "state", "stash.db"), cfg.SQLitePath)
	assert.Equal(t, filepath.Join(dir, "state", "cookies.json"), cfg.CookieJarPath())
	assert.Equal(t, 4041, cfg.DashboardPort)
	assert.True(t, cfg.Transcript)
	assert.Zero(t, cfg.RequestTimeout)
}

func TestLoadLayers(t *testing.T) {
	dir := isolate(t)

	file := filepath.Join(dir, "tutor.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
server_url: https://tutor.example.com/
store: memory
dashboard_port: 5000
request_timeout: 15s
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o644))

	t.Run("file and dotenv", func(t *testing.T) {
		cfg, err := Load(file)
		require.NoError(t, err)
		assert.Equal(t, "https://tutor.example.com", cfg.ServerURL)
		assert.Equal(t, "memory", cfg.Store)
		assert.Equal(t, 5000, cfg.DashboardPort)
		assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(EnvDashboardPort, "6000")
		t.Setenv(EnvServer, "localhost:9000")
		cfg, err := Load(file)
		require.NoError(t, err)
		assert.Equal(t, 6000, cfg.DashboardPort)
		assert.Equal(t, "http://localhost:9000", cfg.ServerURL)
	})
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown store", map[string]string{EnvStore: "etcd"}, "TUTOR_STORE"},
		{"redis without host", map[string]string{EnvStore: "redis"}, "REDIS_HOST"},
		{"port out of range", map[string]string{EnvDashboardPort: "70000"}, "TUTOR_DASHBOARD_PORT"},
		{"bad log level", map[string]string{EnvLogLevel: "loud"}, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
}
