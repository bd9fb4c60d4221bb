package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  environment: test\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8085", cfg.GetServerAddr())
	assert.Equal(t, 16, cfg.Printer.MaxAddDepth)
	assert.Equal(t, 2, cfg.Printer.PersistentAttempts)
	assert.Equal(t, 9100, cfg.Transport.TCP.Port)
	assert.Equal(t, 10*time.Second, cfg.Discovery.DefaultTimeout)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "test", cfg.App.Environment)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9999"
printer:
  worker_pool_size: 4
  max_add_depth: 3
logging:
  level: debug
  format: console
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Printer.WorkerPoolSize)
	assert.Equal(t, 3, cfg.Printer.MaxAddDepth)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.IsDebugEnabled())
}

func TestLoadFileEnvironmentOverride(t *testing.T) {
	t.Setenv("PRINTER_BRIDGE_PRINTER_WORKER_POOL_SIZE", "7")
	path := writeConfig(t, "app:\n  name: bridge\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Printer.WorkerPoolSize)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad level", "logging:\n  level: verbose\n"},
		{"bad environment", "app:\n  environment: lab\n"},
		{"zero pool", "printer:\n  worker_pool_size: 0\n"},
		{"zero depth", "printer:\n  max_add_depth: 0\n"},
		{"db without host", "database:\n  enabled: true\n  host: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDatabaseDSN())
}
