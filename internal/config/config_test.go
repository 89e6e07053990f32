package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphummel/lab_post/internal/config"
	"github.com/tphummel/lab_post/internal/post"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lab_post.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "Computer1", cfg.Computer.Serial)
	assert.Equal(t, 5.0, cfg.Power.StandbyVoltage)
	assert.Equal(t, 220.0, cfg.Power.NormalVoltage)
	assert.Equal(t, post.DefaultUSBCapacity, cfg.USB.Capacity)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "./lab_post.db", cfg.Server.DBPath)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
computer:
  serial: Bench7
power:
  normal_voltage: 110
server:
  port: "9090"
log:
  level: debug
  format: text
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Bench7", cfg.Computer.Serial)
	assert.Equal(t, 110.0, cfg.Power.NormalVoltage)
	assert.Equal(t, 5.0, cfg.Power.StandbyVoltage, "unset keys keep their default")
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "./lab_post.db", cfg.Server.DBPath)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "power: [",
		"negative usb":   "usb:\n  capacity: -1\n",
		"bad log level":  "log:\n  level: loud\n",
		"bad log format": "log:\n  format: xml\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, body))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	cfg.ApplyEnv(env(map[string]string{
		config.EnvAPIToken: "secret",
		config.EnvDBPath:   "/data/post.db",
		config.EnvPort:     " ",
		config.EnvLogLevel: "warn",
	}))
	assert.Equal(t, "secret", cfg.Server.APIToken)
	assert.Equal(t, "/data/post.db", cfg.Server.DBPath)
	assert.Equal(t, "8080", cfg.Server.Port, "blank env var is unset")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestBootOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Computer.Serial = "Bench7"
	cfg.Power.NormalVoltage = 260
	cfg.USB.Capacity = 0

	opts := cfg.BootOptions()
	assert.Equal(t, "Bench7", opts.Serial)
	assert.Equal(t, 260.0, opts.NormalVoltage)
	assert.Equal(t, 5.0, opts.StandbyVoltage)
	assert.Equal(t, post.DefaultUSBCapacity, opts.USBCapacity)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log.Level = "warn"

	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		fallback string
		want     string
	}{
		{"explicit wins", "a", "b", "a"},
		{"empty explicit falls back", "", "b", "b"},
		{"blank explicit falls back", "  ", " b ", "b"},
		{"both empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.Resolve(tt.explicit, tt.fallback))
		})
	}
}
