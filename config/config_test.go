package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "voyagent.db", cfg.Store.Path)
	assert.Equal(t, "https://api.openai.com", cfg.Model.Endpoint)
	assert.Equal(t, "gpt-4", cfg.Model.Name)
	assert.Equal(t, 120, cfg.Model.TimeoutSeconds)
	assert.Equal(t, 8, cfg.Orchestrator.MaxToolCycles)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.ToolServers)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
store:
  path: /tmp/test.db
model:
  endpoint: http://localhost:11434
  name: llama3
  temperature: 0.7
orchestrator:
  max_tool_cycles: 4
tool_servers:
  - name: hotel
    command: python3
    args: ["servers/hotel_server.py"]
  - name: weather
    command: python3
    args: ["servers/weather_server.py"]
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.Store.Path)
	assert.Equal(t, "http://localhost:11434", cfg.Model.Endpoint)
	assert.Equal(t, "llama3", cfg.Model.Name)
	assert.Equal(t, 0.7, cfg.Model.Temperature)
	assert.Equal(t, 4, cfg.Orchestrator.MaxToolCycles)
	assert.Equal(t, "debug", cfg.Log.Level)

	require.Len(t, cfg.ToolServers, 2)
	assert.Equal(t, "hotel", cfg.ToolServers[0].Name)
	assert.Equal(t, "python3", cfg.ToolServers[0].Command)
	assert.Equal(t, []string{"servers/hotel_server.py"}, cfg.ToolServers[0].Args)
	assert.Equal(t, "weather", cfg.ToolServers[1].Name)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 3000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "gpt-4", cfg.Model.Name)
	assert.Equal(t, 8, cfg.Orchestrator.MaxToolCycles)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOYAGENT_MODEL_API_KEY", "sk-test")
	t.Setenv("VOYAGENT_MODEL_NAME", "gpt-4o-mini")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  name: gpt-4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
