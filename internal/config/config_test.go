package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BRIEFCLAW_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GROQ_API_KEY",
	"BRIEFCLAW_BASE_URL", "BRIEFCLAW_MODEL", "MODEL_NAME", "BRIEFCLAW_STORE_URL",
	"FRONTEND_API_URL", "FRONTEND_URL", "PORT", "BRIEFCLAW_TELEGRAM_TOKEN",
	"BRIEFCLAW_CHECKPOINT_DB", "BRIEFCLAW_LOG_LEVEL",
}

// isolate points HOME at a temp dir, clears env overrides and runs from a
// directory without a .env file.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(tmpDir)
	return tmpDir
}

func writeConfig(t *testing.T, home string, v any) {
	t.Helper()
	dir := filepath.Join(home, ".briefclaw")
	require.NoError(t, os.MkdirAll(dir, 0755))
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0644))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultModel, cfg.Agent.Model)
	assert.Equal(t, DefaultMaxTokens, cfg.Agent.MaxTokens)
	assert.Equal(t, DefaultTemperature, cfg.Agent.Temperature)
	assert.Equal(t, DefaultHost, cfg.Gateway.Host)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, DefaultStoreURL, cfg.Store.BaseURL)
	assert.Equal(t, DefaultStoreTimeout, cfg.Store.TimeoutSeconds)
	assert.Equal(t, DefaultCheckpointRetention, cfg.Checkpoint.Retention)
	assert.Equal(t, DefaultPruneSchedule, cfg.Checkpoint.PruneSchedule)
	assert.False(t, cfg.Channels.Telegram.Enabled)
	assert.False(t, cfg.Channels.WebSocket.Enabled)
}

func TestLoadConfig_NoFile(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Agent.Model)
	assert.Empty(t, cfg.Provider.APIKey)
}

func TestLoadConfig_FromFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, map[string]any{
		"agent":    map[string]any{"model": "claude-opus-4-20250514", "maxTokens": 2048},
		"provider": map[string]any{"apiKey": "sk-test-key"},
		"store":    map[string]any{"baseUrl": "http://store:3000", "timeoutSeconds": 0},
	})

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-20250514", cfg.Agent.Model)
	assert.Equal(t, 2048, cfg.Agent.MaxTokens)
	assert.Equal(t, "sk-test-key", cfg.Provider.APIKey)
	assert.Equal(t, "http://store:3000", cfg.Store.BaseURL)
	assert.Equal(t, DefaultStoreTimeout, cfg.Store.TimeoutSeconds, "zero timeout falls back to default")
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".briefclaw")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_APIKeyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		wantKey  string
		wantType string
		wantURL  string
	}{
		{"briefclaw key", map[string]string{"BRIEFCLAW_API_KEY": "bc", "ANTHROPIC_API_KEY": "an"}, "bc", "", ""},
		{"anthropic key", map[string]string{"ANTHROPIC_API_KEY": "an", "OPENAI_API_KEY": "oa"}, "an", "", ""},
		{"openai key", map[string]string{"OPENAI_API_KEY": "oa"}, "oa", "openai", ""},
		{"groq key", map[string]string{"GROQ_API_KEY": "gq"}, "gq", "openai", GroqBaseURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, cfg.Provider.APIKey)
			assert.Equal(t, tt.wantType, cfg.Provider.Type)
			assert.Equal(t, tt.wantURL, cfg.Provider.BaseURL)
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, map[string]any{"agent": map[string]any{"model": "from-file"}})

	t.Setenv("MODEL_NAME", "from-model-name")
	t.Setenv("FRONTEND_API_URL", "http://frontend:3000")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("PORT", "9100")
	t.Setenv("BRIEFCLAW_TELEGRAM_TOKEN", "tg-token")
	t.Setenv("BRIEFCLAW_CHECKPOINT_DB", "/tmp/cp.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-model-name", cfg.Agent.Model)
	assert.Equal(t, "http://frontend:3000", cfg.Store.BaseURL)
	assert.Equal(t, 9100, cfg.Gateway.Port)
	assert.Equal(t, "tg-token", cfg.Channels.Telegram.Token)
	assert.Equal(t, "/tmp/cp.db", cfg.CheckpointPath())
	assert.Contains(t, cfg.Origins(), "https://app.example.com")

	t.Setenv("BRIEFCLAW_MODEL", "from-briefclaw")
	t.Setenv("BRIEFCLAW_STORE_URL", "http://store:4000")
	t.Setenv("PORT", "not-a-port")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-briefclaw", cfg.Agent.Model)
	assert.Equal(t, "http://store:4000", cfg.Store.BaseURL)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("BRIEFCLAW_MODEL=from-dotenv\n"), 0644))
	// godotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("BRIEFCLAW_MODEL"))
	t.Cleanup(func() { _ = os.Unsetenv("BRIEFCLAW_MODEL") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Agent.Model)
}

func TestCheckpointPathDefault(t *testing.T) {
	home := isolate(t)
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join(home, ".briefclaw", "data", "checkpoints.db"), cfg.CheckpointPath())
}

func TestOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.AllowedOrigins = []string{" https://a.example ", ""}
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000", "https://a.example"}, cfg.Origins())
}

func TestSaveConfig(t *testing.T) {
	home := isolate(t)

	cfg := DefaultConfig()
	cfg.Provider.APIKey = "test-save-key"
	cfg.Channels.Telegram.Enabled = true
	cfg.Channels.Telegram.AllowFrom = []string{"123"}
	require.NoError(t, SaveConfig(cfg))

	_, err := os.Stat(filepath.Join(home, ".briefclaw", "config.json"))
	require.NoError(t, err)

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test-save-key", loaded.Provider.APIKey)
	assert.True(t, loaded.Channels.Telegram.Enabled)
	assert.Equal(t, []string{"123"}, loaded.Channels.Telegram.AllowFrom)
}
