package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultModel               = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens           = 4096
	DefaultTemperature         = 0.1
	DefaultHost                = "0.0.0.0"
	DefaultPort                = 8000
	DefaultWebSocketPort       = 18791
	DefaultBufSize             = 100
	DefaultStoreURL            = "http://localhost:3000"
	DefaultStoreTimeout        = 10
	DefaultCheckpointRetention = "720h"
	DefaultPruneSchedule       = "0 0 4 * * *"
	DefaultLogLevel            = "info"

	GroqBaseURL = "https://api.groq.com/openai/v1"
)

// DefaultAllowedOrigins are the local frontend origins always accepted by the
// gateway API.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

type Config struct {
	Agent      AgentConfig      `json:"agent"`
	Provider   ProviderConfig   `json:"provider"`
	Store      StoreConfig      `json:"store"`
	Checkpoint CheckpointConfig `json:"checkpoint"`
	Channels   ChannelsConfig   `json:"channels"`
	Gateway    GatewayConfig    `json:"gateway"`
	Log        LogConfig        `json:"log"`
}

type AgentConfig struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "anthropic" (default) or "openai"
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// StoreConfig points at the project store that owns persisted briefs.
type StoreConfig struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type CheckpointConfig struct {
	DBPath        string `json:"dbPath,omitempty"`
	Retention     string `json:"retention"`
	PruneSchedule string `json:"pruneSchedule"`
}

type ChannelsConfig struct {
	Telegram  TelegramConfig  `json:"telegram"`
	WebSocket WebSocketConfig `json:"websocket"`
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allowFrom"`
	Proxy     string   `json:"proxy,omitempty"`
}

type WebSocketConfig struct {
	Enabled   bool     `json:"enabled"`
	Port      int      `json:"port,omitempty"`
	AllowFrom []string `json:"allowFrom"`
}

type GatewayConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

type LogConfig struct {
	Level string `json:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:       DefaultModel,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		Store: StoreConfig{
			BaseURL:        DefaultStoreURL,
			TimeoutSeconds: DefaultStoreTimeout,
		},
		Checkpoint: CheckpointConfig{
			Retention:     DefaultCheckpointRetention,
			PruneSchedule: DefaultPruneSchedule,
		},
		Channels: ChannelsConfig{
			WebSocket: WebSocketConfig{Port: DefaultWebSocketPort},
		},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".briefclaw")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// CheckpointPath returns the SQLite file used for conversation checkpoints.
func (c *Config) CheckpointPath() string {
	if p := strings.TrimSpace(c.Checkpoint.DBPath); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "data", "checkpoints.db")
}

// Origins returns the CORS origins accepted by the gateway API.
func (c *Config) Origins() []string {
	out := append([]string{}, DefaultAllowedOrigins...)
	for _, o := range c.Gateway.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func LoadConfig() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Agent.Model == "" {
		cfg.Agent.Model = DefaultModel
	}
	if cfg.Agent.MaxTokens <= 0 {
		cfg.Agent.MaxTokens = DefaultMaxTokens
	}
	if cfg.Store.TimeoutSeconds <= 0 {
		cfg.Store.TimeoutSeconds = DefaultStoreTimeout
	}
	if cfg.Checkpoint.Retention == "" {
		cfg.Checkpoint.Retention = DefaultCheckpointRetention
	}
	if cfg.Checkpoint.PruneSchedule == "" {
		cfg.Checkpoint.PruneSchedule = DefaultPruneSchedule
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
	if cfg.Channels.WebSocket.Port == 0 {
		cfg.Channels.WebSocket.Port = DefaultWebSocketPort
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if key := os.Getenv("BRIEFCLAW_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
	}
	// Groq serves an OpenAI-compatible endpoint.
	if key := os.Getenv("GROQ_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		if cfg.Provider.Type == "" {
			cfg.Provider.Type = "openai"
		}
		if cfg.Provider.BaseURL == "" {
			cfg.Provider.BaseURL = GroqBaseURL
		}
	}
	if url := os.Getenv("BRIEFCLAW_BASE_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if model := os.Getenv("BRIEFCLAW_MODEL"); model != "" {
		cfg.Agent.Model = model
	} else if model := os.Getenv("MODEL_NAME"); model != "" {
		cfg.Agent.Model = model
	}
	if url := os.Getenv("BRIEFCLAW_STORE_URL"); url != "" {
		cfg.Store.BaseURL = url
	} else if url := os.Getenv("FRONTEND_API_URL"); url != "" {
		cfg.Store.BaseURL = url
	}
	if origin := strings.TrimSpace(os.Getenv("FRONTEND_URL")); origin != "" {
		cfg.Gateway.AllowedOrigins = append(cfg.Gateway.AllowedOrigins, origin)
	}
	if port := os.Getenv("PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && parsed > 0 {
			cfg.Gateway.Port = parsed
		}
	}
	if token := os.Getenv("BRIEFCLAW_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if dbPath := os.Getenv("BRIEFCLAW_CHECKPOINT_DB"); dbPath != "" {
		cfg.Checkpoint.DBPath = dbPath
	}
	if level := os.Getenv("BRIEFCLAW_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
