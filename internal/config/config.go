package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Completion  CompletionConfig          `json:"completion"`
}

type BasicConfig struct {
	ServerAddress  string   `json:"server_address"`
	LogMode        string   `json:"log_mode"`
	TokenTTLHours  int      `json:"token_ttl_hours"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// CompletionConfig describes the upstream chat-completion endpoint. The API key
// itself is never stored here; APIKeyEnv names the environment variable read at
// call time.
type CompletionConfig struct {
	Driver         string `json:"driver"`
	Provider       string `json:"provider"`
	BaseURL        string `json:"base_url"`
	DefaultModel   string `json:"default_model"`
	APIKeyEnv      string `json:"api_key_env"`
	ModelEnv       string `json:"model_env"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

const (
	DriverHTTP = "http"
	DriverEino = "eino"

	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel     = "mixtral-8x7b-32768"
	DefaultAPIKeyEnv = "GROQ_API_KEY"
	DefaultModelEnv  = "GROQ_MODEL"
)

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if sqliteCfg, ok := cfg.Databases["sqlite3"]; ok && sqliteCfg.DSN != "" && sqliteCfg.DSN != ":memory:" {
		if !filepath.IsAbs(sqliteCfg.DSN) && !strings.HasPrefix(sqliteCfg.DSN, "file:") {
			sqliteCfg.DSN = filepath.Join(filepath.Dir(absPath), sqliteCfg.DSN)
			cfg.Databases["sqlite3"] = sqliteCfg
		}
	}

	cfg.Completion.ApplyDefaults()
	if err := cfg.Completion.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset completion fields.
func (c *CompletionConfig) ApplyDefaults() {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverHTTP
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if strings.TrimSpace(c.BaseURL) == "" && c.Provider == "openai" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if strings.TrimSpace(c.DefaultModel) == "" {
		c.DefaultModel = DefaultModel
	}
	if strings.TrimSpace(c.APIKeyEnv) == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if strings.TrimSpace(c.ModelEnv) == "" {
		c.ModelEnv = DefaultModelEnv
	}
}

// Validate rejects combinations the gateway cannot serve.
func (c CompletionConfig) Validate() error {
	switch c.Driver {
	case DriverHTTP:
		if c.Provider != "openai" {
			return fmt.Errorf("completion driver %q only supports the openai provider", c.Driver)
		}
	case DriverEino:
		switch c.Provider {
		case "openai", "claude", "gemini":
		default:
			return fmt.Errorf("unsupported completion provider: %s", c.Provider)
		}
	default:
		return fmt.Errorf("unsupported completion driver: %s", c.Driver)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("completion timeout_seconds must be >= 0")
	}
	return nil
}
