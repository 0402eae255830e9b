package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type ProviderConfig struct {
	Type      string `toml:"type"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url,omitempty"`
	APIKeyEnv string `toml:"api_key_env,omitempty"`
}

type OllamaConfig struct {
	Host string `toml:"host"`
}

type ServerConfig struct {
	Command string            `toml:"command,omitempty"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`
}

type StoreConfig struct {
	Path string `toml:"path,omitempty"`
}

// UserConfig mirrors config.toml on disk.
type UserConfig struct {
	DataDirectory string         `toml:"data_directory"`
	SystemPrompt  string         `toml:"system_prompt,omitempty"`
	MaxToolRounds int            `toml:"max_tool_rounds"`
	ToolTimeout   string         `toml:"tool_timeout"`
	Provider      ProviderConfig `toml:"provider"`
	Ollama        OllamaConfig   `toml:"ollama"`
	Server        ServerConfig   `toml:"server"`
	Store         StoreConfig    `toml:"store"`
}

// Config is the resolved runtime configuration.
type Config struct {
	DataDirectory string
	SystemPrompt  string
	MaxToolRounds int
	ToolTimeout   time.Duration

	ProviderType string
	ModelName    string
	BaseURL      string
	APIKeyEnv    string
	OllamaHost   string

	ServerCommand string
	ServerArgs    []string
	ServerEnv     map[string]string

	StorePath string
}

var Debug = false
var DebugLog *log.Logger

var knownProviders = map[string]string{
	"ollama":     "",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
}

// APIKeyEnvFor returns the default API key variable for a provider type.
func APIKeyEnvFor(providerType string) string {
	return knownProviders[providerType]
}

func (c *Config) OllamaURL() string {
	return c.OllamaHost
}

func (c *Config) Model() string {
	return c.ModelName
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// DatabasePath returns the SQLite file backing the employee store.
func (c *Config) DatabasePath() string {
	if c.StorePath != "" {
		return ExpandPath(c.StorePath)
	}
	return filepath.Join(c.DataDir(), "memodb.sqlite")
}

// APIKey reads the key for the configured provider from the environment.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// SwitchProvider selects another backend. The model, base URL and key
// variable read for the previous backend fall back to the new one's
// defaults; selecting the current backend changes nothing.
func (c *Config) SwitchProvider(providerType string) {
	providerType = strings.ToLower(providerType)
	if providerType == c.ProviderType {
		return
	}
	c.ProviderType = providerType
	c.BaseURL = ""
	c.APIKeyEnv = APIKeyEnvFor(providerType)
	c.ModelName = ""
	if providerType == "ollama" {
		c.ModelName = DefaultModel
	}
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("MEMODESK_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	// Provider first so an explicit model survives the switch
	if p := os.Getenv("MEMODESK_PROVIDER"); p != "" {
		c.SwitchProvider(p)
	}
	if model := os.Getenv("MEMODESK_MODEL"); model != "" {
		c.ModelName = model
	}
	if dataDir := os.Getenv("MEMODESK_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func (c *Config) validate() error {
	defaultKeyEnv, ok := knownProviders[c.ProviderType]
	if !ok {
		return fmt.Errorf("unknown provider type: %s", c.ProviderType)
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = defaultKeyEnv
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("max_tool_rounds must be at least 1, got %d", c.MaxToolRounds)
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool_timeout must be positive, got %s", c.ToolTimeout)
	}
	return nil
}

func CheckDebug() bool {
	debug := os.Getenv("MEMODESK_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens <dataDir>/debug.log when debugging is enabled by flag or env.
func InitDebugLog(dataDir string, force bool) {
	if !force && !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: tool arguments and results end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (pid %d) ===", os.Getpid())
	DebugLog.Printf("Log path: %s", logPath)
}

// Load reads the config file at path (or the default location when empty),
// creating a commented default file on first run.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	userCfg, err := LoadUserConfig(path)
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(userCfg.ToolTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid tool_timeout %q: %w", userCfg.ToolTimeout, err)
	}

	cfg := &Config{
		DataDirectory: userCfg.DataDirectory,
		SystemPrompt:  userCfg.SystemPrompt,
		MaxToolRounds: userCfg.MaxToolRounds,
		ToolTimeout:   timeout,
		ProviderType:  strings.ToLower(userCfg.Provider.Type),
		ModelName:     userCfg.Provider.Model,
		BaseURL:       userCfg.Provider.BaseURL,
		APIKeyEnv:     userCfg.Provider.APIKeyEnv,
		OllamaHost:    userCfg.Ollama.Host,
		ServerCommand: userCfg.Server.Command,
		ServerArgs:    userCfg.Server.Args,
		ServerEnv:     userCfg.Server.Env,
		StorePath:     userCfg.Store.Path,
	}
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}
