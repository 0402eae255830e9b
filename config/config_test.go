package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("MEMODESK_DATA_DIR", dataDir)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !FileExists(path) {
		t.Error("expected default config file to be created")
	}
	if cfg.ProviderType != "ollama" {
		t.Errorf("ProviderType = %q, want ollama", cfg.ProviderType)
	}
	if cfg.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", cfg.Model(), DefaultModel)
	}
	if cfg.MaxToolRounds != DefaultMaxToolRounds {
		t.Errorf("MaxToolRounds = %d, want %d", cfg.MaxToolRounds, DefaultMaxToolRounds)
	}
	if cfg.ToolTimeout != 30*time.Second {
		t.Errorf("ToolTimeout = %s, want 30s", cfg.ToolTimeout)
	}
	if cfg.DataDir() != dataDir {
		t.Errorf("DataDir() = %q, want %q", cfg.DataDir(), dataDir)
	}
	if cfg.DatabasePath() != filepath.Join(dataDir, "memodb.sqlite") {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

func TestLoadFromFile(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `
data_directory = "`+dataDir+`"
system_prompt = "You are an HR assistant."
max_tool_rounds = 3
tool_timeout = "5s"

[provider]
type = "OpenAI"
model = "gpt-4o-mini"

[server]
command = "python"
args = ["my_demo_server.py"]

[store]
path = "`+filepath.Join(dataDir, "custom.sqlite")+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ProviderType != "openai" {
		t.Errorf("ProviderType = %q, want openai", cfg.ProviderType)
	}
	if cfg.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("APIKeyEnv = %q, want OPENAI_API_KEY default", cfg.APIKeyEnv)
	}
	if cfg.MaxToolRounds != 3 {
		t.Errorf("MaxToolRounds = %d, want 3", cfg.MaxToolRounds)
	}
	if cfg.ToolTimeout != 5*time.Second {
		t.Errorf("ToolTimeout = %s, want 5s", cfg.ToolTimeout)
	}
	if cfg.ServerCommand != "python" || len(cfg.ServerArgs) != 1 {
		t.Errorf("server = %q %v", cfg.ServerCommand, cfg.ServerArgs)
	}
	if cfg.DatabasePath() != filepath.Join(dataDir, "custom.sqlite") {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
	if cfg.SystemPrompt != "You are an HR assistant." {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `data_directory = "`+t.TempDir()+`"`)
	t.Setenv("MEMODESK_MODEL", "qwen2.5")
	t.Setenv("MEMODESK_OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("MEMODESK_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model() != "qwen2.5" {
		t.Errorf("Model() = %q", cfg.Model())
	}
	if cfg.OllamaURL() != "http://gpu-box:11434" {
		t.Errorf("OllamaURL() = %q", cfg.OllamaURL())
	}
	if cfg.APIKey() != "sk-test" {
		t.Errorf("APIKey() = %q", cfg.APIKey())
	}
}

func TestLoadProviderOverrideResetsDefaults(t *testing.T) {
	path := writeConfig(t, `data_directory = "`+t.TempDir()+`"

[provider]
type = "ollama"
model = "llama3.2"
`)
	t.Setenv("MEMODESK_PROVIDER", "openai")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProviderType != "openai" {
		t.Errorf("ProviderType = %q, want openai", cfg.ProviderType)
	}
	if cfg.Model() != "" {
		t.Errorf("Model() = %q, want the provider default", cfg.Model())
	}
	if cfg.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("APIKeyEnv = %q, want OPENAI_API_KEY", cfg.APIKeyEnv)
	}
}

func TestSwitchProvider(t *testing.T) {
	base := Config{
		ProviderType: "anthropic",
		ModelName:    "claude-haiku-4-5",
		BaseURL:      "https://proxy.internal",
		APIKeyEnv:    "CORP_ANTHROPIC_KEY",
	}

	same := base
	same.SwitchProvider("Anthropic")
	if diff := cmp.Diff(base, same); diff != "" {
		t.Errorf("switching to the current provider changed it (-want +got):\n%s", diff)
	}

	toOllama := base
	toOllama.SwitchProvider("ollama")
	want := Config{ProviderType: "ollama", ModelName: DefaultModel}
	if diff := cmp.Diff(want, toOllama); diff != "" {
		t.Errorf("switch to ollama mismatch (-want +got):\n%s", diff)
	}

	toOpenRouter := base
	toOpenRouter.SwitchProvider("openrouter")
	want = Config{ProviderType: "openrouter", APIKeyEnv: "OPENROUTER_API_KEY"}
	if diff := cmp.Diff(want, toOpenRouter); diff != "" {
		t.Errorf("switch to openrouter mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown provider", "[provider]\ntype = \"bard\"", "unknown provider type"},
		{"zero rounds", "max_tool_rounds = 0", "max_tool_rounds"},
		{"bad timeout", "tool_timeout = \"soon\"", "invalid tool_timeout"},
		{"negative timeout", "tool_timeout = \"-1s\"", "tool_timeout must be positive"},
		{"malformed toml", "provider = [", "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "data_directory = \""+t.TempDir()+"\"\n"+tt.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("MEMO_ROOT", "/srv/memo")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~/data", "/home/tester/data"},
		{"$MEMO_ROOT/db", "/srv/memo/db"},
		{"/tmp//x/", "/tmp/x"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAPIKeyEnvFor(t *testing.T) {
	tests := map[string]string{
		"openai":     "OPENAI_API_KEY",
		"openrouter": "OPENROUTER_API_KEY",
		"anthropic":  "ANTHROPIC_API_KEY",
		"ollama":     "",
		"unknown":    "",
	}
	for providerType, want := range tests {
		if got := APIKeyEnvFor(providerType); got != want {
			t.Errorf("APIKeyEnvFor(%q) = %q, want %q", providerType, got, want)
		}
	}
}
