package config

const (
	DefaultModel         = "llama3.2"
	DefaultOllamaHost    = "http://localhost:11434"
	DefaultMaxToolRounds = 5
	DefaultToolTimeout   = "30s"
)

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		DataDirectory: "~/.local/share/memodesk",
		MaxToolRounds: DefaultMaxToolRounds,
		ToolTimeout:   DefaultToolTimeout,
		Provider: ProviderConfig{
			Type:  "ollama",
			Model: DefaultModel,
		},
		Ollama: OllamaConfig{
			Host: DefaultOllamaHost,
		},
	}
}

func GenerateUserConfigTemplate() string {
	return `# memodesk configuration
# Location: ~/.config/memodesk/config.toml
# This file uses TOML format: https://toml.io

# Directory for the employee database and debug.log
data_directory = "~/.local/share/memodesk"

# Optional system prompt placed at the start of every conversation
system_prompt = ""

# Tool-call rounds allowed per user turn before the model must answer in text
max_tool_rounds = 5

# Upper bound for a single tool call against the server
tool_timeout = "30s"

[provider]
# ollama | openai | openrouter | anthropic
type = "ollama"
model = "llama3.2"
# base_url = ""
# Environment variable holding the API key (cloud providers only)
# api_key_env = "OPENAI_API_KEY"

[ollama]
host = "http://localhost:11434"

[server]
# Command that speaks MCP on stdio. Empty means "run this binary with 'serve'".
# command = ""
# args = []

[store]
# path = "~/.local/share/memodesk/memodb.sqlite"
`
}
