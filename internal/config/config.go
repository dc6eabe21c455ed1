package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LLM        LLMConfig         `mapstructure:"llm"`
	Agent      AgentConfig       `mapstructure:"agent"`
	Server     ServerConfig      `mapstructure:"server"`
	MCPServers []MCPServerConfig `mapstructure:"mcp_servers"`
	LogLevel   string            `mapstructure:"log_level"`
}

// LLMConfig holds the model provider configuration.
type LLMConfig struct {
	Provider          string  `mapstructure:"provider"`
	Model             string  `mapstructure:"model"`
	OllamaBaseURL     string  `mapstructure:"ollama_base_url"`
	HuggingFaceAPIKey string  `mapstructure:"huggingface_api_key"`
	OpenAIAPIBase     string  `mapstructure:"openai_api_base"`
	OpenAIAPIKey      string  `mapstructure:"openai_api_key"`
	Temperature       float32 `mapstructure:"temperature"`
	SystemPrompt      string  `mapstructure:"system_prompt"`
}

// AgentConfig holds conversation handling settings.
type AgentConfig struct {
	MaxHistory    int    `mapstructure:"max_history"`
	MaxTurns      int    `mapstructure:"max_turns"`
	HistoryDBPath string `mapstructure:"history_db_path"`
}

// ServerConfig holds the web server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// MCP client transport types.
const (
	ClientTypeSSE            = "sse"
	ClientTypeStreamableHTTP = "streamable_http"
	ClientTypeStdio          = "stdio"
)

// MCPServerConfig describes one MCP server whose tools are offered to the model.
type MCPServerConfig struct {
	Name    string            `mapstructure:"name"`
	Type    string            `mapstructure:"type"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Command string            `mapstructure:"command"`
	Args    []string          `mapstructure:"args"`
	Env     map[string]string `mapstructure:"env"`
}

// Load reads configuration from .env, an optional config.yaml and the
// environment. A missing config file is not an error; the app runs fine on
// environment variables and defaults alone.
func Load() (*Config, error) {
	// Best effort; .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3")
	v.SetDefault("llm.ollama_base_url", "http://localhost:11434")
	v.SetDefault("llm.huggingface_api_key", "")
	v.SetDefault("llm.openai_api_base", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("agent.max_history", 10)
	v.SetDefault("agent.max_turns", 5)
	v.SetDefault("agent.history_db_path", "history.db")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("log_level", "info")

	bindings := map[string]string{
		"llm.provider":            "DEFAULT_PROVIDER",
		"llm.model":               "DEFAULT_MODEL",
		"llm.ollama_base_url":     "OLLAMA_BASE_URL",
		"llm.huggingface_api_key": "HUGGINGFACE_API_KEY",
		"llm.openai_api_base":     "OPENAI_API_BASE",
		"llm.openai_api_key":      "OPENAI_API_KEY",
		"llm.temperature":         "TEMPERATURE",
		"agent.max_history":       "MAX_HISTORY_LENGTH",
		"agent.history_db_path":   "HISTORY_DB_PATH",
		"log_level":               "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
