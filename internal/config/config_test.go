package config

import (
	"os"
	"testing"
)

const sampleConfig = `
llm:
  provider: openai
  model: gpt-4o
  openai_api_base: https://api.example.com/v1
  openai_api_key: dummy
  temperature: 0.2
agent:
  max_history: 4
server:
  host: 127.0.0.1
  port: "8080"
mcp_servers:
  - name: mock
    type: stdio
    command: ./mock
    args: ["--flag"]
    env:
      FOO: bar
`

// TestLoad_File verifies that Load unmarshals a full config file.
func TestLoad_File(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(sampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("expected provider openai, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Fatalf("unexpected temperature: %v", cfg.LLM.Temperature)
	}
	if cfg.Agent.MaxHistory != 4 {
		t.Fatalf("unexpected max_history: %d", cfg.Agent.MaxHistory)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Server.Port)
	}
	if len(cfg.MCPServers) != 1 {
		t.Fatalf("expected 1 MCP server, got %d", len(cfg.MCPServers))
	}
	s := cfg.MCPServers[0]
	if s.Type != ClientTypeStdio {
		t.Fatalf("expected type stdio, got %s", s.Type)
	}
	if s.Command != "./mock" {
		t.Fatalf("unexpected command: %s", s.Command)
	}
	if len(s.Args) != 1 || s.Args[0] != "--flag" {
		t.Fatalf("unexpected args: %v", s.Args)
	}
	if v := s.Env["foo"]; v != "bar" {
		t.Fatalf("env not parsed: %v", s.Env)
	}
}

// TestLoad_Defaults verifies the defaults when no file and no env are set.
func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("expected default provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "llama3" {
		t.Fatalf("expected default model llama3, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.OllamaBaseURL != "http://localhost:11434" {
		t.Fatalf("unexpected ollama base url: %s", cfg.LLM.OllamaBaseURL)
	}
	if cfg.Agent.MaxHistory != 10 {
		t.Fatalf("expected default max_history 10, got %d", cfg.Agent.MaxHistory)
	}
	if cfg.Server.Port != "5000" {
		t.Fatalf("expected default port 5000, got %s", cfg.Server.Port)
	}
}

// TestLoad_EnvOverrides verifies the environment variable bindings.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEFAULT_PROVIDER", "huggingface")
	t.Setenv("DEFAULT_MODEL", "mistralai/Mistral-7B-Instruct-v0.2")
	t.Setenv("HUGGINGFACE_API_KEY", "hf_test")
	t.Setenv("MAX_HISTORY_LENGTH", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Provider != "huggingface" {
		t.Fatalf("env provider not applied: %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "mistralai/Mistral-7B-Instruct-v0.2" {
		t.Fatalf("env model not applied: %s", cfg.LLM.Model)
	}
	if cfg.LLM.HuggingFaceAPIKey != "hf_test" {
		t.Fatalf("env api key not applied")
	}
	if cfg.Agent.MaxHistory != 3 {
		t.Fatalf("env max history not applied: %d", cfg.Agent.MaxHistory)
	}
}

// TestLoad_MissingExplicitFile verifies that a CONFIG_PATH pointing nowhere
// is an error while a missing default config.yaml is not.
func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
