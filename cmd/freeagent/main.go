package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/agent"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/config"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/logger"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/provider"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/server"
	"github.com/saurabhnalepatil/free-ai-model-project/pkg/tools"
)

var (
	flagProvider string
	flagModel    string
	flagAPIKey   string
	flagNoTools  bool
	flagLoad     string
	flagSession  string
	flagLogLevel string
)

func main() {
	root := &cobra.Command{
		Use:   "freeagent",
		Short: "Chat with free AI models from your terminal",
		RunE:  runChat,
	}
	root.Flags().StringVar(&flagProvider, "provider", "", "model provider (ollama, huggingface, openai)")
	root.Flags().StringVar(&flagModel, "model", "", "model name")
	root.Flags().StringVar(&flagAPIKey, "api-key", "", "API key for cloud providers")
	root.Flags().BoolVar(&flagNoTools, "no-tools", false, "disable tools")
	root.Flags().StringVar(&flagLoad, "load", "", "load conversation from file")
	root.Flags().StringVar(&flagSession, "session", "cli", "session id for persisted history")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		RunE:  runServe,
	}
	serve.Flags().StringVar(&flagProvider, "provider", "", "model provider (ollama, huggingface, openai)")
	serve.Flags().StringVar(&flagModel, "model", "", "model name")
	serve.Flags().String("host", "", "listen host")
	serve.Flags().String("port", "", "listen port")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig applies CLI flag overrides on top of the loaded configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagProvider != "" {
		cfg.LLM.Provider = flagProvider
		if flagModel == "" {
			cfg.LLM.Model = defaultModel(flagProvider)
		}
	}
	if flagModel != "" {
		cfg.LLM.Model = flagModel
	}
	if flagAPIKey != "" {
		switch cfg.LLM.Provider {
		case "huggingface":
			cfg.LLM.HuggingFaceAPIKey = flagAPIKey
		case "openai":
			cfg.LLM.OpenAIAPIKey = flagAPIKey
		}
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// defaultModel returns the per-provider default, matching what most users of
// each backend would reach for first.
func defaultModel(providerName string) string {
	switch providerName {
	case "huggingface":
		return "mistralai/Mistral-7B-Instruct-v0.2"
	case "openai":
		return "gpt-3.5-turbo"
	default:
		return "llama3"
	}
}

// buildTools assembles the tool registry: built-ins plus tools discovered
// from configured MCP servers.
func buildTools(ctx context.Context, cfg *config.Config) (*tools.Manager, []io.Closer) {
	tm := tools.NewManager()
	if flagNoTools {
		return tm, nil
	}
	tm.Register(tools.NewCalculator())
	tm.Register(tools.NewWeather())
	tm.Register(tools.NewWebSearch(""))
	closers := tools.RegisterMCP(ctx, tm, cfg.MCPServers)
	return tm, closers
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}

	tm, closers := buildTools(cmd.Context(), cfg)
	defer closeAll(closers)

	store := history.OpenStore(cfg.Agent.HistoryDBPath)
	defer store.Close()

	fmt.Printf("🤖 Free AI Agent web interface on http://%s:%s\n", cfg.Server.Host, cfg.Server.Port)
	return server.New(cfg, store, tm).ListenAndServe()
}

func runChat(cmd *cobra.Command, _ []string) error {
	logger.UseText(os.Stderr)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tm, closers := buildTools(ctx, cfg)
	defer closeAll(closers)

	store := history.OpenStore(cfg.Agent.HistoryDBPath)
	defer store.Close()

	p, err := provider.New(cfg.LLM)
	if err != nil {
		return err
	}
	a := agent.New(p, tm, store, cfg, flagSession)

	printHeader(cfg, tm.Len())
	if !a.Available(ctx) {
		fmt.Printf("⚠️  Warning: %s provider may not be properly configured.\n", cfg.LLM.Provider)
		switch cfg.LLM.Provider {
		case "ollama":
			fmt.Println("   Make sure Ollama is installed and running: https://ollama.ai")
			fmt.Printf("   Try: ollama pull %s\n", cfg.LLM.Model)
		case "huggingface":
			fmt.Println("   Make sure you have a valid Hugging Face API key.")
		}
		fmt.Println()
	}
	if flagLoad != "" {
		if err := a.LoadConversation(flagLoad); err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		fmt.Printf("✓ Loaded conversation from %s\n\n", flagLoad)
	}

	fmt.Println("Type your message and press Enter. Commands:")
	fmt.Println("  /clear  - Clear conversation history")
	fmt.Println("  /save   - Save conversation")
	fmt.Println("  /info   - Show agent info")
	fmt.Println("  /exit   - Exit the application")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye! 👋")
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if done := runCommand(a, input); done {
				return nil
			}
			continue
		}

		fmt.Print("Assistant: ")
		err := a.ChatStream(ctx, input, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		if err != nil {
			fmt.Printf("\n❌ Error: %v\n\n", err)
			continue
		}
		fmt.Print("\n\n")
	}
}

// runCommand handles slash commands; it returns true when the REPL should
// exit.
func runCommand(a *agent.Agent, input string) bool {
	switch {
	case input == "/exit":
		fmt.Println("Goodbye! 👋")
		return true
	case input == "/clear":
		a.ClearHistory()
		fmt.Println("✓ Conversation history cleared.")
		fmt.Println()
	case strings.HasPrefix(input, "/save"):
		filename := fmt.Sprintf("conversation_%s.json", time.Now().Format("20060102_150405"))
		path := filepath.Join("conversations", filename)
		if err := a.SaveConversation(path); err != nil {
			fmt.Printf("❌ Error: %v\n\n", err)
			return false
		}
		fmt.Printf("✓ Conversation saved to %s\n\n", path)
	case input == "/info":
		info := a.Info()
		names, _ := info["tools"].([]string)
		toolList := "None"
		if len(names) > 0 {
			toolList = strings.Join(names, ", ")
		}
		fmt.Println("\n📊 Agent Information:")
		fmt.Printf("   Provider: %v\n", info["provider"])
		fmt.Printf("   Model: %v\n", info["model"])
		fmt.Printf("   Tools: %s\n", toolList)
		fmt.Printf("   Messages: %v\n\n", info["conversation_length"])
	default:
		fmt.Printf("Unknown command: %s\n\n", input)
	}
	return false
}

func printHeader(cfg *config.Config, toolCount int) {
	fmt.Println("🤖 Free AI Agent")
	fmt.Printf("   Provider: %s  Model: %s  Tools: %d enabled\n\n", cfg.LLM.Provider, cfg.LLM.Model, toolCount)
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.L.Warn("close error", "error", err)
		}
	}
}
