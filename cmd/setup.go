package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"lochat/internal/config"
	"lochat/internal/ollama"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to lochat!")
	fmt.Println()

	// 1. Ollama endpoint
	fmt.Println("  1. Ollama endpoint URL")
	fmt.Printf("     Current: %s\n", cfg.Ollama.URL)
	fmt.Print("     > ")
	url, _ := reader.ReadString('\n')
	url = strings.TrimSpace(url)
	if url != "" {
		cfg.Ollama.URL = url
	}
	fmt.Println()

	// 2. Model, with the endpoint's installed models listed when it is up
	fmt.Println("  2. Model")
	client := ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.Model, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	models, err := client.ListModels(ctx)
	cancel()
	if err == nil && len(models) > 0 {
		fmt.Println("     Installed models:")
		for _, m := range models {
			fmt.Printf("       - %s\n", m)
		}
	} else if err != nil {
		fmt.Printf("     (could not reach %s to list models)\n", cfg.Ollama.URL)
	}
	fmt.Printf("     Current: %s\n", cfg.Ollama.Model)
	fmt.Print("     > ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name != "" {
		cfg.Ollama.Model = name
	}
	fmt.Println()

	// 3. Default system prompt
	fmt.Println("  3. Default system prompt (optional, blank to skip)")
	if cfg.Chat.DefaultSystemPrompt != "" {
		fmt.Printf("     Current: %s\n", cfg.Chat.DefaultSystemPrompt)
	}
	fmt.Print("     > ")
	prompt, _ := reader.ReadString('\n')
	prompt = strings.TrimSpace(prompt)
	if prompt != "" {
		cfg.Chat.DefaultSystemPrompt = prompt
	}

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `lochat setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
