// Package cmd implements the lochat command line interface.
package cmd

import (
	"fmt"
	"os"

	"lochat/internal/chat"
	"lochat/internal/config"
	"lochat/internal/ollama"
	"lochat/internal/store"
	"lochat/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagDB      string
	flagURL     string
	flagModel   string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lochat",
	Short: "Local chat sessions backed by Ollama",
	Long:  "Chat with a local Ollama model. Conversations are persisted to a SQLite file, one ordered ledger per session.",
	RunE:  runChat,
}

// Execute is the main entry point called from main.go.
func Execute() {
	// A .env in the working directory may carry LOCHAT_* overrides.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDB, "db", "d", "", "Database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVarP(&flagURL, "url", "u", "", "Ollama endpoint URL")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "Model name")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig merges the config file, env overrides, and flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Store.Path = flagDB
	}
	if flagURL != "" {
		cfg.Ollama.URL = flagURL
	}
	if flagModel != "" {
		cfg.Ollama.Model = flagModel
	}
	return cfg, nil
}

// openStore opens the database, applying the schema. A failure here is
// fatal: commands must not proceed against a store that didn't
// initialize.
func openStore(cfg config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.StorePath(), err)
	}
	return st, nil
}

// newLogger builds the zap logger commands share. Plain CLI runs stay
// quiet unless --verbose is set.
func newLogger() (*zap.Logger, error) {
	if !flagVerbose {
		return zap.NewNop(), nil
	}
	zcfg := zap.NewDevelopmentConfig()
	return zcfg.Build()
}

// newChatService wires the store and Ollama client into the
// orchestrator.
func newChatService(cfg config.Config, st *store.Store, log *zap.Logger) *chat.Service {
	backend := ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Timeout())
	svc := chat.NewService(st, backend, log, cfg.Chat.MaxContextMessages)
	svc.SetDefaultSystemPrompt(cfg.Chat.DefaultSystemPrompt)
	return svc
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	sid, err := st.EnsureSession()
	if err != nil {
		return fmt.Errorf("ensuring default session: %w", err)
	}

	title := store.DefaultSessionTitle
	if sessions, err := st.ListSessions(); err == nil {
		for _, s := range sessions {
			if s.ID == sid {
				title = s.Title
				break
			}
		}
	}

	app := tui.New(st, newChatService(cfg, st, log), sid, title)
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}
