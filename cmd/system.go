package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Manage per-session system prompts",
}

var systemSetCmd = &cobra.Command{
	Use:   "set <session-id> <prompt...>",
	Short: "Set the system prompt for a session",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSystemSet,
}

var systemShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the active system prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runSystemShow,
}

var systemClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Clear all system prompts for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSystemClear,
}

func init() {
	systemCmd.AddCommand(systemSetCmd)
	systemCmd.AddCommand(systemShowCmd)
	systemCmd.AddCommand(systemClearCmd)
	rootCmd.AddCommand(systemCmd)
}

func parseSessionArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %q", arg)
	}
	return id, nil
}

func runSystemSet(_ *cobra.Command, args []string) error {
	id, err := parseSessionArg(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.SetSystemPrompt(id, strings.Join(args[1:], " ")); err != nil {
		return err
	}

	fmt.Printf("System prompt set for session %d\n", id)
	return nil
}

func runSystemShow(_ *cobra.Command, args []string) error {
	id, err := parseSessionArg(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	prompt, ok, err := st.LatestSystemPrompt(id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No system prompt set.")
		return nil
	}

	fmt.Println(prompt)
	return nil
}

func runSystemClear(_ *cobra.Command, args []string) error {
	id, err := parseSessionArg(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.ClearSystemPrompts(id); err != nil {
		return err
	}

	fmt.Printf("Cleared system prompts for session %d\n", id)
	return nil
}
