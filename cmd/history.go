package cmd

import (
	"fmt"
	"strconv"

	"lochat/internal/cli"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 0, "max messages to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
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

	msgs, err := st.ReadOrdered(id, flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Println("\n  No messages in this session.")
		return nil
	}

	fmt.Println()
	fmt.Print(cli.RenderTranscript(msgs))

	return nil
}
