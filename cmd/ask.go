package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagAskSession int64
	flagAskSystem  string
)

var askCmd = &cobra.Command{
	Use:   "ask [text...]",
	Short: "Send one message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Int64VarP(&flagAskSession, "session", "s", 0, "Session id (default: most recent)")
	askCmd.Flags().StringVar(&flagAskSystem, "system", "", "System prompt override for this turn")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	sid := flagAskSession
	if sid == 0 {
		sid, err = st.EnsureSession()
		if err != nil {
			return fmt.Errorf("ensuring default session: %w", err)
		}
	}

	svc := newChatService(cfg, st, log)
	reply, err := svc.Ask(cmd.Context(), sid, strings.Join(args, " "), flagAskSystem, "cli")
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}
