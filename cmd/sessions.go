package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"lochat/internal/cli"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions",
	RunE:  runSessionsList,
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a session",
	RunE:  runSessionsNew,
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a session",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSessionsRename,
}

func init() {
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sessions, err := st.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions yet. Run `lochat` to start one.")
		return nil
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			cli.Truncate(s.Title, 40),
			strconv.FormatInt(s.ID, 10),
			cli.FormatTime(s.CreatedAt),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("Sessions"))
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Title", "ID", "Created"},
		Rows:    rows,
	}))

	return nil
}

func runSessionsNew(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	id, err := st.CreateSession(strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Printf("Created session %d\n", id)
	return nil
}

func runSessionsRename(_ *cobra.Command, args []string) error {
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

	title := strings.Join(args[1:], " ")
	if err := st.RenameSession(id, title); err != nil {
		return err
	}

	fmt.Printf("Renamed session %d to %q\n", id, title)
	return nil
}
