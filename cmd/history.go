package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/linanwx/floatchat/chatlog"
)

const historyTimeLayout = "2006-01-02 15:04"

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "Print the stored conversation",
	GroupID: "chat",
	RunE:    runHistory,
}

var (
	historyLimit int
	historyJSON  bool
)

var clearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete the stored conversation",
	GroupID: "chat",
	RunE:    runClear,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N messages")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print the log in its stored JSON form")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(clearCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	store, closer, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	messages := store.Messages()
	if historyLimit > 0 && len(messages) > historyLimit {
		messages = messages[len(messages)-historyLimit:]
	}
	return printHistory(cmd.OutOrStdout(), messages, historyJSON)
}

func printHistory(out io.Writer, messages []chatlog.Message, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(messages)
	}
	if len(messages) == 0 {
		fmt.Fprintln(out, "No messages.")
		return nil
	}
	for _, m := range messages {
		name := "bot"
		if m.Sender == chatlog.SenderUser {
			name = "you"
		}
		text := m.Content
		switch {
		case m.IsLoading:
			text = "(waiting for reply)"
		case m.FileName != "" && m.Type != "" && m.Type != chatlog.TypeText:
			text = fmt.Sprintf("[%s] %s", m.Type, m.FileName)
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Local().Format(historyTimeLayout), name, text)
	}
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	store, closer, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	n := store.Len()
	store.Clear()
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d messages.\n", n)
	return nil
}
