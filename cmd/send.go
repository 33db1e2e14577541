package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/floatchat/dispatch"
	"github.com/linanwx/floatchat/widget"
)

var sendCmd = &cobra.Command{
	Use:     "send",
	Short:   "Send one message and print the reply",
	GroupID: "chat",
	RunE:    runSend,
}

var (
	sendText string
	sendFile string
)

func init() {
	sendCmd.Flags().StringVarP(&sendText, "message", "m", "", "Message text")
	sendCmd.Flags().StringVar(&sendFile, "file", "", "Send a file as an attachment")
	sendCmd.MarkFlagsMutuallyExclusive("message", "file")
	sendCmd.MarkFlagsOneRequired("message", "file")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	w, err := newWidget(cfg, widgetDeps{store: store})
	if err != nil {
		return err
	}
	w.Open()

	res, err := sendOne(ctx, w, sendText, sendFile)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return fmt.Errorf("send failed: %w", res.Err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Reply)
	return nil
}

func sendOne(ctx context.Context, w *widget.Widget, text, file string) (widget.Result, error) {
	if file == "" {
		if strings.TrimSpace(text) == "" {
			return widget.Result{}, fmt.Errorf("--message is empty")
		}
		return w.Send(ctx, text)
	}
	media, err := dispatch.MediaFromFile(file)
	if err != nil {
		return widget.Result{}, err
	}
	return w.SendMedia(ctx, media)
}
