package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/linanwx/floatchat/drag"
	"github.com/linanwx/floatchat/logger"
	"github.com/linanwx/floatchat/tui"
	"github.com/linanwx/floatchat/widget"
)

const (
	notificationBuffer = 8
	fallbackWidth      = 80
	fallbackHeight     = 24
)

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Open the chat widget (default command)",
	GroupID: "chat",
	RunE:    runChat,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runChat starts the TUI on a terminal, or a line-based loop when stdin
// is piped.
func runChat(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if !term.IsTerminal(os.Stdin.Fd()) || !term.IsTerminal(os.Stdout.Fd()) {
		w, err := newWidget(cfg, widgetDeps{store: store})
		if err != nil {
			return err
		}
		return runPlain(ctx, w, os.Stdin, os.Stdout)
	}

	width, height, err := term.GetSize(os.Stdout.Fd())
	if err != nil {
		width, height = fallbackWidth, fallbackHeight
	}
	screen := tui.NewScreen(width, height)
	panel := drag.Extent{Width: cfg.Panel.Width, Height: cfg.Panel.Height}
	ctrl := drag.New(
		initialPosition(cfg.Panel, screen.Extent()),
		drag.WithPanelExtent(panel),
		drag.WithViewport(screen.Extent),
		drag.WithHooks(
			func() { logger.Debug("panel drag started") },
			func() { logger.Debug("panel drag ended") },
		),
	)
	notifier := widget.NewChanNotifier(notificationBuffer)

	w, err := newWidget(cfg, widgetDeps{store: store, drag: ctrl, notifier: notifier})
	if err != nil {
		return err
	}

	app := tui.NewApp(ctx, tui.Options{
		Widget:        w,
		Screen:        screen,
		Notifications: notifier.C(),
		PanelSize:     panel,
		Title:         cfg.Panel.Title,
	})
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	logger.Info("chat widget starting", "messages", store.Len())

	// Redirect logger output to the TUI log view.
	lw := tui.NewLogWriter(program)
	logger.Intercept(lw)
	defer func() {
		logger.Restore()
		lw.Close()
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui error: %w", err)
	}
	logger.Info("chat widget stopped")
	return nil
}

// runPlain reads one message per line and prints each reply.
func runPlain(ctx context.Context, w *widget.Widget, in io.Reader, out io.Writer) error {
	w.Open()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/exit" || text == "/quit" {
			return nil
		}
		res, err := w.Send(ctx, text)
		if err != nil {
			return err
		}
		msg, _ := w.Store().Get(res.LoadingID)
		fmt.Fprintln(out, msg.Content)
	}
	return scanner.Err()
}
