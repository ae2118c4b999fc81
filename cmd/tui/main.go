package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mtgstrategist/ui/internal/client"
	"github.com/mtgstrategist/ui/internal/config"
	"github.com/mtgstrategist/ui/internal/conversation"
	"github.com/mtgstrategist/ui/internal/logging"
	"github.com/mtgstrategist/ui/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		serverURL string
		logFile   string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "strategist-tui",
		Short: "Chat with the MTG Strategist from the terminal",
		Long: `strategist-tui talks to a running MTG Strategist UI server through its
/api/chat and /api/reset routes, keeping the transcript and session id in
memory for the lifetime of the program.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := logging.New(logConfig(logFile))
			if err != nil {
				return err
			}
			defer closer.Close()

			proxy := client.New(serverURL, &http.Client{Timeout: timeout})
			conv := conversation.New(proxy, logger)

			p := tea.NewProgram(tui.New(cmd.Context(), conv), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run chat: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "url", "http://localhost:8080", "base URL of the MTG Strategist UI server")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout (0 waits indefinitely)")

	return cmd
}

// logConfig never enables stdout: the screen belongs to Bubble Tea, so
// records go to logFile or nowhere.
func logConfig(logFile string) config.LogConfig {
	return config.LogConfig{Level: slog.LevelInfo, File: logFile}
}
