package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/pawnshop/internal/terminal"
)

var noColor bool

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run the shop in this terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so they stay out of the conversation.
		setupLogging(os.Stderr, cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ui := terminal.New(os.Stdout, !noColor && terminal.IsTerminal(os.Stdout))
		a, err := newApp(ctx, cfg, ui)
		if err != nil {
			return err
		}
		defer a.Close()

		repl := &terminal.REPL{Ctl: a.ctl, UI: ui, Store: a.store, SaveKey: cfg.Game.SaveKey}
		return repl.Run(ctx, os.Stdin)
	},
}

func init() {
	playCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable styled output")
}
