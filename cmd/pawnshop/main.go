// Command pawnshop runs the pawn shop negotiation game, either in the
// terminal or as an HTTP API.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/talgya/pawnshop/internal/config"
)

var (
	configPath string
	debug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pawnshop",
	Short: "Haggle with generated customers over generated goods",
	Long: `pawnshop puts you behind the counter of a pawn shop. Each customer is
generated with their own item, personality and price limits, and is voiced by
a language model. Buy low, sell high, and keep an eye on their patience.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if debug {
			cfg.Logging.Level = "debug"
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pawnshop.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(playCmd, serveCmd, versionCmd)
}

// setupLogging installs the default slog logger.
func setupLogging(w io.Writer, c *config.Config) {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if c.Logging.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
