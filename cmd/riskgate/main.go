// Command riskgate runs the deterministic trading-signal admission
// controller: normalize → market-context fan-out → gate battery →
// confidence → audit, behind a concurrency admission envelope and a
// read-only health/metrics HTTP surface. Grounded on the teacher's
// cmd/cryptorun/main.go cobra root (TTY detection, zerolog setup).
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const appName = "riskgate"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Deterministic trading-signal admission controller",
		Version: "1.0.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, _ := cmd.Flags().GetString("log-level")
			if lvl == "" {
				return nil
			}
			parsed, err := zerolog.ParseLevel(lvl)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(parsed)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "path to YAML config file (optional; env vars and defaults otherwise)")
	rootCmd.PersistentFlags().String("log-level", "", "set the log level (zerolog level name, e.g. debug, info, warn)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newDecideCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("riskgate exited with error")
		os.Exit(1)
	}
}
