package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/riskgate/internal/admission"
	"github.com/sawpanic/riskgate/internal/config"
)

func newHealthCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report the admission controller's health without starting the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output health status as JSON")
	return cmd
}

func runHealth(cmd *cobra.Command, asJSON bool) error {
	configPath, _ := cmd.Flags().GetString("config")

	raw, err := config.Load(configPath)
	if err != nil {
		return err
	}
	frozen, err := config.NewFrozen(raw)
	if err != nil {
		return err
	}

	app, err := buildApplication(frozen)
	if err != nil {
		return err
	}

	view := app.Health()

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return err
		}
	} else {
		printPlainHealth(view)
	}

	if view.Status == admission.StatusUnhealthy {
		os.Exit(1)
	}
	return nil
}

// printPlainHealth renders the human-readable status line, colorized when
// stdout is a terminal and plain otherwise (e.g. piped into a log collector).
func printPlainHealth(view admission.HealthView) {
	colorize := term.IsTerminal(int(os.Stdout.Fd()))

	statusLine := fmt.Sprintf("status: %s (engine %s)", view.Status, view.EngineVersion)
	if colorize {
		statusLine = colorForStatus(view.Status) + statusLine + "\x1b[0m"
	}
	fmt.Println(statusLine)

	for _, p := range view.Providers {
		line := fmt.Sprintf("  provider %-10s %s", p.Name, p.Status)
		if colorize {
			line = colorForStatus(p.Status) + line + "\x1b[0m"
		}
		fmt.Println(line)
	}
}

func colorForStatus(status admission.Status) string {
	switch status {
	case admission.StatusHealthy:
		return "\x1b[32m"
	case admission.StatusDegraded:
		return "\x1b[33m"
	default:
		return "\x1b[31m"
	}
}
