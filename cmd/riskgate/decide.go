package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/riskgate/internal/candidate"
	"github.com/sawpanic/riskgate/internal/config"
	"github.com/sawpanic/riskgate/internal/engine"
	"github.com/sawpanic/riskgate/internal/gates"
)

func newDecideCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Run one candidate through the decision pipeline and print the verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(cmd, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON candidate payload (default: read stdin)")
	return cmd
}

func runDecide(cmd *cobra.Command, file string) error {
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

	var input io.Reader = os.Stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open %s: %w", file, err)
		}
		defer f.Close()
		input = f
	}

	var payload candidate.Raw
	if err := json.NewDecoder(input).Decode(&payload); err != nil {
		return fmt.Errorf("decode candidate payload: %w", err)
	}

	// Every decide call is surrounded by the C9 admission envelope (concurrency
	// ceiling, latency recording, completed/error counters), per spec.md
	// §4.9/§5. This command is the only caller of Decide; the HTTP surface
	// serves health and metrics only.
	var out engine.DecisionOutput
	admitErr := app.envelope.Admit(func() error {
		var decideErr error
		out, decideErr = app.eng.Decide(context.Background(), payload)
		return decideErr
	})
	if admitErr != nil {
		var verr *candidate.ValidationError
		if errors.As(admitErr, &verr) {
			return printValidationError(verr)
		}
		return admitErr
	}

	app.metrics.RecordDecision(string(out.Decision), gateNames(out.Gates.Failed))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func gateNames(failed []gates.Name) []string {
	names := make([]string, len(failed))
	for i, n := range failed {
		names[i] = string(n)
	}
	return names
}

// printValidationError prints the boundary error shape for malformed input
// (spec.md §7: `{error, type: VALIDATION_ERROR, message, engine_version}`).
func printValidationError(verr *candidate.ValidationError) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]string{
		"error":          verr.Error(),
		"type":           "VALIDATION_ERROR",
		"message":        verr.Message,
		"engine_version": engine.EngineVersion,
	})
}
