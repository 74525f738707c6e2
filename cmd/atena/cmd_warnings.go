package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GlarosConsulting/atena-client/config"
	"github.com/GlarosConsulting/atena-client/models"
)

var warningsCmd = &cobra.Command{
	Use:   "warnings <response.json>",
	Short: "Evaluate warnings over a saved agreements response",
	Long: `Reads a {statistics, agreements} document as returned by the Atena API
and prints the warning report as JSON. Custom rules come from the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runWarnings,
}

func runWarnings(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.LoadFile(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	setupLogger(cfg)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var resp models.AgreementsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("parse response %s: %w", args[0], err)
	}

	evaluator, err := newEvaluator(cfg)
	if err != nil {
		return err
	}
	report := evaluator.Evaluate(resp.Statistics, resp.Agreements)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
