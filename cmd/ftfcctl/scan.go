package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/app"
	"github.com/ftfc/crm/internal/usecase/notes"
	"github.com/ftfc/crm/pkg/config"
)

var scanJSON bool

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan connected members' Drives for new Gemini meeting notes",
		Long: `Run one meeting-notes scan across every team member with a connected
Google account. New notes are stored as transcripts on the matching client,
investor or partner.

The command exits non-zero when the scan cannot start, for example when
another scan holds the run lock.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	cmd.Flags().BoolVar(&scanJSON, "json", false, "Output the scan result as JSON")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	application, err := app.New(cmd.Context(), cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Scanner.Run(cmd.Context(), notes.TriggerCLI)
	if err != nil {
		logger.Error("Notes scan failed", zap.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	if scanJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Processed %d new meeting notes\n", result.ProcessedCount)
	fmt.Fprintf(out, "  run:            %s\n", result.RunID)
	fmt.Fprintf(out, "  members:        %d (%d failed)\n", result.MembersScanned, result.MembersFailed)
	fmt.Fprintf(out, "  skipped:        %d\n", result.Skipped)
	fmt.Fprintf(out, "  failed:         %d\n", result.Failed)
	return nil
}
