package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scrimsight/go-scrim-metrics/internal/report"
)

var processTournament int64

var processCmd = &cobra.Command{
	Use:   "process <log file>",
	Short: "Process one match log and store its statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().Int64Var(&processTournament, "tournament", 1, "tournament id the log belongs to")
}

func runProcess(cmd *cobra.Command, args []string) error {
	logPath := args[0]

	raw, err := os.ReadFile(logPath)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}

	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	res, err := eng.ProcessLog(ctx, processTournament, filepath.Base(logPath), raw)
	if err != nil {
		return fmt.Errorf("process log: %w", err)
	}

	listing, err := db.MatchByPrefix(ctx, res.Match.ID)
	if err != nil || listing == nil {
		return fmt.Errorf("reload match %s: %w", res.Match.ID, err)
	}
	summaries, err := db.PlayerSummaries(ctx, res.Match.ID)
	if err != nil {
		return fmt.Errorf("load player summaries: %w", err)
	}

	report.PrintMatchSummary(os.Stdout, *listing)
	report.PrintPlayerTable(os.Stdout, summaries)
	report.PrintFightTable(os.Stdout, res.Fights)
	return nil
}
