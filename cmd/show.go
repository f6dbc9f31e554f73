package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scrimsight/go-scrim-metrics/internal/report"
	"github.com/scrimsight/go-scrim-metrics/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <match id prefix>",
	Short: "Show stored statistics for a match",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	match, err := db.MatchByPrefix(ctx, args[0])
	if err != nil {
		return err
	}
	if match == nil {
		return fmt.Errorf("match not found: %s", args[0])
	}

	summaries, err := db.PlayerSummaries(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("load player summaries: %w", err)
	}
	stats, err := db.MatchStats(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	nameByUser := make(map[int64]string, len(summaries))
	for _, s := range summaries {
		nameByUser[s.UserID] = s.Name
	}

	report.PrintMatchSummary(os.Stdout, *match)
	report.PrintPlayerTable(os.Stdout, summaries)
	report.PrintMVPTable(os.Stdout, stats, nameByUser)
	return nil
}
