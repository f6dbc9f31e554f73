package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scrimsight/go-scrim-metrics/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	matches, err := db.ListMatches(cmd.Context())
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'scrimmetrics process <log>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-14s  %-16s  %-24s  %7s  %s\n",
		"ID", "MAP", "DATE", "TEAMS", "SCORE", "MODE")
	fmt.Fprintf(os.Stdout, "%-10s  %-14s  %-16s  %-24s  %7s  %s\n",
		"──────────", "──────────────", "────────────────", "────────────────────────", "───────", "────")
	for _, m := range matches {
		date := ""
		if !m.PlayedAt.IsZero() {
			date = m.PlayedAt.Format("2006-01-02 15:04")
		}
		teams := fmt.Sprintf("%s vs %s", m.Team1Name, m.Team2Name)
		score := fmt.Sprintf("%d-%d", m.Score1, m.Score2)
		fmt.Fprintf(os.Stdout, "%-10s  %-14s  %-16s  %-24s  %7s  %s\n",
			m.ID[:8], m.MapName, date, teams, score, m.Gamemode)
	}
	return nil
}
