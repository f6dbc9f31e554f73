// Package report renders console tables for processed matches.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
	"github.com/scrimsight/go-scrim-metrics/internal/storage"
)

// PrintMatchSummary prints a one-line summary header for the match.
func PrintMatchSummary(w io.Writer, l storage.MatchListing) {
	played := "unknown"
	if !l.PlayedAt.IsZero() {
		played = l.PlayedAt.Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "\nMap: %s  |  Mode: %s  |  Played: %s  |  Score: %s %d - %d %s  |  ID: %s\n\n",
		l.MapName, l.Gamemode, played, l.Team1Name, l.Score1, l.Score2, l.Team2Name, l.ID[:8])
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintPlayerTable prints one pivoted whole-match line per player.
func PrintPlayerTable(w io.Writer, summaries []storage.PlayerMatchSummary) {
	table := newTable(w)
	table.Header("NAME", "TEAM", "E", "FB", "D", "A", "K/D", "KDA",
		"HERO_DMG", "HEALING", "DMG_TAKEN", "BLOCKED", "DELTA")

	for _, s := range summaries {
		m := s.Metrics
		table.Append(
			s.Name,
			s.TeamName,
			fmtCount(m[model.MetricEliminations]),
			fmtCount(m[model.MetricFinalBlows]),
			fmtCount(m[model.MetricDeaths]),
			fmtCount(m[model.MetricAssists]),
			fmt.Sprintf("%.2f", m[model.MetricKD]),
			fmt.Sprintf("%.2f", m[model.MetricKDA]),
			fmtCount(m[model.MetricHeroDamageDealt]),
			fmtCount(m[model.MetricHealingDealt]),
			fmtCount(m[model.MetricDamageTaken]),
			fmtCount(m[model.MetricDamageBlocked]),
			fmtCount(m[model.MetricDamageDelta]),
		)
	}
	table.Render()
}

// PrintMVPTable prints the per-round performance leader, from the stored
// Performance/PerformancePoints rows.
func PrintMVPTable(w io.Writer, stats []model.MatchStatistic, nameByUser map[int64]string) {
	type mvp struct {
		round  int
		userID int64
		points float64
	}
	points := make(map[int]map[int64]float64)
	leaders := make(map[int]mvp)

	for _, s := range stats {
		switch s.Metric {
		case model.MetricPerformancePoints:
			if points[s.Round] == nil {
				points[s.Round] = make(map[int64]float64)
			}
			points[s.Round][s.UserID] = s.Value
		case model.MetricPerformance:
			if s.Value == 1 {
				leaders[s.Round] = mvp{round: s.Round, userID: s.UserID}
			}
		}
	}

	rounds := make([]int, 0, len(leaders))
	for r := range leaders {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)

	table := newTable(w)
	table.Header("ROUND", "MVP", "POINTS")
	for _, r := range rounds {
		m := leaders[r]
		name := nameByUser[m.userID]
		if name == "" {
			name = strconv.FormatInt(m.userID, 10)
		}
		label := strconv.Itoa(r)
		if r == model.MatchTotalsRound {
			label = "match"
		}
		table.Append(label, name, fmt.Sprintf("%.0f", points[r][m.userID]))
	}
	table.Render()
}

// PrintFightTable prints the clustered fights of the match.
func PrintFightTable(w io.Writer, fights []model.Fight) {
	table := newTable(w)
	table.Header("FIGHT", "START", "END", "KILLS")
	for _, f := range fights {
		table.Append(
			strconv.Itoa(f.ID),
			fmt.Sprintf("%.1fs", f.StartedAt),
			fmt.Sprintf("%.1fs", f.EndedAt),
			strconv.Itoa(f.Kills),
		)
	}
	table.Render()
}

func fmtCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
