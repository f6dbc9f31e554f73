// Package engine runs the full processing pipeline for one match log:
// decode, segment, resolve rosters, aggregate, build the feed, persist.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/scrimsight/go-scrim-metrics/internal/aggregator"
	"github.com/scrimsight/go-scrim-metrics/internal/feed"
	"github.com/scrimsight/go-scrim-metrics/internal/logstore"
	"github.com/scrimsight/go-scrim-metrics/internal/model"
	"github.com/scrimsight/go-scrim-metrics/internal/parser"
	"github.com/scrimsight/go-scrim-metrics/internal/roster"
	"github.com/scrimsight/go-scrim-metrics/internal/storage"
	"github.com/scrimsight/go-scrim-metrics/internal/translate"
)

// player_stat column layout used when collecting side rosters.
const (
	statFieldTeam   = 1
	statFieldPlayer = 2
)

// Engine wires the pipeline stages to the catalog, the log store and the
// translation tables.
type Engine struct {
	db     *storage.DB
	store  logstore.Store
	tables *translate.Tables
	log    *slog.Logger
}

// New returns an engine. The log store may be nil when only ProcessLog is
// used (logs supplied directly by the caller).
func New(db *storage.DB, store logstore.Store, tables *translate.Tables, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{db: db, store: store, tables: tables, log: log}
}

// Result is everything one pipeline run computed and persisted.
type Result struct {
	Match   *model.Match
	Rosters *roster.MatchRosters
	Stats   []model.MatchStatistic
	Events  []model.MatchEventRecord
	Kills   []model.KillFeedEntry
	Fights  []model.Fight
}

// ProcessLog runs the pipeline on raw log bytes and persists the outcome.
// Reprocessing the same log replaces all previously derived rows for the
// match.
func (e *Engine) ProcessLog(ctx context.Context, tournamentID int64, filename string, raw []byte) (*Result, error) {
	events, err := parser.Decode(raw)
	if err != nil {
		return nil, err
	}

	endEvent, ok := parser.MatchEnd(events)
	if !ok {
		return nil, &parser.MatchNotFinishedError{LogName: filename}
	}
	rawMap, team1Name, team2Name, rawGamemode, ok := parser.MatchHeader(events)
	if !ok {
		return nil, &parser.DecodeError{Line: 1, Reason: "log has no match_start event"}
	}

	mapName, err := e.tables.Map(rawMap)
	if err != nil {
		return nil, err
	}
	gamemode, err := e.tables.Gamemode(rawGamemode)
	if err != nil {
		return nil, err
	}

	rounds := parser.SegmentRounds(events)

	names1, names2 := sideNames(rounds, team1Name, team2Name)
	resolver := roster.NewResolver(e.db)
	lineup1, err := resolver.ResolveSide(ctx, tournamentID, names1)
	if err != nil {
		return nil, fmt.Errorf("resolve side %q: %w", team1Name, err)
	}
	lineup2, err := resolver.ResolveSide(ctx, tournamentID, names2)
	if err != nil {
		return nil, fmt.Errorf("resolve side %q: %w", team2Name, err)
	}

	rosters := &roster.MatchRosters{
		Team1Name: team1Name, Team2Name: team2Name,
		Team1: lineup1, Team2: lineup2,
	}

	match, err := e.matchFor(ctx, tournamentID, lineup1.Team.ID, lineup2.Team.ID)
	if err != nil {
		return nil, err
	}
	match.MapName = mapName
	match.Gamemode = gamemode
	if match.Score1, err = parseScore(endEvent.Field(1)); err != nil {
		return nil, err
	}
	if match.Score2, err = parseScore(endEvent.Field(2)); err != nil {
		return nil, err
	}
	match.PlayedAt = parser.LogNameTime(filename)
	match.LogName = filename

	stats, err := aggregator.Aggregate(match.ID, rounds, rosters, e.tables)
	if err != nil {
		return nil, err
	}
	kills, records, fights, err := feed.Build(match.ID, rounds, rosters, e.tables)
	if err != nil {
		return nil, err
	}

	if err := e.db.ReplaceMatchData(ctx, match, stats, records, kills); err != nil {
		return nil, fmt.Errorf("persist match %s: %w", match.ID, err)
	}

	e.log.Info("processed match log",
		"tournament", tournamentID, "file", filename,
		"match", match.ID, "map", mapName,
		"rounds", len(rounds), "stats", len(stats),
		"kills", len(kills), "fights", len(fights))

	return &Result{
		Match: match, Rosters: rosters,
		Stats: stats, Events: records, Kills: kills, Fights: fights,
	}, nil
}

// ProcessStored fetches one log from the store and runs the pipeline on it.
func (e *Engine) ProcessStored(ctx context.Context, tournamentID int64, filename string) (*Result, error) {
	raw, err := e.store.Fetch(ctx, tournamentID, filename)
	if err != nil {
		return nil, err
	}
	return e.ProcessLog(ctx, tournamentID, filename, raw)
}

// matchFor finds or creates the match record keyed by the encounter of the
// two resolved teams. Encounters are created on first contact so logs can be
// processed without pre-registering pairings.
func (e *Engine) matchFor(ctx context.Context, tournamentID, team1ID, team2ID int64) (*model.Match, error) {
	enc, err := e.db.EncounterByTeams(ctx, team1ID, team2ID)
	if err != nil {
		return nil, fmt.Errorf("look up encounter: %w", err)
	}
	if enc == nil {
		id, err := e.db.CreateEncounter(ctx, tournamentID, team1ID, team2ID)
		if err != nil {
			return nil, fmt.Errorf("create encounter: %w", err)
		}
		enc = &model.Encounter{ID: id, TournamentID: tournamentID, Team1ID: team1ID, Team2ID: team2ID}
	}

	match, err := e.db.MatchByEncounter(ctx, enc.ID)
	if err != nil {
		return nil, fmt.Errorf("look up match: %w", err)
	}
	if match == nil {
		match = &model.Match{ID: uuid.NewString(), EncounterID: enc.ID}
	}
	match.Team1ID = enc.Team1ID
	match.Team2ID = enc.Team2ID
	return match, nil
}

// sideNames collects the deduplicated raw player names per side from the
// player_stat rows, in order of first appearance.
func sideNames(rounds []model.Round, team1Name, team2Name string) (names1, names2 []string) {
	seen1 := map[string]struct{}{}
	seen2 := map[string]struct{}{}
	for _, r := range rounds {
		for _, ev := range r.Events {
			if ev.Kind != model.EventPlayerStat {
				continue
			}
			team := ev.Field(statFieldTeam)
			player := ev.Field(statFieldPlayer)
			if player == "" {
				continue
			}
			switch team {
			case team1Name:
				if _, ok := seen1[player]; !ok {
					seen1[player] = struct{}{}
					names1 = append(names1, player)
				}
			case team2Name:
				if _, ok := seen2[player]; !ok {
					seen2[player] = struct{}{}
					names2 = append(names2, player)
				}
			}
		}
	}
	return names1, names2
}

func parseScore(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &parser.DecodeError{Reason: fmt.Sprintf("bad match_end score %q", s)}
	}
	return n, nil
}
