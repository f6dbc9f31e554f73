package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

const timeLayout = time.RFC3339

// EncounterByTeams finds the encounter pairing the two teams, in either
// order. Returns (nil, nil) when the pairing is unknown.
func (db *DB) EncounterByTeams(ctx context.Context, team1ID, team2ID int64) (*model.Encounter, error) {
	var e model.Encounter
	var hasLogs int
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, tournament_id, team1_id, team2_id, has_logs FROM encounters
		WHERE (team1_id = ?1 AND team2_id = ?2) OR (team1_id = ?2 AND team2_id = ?1)
		LIMIT 1`, team1ID, team2ID).
		Scan(&e.ID, &e.TournamentID, &e.Team1ID, &e.Team2ID, &hasLogs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.HasLogs = hasLogs != 0
	return &e, nil
}

// MatchByEncounter returns the match already stored for an encounter, if any.
func (db *DB) MatchByEncounter(ctx context.Context, encounterID int64) (*model.Match, error) {
	var m model.Match
	var playedAt string
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, encounter_id, map_name, gamemode, team1_id, team2_id, score1, score2, played_at, log_name
		FROM matches WHERE encounter_id = ?`, encounterID).
		Scan(&m.ID, &m.EncounterID, &m.MapName, &m.Gamemode, &m.Team1ID, &m.Team2ID,
			&m.Score1, &m.Score2, &playedAt, &m.LogName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if playedAt != "" {
		m.PlayedAt, _ = time.Parse(timeLayout, playedAt)
	}
	return &m, nil
}

// ReplaceMatchData persists one completed engine run in a single
// transaction: the match row is upserted (refreshing score/time/map/log
// name), every previously stored derived row for the match is deleted, the
// freshly computed set is inserted, and the owning encounter is flagged as
// having logs. Re-running the engine on the same match is therefore
// idempotent at match granularity.
func (db *DB) ReplaceMatchData(ctx context.Context, m *model.Match,
	stats []model.MatchStatistic, events []model.MatchEventRecord, kills []model.KillFeedEntry) error {

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	playedAt := ""
	if !m.PlayedAt.IsZero() {
		playedAt = m.PlayedAt.UTC().Format(timeLayout)
	}
	// On conflict the stored id survives; every derived row must key on it,
	// not on whatever id the caller proposed.
	var matchID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO matches(id, encounter_id, map_name, gamemode, team1_id, team2_id, score1, score2, played_at, log_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(encounter_id) DO UPDATE SET
			map_name = excluded.map_name,
			gamemode = excluded.gamemode,
			score1 = excluded.score1,
			score2 = excluded.score2,
			played_at = excluded.played_at,
			log_name = excluded.log_name
		RETURNING id`,
		m.ID, m.EncounterID, m.MapName, m.Gamemode, m.Team1ID, m.Team2ID,
		m.Score1, m.Score2, playedAt, m.LogName).Scan(&matchID)
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	m.ID = matchID

	for _, table := range []string{"match_statistics", "match_events", "match_killfeed"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE match_id = ?", matchID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertStatistics(ctx, tx, matchID, stats); err != nil {
		return err
	}
	if err := insertEvents(ctx, tx, matchID, events); err != nil {
		return err
	}
	if err := insertKillFeed(ctx, tx, matchID, kills); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE encounters SET has_logs = 1 WHERE id = ?", m.EncounterID); err != nil {
		return fmt.Errorf("flag encounter %d: %w", m.EncounterID, err)
	}

	return tx.Commit()
}

func insertStatistics(ctx context.Context, tx *sql.Tx, matchID string, stats []model.MatchStatistic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_statistics(match_id, round, team_id, user_id, hero, metric, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err := stmt.ExecContext(ctx,
			matchID, s.Round, s.TeamID, s.UserID, s.Hero, string(s.Metric), s.Value); err != nil {
			return fmt.Errorf("insert match_statistics for user %d: %w", s.UserID, err)
		}
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, matchID string, events []model.MatchEventRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_events(match_id, round, timestamp, kind, team_id, user_id, hero, related_user_id, related_hero)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			matchID, e.Round, e.Timestamp, string(e.Kind), e.TeamID, e.UserID,
			e.Hero, e.RelatedUserID, e.RelatedHero); err != nil {
			return fmt.Errorf("insert match_events at %.3f: %w", e.Timestamp, err)
		}
	}
	return nil
}

func insertKillFeed(ctx context.Context, tx *sql.Tx, matchID string, kills []model.KillFeedEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO match_killfeed(match_id, round, timestamp, fight_id,
			killer_team_id, killer_user_id, killer_hero,
			victim_team_id, victim_user_id, victim_hero,
			ability, damage, is_crit, is_environmental)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, k := range kills {
		if _, err := stmt.ExecContext(ctx,
			matchID, k.Round, k.Timestamp, k.FightID,
			k.KillerTeamID, k.KillerUserID, k.KillerHero,
			k.VictimTeamID, k.VictimUserID, k.VictimHero,
			k.Ability, k.Damage, boolInt(k.IsCrit), boolInt(k.IsEnvironmental)); err != nil {
			return fmt.Errorf("insert match_killfeed at %.3f: %w", k.Timestamp, err)
		}
	}
	return nil
}
