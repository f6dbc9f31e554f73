package storage

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// MatchListing is a match row joined with the catalog names of both teams.
type MatchListing struct {
	model.Match
	Team1Name string
	Team2Name string
}

// ListMatches returns all stored matches ordered by played_at desc.
func (db *DB) ListMatches(ctx context.Context) ([]MatchListing, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.id, m.encounter_id, m.map_name, m.gamemode,
		       m.team1_id, m.team2_id, t1.name, t2.name,
		       m.score1, m.score2, m.played_at, m.log_name
		FROM matches m
		JOIN teams t1 ON t1.id = m.team1_id
		JOIN teams t2 ON t2.id = m.team2_id
		ORDER BY m.played_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchListing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// MatchByPrefix finds the first match whose id starts with the given prefix.
// Returns (nil, nil) when nothing matches.
func (db *DB) MatchByPrefix(ctx context.Context, prefix string) (*MatchListing, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT m.id, m.encounter_id, m.map_name, m.gamemode,
		       m.team1_id, m.team2_id, t1.name, t2.name,
		       m.score1, m.score2, m.played_at, m.log_name
		FROM matches m
		JOIN teams t1 ON t1.id = m.team1_id
		JOIN teams t2 ON t2.id = m.team2_id
		WHERE m.id LIKE ? LIMIT 1`, prefix+"%")
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func scanListing(row rowScanner) (*MatchListing, error) {
	var l MatchListing
	var playedAt string
	err := row.Scan(&l.ID, &l.EncounterID, &l.MapName, &l.Gamemode,
		&l.Team1ID, &l.Team2ID, &l.Team1Name, &l.Team2Name,
		&l.Score1, &l.Score2, &playedAt, &l.LogName)
	if err != nil {
		return nil, err
	}
	if playedAt != "" {
		l.PlayedAt, _ = time.Parse(timeLayout, playedAt)
	}
	return &l, nil
}

// MatchStats returns every statistic row for a match in deterministic order.
func (db *DB) MatchStats(ctx context.Context, matchID string) ([]model.MatchStatistic, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT round, team_id, user_id, hero, metric, value
		FROM match_statistics WHERE match_id = ?
		ORDER BY round, user_id, hero, metric`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchStatistic
	for rows.Next() {
		s := model.MatchStatistic{MatchID: matchID}
		if err := rows.Scan(&s.Round, &s.TeamID, &s.UserID, &s.Hero, &s.Metric, &s.Value); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MatchEvents returns the stored timeline for a match ordered by timestamp.
func (db *DB) MatchEvents(ctx context.Context, matchID string) ([]model.MatchEventRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT round, timestamp, kind, team_id, user_id, hero, related_user_id, related_hero
		FROM match_events WHERE match_id = ?
		ORDER BY timestamp, rowid`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchEventRecord
	for rows.Next() {
		e := model.MatchEventRecord{MatchID: matchID}
		var relatedUser sql.NullInt64
		var relatedHero sql.NullString
		if err := rows.Scan(&e.Round, &e.Timestamp, &e.Kind, &e.TeamID, &e.UserID,
			&e.Hero, &relatedUser, &relatedHero); err != nil {
			return nil, err
		}
		if relatedUser.Valid {
			id := relatedUser.Int64
			e.RelatedUserID = &id
		}
		e.RelatedHero = relatedHero.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// KillFeed returns the stored kill feed for a match ordered by fight, then time.
func (db *DB) KillFeed(ctx context.Context, matchID string) ([]model.KillFeedEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT round, timestamp, fight_id,
		       killer_team_id, killer_user_id, killer_hero,
		       victim_team_id, victim_user_id, victim_hero,
		       ability, damage, is_crit, is_environmental
		FROM match_killfeed WHERE match_id = ?
		ORDER BY fight_id, timestamp`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.KillFeedEntry
	for rows.Next() {
		k := model.KillFeedEntry{MatchID: matchID}
		var crit, env int
		if err := rows.Scan(&k.Round, &k.Timestamp, &k.FightID,
			&k.KillerTeamID, &k.KillerUserID, &k.KillerHero,
			&k.VictimTeamID, &k.VictimUserID, &k.VictimHero,
			&k.Ability, &k.Damage, &crit, &env); err != nil {
			return nil, err
		}
		k.IsCrit = crit != 0
		k.IsEnvironmental = env != 0
		out = append(out, k)
	}
	return out, rows.Err()
}

// PlayerMatchSummary pivots a player's whole-match, cross-hero rows into one
// line for reports and API responses.
type PlayerMatchSummary struct {
	UserID   int64
	Name     string
	TeamID   int64
	TeamName string
	Metrics  map[model.Metric]float64
}

// PlayerSummaries returns one pivoted line per player for a match, ordered
// by team then descending eliminations.
func (db *DB) PlayerSummaries(ctx context.Context, matchID string) ([]PlayerMatchSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.user_id, u.display_name, s.team_id, t.name, s.metric, s.value
		FROM match_statistics s
		JOIN users u ON u.id = s.user_id
		JOIN teams t ON t.id = s.team_id
		WHERE s.match_id = ? AND s.round = 0 AND s.hero = ''`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byUser := make(map[int64]*PlayerMatchSummary)
	for rows.Next() {
		var userID, teamID int64
		var name, teamName string
		var metric model.Metric
		var value float64
		if err := rows.Scan(&userID, &name, &teamID, &teamName, &metric, &value); err != nil {
			return nil, err
		}
		s, ok := byUser[userID]
		if !ok {
			s = &PlayerMatchSummary{
				UserID: userID, Name: name, TeamID: teamID, TeamName: teamName,
				Metrics: make(map[model.Metric]float64),
			}
			byUser[userID] = s
		}
		s.Metrics[metric] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]PlayerMatchSummary, 0, len(byUser))
	for _, s := range byUser {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TeamID != out[j].TeamID {
			return out[i].TeamID < out[j].TeamID
		}
		ei := out[i].Metrics[model.MetricEliminations]
		ej := out[j].Metrics[model.MetricEliminations]
		if ei != ej {
			return ei > ej
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
