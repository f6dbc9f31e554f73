package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// The catalog side of the store: tournaments, teams, users and roster
// entries. The lookup methods implement roster.Catalog and return (nil, nil)
// when nothing matches.

// CreateTournament inserts a tournament and returns its id.
func (db *DB) CreateTournament(ctx context.Context, name string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, "INSERT INTO tournaments(name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("create tournament %q: %w", name, err)
	}
	return res.LastInsertId()
}

// CreateTeam inserts a team for a tournament and returns its id.
func (db *DB) CreateTeam(ctx context.Context, tournamentID int64, name string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO teams(tournament_id, name) VALUES (?, ?)", tournamentID, name)
	if err != nil {
		return 0, fmt.Errorf("create team %q: %w", name, err)
	}
	return res.LastInsertId()
}

// CreateUser inserts a user and returns its id.
func (db *DB) CreateUser(ctx context.Context, displayName, battleTag string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO users(display_name, battle_tag) VALUES (?, ?)", displayName, battleTag)
	if err != nil {
		return 0, fmt.Errorf("create user %q: %w", displayName, err)
	}
	return res.LastInsertId()
}

// CreateEncounter inserts the pairing of two teams and returns its id.
func (db *DB) CreateEncounter(ctx context.Context, tournamentID, team1ID, team2ID int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO encounters(tournament_id, team1_id, team2_id) VALUES (?, ?, ?)",
		tournamentID, team1ID, team2ID)
	if err != nil {
		return 0, fmt.Errorf("create encounter: %w", err)
	}
	return res.LastInsertId()
}

// TeamsByTournament lists all teams registered for a tournament.
func (db *DB) TeamsByTournament(ctx context.Context, tournamentID int64) ([]model.Team, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, tournament_id, name FROM teams WHERE tournament_id = ? ORDER BY id", tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.TournamentID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// PlayersByTeam lists all roster entries of a team, substitutes included.
func (db *DB) PlayersByTeam(ctx context.Context, teamID int64) ([]model.Player, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, team_id, user_id, role, rank, division, is_substitution, related_player_id
		FROM players WHERE team_id = ? ORDER BY id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UserByID fetches one user.
func (db *DB) UserByID(ctx context.Context, userID int64) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		"SELECT id, display_name, battle_tag FROM users WHERE id = ?", userID))
}

// UserByName matches a stored display name or a recorded alias exactly,
// ignoring case.
func (db *DB) UserByName(ctx context.Context, name string) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx, `
		SELECT id, display_name, battle_tag FROM users WHERE display_name = ? COLLATE NOCASE
		UNION
		SELECT u.id, u.display_name, u.battle_tag
		FROM users u JOIN user_aliases a ON a.user_id = u.id
		WHERE a.alias = ? COLLATE NOCASE
		LIMIT 1`, name, name))
}

// UserByBattleTag matches the tag-style identifier with or without the
// discriminator suffix, ignoring case.
func (db *DB) UserByBattleTag(ctx context.Context, tag string) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx, `
		SELECT id, display_name, battle_tag FROM users
		WHERE battle_tag = ?1 COLLATE NOCASE
		   OR (instr(battle_tag, '#') > 0
		       AND substr(battle_tag, 1, instr(battle_tag, '#') - 1) = ?1 COLLATE NOCASE)
		LIMIT 1`, tag))
}

// AddUserAlias records an additional known name for a user. Re-recording an
// existing alias is a no-op.
func (db *DB) AddUserAlias(ctx context.Context, userID int64, alias string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_aliases(user_id, alias) VALUES (?, ?)", userID, alias)
	if err != nil {
		return fmt.Errorf("add alias %q for user %d: %w", alias, userID, err)
	}
	return nil
}

// LatestRosterEntry returns the user's most recent roster entry in the
// given role, or (nil, nil).
func (db *DB) LatestRosterEntry(ctx context.Context, userID int64, role model.Role) (*model.Player, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, team_id, user_id, role, rank, division, is_substitution, related_player_id
		FROM players WHERE user_id = ? AND role = ?
		ORDER BY id DESC LIMIT 1`, userID, string(role))

	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer inserts a roster entry and fills in its id.
func (db *DB) CreatePlayer(ctx context.Context, p *model.Player) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO players(team_id, user_id, role, rank, division, is_substitution, related_player_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.TeamID, p.UserID, string(p.Role), p.Rank, p.Division,
		boolInt(p.IsSubstitution), p.RelatedPlayerID)
	if err != nil {
		return fmt.Errorf("create player for user %d: %w", p.UserID, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (model.Player, error) {
	var p model.Player
	var isSub int
	var related sql.NullInt64
	err := row.Scan(&p.ID, &p.TeamID, &p.UserID, &p.Role, &p.Rank, &p.Division, &isSub, &related)
	if err != nil {
		return model.Player{}, err
	}
	p.IsSubstitution = isSub != 0
	if related.Valid {
		p.RelatedPlayerID = &related.Int64
	}
	return p, nil
}

func (db *DB) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.DisplayName, &u.BattleTag)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
