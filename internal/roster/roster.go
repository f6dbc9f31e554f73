// Package roster resolves the free-text team and player names appearing in a
// match log against the tournament catalog, repairing roster mismatches
// (battle-tag renames and substitutions) along the way.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// Catalog is the read/write surface of the tournament/team/player catalog the
// resolver consults. Lookup methods return (nil, nil) when nothing matches.
type Catalog interface {
	TeamsByTournament(ctx context.Context, tournamentID int64) ([]model.Team, error)
	PlayersByTeam(ctx context.Context, teamID int64) ([]model.Player, error)
	UserByID(ctx context.Context, userID int64) (*model.User, error)

	// UserByName matches a stored display name or recorded alias exactly.
	UserByName(ctx context.Context, name string) (*model.User, error)
	// UserByBattleTag matches the tag-style identifier, with or without the
	// discriminator suffix, case-insensitively.
	UserByBattleTag(ctx context.Context, tag string) (*model.User, error)

	AddUserAlias(ctx context.Context, userID int64, alias string) error
	// LatestRosterEntry returns the user's most recent roster entry in the
	// given role across all tournaments, or (nil, nil).
	LatestRosterEntry(ctx context.Context, userID int64, role model.Role) (*model.Player, error)
	CreatePlayer(ctx context.Context, p *model.Player) error
}

// TeamNotFoundError reports that no catalog team's roster overlaps the
// resolved identities closely enough.
type TeamNotFoundError struct {
	TournamentID int64
	RawNames     []string
}

func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("no team in tournament %d matches roster [%s]",
		e.TournamentID, strings.Join(e.RawNames, ", "))
}

// RosterCollisionError reports a player-count mismatch the repair rules
// cannot explain.
type RosterCollisionError struct {
	TeamName  string
	RawNames  []string
	Resolved  int
	RosterLen int
}

func (e *RosterCollisionError) Error() string {
	return fmt.Sprintf("unresolvable roster for team %q: %d of %d raw names resolved against a roster of %d [%s]",
		e.TeamName, e.Resolved, len(e.RawNames), e.RosterLen, strings.Join(e.RawNames, ", "))
}

// Candidate is one free-text display name seen in the log for a side, with
// the user it resolved to (nil when no strategy matched).
type Candidate struct {
	RawName string
	User    *model.User
}

// Lineup is the resolved (team, displayName → roster entry) pair for one side.
type Lineup struct {
	Team    *model.Team
	Players map[string]*model.Player // keyed by raw display name
	Users   map[string]*model.User
}

// Player looks up the roster entry for a raw display name.
func (l *Lineup) Player(name string) (*model.Player, bool) {
	p, ok := l.Players[name]
	return p, ok
}

// User looks up the resolved user for a raw display name.
func (l *Lineup) User(name string) (*model.User, bool) {
	u, ok := l.Users[name]
	return u, ok
}

// Resolver resolves one side at a time against the catalog.
type Resolver struct {
	cat        Catalog
	strategies []Strategy
}

// NewResolver returns a resolver using the default strategy cascade.
func NewResolver(cat Catalog) *Resolver {
	return &Resolver{cat: cat, strategies: DefaultStrategies()}
}

// ResolveSide maps the deduplicated raw player names of one side to a catalog
// team and a per-name roster map, applying roster repair as needed.
func (r *Resolver) ResolveSide(ctx context.Context, tournamentID int64, rawNames []string) (*Lineup, error) {
	candidates := make([]Candidate, 0, len(rawNames))
	for _, name := range rawNames {
		u, err := r.resolveName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve name %q: %w", name, err)
		}
		candidates = append(candidates, Candidate{RawName: name, User: u})
	}

	team, err := r.resolveTeam(ctx, tournamentID, candidates)
	if err != nil {
		return nil, err
	}

	roster, err := r.cat.PlayersByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("load roster for team %d: %w", team.ID, err)
	}

	action, err := classifyRoster(team, roster, candidates)
	if err != nil {
		return nil, err
	}
	candidates, err = action.apply(ctx, r.cat, team, candidates)
	if err != nil {
		return nil, err
	}

	// Reload: repair may have added substitute entries.
	roster, err = r.cat.PlayersByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("reload roster for team %d: %w", team.ID, err)
	}
	byUser := make(map[int64]*model.Player, len(roster))
	for i := range roster {
		byUser[roster[i].UserID] = &roster[i]
	}

	lineup := &Lineup{
		Team:    team,
		Players: make(map[string]*model.Player, len(candidates)),
		Users:   make(map[string]*model.User, len(candidates)),
	}
	for _, c := range candidates {
		if c.User == nil {
			continue
		}
		if p, ok := byUser[c.User.ID]; ok {
			lineup.Players[c.RawName] = p
			lineup.Users[c.RawName] = c.User
		}
	}
	return lineup, nil
}

// resolveName runs the strategy cascade; the first match wins.
func (r *Resolver) resolveName(ctx context.Context, name string) (*model.User, error) {
	for _, s := range r.strategies {
		u, err := s(ctx, r.cat, name)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return u, nil
		}
	}
	return nil, nil
}

// resolveTeam finds the tournament team whose roster overlaps the resolved
// candidate identities by at least len(window)−2, trying the original and
// reversed candidate orderings and shrinking sliding windows. The first
// satisfying team wins.
func (r *Resolver) resolveTeam(ctx context.Context, tournamentID int64, candidates []Candidate) (*model.Team, error) {
	teams, err := r.cat.TeamsByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list teams for tournament %d: %w", tournamentID, err)
	}

	rosterIDs := make([]map[int64]struct{}, len(teams))
	for i, t := range teams {
		players, err := r.cat.PlayersByTeam(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load roster for team %d: %w", t.ID, err)
		}
		ids := make(map[int64]struct{}, len(players))
		for _, p := range players {
			ids[p.UserID] = struct{}{}
		}
		rosterIDs[i] = ids
	}

	resolved := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		if c.User != nil {
			resolved = append(resolved, c.User.ID)
		}
	}

	reversed := make([]int64, len(resolved))
	for i, id := range resolved {
		reversed[len(resolved)-1-i] = id
	}

	for _, order := range [][]int64{resolved, reversed} {
		for size := len(order); size >= 1; size-- {
			need := size - 2
			if need < 1 {
				need = 1
			}
			for off := 0; off+size <= len(order); off++ {
				window := order[off : off+size]
				for i := range teams {
					overlap := 0
					for _, id := range window {
						if _, ok := rosterIDs[i][id]; ok {
							overlap++
						}
					}
					if overlap >= need {
						return &teams[i], nil
					}
				}
			}
		}
	}

	rawNames := make([]string, len(candidates))
	for i, c := range candidates {
		rawNames[i] = c.RawName
	}
	return nil, &TeamNotFoundError{TournamentID: tournamentID, RawNames: rawNames}
}
