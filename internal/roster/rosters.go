package roster

import "github.com/scrimsight/go-scrim-metrics/internal/model"

// MatchRosters holds both resolved lineups keyed by the free-text team names
// the log uses, so later pipeline stages can attribute events without
// touching the catalog again.
type MatchRosters struct {
	Team1Name string
	Team2Name string
	Team1     *Lineup
	Team2     *Lineup
}

// Side returns the lineup for a log team name, or nil for an unknown name.
func (m *MatchRosters) Side(teamName string) *Lineup {
	switch teamName {
	case m.Team1Name:
		return m.Team1
	case m.Team2Name:
		return m.Team2
	default:
		return nil
	}
}

// Resolve maps a (log team name, raw player name) pair to its roster entry.
func (m *MatchRosters) Resolve(teamName, playerName string) (*model.Player, bool) {
	side := m.Side(teamName)
	if side == nil {
		return nil, false
	}
	return side.Player(playerName)
}

// ResolveAny looks a raw player name up on either side; kill rows carry no
// team column.
func (m *MatchRosters) ResolveAny(playerName string) (*model.Player, bool) {
	if p, ok := m.Team1.Player(playerName); ok {
		return p, true
	}
	return m.Team2.Player(playerName)
}
