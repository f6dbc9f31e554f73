package roster

import (
	"context"
	"fmt"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// repairAction is the closed set of roster-mismatch cases: exact, rename,
// substitution. The unresolvable case is an error, not an action.
type repairAction interface {
	apply(ctx context.Context, cat Catalog, team *model.Team, candidates []Candidate) ([]Candidate, error)
}

// repairNone: the log roster and the catalog roster agree.
type repairNone struct{}

func (repairNone) apply(_ context.Context, _ Catalog, _ *model.Team, candidates []Candidate) ([]Candidate, error) {
	return candidates, nil
}

// repairRename: exactly one catalog roster player went unmatched and exactly
// one raw name resolved to nothing: the player renamed their battle tag.
// The raw name becomes a new alias of the missing player's user.
type repairRename struct {
	missing  model.Player
	rawIndex int // index of the unresolved candidate
}

func (r repairRename) apply(ctx context.Context, cat Catalog, _ *model.Team, candidates []Candidate) ([]Candidate, error) {
	rawName := candidates[r.rawIndex].RawName
	if err := cat.AddUserAlias(ctx, r.missing.UserID, rawName); err != nil {
		return nil, fmt.Errorf("record alias %q for user %d: %w", rawName, r.missing.UserID, err)
	}
	u, err := cat.UserByID(ctx, r.missing.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("roster player %d references unknown user %d", r.missing.ID, r.missing.UserID)
	}
	candidates[r.rawIndex].User = u
	return candidates, nil
}

// repairSubstitution: the log carries identities that are not on the catalog
// roster; each one stands in for a missing roster player.
type repairSubstitution struct {
	pairs []subPair
}

type subPair struct {
	standIn *model.User
	missing model.Player
}

func (r repairSubstitution) apply(ctx context.Context, cat Catalog, team *model.Team, candidates []Candidate) ([]Candidate, error) {
	for _, pair := range r.pairs {
		role := pair.missing.Role
		rank := pair.missing.Rank
		division := pair.missing.Division

		// Prefer the stand-in's own most recent roster entry in this role.
		prior, err := cat.LatestRosterEntry(ctx, pair.standIn.ID, role)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			rank = prior.Rank
			division = prior.Division
		}

		missingID := pair.missing.ID
		sub := model.Player{
			TeamID:          team.ID,
			UserID:          pair.standIn.ID,
			Role:            role,
			Rank:            rank,
			Division:        division,
			IsSubstitution:  true,
			RelatedPlayerID: &missingID,
		}
		if err := cat.CreatePlayer(ctx, &sub); err != nil {
			return nil, fmt.Errorf("create substitute for user %d on team %d: %w", pair.standIn.ID, team.ID, err)
		}
	}
	return candidates, nil
}

// classifyRoster compares the current non-substitute catalog roster against
// the resolved candidates and picks the repair case:
//
//	R     = non-substitute roster entries
//	P     = raw names that resolved to a user
//	P_raw = raw names total
//
// exact        P == R or P == P_raw, with every resolved identity on the roster
// rename       P == R−1 and P_raw == R: one roster player missing, one raw name unresolved
// substitution P_raw == R with an extra resolved identity off the roster, or P_raw > P
// otherwise    roster collision.
func classifyRoster(team *model.Team, roster []model.Player, candidates []Candidate) (repairAction, error) {
	onRoster := make(map[int64]*model.Player)
	regulars := 0
	for i := range roster {
		onRoster[roster[i].UserID] = &roster[i]
		if !roster[i].IsSubstitution {
			regulars++
		}
	}

	resolved := 0
	matchedUsers := make(map[int64]struct{})
	var extras []*model.User // resolved identities not on the roster
	unresolvedIdx := -1
	for i, c := range candidates {
		if c.User == nil {
			unresolvedIdx = i
			continue
		}
		resolved++
		if _, ok := onRoster[c.User.ID]; ok {
			matchedUsers[c.User.ID] = struct{}{}
		} else {
			extras = append(extras, c.User)
		}
	}

	var missing []model.Player
	for i := range roster {
		if roster[i].IsSubstitution {
			continue
		}
		if _, ok := matchedUsers[roster[i].UserID]; !ok {
			missing = append(missing, roster[i])
		}
	}

	rawTotal := len(candidates)

	switch {
	case len(extras) == 0 && (resolved == regulars || resolved == rawTotal):
		return repairNone{}, nil

	case resolved == regulars-1 && rawTotal == regulars &&
		unresolvedIdx >= 0 && len(missing) == 1 && len(extras) == 0:
		return repairRename{missing: missing[0], rawIndex: unresolvedIdx}, nil

	case len(extras) > 0 && (rawTotal == regulars || rawTotal > resolved) &&
		len(extras) <= len(missing):
		pairs := make([]subPair, len(extras))
		for i, u := range extras {
			pairs[i] = subPair{standIn: u, missing: missing[i]}
		}
		return repairSubstitution{pairs: pairs}, nil
	}

	rawNames := make([]string, rawTotal)
	for i, c := range candidates {
		rawNames[i] = c.RawName
	}
	return nil, &RosterCollisionError{
		TeamName:  team.Name,
		RawNames:  rawNames,
		Resolved:  resolved,
		RosterLen: regulars,
	}
}
