package feed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
	"github.com/scrimsight/go-scrim-metrics/internal/roster"
	"github.com/scrimsight/go-scrim-metrics/internal/translate"
)

// kill layout: [killer, killerHero, victim, victimHero, ability, damage, crit, environmental].
const (
	killFieldKiller = iota
	killFieldKillerHero
	killFieldVictim
	killFieldVictimHero
	killFieldAbility
	killFieldDamage
	killFieldCrit
	killFieldEnvironmental
)

// Build converts the rounds' kill and gameplay events into the persisted
// kill-feed (with fight ids) and the structured event timeline. Events whose
// actor never resolved against a roster are skipped.
func Build(matchID string, rounds []model.Round, rosters *roster.MatchRosters, tables *translate.Tables) ([]model.KillFeedEntry, []model.MatchEventRecord, []model.Fight, error) {
	var kills []model.KillFeedEntry
	var records []model.MatchEventRecord

	for _, round := range rounds {
		for _, e := range round.Events {
			switch e.Kind {
			case model.EventKill:
				entry, ok, err := buildKill(matchID, round.Number, e, rosters, tables)
				if err != nil {
					return nil, nil, nil, err
				}
				if ok {
					kills = append(kills, entry)
				}

			case model.EventOffensiveAssist, model.EventDefensiveAssist:
				rec, ok, err := buildAssist(matchID, round.Number, e, rosters, tables)
				if err != nil {
					return nil, nil, nil, err
				}
				if ok {
					records = append(records, rec)
				}

			case model.EventUltimateCharged, model.EventUltimateStart, model.EventUltimateEnd,
				model.EventHeroSwap, model.EventMercyRez,
				model.EventEchoDuplicateStart, model.EventEchoDuplicateEnd:
				rec, ok, err := buildTeamEvent(matchID, round.Number, e, rosters, tables)
				if err != nil {
					return nil, nil, nil, err
				}
				if ok {
					records = append(records, rec)
				}
			}
		}
	}

	fights := clusterFights(kills)
	return kills, records, fights, nil
}

func buildKill(matchID string, round int, e model.RawEvent, rosters *roster.MatchRosters, tables *translate.Tables) (model.KillFeedEntry, bool, error) {
	killer, killerOK := rosters.ResolveAny(e.Field(killFieldKiller))
	victim, victimOK := rosters.ResolveAny(e.Field(killFieldVictim))
	if !killerOK || !victimOK {
		return model.KillFeedEntry{}, false, nil
	}

	killerHero, err := tables.Hero(e.Field(killFieldKillerHero))
	if err != nil {
		return model.KillFeedEntry{}, false, err
	}
	victimHero, err := tables.Hero(e.Field(killFieldVictimHero))
	if err != nil {
		return model.KillFeedEntry{}, false, err
	}

	damage := 0.0
	if raw := e.Field(killFieldDamage); raw != "" && raw != "--" {
		damage, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.KillFeedEntry{}, false, fmt.Errorf("kill at %.3f: bad damage %q", e.Timestamp, raw)
		}
	}

	return model.KillFeedEntry{
		MatchID:         matchID,
		Round:           round,
		Timestamp:       e.Timestamp,
		KillerTeamID:    killer.TeamID,
		KillerUserID:    killer.UserID,
		KillerHero:      killerHero,
		VictimTeamID:    victim.TeamID,
		VictimUserID:    victim.UserID,
		VictimHero:      victimHero,
		Ability:         e.Field(killFieldAbility),
		Damage:          damage,
		IsCrit:          parseFlag(e.Field(killFieldCrit)),
		IsEnvironmental: parseFlag(e.Field(killFieldEnvironmental)),
	}, true, nil
}

// buildAssist handles the [player, hero] assist layout.
func buildAssist(matchID string, round int, e model.RawEvent, rosters *roster.MatchRosters, tables *translate.Tables) (model.MatchEventRecord, bool, error) {
	actor, ok := rosters.ResolveAny(e.Field(0))
	if !ok {
		return model.MatchEventRecord{}, false, nil
	}
	hero, err := tables.Hero(e.Field(1))
	if err != nil {
		return model.MatchEventRecord{}, false, err
	}
	return model.MatchEventRecord{
		MatchID:   matchID,
		Round:     round,
		Timestamp: e.Timestamp,
		Kind:      e.Kind,
		TeamID:    actor.TeamID,
		UserID:    actor.UserID,
		Hero:      hero,
	}, true, nil
}

// buildTeamEvent handles the [team, player, hero, ...] layouts: ultimate
// lifecycle, hero swaps, revives and echo duplicates.
func buildTeamEvent(matchID string, round int, e model.RawEvent, rosters *roster.MatchRosters, tables *translate.Tables) (model.MatchEventRecord, bool, error) {
	actor, ok := rosters.Resolve(e.Field(0), e.Field(1))
	if !ok {
		return model.MatchEventRecord{}, false, nil
	}
	hero, err := tables.Hero(e.Field(2))
	if err != nil {
		return model.MatchEventRecord{}, false, err
	}

	rec := model.MatchEventRecord{
		MatchID:   matchID,
		Round:     round,
		Timestamp: e.Timestamp,
		Kind:      e.Kind,
		TeamID:    actor.TeamID,
		UserID:    actor.UserID,
		Hero:      hero,
	}

	switch e.Kind {
	case model.EventHeroSwap, model.EventEchoDuplicateStart:
		related, err := tables.Hero(e.Field(3))
		if err != nil {
			return model.MatchEventRecord{}, false, err
		}
		rec.RelatedHero = related

	case model.EventMercyRez:
		// [team, player, hero, revivedTeam, revived, revivedHero]
		if revived, ok := rosters.Resolve(e.Field(3), e.Field(4)); ok {
			id := revived.UserID
			rec.RelatedUserID = &id
		}
		related, err := tables.Hero(e.Field(5))
		if err != nil {
			return model.MatchEventRecord{}, false, err
		}
		rec.RelatedHero = related
	}

	return rec, true, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
