// Package aggregator reduces per-round player_stat rows into per-hero,
// per-round and whole-match MatchStatistic rows, including the derived ratio
// metrics and the per-round performance ranking.
package aggregator

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
	"github.com/scrimsight/go-scrim-metrics/internal/roster"
	"github.com/scrimsight/go-scrim-metrics/internal/translate"
)

// player_stat layout: [round, team, player, hero, counters...].
const (
	statFieldTeam     = 1
	statFieldPlayer   = 2
	statFieldHero     = 3
	statFieldCounters = 4
)

// placeholder is the "no data" token a counter column may carry; it reads as
// zero here and only here.
const placeholder = "--"

// statColumns positions each extracted counter inside the counter block.
var statColumns = map[model.Metric]int{
	model.MetricEliminations:        0,
	model.MetricFinalBlows:          1,
	model.MetricDeaths:              2,
	model.MetricAllDamageDealt:      3,
	model.MetricBarrierDamageDealt:  4,
	model.MetricHeroDamageDealt:     5,
	model.MetricHealingDealt:        6,
	model.MetricHealingReceived:     7,
	model.MetricSelfHealing:         8,
	model.MetricDamageTaken:         9,
	model.MetricDamageBlocked:       10,
	model.MetricDefensiveAssists:    11,
	model.MetricOffensiveAssists:    12,
	model.MetricUltimatesEarned:     13,
	model.MetricUltimatesUsed:       14,
	model.MetricMultikillBest:       15,
	model.MetricMultikills:          16,
	model.MetricSoloKills:           17,
	model.MetricObjectiveKills:      18,
	model.MetricEnvironmentalKills:  19,
	model.MetricEnvironmentalDeaths: 20,
	model.MetricCriticalHits:        21,
	model.MetricShotsFired:          24,
	model.MetricShotsHit:            25,
	model.MetricHeroTimePlayed:      28,
}

type counters map[model.Metric]float64

func (c counters) add(src counters) {
	for m, v := range src {
		c[m] += v
	}
}

type statKey struct {
	teamID int64
	userID int64
	round  int
	hero   string
}

// Aggregate computes every MatchStatistic row for the match: raw counters and
// derived metrics at the (round, hero), (round), (match, hero) and (match)
// levels, plus Performance/PerformancePoints per round and for the match.
func Aggregate(matchID string, rounds []model.Round, rosters *roster.MatchRosters, tables *translate.Tables) ([]model.MatchStatistic, error) {
	heroLevel := make(map[statKey]counters)
	roles := make(map[int64]model.Role)

	// Level 1: per-hero per-round counters. Stat rows are cumulative
	// snapshots within a round, so the last row for a (player, hero) wins.
	for _, round := range rounds {
		for _, e := range round.Events {
			if e.Kind != model.EventPlayerStat {
				continue
			}
			teamName := e.Field(statFieldTeam)
			playerName := e.Field(statFieldPlayer)

			player, ok := rosters.Resolve(teamName, playerName)
			if !ok {
				continue // unresolved candidate; never aborts the run
			}
			hero, err := tables.Hero(e.Field(statFieldHero))
			if err != nil {
				return nil, err
			}

			c := make(counters, len(statColumns))
			for metric, col := range statColumns {
				v, err := parseCounter(e.Field(statFieldCounters + col))
				if err != nil {
					return nil, fmt.Errorf("player_stat for %s (%s): %w", playerName, metric, err)
				}
				c[metric] = v
			}

			roles[player.UserID] = player.Role
			heroLevel[statKey{player.TeamID, player.UserID, round.Number, hero}] = c
		}
	}

	// Level 2 and 3: per-round totals across heroes, then whole-match totals
	// at both the hero level and the round-total level.
	roundLevel := make(map[statKey]counters)
	matchHeroLevel := make(map[statKey]counters)
	matchLevel := make(map[statKey]counters)
	for k, c := range heroLevel {
		accumulate(roundLevel, statKey{k.teamID, k.userID, k.round, ""}, c)
		accumulate(matchHeroLevel, statKey{k.teamID, k.userID, model.MatchTotalsRound, k.hero}, c)
		accumulate(matchLevel, statKey{k.teamID, k.userID, model.MatchTotalsRound, ""}, c)
	}

	var stats []model.MatchStatistic
	for _, level := range []map[statKey]counters{heroLevel, roundLevel, matchHeroLevel, matchLevel} {
		for k, c := range level {
			stats = append(stats, emit(matchID, k, c)...)
		}
	}

	stats = append(stats, rankRounds(matchID, roundLevel, matchLevel, roles)...)

	// Deterministic row order keeps reprocessing byte-for-byte reproducible.
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.Hero != b.Hero {
			return a.Hero < b.Hero
		}
		return a.Metric < b.Metric
	})
	return stats, nil
}

func accumulate(level map[statKey]counters, k statKey, c counters) {
	dst, ok := level[k]
	if !ok {
		dst = make(counters, len(c))
		level[k] = dst
	}
	dst.add(c)
}

// emit writes the raw counter rows plus the six derived metrics for one key.
func emit(matchID string, k statKey, c counters) []model.MatchStatistic {
	rows := make([]model.MatchStatistic, 0, len(c)+6)
	row := func(metric model.Metric, value float64) {
		rows = append(rows, model.MatchStatistic{
			MatchID: matchID,
			Round:   k.round,
			TeamID:  k.teamID,
			UserID:  k.userID,
			Hero:    k.hero,
			Metric:  metric,
			Value:   value,
		})
	}

	for metric, value := range c {
		row(metric, value)
	}

	elims := c[model.MetricEliminations]
	deaths := math.Max(c[model.MetricDeaths], 1)
	offA := c[model.MetricOffensiveAssists]
	defA := c[model.MetricDefensiveAssists]
	heroDmg := c[model.MetricHeroDamageDealt]
	finals := c[model.MetricFinalBlows]

	row(model.MetricKD, elims/deaths)
	row(model.MetricKDA, (elims+offA+defA)/deaths)
	row(model.MetricDamageDelta, heroDmg-c[model.MetricDamageTaken])
	row(model.MetricFBE, finals/math.Max(elims, 1))
	row(model.MetricDamageFB, heroDmg/math.Max(finals, 1))
	row(model.MetricAssists, offA+defA)
	return rows
}

func parseCounter(s string) (float64, error) {
	if s == placeholder {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad counter value %q", s)
	}
	return v, nil
}
