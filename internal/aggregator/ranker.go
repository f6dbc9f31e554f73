package aggregator

import (
	"sort"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// Performance score weights.
const (
	weightElimination      = 500
	weightAssist           = 50
	weightDeath            = 500
	weightDamageBlocked    = 0.1
	healingWeightSupport   = 1.0
	healingWeightOtherRole = 0.7
)

// performanceScore is the weighted per-round score behind the MVP ranking.
func performanceScore(c counters, role model.Role) float64 {
	healingWeight := healingWeightOtherRole
	if role == model.RoleSupport {
		healingWeight = healingWeightSupport
	}
	return c[model.MetricEliminations]*weightElimination +
		c[model.MetricOffensiveAssists]*weightAssist +
		c[model.MetricDefensiveAssists]*weightAssist +
		c[model.MetricHeroDamageDealt] +
		c[model.MetricHealingDealt]*healingWeight -
		c[model.MetricDeaths]*weightDeath +
		c[model.MetricDamageBlocked]*weightDamageBlocked
}

// rankRounds computes Performance (dense rank, 1 = best) and
// PerformancePoints (raw score) rows for every played round and for the
// whole-match totals. Exact score ties break by ascending user id.
func rankRounds(matchID string, roundLevel, matchLevel map[statKey]counters, roles map[int64]model.Role) []model.MatchStatistic {
	type scored struct {
		key   statKey
		score float64
	}
	byRound := make(map[int][]scored)

	collect := func(level map[statKey]counters) {
		for k, c := range level {
			byRound[k.round] = append(byRound[k.round], scored{
				key:   k,
				score: performanceScore(c, roles[k.userID]),
			})
		}
	}
	collect(roundLevel)
	collect(matchLevel)

	var rows []model.MatchStatistic
	for _, players := range byRound {
		sort.Slice(players, func(i, j int) bool {
			if players[i].score != players[j].score {
				return players[i].score > players[j].score
			}
			return players[i].key.userID < players[j].key.userID
		})
		for rank, p := range players {
			rows = append(rows,
				model.MatchStatistic{
					MatchID: matchID, Round: p.key.round,
					TeamID: p.key.teamID, UserID: p.key.userID,
					Metric: model.MetricPerformancePoints, Value: p.score,
				},
				model.MatchStatistic{
					MatchID: matchID, Round: p.key.round,
					TeamID: p.key.teamID, UserID: p.key.userID,
					Metric: model.MetricPerformance, Value: float64(rank + 1),
				},
			)
		}
	}
	return rows
}
