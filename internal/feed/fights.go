// Package feed turns kill and gameplay events into the persisted kill-feed
// and event timeline, clustering kills into fights.
package feed

import (
	"sort"

	"github.com/scrimsight/go-scrim-metrics/internal/model"
)

// FightGap is the inactivity threshold: a kill more than this many seconds
// after the end of the current fight opens a new one.
const FightGap = 15.0

// clusterFights assigns 1-based fight ids to kills sorted by timestamp and
// returns the fights in cluster order. The input slice is sorted in place.
func clusterFights(kills []model.KillFeedEntry) []model.Fight {
	if len(kills) == 0 {
		return nil
	}
	sort.SliceStable(kills, func(i, j int) bool {
		return kills[i].Timestamp < kills[j].Timestamp
	})

	var fights []model.Fight
	cur := model.Fight{ID: 1, StartedAt: kills[0].Timestamp, EndedAt: kills[0].Timestamp}
	kills[0].FightID = cur.ID
	cur.Kills = 1

	for i := 1; i < len(kills); i++ {
		k := &kills[i]
		if k.Timestamp-cur.EndedAt > FightGap {
			fights = append(fights, cur)
			cur = model.Fight{ID: cur.ID + 1, StartedAt: k.Timestamp}
		}
		cur.EndedAt = k.Timestamp
		cur.Kills++
		k.FightID = cur.ID
	}
	fights = append(fights, cur)
	return fights
}
