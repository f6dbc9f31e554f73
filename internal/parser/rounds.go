package parser

import "github.com/scrimsight/go-scrim-metrics/internal/model"

// SegmentRounds groups the decoded event stream into rounds bounded by
// round_start / round_end markers.
//
// One mutable "current round" slot walks the stream. A round_start opens a
// new round, seeded with any already-seen unassigned events sharing the
// marker's exact timestamp. A round_end records the end time and keeps
// absorbing events co-timestamped with it, then the round stops accepting.
// Events seen while no round is open (in particular everything before the
// first round_start) are dropped.
func SegmentRounds(events []model.RawEvent) []model.Round {
	var (
		rounds  []model.Round
		cur     *model.Round
		closing bool    // current round saw round_end; absorbing co-timestamped events
		closeTs float64 // timestamp of the round_end marker
		orphans []model.RawEvent
	)

	finishCurrent := func() {
		if cur != nil {
			rounds = append(rounds, *cur)
			cur = nil
			closing = false
		}
	}

	for _, e := range events {
		switch {
		case e.Kind == model.EventRoundStart:
			finishCurrent()
			r := model.Round{
				Number:    len(rounds) + 1,
				StartedAt: e.Timestamp,
			}
			// Events that arrived just ahead of the marker with the same
			// timestamp belong to this round.
			for _, o := range orphans {
				if o.Timestamp == e.Timestamp {
					r.Events = append(r.Events, o)
				}
			}
			orphans = orphans[:0]
			r.Events = append(r.Events, e)
			cur = &r

		case cur == nil:
			orphans = append(orphans, e)

		case closing:
			if e.Timestamp == closeTs {
				cur.Events = append(cur.Events, e)
			} else {
				finishCurrent()
				orphans = append(orphans, e)
			}

		case e.Kind == model.EventRoundEnd:
			cur.Events = append(cur.Events, e)
			cur.EndedAt = e.Timestamp
			closing = true
			closeTs = e.Timestamp

		default:
			cur.Events = append(cur.Events, e)
		}
	}
	finishCurrent()

	return rounds
}
