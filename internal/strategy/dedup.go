package strategy

import "github.com/newthinker/alphalab/internal/core"

// IndexedSignal pairs a resolved signal with the bar index it fired on.
type IndexedSignal struct {
	Index  int         `json:"index"`
	Signal core.Signal `json:"signal"`
}

// Dedup collapses signals that fire less than minGap bars apart,
// keeping the strongest of each cluster. A cluster is a maximal run of
// signals where each member is within minGap bars of the previous one;
// on equal strength the earliest member survives. minGap <= 0 disables
// deduplication. The input must be ordered by index.
func Dedup(signals []IndexedSignal, minGap int) []IndexedSignal {
	if minGap <= 0 || len(signals) < 2 {
		return signals
	}

	out := make([]IndexedSignal, 0, len(signals))
	cluster := []IndexedSignal{signals[0]}

	flush := func() {
		best := cluster[0]
		for _, s := range cluster[1:] {
			if s.Signal.Strength > best.Signal.Strength {
				best = s
			}
		}
		out = append(out, best)
	}

	for _, s := range signals[1:] {
		if s.Index-cluster[len(cluster)-1].Index < minGap {
			cluster = append(cluster, s)
			continue
		}
		flush()
		cluster = cluster[:0]
		cluster = append(cluster, s)
	}
	flush()

	return out
}
