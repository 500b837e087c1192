package strategy

import (
	"testing"

	"github.com/newthinker/alphalab/internal/core"
)

func sigAt(index int, strength float64) IndexedSignal {
	return IndexedSignal{
		Index:  index,
		Signal: core.Signal{Action: core.ActionBuy, Strength: strength},
	}
}

func TestDedup_KeepsStrongestInCluster(t *testing.T) {
	signals := []IndexedSignal{sigAt(10, 0.5), sigAt(11, 0.9), sigAt(12, 0.6)}

	out := Dedup(signals, 3)

	if len(out) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(out))
	}
	if out[0].Index != 11 || out[0].Signal.Strength != 0.9 {
		t.Errorf("expected the strongest at index 11, got index %d strength %g",
			out[0].Index, out[0].Signal.Strength)
	}
}

func TestDedup_SpacingBoundary(t *testing.T) {
	// Gap equal to minGap keeps both; gap below it collapses.
	apart := []IndexedSignal{sigAt(10, 0.5), sigAt(13, 0.6)}
	if out := Dedup(apart, 3); len(out) != 2 {
		t.Errorf("signals exactly minGap apart must survive, got %d", len(out))
	}

	close := []IndexedSignal{sigAt(10, 0.5), sigAt(12, 0.6)}
	if out := Dedup(close, 3); len(out) != 1 {
		t.Errorf("signals closer than minGap must collapse, got %d", len(out))
	}
}

func TestDedup_ChainedCluster(t *testing.T) {
	// Each neighbor is within minGap of the previous one, so all three
	// form one cluster even though the ends are far apart.
	signals := []IndexedSignal{sigAt(10, 0.5), sigAt(12, 0.4), sigAt(14, 0.8)}

	out := Dedup(signals, 3)

	if len(out) != 1 || out[0].Index != 14 {
		t.Errorf("expected one signal at index 14, got %+v", out)
	}
}

func TestDedup_TieKeepsEarliest(t *testing.T) {
	signals := []IndexedSignal{sigAt(10, 0.7), sigAt(11, 0.7)}

	out := Dedup(signals, 5)

	if len(out) != 1 || out[0].Index != 10 {
		t.Errorf("expected the earliest of a strength tie, got %+v", out)
	}
}

func TestDedup_Disabled(t *testing.T) {
	signals := []IndexedSignal{sigAt(10, 0.5), sigAt(11, 0.6)}

	if out := Dedup(signals, 0); len(out) != 2 {
		t.Errorf("minGap 0 must pass signals through, got %d", len(out))
	}
	if out := Dedup(nil, 3); out != nil {
		t.Errorf("expected nil passthrough, got %v", out)
	}
}

func TestDedup_IndependentClusters(t *testing.T) {
	signals := []IndexedSignal{
		sigAt(10, 0.5), sigAt(11, 0.9),
		sigAt(30, 0.4), sigAt(31, 0.3),
	}

	out := Dedup(signals, 3)

	if len(out) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(out))
	}
	if out[0].Index != 11 || out[1].Index != 30 {
		t.Errorf("expected indexes [11 30], got [%d %d]", out[0].Index, out[1].Index)
	}
}
