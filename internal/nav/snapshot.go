package nav

import (
	"math"

	"github.com/lox/postflop-explorer/internal/solver"
)

const (
	// weightEpsilon prunes residual float noise from range weights:
	// ranges shrink through folds and board removal, and a weight below
	// this threshold must not count as still live.
	weightEpsilon = 5e-4

	// eqrEpsilon is the equity floor below which EQR is undefined.
	eqrEpsilon = 5e-7
)

const (
	emptyOOP = 1 << solver.OOP
	emptyIP  = 1 << solver.IP
)

// NodeKind classifies the solver's current node.
type NodeKind int

const (
	NodePlayer NodeKind = iota
	NodeChance
	NodeTerminal
)

// String implements fmt.Stringer.
func (k NodeKind) String() string {
	switch k {
	case NodeChance:
		return "chance"
	case NodeTerminal:
		return "terminal"
	default:
		return "player"
	}
}

// Snapshot is the extracted, normalized view of the solver's results at one
// node. Per-hand slices follow the seat's PrivateCards order. Equity, EV and
// EQR are nil whenever either seat's range is empty; Strategy and ActionEV
// are nil outside player nodes.
type Snapshot struct {
	Kind       NodeKind
	Player     int
	NumActions int

	// PotOOP and PotIP are each seat's EQR base:
	// starting pot + min(bets) + that seat's bet.
	PotOOP float64
	PotIP  float64

	EmptyFlag int

	Weights    [2][]float64
	Normalizer [2][]float64
	Equity     [2][]float64
	EV         [2][]float64
	EQR        [2][]float64

	// Strategy and ActionEV are action-major, hand-minor over the acting
	// seat's range.
	Strategy []float64
	ActionEV []float64
}

// IsEmpty reports whether both seats' ranges are all-zero weight.
func (s *Snapshot) IsEmpty() bool { return s.EmptyFlag == emptyOOP|emptyIP }

// SeatEmpty reports whether one seat's range is all-zero weight.
func (s *Snapshot) SeatEmpty(seat int) bool { return s.EmptyFlag&(1<<seat) != 0 }

// EqrBase returns the EQR denominator pot for a seat.
func (s *Snapshot) EqrBase(seat int) float64 {
	if seat == solver.OOP {
		return s.PotOOP
	}
	return s.PotIP
}

// EQRAt returns a hand's equity-to-risk ratio, or NaN when it is undefined
// (zero equity, or an empty range at this node).
func (s *Snapshot) EQRAt(seat, hand int) float64 {
	if hand < 0 || hand >= len(s.EQR[seat]) {
		return math.NaN()
	}
	return s.EQR[seat][hand]
}

// extract reads the solver's buffers for the current node and shapes them
// into a Snapshot, pruning noise weights and rounding every value so that
// repeated extraction of the same node compares stable.
func extract(g solver.Game) *Snapshot {
	bets := g.TotalBetAmount()
	potBase := float64(g.TreeConfig().StartingPot) + float64(min(bets[0], bets[1]))

	snap := &Snapshot{
		Player: -1,
		PotOOP: potBase + float64(bets[solver.OOP]),
		PotIP:  potBase + float64(bets[solver.IP]),
	}
	switch {
	case g.IsTerminalNode():
		snap.Kind = NodeTerminal
	case g.IsChanceNode():
		snap.Kind = NodeChance
	default:
		snap.Kind = NodePlayer
	}

	for seat := 0; seat < 2; seat++ {
		raw := g.Weights(seat)
		weights := make([]float64, len(raw))
		live := false
		for i, w := range raw {
			if w < weightEpsilon {
				continue
			}
			weights[i] = roundScaled(float64(w))
			live = true
		}
		snap.Weights[seat] = weights
		if !live {
			snap.EmptyFlag |= 1 << seat
		}
	}

	if snap.EmptyFlag > 0 {
		// Normalized weights are unavailable without both ranges; fall
		// back to the pruned raw weights.
		for seat := 0; seat < 2; seat++ {
			snap.Normalizer[seat] = append([]float64(nil), snap.Weights[seat]...)
		}
	} else {
		g.CacheNormalizedWeights()
		for seat := 0; seat < 2; seat++ {
			snap.Normalizer[seat] = roundAll(g.NormalizedWeights(seat))
			snap.Equity[seat] = roundAll(g.Equity(seat))
			snap.EV[seat] = roundAll(g.ExpectedValues(seat))
		}
		for seat := 0; seat < 2; seat++ {
			pot := snap.EqrBase(seat)
			eqr := make([]float64, len(snap.Equity[seat]))
			for i, eq := range snap.Equity[seat] {
				eqr[i] = eqrValue(snap.EV[seat][i], pot, eq)
			}
			snap.EQR[seat] = eqr
		}
	}

	if snap.Kind == NodePlayer {
		snap.Player = g.CurrentPlayer()
		snap.NumActions = len(g.AvailableActions())
		want := snap.NumActions * len(g.PrivateCards(snap.Player))
		snap.Strategy = roundPadded(g.Strategy(), want)
		if snap.EmptyFlag == 0 {
			snap.ActionEV = roundPadded(g.ExpectedValuesDetail(snap.Player), want)
		}
	}

	return snap
}

// eqrValue computes EV / (pot * equity). Below the equity floor the ratio is
// undefined and reported as a non-finite sentinel, never silently zeroed.
func eqrValue(ev, pot, equity float64) float64 {
	if equity < eqrEpsilon {
		switch {
		case ev > 0:
			return math.Inf(1)
		case ev < 0:
			return math.Inf(-1)
		default:
			return math.NaN()
		}
	}
	return roundScaled(ev / (pot * equity))
}

// roundScaled rounds to a precision that scales with magnitude: 6 decimals
// below 1, coarsening to 1 decimal above 10000.
func roundScaled(v float64) float64 {
	switch {
	case v < 1:
		return math.Round(v*1e6) / 1e6
	case v < 10:
		return math.Round(v*1e5) / 1e5
	case v < 100:
		return math.Round(v*1e4) / 1e4
	case v < 1000:
		return math.Round(v*1e3) / 1e3
	case v < 10000:
		return math.Round(v*1e2) / 1e2
	default:
		return math.Round(v*10) / 10
	}
}

func roundAll(buf []float32) []float64 {
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = roundScaled(float64(v))
	}
	return out
}

// roundPadded rounds a buffer into exactly want entries, substituting zero
// for anything the solver did not provide. Partial solver outputs (e.g. a
// truncated chance exploration) are expected and must not fail navigation.
func roundPadded(buf []float32, want int) []float64 {
	out := make([]float64, want)
	for i := 0; i < want && i < len(buf); i++ {
		out[i] = roundScaled(float64(buf[i]))
	}
	return out
}

// weightedAverage folds values by their weights, returning zero when no
// weight survives.
func weightedAverage(values, weights []float64) float64 {
	var sum, weightSum float64
	for i, v := range values {
		if i >= len(weights) {
			break
		}
		sum += v * weights[i]
		weightSum += weights[i]
	}
	if weightSum <= 0 {
		return 0
	}
	return sum / weightSum
}
