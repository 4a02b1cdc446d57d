package nav

import (
	"github.com/lox/postflop-explorer/internal/solver"
)

// CardStatus classifies one card slot of a chance report.
type CardStatus int

const (
	// CardImpossible marks a card that cannot be dealt at this node.
	CardImpossible CardStatus = iota

	// CardCollapsed marks a deal after which at least one range is empty.
	CardCollapsed

	// CardNormal marks a deal with live ranges on both sides.
	CardNormal
)

// ChanceReport aggregates per-card summaries across every dealable card of
// the pending chance spot: for each card, both seats' combo counts, averaged
// equity/EV/EQR, and the first-to-act seat's strategy summary.
//
// Computing a report performs up to 52 speculative plays and is the single
// most expensive navigation operation. Each iteration restores the solver's
// history before moving on, so the cursor is left exactly where it started.
type ChanceReport struct {
	NumActions int
	Status     [solver.NumCards]CardStatus

	Combos [2][solver.NumCards]float64
	Equity [2][solver.NumCards]float64
	EV     [2][solver.NumCards]float64
	EQR    [2][solver.NumCards]float64

	// Strategy is action-major over the 52 card slots: the entry at
	// a*52+card is the averaged frequency of action a after that deal.
	Strategy []float64
}

// computeChanceReport runs the per-card aggregation. The solver must sit at
// the pending chance node; appendSuffix holds the resolved selections between
// it and the open spot.
func (n *Navigator) computeChanceReport(appendSuffix []int, open NodeInfo) *ChanceReport {
	g := n.game
	report := &ChanceReport{NumActions: len(open.Actions)}
	report.Strategy = make([]float64, report.NumActions*solver.NumCards)

	saved := g.ClonedHistory()
	possible := g.PossibleCards()
	cfg := g.TreeConfig()

	for card := 0; card < solver.NumCards; card++ {
		if possible&(1<<uint(card)) == 0 {
			report.Status[card] = CardImpossible
			continue
		}

		g.Play(card)
		for _, step := range appendSuffix {
			if step >= 0 {
				g.Play(step)
			}
		}

		var weights [2][]float64
		emptyFlag := 0
		for seat := 0; seat < 2; seat++ {
			raw := g.Weights(seat)
			pruned := make([]float64, len(raw))
			var combos float64
			for i, w := range raw {
				if w < weightEpsilon {
					continue
				}
				pruned[i] = float64(w)
				combos += float64(w)
			}
			weights[seat] = pruned
			report.Combos[seat][card] = roundScaled(combos)
			if combos == 0 {
				emptyFlag |= 1 << seat
			}
		}

		if emptyFlag > 0 {
			report.Status[card] = CardCollapsed
		} else {
			report.Status[card] = CardNormal
		}

		var normalizer [2][]float64
		if emptyFlag == 0 {
			g.CacheNormalizedWeights()
			for seat := 0; seat < 2; seat++ {
				normalizer[seat] = toFloat64(g.NormalizedWeights(seat))
			}

			bets := g.TotalBetAmount()
			potBase := float64(cfg.StartingPot) + float64(min(bets[0], bets[1]))
			for seat := 0; seat < 2; seat++ {
				equity := weightedAverage(toFloat64(g.Equity(seat)), normalizer[seat])
				ev := weightedAverage(toFloat64(g.ExpectedValues(seat)), normalizer[seat])
				report.Equity[seat][card] = roundScaled(equity)
				report.EV[seat][card] = roundScaled(ev)
				report.EQR[seat][card] = eqrValue(ev, potBase+float64(bets[seat]), equity)
			}
		}

		if !g.IsTerminalNode() && !g.IsChanceNode() {
			n.reportStrategy(report, card, weights, normalizer, emptyFlag)
		}

		g.ApplyHistory(saved)
	}

	return report
}

// reportStrategy summarizes the acting seat's mixed strategy for one dealt
// card, weighting each hand by the post-deal normalized weights. When the
// opponent's range is empty it falls back to the raw weights, the same rule
// as single-node extraction.
func (n *Navigator) reportStrategy(report *ChanceReport, card int, weights, normalizer [2][]float64, emptyFlag int) {
	g := n.game
	seat := g.CurrentPlayer()

	averaging := normalizer[seat]
	if emptyFlag&(1<<(1-seat)) != 0 || averaging == nil {
		averaging = weights[seat]
	}

	rangeSize := len(g.PrivateCards(seat))
	strategy := g.Strategy()

	for a := 0; a < report.NumActions; a++ {
		var freq, weight float64
		for h := 0; h < rangeSize; h++ {
			idx := a*rangeSize + h
			if idx >= len(strategy) || h >= len(averaging) {
				break
			}
			freq += float64(strategy[idx]) * averaging[h]
			weight += averaging[h]
		}
		if weight > 0 {
			report.Strategy[a*solver.NumCards+card] = roundScaled(freq / weight)
		}
	}
}

func toFloat64(buf []float32) []float64 {
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out
}
