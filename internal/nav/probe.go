package nav

import (
	"math/bits"
	"strings"

	"github.com/lox/postflop-explorer/internal/solver"
)

// DealAny is the "don't care" marker in an append sequence: a step landing on
// a chance node deals the lowest-indexed currently-possible card.
const DealAny = -1

// NodeInfo describes one solver node as seen by a dry-run probe.
type NodeInfo struct {
	Kind    NodeKind
	Player  int
	Actions []solver.Action

	// PossibleCards is set for chance nodes only.
	PossibleCards uint64

	// Bets are the seats' cumulative bet totals at the node.
	Bets [2]int
}

// String renders the canonical form: "terminal", "chance", or the available
// actions joined as "Fold:0/Call:0/Raise:30".
func (ni NodeInfo) String() string {
	switch ni.Kind {
	case NodeTerminal:
		return "terminal"
	case NodeChance:
		return "chance"
	default:
		parts := make([]string, len(ni.Actions))
		for i, a := range ni.Actions {
			parts[i] = a.String()
		}
		return strings.Join(parts, "/")
	}
}

// nodeInfoAfter probes the node reached by speculatively applying the append
// sequence on top of the current history. The probe is side-effect free: the
// original history is restored exactly before returning.
func (n *Navigator) nodeInfoAfter(appendSeq []int) NodeInfo {
	g := n.game
	if len(appendSeq) == 0 {
		return currentNodeInfo(g)
	}

	saved := g.ClonedHistory()
	for _, step := range appendSeq {
		if g.IsChanceNode() {
			card := step
			if card < 0 {
				card = lowestCard(g.PossibleCards())
			}
			if card < 0 {
				break
			}
			g.Play(card)
			continue
		}
		if step >= 0 {
			g.Play(step)
		}
	}
	info := currentNodeInfo(g)
	g.ApplyHistory(saved)
	return info
}

func currentNodeInfo(g solver.Game) NodeInfo {
	info := NodeInfo{Player: -1, Bets: g.TotalBetAmount()}
	switch {
	case g.IsTerminalNode():
		info.Kind = NodeTerminal
	case g.IsChanceNode():
		info.Kind = NodeChance
		info.PossibleCards = g.PossibleCards()
	default:
		info.Kind = NodePlayer
		info.Player = g.CurrentPlayer()
		info.Actions = append([]solver.Action(nil), g.AvailableActions()...)
	}
	return info
}

// lowestCard returns the lowest-indexed card in a mask, -1 if empty.
func lowestCard(mask uint64) int {
	if mask == 0 {
		return -1
	}
	return bits.TrailingZeros64(mask)
}

// appendPath collects the selections of spots[from:to] as an append sequence.
// Unresolved chance spots contribute the DealAny marker.
func (n *Navigator) appendPath(from, to int) []int {
	var seq []int
	for i := from; i < to && i < len(n.spots); i++ {
		s := &n.spots[i]
		switch {
		case s.Selected >= 0:
			seq = append(seq, s.Selected)
		case s.Kind == SpotChance:
			seq = append(seq, DealAny)
		}
	}
	return seq
}
