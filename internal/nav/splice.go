package nav

import (
	"github.com/lox/postflop-explorer/internal/solver"
)

// The splice operations rebuild the tail of the spot list after a navigation
// move invalidates it: everything from the target index on is dropped and
// freshly built spots are appended from the solver's tree shape.

func (n *Navigator) truncate(target int) {
	if target > len(n.spots) {
		target = len(n.spots)
	}
	n.spots = n.spots[:target]
}

// spliceTerminal replaces the tail with a single terminal spot.
func (n *Navigator) spliceTerminal(target int, snap *Snapshot, info NodeInfo, chanceSkipped bool) {
	prev := &n.spots[target-1]

	equity := EquityUnavailable
	if action, ok := prev.SelectedAction(); ok && action.Action.Kind == solver.ActionFold {
		// Fold equity follows the seat that folded, regardless of
		// range contents.
		if prev.Player == RoleOOP {
			equity = 0.0
		} else {
			equity = 1.0
		}
	} else if snap.EmptyFlag == 0 && !chanceSkipped {
		equity = roundScaled(weightedAverage(snap.Equity[solver.OOP], snap.Normalizer[solver.OOP]))
	}

	pot := float64(n.game.TreeConfig().StartingPot + info.Bets[0] + info.Bets[1])

	n.truncate(target)
	n.spots = append(n.spots, Spot{
		Kind:       SpotTerminal,
		Index:      target,
		Player:     RoleEnd,
		Selected:   Unresolved,
		Pot:        pot,
		Stack:      0,
		EquityOOP:  equity,
		PrevPlayer: prev.Player,
	})
}

// spliceChance replaces the tail with a chance spot and, immediately after
// it, the player spot for the seat that acts first on the new street: OOP
// always acts first after a deal.
func (n *Navigator) spliceChance(target int, info NodeInfo, appendToTarget []int) {
	prev := &n.spots[target-1]
	cfg := n.game.TreeConfig()

	role := RoleTurn
	for i := 1; i < target && i < len(n.spots); i++ {
		if n.spots[i].Kind == SpotChance {
			role = RoleRiver
			break
		}
	}

	// Bets are level into a deal, so the pot is twice either seat's total.
	pot := float64(cfg.StartingPot + 2*info.Bets[0])
	stack := float64(cfg.EffectiveStack - info.Bets[0])

	cards := make([]SpotCard, solver.NumCards)
	for c := range cards {
		cards[c] = SpotCard{
			Card: solver.Card(c),
			Dead: info.PossibleCards&(1<<uint(c)) == 0,
		}
	}

	next := n.nodeInfoAfter(append(append([]int(nil), appendToTarget...), DealAny))

	n.truncate(target)
	n.spots = append(n.spots,
		Spot{
			Kind:       SpotChance,
			Index:      target,
			Player:     role,
			Selected:   Unresolved,
			Cards:      cards,
			Pot:        pot,
			Stack:      stack,
			PrevPlayer: prev.Player,
		},
		Spot{
			Kind:       SpotPlayer,
			Index:      target + 1,
			Player:     RoleOOP,
			Selected:   Unresolved,
			Actions:    spotActions(next.Actions),
			Pot:        pot,
			Stack:      stack,
			PrevPlayer: role,
		},
	)
}

// splicePlayer replaces the tail with a player spot for the seat opposite
// the previous player spot.
func (n *Navigator) splicePlayer(target int, info NodeInfo) {
	prev := &n.spots[target-1]
	cfg := n.game.TreeConfig()

	role := RoleOOP
	if prev.Kind == SpotPlayer && prev.Player == RoleOOP {
		role = RoleIP
	}

	pot := float64(cfg.StartingPot + info.Bets[0] + info.Bets[1])
	stack := float64(cfg.EffectiveStack - info.Bets[role.Seat()])

	n.truncate(target)
	n.spots = append(n.spots, Spot{
		Kind:       SpotPlayer,
		Index:      target,
		Player:     role,
		Selected:   Unresolved,
		Actions:    spotActions(info.Actions),
		Pot:        pot,
		Stack:      stack,
		PrevPlayer: prev.Player,
	})
}

// spotActions converts the solver's action list, dropping chance edges.
// Rates start unavailable until the spot is opened with the solver
// positioned at it.
func spotActions(actions []solver.Action) []SpotAction {
	out := make([]SpotAction, 0, len(actions))
	for _, a := range actions {
		if a.Kind == solver.ActionChance {
			continue
		}
		out = append(out, SpotAction{Action: a, Rate: RateUnavailable})
	}
	return out
}
