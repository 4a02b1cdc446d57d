package solver

import "strconv"

// ActionKind enumerates the solver's action variants.
type ActionKind int

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
	ActionAllIn
	ActionChance
)

// Name returns the bare action name without an amount.
func (k ActionKind) Name() string {
	switch k {
	case ActionFold:
		return "Fold"
	case ActionCheck:
		return "Check"
	case ActionCall:
		return "Call"
	case ActionBet:
		return "Bet"
	case ActionRaise:
		return "Raise"
	case ActionAllIn:
		return "Allin"
	case ActionChance:
		return "Chance"
	default:
		return "?"
	}
}

// Action is one edge out of a tree node: a betting action at a player node,
// or a dealt card at a chance node. Amounts are the player's cumulative bet
// total for the hand after taking the action.
type Action struct {
	Kind   ActionKind
	Amount int
	Card   Card
}

// AmountString returns the face value, "0" if the action carries none.
func (a Action) AmountString() string {
	switch a.Kind {
	case ActionBet, ActionRaise, ActionAllIn:
		return strconv.Itoa(a.Amount)
	default:
		return "0"
	}
}

// String returns the canonical "Name:Amount" form used by the probe and the
// exporters ("Fold:0", "Bet:10"). Chance actions format as "Chance:Kc".
func (a Action) String() string {
	if a.Kind == ActionChance {
		return "Chance:" + a.Card.String()
	}
	return a.Kind.Name() + ":" + a.AmountString()
}
