// Package nav maintains a client-visible path of visited tree nodes over an
// external solver cursor. It decides when to replay history into the solver,
// extracts and caches per-hand results on every move, and rebuilds the tail
// of the visited path after a navigation move invalidates it.
package nav

import "github.com/lox/postflop-explorer/internal/solver"

// SpotKind classifies a visited node.
type SpotKind int

const (
	SpotRoot SpotKind = iota
	SpotPlayer
	SpotChance
	SpotTerminal
)

// String implements fmt.Stringer.
func (k SpotKind) String() string {
	switch k {
	case SpotRoot:
		return "root"
	case SpotPlayer:
		return "player"
	case SpotChance:
		return "chance"
	case SpotTerminal:
		return "terminal"
	default:
		return "?"
	}
}

// Role tags who owns a spot: an acting seat for player spots, a street for
// the root and chance spots, End for terminals.
type Role int

const (
	RoleNone Role = iota
	RoleFlop
	RoleTurn
	RoleRiver
	RoleOOP
	RoleIP
	RoleEnd
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RoleFlop:
		return "flop"
	case RoleTurn:
		return "turn"
	case RoleRiver:
		return "river"
	case RoleOOP:
		return "oop"
	case RoleIP:
		return "ip"
	case RoleEnd:
		return "end"
	default:
		return ""
	}
}

// Seat returns the seat index for an acting role, -1 otherwise.
func (r Role) Seat() int {
	switch r {
	case RoleOOP:
		return solver.OOP
	case RoleIP:
		return solver.IP
	default:
		return -1
	}
}

// SeatRole converts a seat index to its acting role.
func SeatRole(seat int) Role {
	if seat == solver.OOP {
		return RoleOOP
	}
	return RoleIP
}

// Unresolved marks a spot whose action or card has not been chosen.
const Unresolved = -1

// Sentinel values for data that cannot be computed at a spot.
const (
	EquityUnavailable = -1.0
	RateUnavailable   = -1.0
)

// SpotAction is one choice at a player spot.
type SpotAction struct {
	Action   solver.Action
	Selected bool

	// Rate is the range-weighted frequency of the action in [0, 1], or
	// RateUnavailable when the current range is empty or the solver has
	// not been positioned at this spot yet.
	Rate float64
}

// Name returns the bare action name.
func (a SpotAction) Name() string { return a.Action.Kind.Name() }

// Amount returns the action's face value, "0" if it carries none.
func (a SpotAction) Amount() string { return a.Action.AmountString() }

// SpotCard is one of the 52 card slots at a chance spot.
type SpotCard struct {
	Card     solver.Card
	Selected bool
	Dead     bool
}

// Spot is one visited tree node as tracked by the navigator. Exactly one of
// Actions and Cards is non-empty, determined by Kind.
type Spot struct {
	Kind     SpotKind
	Index    int
	Player   Role
	Selected int
	Actions  []SpotAction
	Cards    []SpotCard

	Pot   float64
	Stack float64

	// EquityOOP is set on terminal spots only: 0 or 1 after a fold, the
	// range-averaged OOP equity at a showdown, or EquityUnavailable.
	EquityOOP float64

	// PrevPlayer is the role that acted into this spot.
	PrevPlayer Role
}

// SelectedAction returns the chosen action, if any.
func (s *Spot) SelectedAction() (SpotAction, bool) {
	if s.Kind != SpotPlayer || s.Selected < 0 || s.Selected >= len(s.Actions) {
		return SpotAction{}, false
	}
	return s.Actions[s.Selected], true
}

// clone deep-copies the spot's slices.
func (s *Spot) clone() Spot {
	out := *s
	if s.Actions != nil {
		out.Actions = make([]SpotAction, len(s.Actions))
		copy(out.Actions, s.Actions)
	}
	if s.Cards != nil {
		out.Cards = make([]SpotCard, len(s.Cards))
		copy(out.Cards, s.Cards)
	}
	return out
}
