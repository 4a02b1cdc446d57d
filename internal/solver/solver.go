// Package solver defines the contract this module requires from an external
// postflop CFR solver: a single mutable cursor over a precomputed decision
// tree, moved by replaying whole histories from the root. The package also
// ships ScriptedGame, a deterministic in-memory implementation used by tests
// and the demo CLI.
package solver

// Seat indices. OOP always acts first after a deal.
const (
	OOP = 0
	IP  = 1
)

// TreeConfig carries the static parameters of a solved tree.
type TreeConfig struct {
	StartingPot    int
	EffectiveStack int
}

// Game is the solver cursor. Implementations are stateful: the cursor sits at
// exactly one node, and moving backward requires a whole-history replay.
//
// Game is not safe for concurrent use. Callers must serialize access, or
// branch on a cloned {history, cursor} pair.
type Game interface {
	// Play advances the cursor along one edge. At player nodes the index
	// selects an available action; at chance nodes it is the card (0..51)
	// to deal.
	Play(index int)

	// ApplyHistory resets the cursor to the root and replays the given
	// index sequence.
	ApplyHistory(history []int)

	// History returns the index path from the root to the current node.
	History() []int

	// ClonedHistory returns an independent copy of History.
	ClonedHistory() []int

	// BackToRoot moves the cursor to the root node.
	BackToRoot()

	IsTerminalNode() bool
	IsChanceNode() bool

	// CurrentPlayer returns the seat to act at a player node.
	CurrentPlayer() int

	// AvailableActions lists the edges out of the current player node.
	AvailableActions() []Action

	// PossibleCards returns the dealable cards at a chance node as a
	// 52-bit mask.
	PossibleCards() uint64

	// PrivateCards returns a seat's range as an ordered list of hole
	// pairs. The order fixes the hand axis of every per-hand buffer.
	PrivateCards(player int) []HolePair

	// CacheNormalizedWeights must be called before NormalizedWeights,
	// Equity or ExpectedValues are read at the current node.
	CacheNormalizedWeights()

	Weights(player int) []float32
	NormalizedWeights(player int) []float32

	// Strategy returns the current player node's mixed strategy,
	// action-major and hand-minor.
	Strategy() []float32

	Equity(player int) []float32
	ExpectedValues(player int) []float32

	// ExpectedValuesDetail returns per-action EVs, action-major.
	ExpectedValuesDetail(player int) []float32

	// TotalBetAmount returns each seat's cumulative bet total for the hand.
	TotalBetAmount() [2]int

	TreeConfig() TreeConfig
	CurrentBoard() []Card
}
