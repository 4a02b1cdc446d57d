package solver

import "fmt"

// AnyCard is the wildcard key for chance-node children: the same subtree is
// reused for every dealt card. Concrete card keys take precedence.
const AnyCard = -1

// ScriptNode is one node of a scripted tree. Result buffers left nil are
// inherited from the nearest ancestor that sets them, so a script only spells
// out the nodes where the data changes.
type ScriptNode struct {
	Terminal bool
	Chance   bool
	Player   int
	Actions  []Action

	// Dead overrides the derived possible-card mask at a chance node:
	// cards in Dead cannot be dealt in addition to the board cards.
	Dead uint64

	Weights     [2][]float32
	NormWeights [2][]float32
	Equity      [2][]float32
	EV          [2][]float32
	Strategy    []float32
	ActionEV    []float32

	parent   *ScriptNode
	children map[int]*ScriptNode
}

// PlayerNode creates a decision node for the given seat.
func PlayerNode(player int, actions ...Action) *ScriptNode {
	return &ScriptNode{Player: player, Actions: actions}
}

// ChanceNode creates a card-deal node.
func ChanceNode() *ScriptNode {
	return &ScriptNode{Chance: true}
}

// TerminalNode creates a leaf.
func TerminalNode() *ScriptNode {
	return &ScriptNode{Terminal: true}
}

// On links a child under the given edge: an action index for player nodes, a
// card index (or AnyCard) for chance nodes. Returns the parent for chaining.
func (n *ScriptNode) On(edge int, child *ScriptNode) *ScriptNode {
	if n.children == nil {
		n.children = make(map[int]*ScriptNode)
	}
	child.parent = n
	n.children[edge] = child
	return n
}

// WithWeights sets both seats' raw range weights at this node.
func (n *ScriptNode) WithWeights(oop, ip []float32) *ScriptNode {
	n.Weights = [2][]float32{oop, ip}
	return n
}

// WithEquity sets both seats' per-hand equities at this node.
func (n *ScriptNode) WithEquity(oop, ip []float32) *ScriptNode {
	n.Equity = [2][]float32{oop, ip}
	return n
}

// WithEV sets both seats' per-hand expected values at this node.
func (n *ScriptNode) WithEV(oop, ip []float32) *ScriptNode {
	n.EV = [2][]float32{oop, ip}
	return n
}

// WithStrategy sets the action-major mixed strategy at this node.
func (n *ScriptNode) WithStrategy(strategy []float32) *ScriptNode {
	n.Strategy = strategy
	return n
}

// WithActionEV sets the action-major per-action EVs at this node.
func (n *ScriptNode) WithActionEV(actionEV []float32) *ScriptNode {
	n.ActionEV = actionEV
	return n
}

func (n *ScriptNode) child(edge int) *ScriptNode {
	if c, ok := n.children[edge]; ok {
		return c
	}
	if n.Chance {
		if c, ok := n.children[AnyCard]; ok {
			return c
		}
	}
	panic(fmt.Sprintf("scripted tree has no child for edge %d", edge))
}

func (n *ScriptNode) inherited(pick func(*ScriptNode) []float32) []float32 {
	for node := n; node != nil; node = node.parent {
		if buf := pick(node); buf != nil {
			return buf
		}
	}
	return nil
}

// ScriptedGame implements Game over a ScriptNode tree. Bets and the board are
// derived from the path: Bet/Raise/AllIn amounts are cumulative totals, Call
// matches the opponent's total, and dealt cards extend the board.
//
// A malformed script (edge without a child, short buffers) panics: it is a
// programming error in the fixture, not a runtime condition.
type ScriptedGame struct {
	cfg     TreeConfig
	flop    []Card
	private [2][]HolePair

	root    *ScriptNode
	node    *ScriptNode
	history []int
	board   []Card
	bets    [2]int
}

// NewScriptedGame builds a cursor over the given tree, positioned at the root.
func NewScriptedGame(cfg TreeConfig, flop []Card, private [2][]HolePair, root *ScriptNode) *ScriptedGame {
	g := &ScriptedGame{cfg: cfg, flop: flop, private: private, root: root}
	g.BackToRoot()
	return g
}

// Play implements Game.
func (g *ScriptedGame) Play(index int) {
	if g.node.Chance {
		card := Card(index)
		if g.PossibleCards()&card.Mask() == 0 {
			panic(fmt.Sprintf("dealt impossible card %s", card))
		}
		g.board = append(g.board, card)
	} else {
		if index < 0 || index >= len(g.node.Actions) {
			panic(fmt.Sprintf("action index %d out of range", index))
		}
		a := g.node.Actions[index]
		seat := g.node.Player
		switch a.Kind {
		case ActionBet, ActionRaise, ActionAllIn:
			g.bets[seat] = a.Amount
		case ActionCall:
			g.bets[seat] = g.bets[1-seat]
		}
	}
	g.node = g.node.child(index)
	g.history = append(g.history, index)
}

// ApplyHistory implements Game.
func (g *ScriptedGame) ApplyHistory(history []int) {
	g.BackToRoot()
	for _, idx := range history {
		g.Play(idx)
	}
}

// History implements Game.
func (g *ScriptedGame) History() []int {
	return g.history
}

// ClonedHistory implements Game.
func (g *ScriptedGame) ClonedHistory() []int {
	out := make([]int, len(g.history))
	copy(out, g.history)
	return out
}

// BackToRoot implements Game.
func (g *ScriptedGame) BackToRoot() {
	g.node = g.root
	g.history = g.history[:0]
	g.board = append(g.board[:0], g.flop...)
	g.bets = [2]int{}
}

// IsTerminalNode implements Game.
func (g *ScriptedGame) IsTerminalNode() bool { return g.node.Terminal }

// IsChanceNode implements Game.
func (g *ScriptedGame) IsChanceNode() bool { return g.node.Chance }

// CurrentPlayer implements Game.
func (g *ScriptedGame) CurrentPlayer() int { return g.node.Player }

// AvailableActions implements Game.
func (g *ScriptedGame) AvailableActions() []Action { return g.node.Actions }

// PossibleCards implements Game.
func (g *ScriptedGame) PossibleCards() uint64 {
	return FullDeck &^ (BoardMask(g.board) | g.node.Dead)
}

// PrivateCards implements Game.
func (g *ScriptedGame) PrivateCards(player int) []HolePair {
	return g.private[player]
}

// CacheNormalizedWeights implements Game. The scripted tree keeps its buffers
// precomputed, so this is a no-op.
func (g *ScriptedGame) CacheNormalizedWeights() {}

// Weights implements Game.
func (g *ScriptedGame) Weights(player int) []float32 {
	if buf := g.node.inherited(func(n *ScriptNode) []float32 { return n.Weights[player] }); buf != nil {
		return buf
	}
	return uniform(len(g.private[player]), 1)
}

// NormalizedWeights implements Game. Unset normalized weights fall back to
// the raw weights.
func (g *ScriptedGame) NormalizedWeights(player int) []float32 {
	if buf := g.node.inherited(func(n *ScriptNode) []float32 { return n.NormWeights[player] }); buf != nil {
		return buf
	}
	return g.Weights(player)
}

// Strategy implements Game. Unset strategies are uniform over the actions.
func (g *ScriptedGame) Strategy() []float32 {
	if buf := g.node.inherited(func(n *ScriptNode) []float32 { return n.Strategy }); buf != nil {
		return buf
	}
	numActions := len(g.node.Actions)
	if numActions == 0 {
		return nil
	}
	return uniform(numActions*len(g.private[g.node.Player]), 1/float32(numActions))
}

// Equity implements Game.
func (g *ScriptedGame) Equity(player int) []float32 {
	if buf := g.node.inherited(func(n *ScriptNode) []float32 { return n.Equity[player] }); buf != nil {
		return buf
	}
	return make([]float32, len(g.private[player]))
}

// ExpectedValues implements Game.
func (g *ScriptedGame) ExpectedValues(player int) []float32 {
	if buf := g.node.inherited(func(n *ScriptNode) []float32 { return n.EV[player] }); buf != nil {
		return buf
	}
	return make([]float32, len(g.private[player]))
}

// ExpectedValuesDetail implements Game.
func (g *ScriptedGame) ExpectedValuesDetail(player int) []float32 {
	if buf := g.node.inherited(func(n *ScriptNode) []float32 { return n.ActionEV }); buf != nil {
		return buf
	}
	return make([]float32, len(g.node.Actions)*len(g.private[player]))
}

// TotalBetAmount implements Game.
func (g *ScriptedGame) TotalBetAmount() [2]int { return g.bets }

// TreeConfig implements Game.
func (g *ScriptedGame) TreeConfig() TreeConfig { return g.cfg }

// CurrentBoard implements Game.
func (g *ScriptedGame) CurrentBoard() []Card { return g.board }

func uniform(n int, v float32) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}
