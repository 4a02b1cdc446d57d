package nav

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lox/postflop-explorer/internal/solver"
)

// Navigator owns the visited-path spot list over a single solver cursor and
// keeps both consistent: replaying the resolved selections of the spots below
// the open spot reproduces the solver's history exactly.
//
// A Navigator is not safe for concurrent use. Branch exploration clones the
// whole navigator, mutates the clone, and discards it on backtrack; see Clone.
type Navigator struct {
	game solver.Game
	log  zerolog.Logger

	spots               []Spot
	selectedSpotIndex   int
	selectedChanceIndex int
	isDealing           bool

	// dealtChanceIndex is the chance spot a deal in progress resolves;
	// -1 outside a deal.
	dealtChanceIndex int

	snapshot         *Snapshot
	chanceReport     *ChanceReport
	canChanceReports bool

	totalBetAmount         [2]int
	totalBetAmountAppended [2]int
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLogger attaches a logger for navigation tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(n *Navigator) { n.log = log }
}

// New seeds a navigator with the synthetic root spot and opens the first
// decision spot.
func New(game solver.Game, opts ...Option) (*Navigator, error) {
	cfg := game.TreeConfig()
	n := &Navigator{
		game:                game,
		log:                 zerolog.Nop(),
		selectedSpotIndex:   -1,
		selectedChanceIndex: -1,
		dealtChanceIndex:    -1,
	}
	for _, opt := range opts {
		opt(n)
	}

	n.spots = append(n.spots, Spot{
		Kind:     SpotRoot,
		Index:    0,
		Player:   RoleFlop,
		Selected: Unresolved,
		Pot:      float64(cfg.StartingPot),
		Stack:    float64(cfg.EffectiveStack),
	})

	if err := n.selectSpot(1, true, false); err != nil {
		return nil, err
	}
	return n, nil
}

// Spots returns the visited path. The slice is owned by the navigator.
func (n *Navigator) Spots() []Spot { return n.spots }

// SelectedSpotIndex returns the index of the open spot.
func (n *Navigator) SelectedSpotIndex() int { return n.selectedSpotIndex }

// SelectedChanceIndex returns the index of the earliest unresolved chance
// spot at or before the open spot, or -1 if none.
func (n *Navigator) SelectedChanceIndex() int { return n.selectedChanceIndex }

// Snapshot returns the cached result snapshot for the open spot.
func (n *Navigator) Snapshot() *Snapshot { return n.snapshot }

// CanChanceReports reports whether a per-card chance report is available.
func (n *Navigator) CanChanceReports() bool { return n.canChanceReports }

// ChanceReport returns the cached per-card report, or nil.
func (n *Navigator) ChanceReport() *ChanceReport { return n.chanceReport }

// TotalBetAmount returns the bet totals of the replayed history.
func (n *Navigator) TotalBetAmount() [2]int { return n.totalBetAmount }

// AppendedBetAmount returns the bet totals at the open spot, including the
// speculative append across any pending chance.
func (n *Navigator) AppendedBetAmount() [2]int { return n.totalBetAmountAppended }

// Clone copies the whole cursor for alternate-branch exploration. The solver
// handle is shared: callers must restore its history before reusing the
// original navigator, or pass an independently cloned game.
func (n *Navigator) Clone(game solver.Game) *Navigator {
	if game == nil {
		game = n.game
	}
	out := &Navigator{
		game:                   game,
		log:                    n.log,
		selectedSpotIndex:      n.selectedSpotIndex,
		selectedChanceIndex:    n.selectedChanceIndex,
		isDealing:              n.isDealing,
		dealtChanceIndex:       n.dealtChanceIndex,
		snapshot:               n.snapshot,
		chanceReport:           n.chanceReport,
		canChanceReports:       n.canChanceReports,
		totalBetAmount:         n.totalBetAmount,
		totalBetAmountAppended: n.totalBetAmountAppended,
	}
	out.spots = make([]Spot, len(n.spots))
	for i := range n.spots {
		out.spots[i] = n.spots[i].clone()
	}
	return out
}

// SelectSpot opens the spot at the given index, replaying the minimal history
// prefix into the solver and refreshing the cached snapshot. With rebuild the
// spot list tail past the target is rebuilt from the solver's tree shape.
func (n *Navigator) SelectSpot(spotIndex int, rebuild bool) error {
	return n.selectSpot(spotIndex, rebuild, false)
}

// Play chooses an action at the open spot and advances to the next one.
func (n *Navigator) Play(actionIndex int) error {
	open := n.selectedSpotIndex
	if open < 0 || open >= len(n.spots) {
		return fmt.Errorf("no open spot to play from (index %d)", open)
	}
	spot := &n.spots[open]
	if spot.Kind != SpotPlayer {
		return fmt.Errorf("spot %d is a %s node, not a player node", open, spot.Kind)
	}
	if actionIndex < 0 || actionIndex >= len(spot.Actions) {
		return fmt.Errorf("action index %d out of range (spot %d has %d actions)", actionIndex, open, len(spot.Actions))
	}

	if spot.Selected >= 0 {
		spot.Actions[spot.Selected].Selected = false
	}
	spot.Actions[actionIndex].Selected = true
	spot.Selected = actionIndex

	n.log.Debug().Int("spot", open).Str("action", spot.Actions[actionIndex].Action.String()).Msg("play")
	return n.selectSpot(open+1, true, false)
}

// Deal resolves the pending chance spot with the given card and refreshes
// the open spot's results. With no chance pending, the nearest resolved
// chance spot at or before the open spot is dealt again: this is how a
// caller swaps the turn card after already exploring past it.
func (n *Navigator) Deal(card int) error {
	ci := n.selectedChanceIndex
	if ci < 0 {
		for i := min(n.selectedSpotIndex, len(n.spots)-1); i >= 1; i-- {
			if n.spots[i].Kind == SpotChance {
				ci = i
				break
			}
		}
	}
	if ci < 0 || ci >= len(n.spots) || n.spots[ci].Kind != SpotChance {
		return fmt.Errorf("no chance spot to deal into")
	}
	if card < 0 || card >= solver.NumCards {
		return fmt.Errorf("card index %d out of range", card)
	}
	spot := &n.spots[ci]
	if spot.Cards[card].Dead {
		return fmt.Errorf("card %s is dead at spot %d", solver.Card(card), ci)
	}

	n.isDealing = true
	n.dealtChanceIndex = ci
	if spot.Selected >= 0 {
		spot.Cards[spot.Selected].Selected = false
	}
	spot.Cards[card].Selected = true
	spot.Selected = card

	n.log.Debug().Int("spot", ci).Str("card", solver.Card(card).String()).Msg("deal")
	return n.selectSpot(n.selectedSpotIndex, false, true)
}

func (n *Navigator) selectSpot(spotIndex int, rebuild, fromDeal bool) error {
	if spotIndex == 0 {
		return n.selectSpot(1, true, false)
	}
	if spotIndex < 1 || spotIndex > len(n.spots) || (!rebuild && spotIndex >= len(n.spots)) {
		return fmt.Errorf("spot index %d out of range (%d spots)", spotIndex, len(n.spots))
	}

	// A repeated selection with no intervening play or deal is a no-op:
	// the cached snapshot is already for this position.
	if !rebuild && !fromDeal {
		if spotIndex == n.selectedSpotIndex || spotIndex == n.selectedChanceIndex {
			return nil
		}
		if n.spots[spotIndex].Kind == SpotChance && n.selectedChanceIndex >= 0 && spotIndex > n.selectedChanceIndex {
			return nil
		}
	}

	if fromDeal {
		n.processFromDeal()
	}

	// Recompute the earliest unresolved chance spot at or before the
	// target, and from it how far history can be replayed.
	spotTmp, chanceTmp := n.selectedSpotIndex, n.selectedChanceIndex
	if !rebuild && n.spots[spotIndex].Kind == SpotChance && n.spots[spotIndex].Selected < 0 {
		chanceTmp = spotIndex
		if spotTmp < spotIndex+1 {
			spotTmp = spotIndex + 1
		}
	} else {
		spotTmp = spotIndex
		if spotIndex <= chanceTmp {
			chanceTmp = -1
		}
	}
	if chanceTmp >= 0 && (chanceTmp >= len(n.spots) || n.spots[chanceTmp].Kind != SpotChance || n.spots[chanceTmp].Selected >= 0) {
		chanceTmp = -1
	}
	if chanceTmp < 0 {
		for i := 1; i < spotTmp && i < len(n.spots); i++ {
			if n.spots[i].Kind == SpotChance && n.spots[i].Selected < 0 {
				chanceTmp = i
				break
			}
		}
	}

	endIndex := spotTmp
	if chanceTmp >= 0 && chanceTmp < endIndex {
		endIndex = chanceTmp
	}
	if endIndex > len(n.spots) {
		endIndex = len(n.spots)
	}

	// The solver only supports whole-history application, so every move
	// is a full reset-and-replay of the resolved prefix.
	history := make([]int, 0, endIndex)
	for i := 1; i < endIndex && i < len(n.spots); i++ {
		if n.spots[i].Selected >= 0 {
			history = append(history, n.spots[i].Selected)
		}
	}
	n.game.BackToRoot()
	n.game.ApplyHistory(history)

	snap := extract(n.game)
	n.snapshot = snap

	if rebuild {
		target := n.nodeInfoAfter(n.appendPath(endIndex, spotIndex))
		switch target.Kind {
		case NodeTerminal:
			n.spliceTerminal(spotIndex, snap, target, chanceTmp >= 0 && chanceTmp < spotIndex)
		case NodeChance:
			n.spliceChance(spotIndex, target, n.appendPath(endIndex, spotIndex))
			// The freshly opened chance is now the pending one and
			// the caller-visible position moves to the player spot
			// that follows it.
			chanceTmp = spotIndex
			spotTmp = spotIndex + 1
		default:
			n.splicePlayer(spotIndex, target)
		}
	}

	open := n.nodeInfoAfter(n.appendPath(endIndex, spotTmp))
	n.totalBetAmount = n.game.TotalBetAmount()
	n.totalBetAmountAppended = open.Bets

	canReports := chanceTmp >= 0
	if canReports {
		for i := chanceTmp + 1; i < spotTmp && i < len(n.spots); i++ {
			if n.spots[i].Kind == SpotChance {
				canReports = false
				break
			}
		}
	}
	if canReports && open.Kind == NodeChance {
		// Two consecutive deals: no report across both.
		canReports = false
	}
	n.canChanceReports = canReports
	if canReports {
		n.chanceReport = n.computeChanceReport(n.appendPath(chanceTmp+1, spotTmp), open)
	} else {
		n.chanceReport = nil
	}

	if chanceTmp < 0 && snap.Kind == NodePlayer && spotTmp < len(n.spots) && n.spots[spotTmp].Kind == SpotPlayer {
		refreshRates(&n.spots[spotTmp], snap)
	}

	n.selectedSpotIndex = spotTmp
	n.selectedChanceIndex = chanceTmp
	n.isDealing = false
	n.dealtChanceIndex = -1

	n.log.Debug().
		Int("spot", spotTmp).
		Int("chance", chanceTmp).
		Str("node", snap.Kind.String()).
		Bool("reports", canReports).
		Msg("select spot")
	return nil
}

// processFromDeal repairs state a deal can invalidate: a later chance spot's
// dead-card flags (the dealt card is now removed), and a terminal spot whose
// cached equity was computed past a then-unresolved chance.
func (n *Navigator) processFromDeal() {
	n.repairNextChance()
	n.repairTerminal()
}

func (n *Navigator) repairNextChance() {
	resolved := n.dealtChanceIndex
	if resolved < 0 || resolved >= len(n.spots) {
		return
	}

	next := -1
	for i := resolved + 1; i < len(n.spots); i++ {
		if n.spots[i].Kind == SpotChance {
			next = i
			break
		}
	}
	if next < 0 {
		return
	}

	history := make([]int, 0, next)
	for i := 1; i < next; i++ {
		if n.spots[i].Selected < 0 {
			return
		}
		history = append(history, n.spots[i].Selected)
	}

	saved := n.game.ClonedHistory()
	n.game.BackToRoot()
	n.game.ApplyHistory(history)
	mask := n.game.PossibleCards()
	n.game.ApplyHistory(saved)

	spot := &n.spots[next]
	for c := range spot.Cards {
		dead := mask&(1<<uint(c)) == 0
		spot.Cards[c].Dead = dead
		if dead && spot.Selected == c {
			spot.Cards[c].Selected = false
			spot.Selected = Unresolved
		}
	}
}

func (n *Navigator) repairTerminal() {
	last := len(n.spots) - 1
	if last < 1 || n.spots[last].Kind != SpotTerminal {
		return
	}
	t := &n.spots[last]

	// Fold equity is fixed at 0/1 and independent of any deal.
	if prev, ok := n.spots[last-1].SelectedAction(); ok && prev.Action.Kind == solver.ActionFold {
		return
	}
	if t.EquityOOP != EquityUnavailable && (t.EquityOOP <= 0 || t.EquityOOP >= 1) {
		return
	}

	history := make([]int, 0, last)
	for i := 1; i < last; i++ {
		if n.spots[i].Selected < 0 {
			t.EquityOOP = EquityUnavailable
			return
		}
		history = append(history, n.spots[i].Selected)
	}

	saved := n.game.ClonedHistory()
	n.game.BackToRoot()
	n.game.ApplyHistory(history)
	snap := extract(n.game)
	n.game.ApplyHistory(saved)

	if snap.EmptyFlag > 0 {
		t.EquityOOP = EquityUnavailable
		return
	}
	t.EquityOOP = roundScaled(weightedAverage(snap.Equity[solver.OOP], snap.Normalizer[solver.OOP]))
}

// refreshRates recomputes each action's range-weighted frequency at the open
// player spot from the cached snapshot.
func refreshRates(spot *Spot, snap *Snapshot) {
	if snap.IsEmpty() {
		for i := range spot.Actions {
			spot.Actions[i].Rate = RateUnavailable
		}
		return
	}

	seat := snap.Player
	if seat < 0 {
		return
	}
	norm := snap.Normalizer[seat]
	rangeSize := len(norm)

	for i := range spot.Actions {
		var freq, weight float64
		for h := 0; h < rangeSize; h++ {
			idx := i*rangeSize + h
			if idx >= len(snap.Strategy) {
				break
			}
			freq += snap.Strategy[idx] * norm[h]
			weight += norm[h]
		}
		if weight > 0 {
			spot.Actions[i].Rate = freq / weight
		} else {
			spot.Actions[i].Rate = RateUnavailable
		}
	}
}
