package nav

import (
	"math"
	"testing"

	"github.com/lox/postflop-explorer/internal/solver"
)

func check() solver.Action { return solver.Action{Kind: solver.ActionCheck} }
func fold() solver.Action  { return solver.Action{Kind: solver.ActionFold} }
func call() solver.Action  { return solver.Action{Kind: solver.ActionCall} }
func bet(amount int) solver.Action {
	return solver.Action{Kind: solver.ActionBet, Amount: amount}
}
func allin(amount int) solver.Action {
	return solver.Action{Kind: solver.ActionAllIn, Amount: amount}
}

func navRanges(t *testing.T) [2][]solver.HolePair {
	t.Helper()
	oop, err := solver.ParseRange("AsAh,KsKh")
	if err != nil {
		t.Fatalf("parse oop range: %v", err)
	}
	ip, err := solver.ParseRange("AdAc,QdQc")
	if err != nil {
		t.Fatalf("parse ip range: %v", err)
	}
	return [2][]solver.HolePair{oop, ip}
}

// navTree builds the two-street fixture shared by the navigation tests.
// Flop: OOP checks or bets 10; a bet can be folded, called, and the
// check line can be bet into. Turn: check, bet 30 or shove; the shove
// called ends in an immediate showdown, the other lines run to the river.
func navTree() *solver.ScriptNode {
	uniform := []float32{1, 1}

	river := func() *solver.ScriptNode {
		showdown := solver.TerminalNode().
			WithEquity([]float32{0.8, 0.4}, []float32{0.2, 0.6})
		return solver.ChanceNode().On(solver.AnyCard,
			solver.PlayerNode(solver.OOP, check()).WithStrategy(uniform).On(0,
				solver.PlayerNode(solver.IP, check()).WithStrategy(uniform).On(0, showdown)))
	}

	turn := func() *solver.ScriptNode {
		turnIP := solver.PlayerNode(solver.IP, check()).
			WithStrategy(uniform).
			On(0, river())
		turnIPvsBet := solver.PlayerNode(solver.IP, fold(), call()).
			On(0, solver.TerminalNode()).
			On(1, river())
		allinIP := solver.PlayerNode(solver.IP, fold(), call()).
			On(0, solver.TerminalNode()).
			On(1, solver.TerminalNode().
				WithEquity([]float32{0.8, 0.4}, []float32{0.2, 0.6}))

		return solver.ChanceNode().On(solver.AnyCard,
			solver.PlayerNode(solver.OOP, check(), bet(30), allin(100)).
				WithStrategy([]float32{0.5, 0.5, 0.25, 0.25, 0.25, 0.25}).
				On(0, turnIP).
				On(1, turnIPvsBet).
				On(2, allinIP))
	}

	root := solver.PlayerNode(solver.OOP, check(), bet(10)).
		On(0, solver.PlayerNode(solver.IP, check(), bet(10)).
			On(0, turn()).
			On(1, solver.PlayerNode(solver.OOP, fold(), call()).
				On(0, solver.TerminalNode()).
				On(1, turn()))).
		On(1, solver.PlayerNode(solver.IP, fold(), call()).
			WithStrategy([]float32{0.25, 0.25, 0.75, 0.75}).
			On(0, solver.TerminalNode()).
			On(1, turn()))

	return root.
		WithStrategy([]float32{0.3, 0.1, 0.7, 0.9}).
		WithEquity([]float32{0.6, 0.4}, []float32{0.5, 0.5}).
		WithEV([]float32{12, 8}, []float32{10, 10})
}

func newNavigator(t *testing.T) (*Navigator, solver.Game) {
	t.Helper()
	board, err := solver.ParseBoard("Td9d6h")
	if err != nil {
		t.Fatalf("parse board: %v", err)
	}
	cfg := solver.TreeConfig{StartingPot: 20, EffectiveStack: 100}
	game := solver.NewScriptedGame(cfg, board, navRanges(t), navTree())

	navr, err := New(game)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return navr, game
}

func mustCard(t *testing.T, s string) int {
	t.Helper()
	c, err := solver.ParseCard(s)
	if err != nil {
		t.Fatalf("parse card %q: %v", s, err)
	}
	return int(c)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewSeedsRootAndFirstSpot(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)

	spots := navr.Spots()
	if len(spots) != 2 {
		t.Fatalf("expected 2 spots after New, got %d", len(spots))
	}
	if spots[0].Kind != SpotRoot || spots[0].Player != RoleFlop {
		t.Errorf("spot 0 = %s/%s, want root/flop", spots[0].Kind, spots[0].Player)
	}
	if spots[1].Kind != SpotPlayer || spots[1].Player != RoleOOP {
		t.Errorf("spot 1 = %s/%s, want player/oop", spots[1].Kind, spots[1].Player)
	}
	if spots[1].Pot != 20 || spots[1].Stack != 100 {
		t.Errorf("spot 1 pot/stack = %v/%v, want 20/100", spots[1].Pot, spots[1].Stack)
	}
	if navr.SelectedSpotIndex() != 1 || navr.SelectedChanceIndex() != -1 {
		t.Errorf("indices = %d/%d, want 1/-1", navr.SelectedSpotIndex(), navr.SelectedChanceIndex())
	}

	snap := navr.Snapshot()
	if snap == nil || snap.Kind != NodePlayer || snap.Player != solver.OOP {
		t.Fatalf("root snapshot should be an OOP player node")
	}
	if !near(snap.PotOOP, 20) || !near(snap.PotIP, 20) {
		t.Errorf("root pots = %v/%v, want 20/20", snap.PotOOP, snap.PotIP)
	}

	// Rates come from the range-weighted strategy columns.
	if !near(spots[1].Actions[0].Rate, 0.2) || !near(spots[1].Actions[1].Rate, 0.8) {
		t.Errorf("root rates = %v/%v, want 0.2/0.8",
			spots[1].Actions[0].Rate, spots[1].Actions[1].Rate)
	}
}

func TestScenarioBetCallDeal(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)

	// OOP bets 10: the IP spot opens with the pot grown by the bet.
	if err := navr.Play(1); err != nil {
		t.Fatalf("play bet: %v", err)
	}
	spots := navr.Spots()
	if len(spots) != 3 || spots[2].Kind != SpotPlayer || spots[2].Player != RoleIP {
		t.Fatalf("expected IP player spot at 2, got %+v", spots[len(spots)-1])
	}
	if spots[2].Pot != 30 {
		t.Errorf("IP spot pot = %v, want 30", spots[2].Pot)
	}
	if got := navr.TotalBetAmount(); got != [2]int{10, 0} {
		t.Errorf("bets = %v, want [10 0]", got)
	}
	if !near(spots[2].Actions[0].Rate, 0.25) || !near(spots[2].Actions[1].Rate, 0.75) {
		t.Errorf("IP rates = %v/%v, want 0.25/0.75",
			spots[2].Actions[0].Rate, spots[2].Actions[1].Rate)
	}

	// IP calls: a chance spot opens with the pot level at 40, plus the
	// turn player spot that follows it.
	if err := navr.Play(1); err != nil {
		t.Fatalf("play call: %v", err)
	}
	spots = navr.Spots()
	if len(spots) != 5 {
		t.Fatalf("expected 5 spots after call, got %d", len(spots))
	}
	chance := spots[3]
	if chance.Kind != SpotChance || chance.Player != RoleTurn {
		t.Fatalf("spot 3 = %s/%s, want chance/turn", chance.Kind, chance.Player)
	}
	if chance.Pot != 40 || chance.Stack != 90 {
		t.Errorf("chance pot/stack = %v/%v, want 40/90", chance.Pot, chance.Stack)
	}
	if spots[4].Kind != SpotPlayer || spots[4].Player != RoleOOP {
		t.Errorf("spot 4 = %s/%s, want player/oop", spots[4].Kind, spots[4].Player)
	}
	if len(spots[4].Actions) != 3 {
		t.Errorf("turn spot has %d actions, want 3", len(spots[4].Actions))
	}
	if navr.SelectedSpotIndex() != 4 || navr.SelectedChanceIndex() != 3 {
		t.Errorf("indices = %d/%d, want 4/3", navr.SelectedSpotIndex(), navr.SelectedChanceIndex())
	}
	if navr.Snapshot().Kind != NodeChance {
		t.Error("snapshot should report the pending chance node")
	}
	if !navr.CanChanceReports() || navr.ChanceReport() == nil {
		t.Error("chance report should be available before the deal")
	}

	// Board cards are dead at the chance spot.
	for _, s := range []string{"Td", "9d", "6h"} {
		if !chance.Cards[mustCard(t, s)].Dead {
			t.Errorf("board card %s should be dead", s)
		}
	}

	// Dealing keeps the pot at 40 and resolves the chance spot.
	kc := mustCard(t, "Kc")
	if err := navr.Deal(kc); err != nil {
		t.Fatalf("deal: %v", err)
	}
	spots = navr.Spots()
	if spots[3].Selected != kc || !spots[3].Cards[kc].Selected {
		t.Errorf("chance selection = %d, want %d", spots[3].Selected, kc)
	}
	if navr.SelectedSpotIndex() != 4 || navr.SelectedChanceIndex() != -1 {
		t.Errorf("indices after deal = %d/%d, want 4/-1",
			navr.SelectedSpotIndex(), navr.SelectedChanceIndex())
	}
	if got := navr.TotalBetAmount(); got != [2]int{10, 10} {
		t.Errorf("bets after deal = %v, want [10 10]", got)
	}
	snap := navr.Snapshot()
	if snap.Kind != NodePlayer || snap.Player != solver.OOP {
		t.Fatalf("post-deal snapshot should be the turn OOP node")
	}
	if !near(snap.PotOOP, 40) {
		t.Errorf("post-deal pot = %v, want 40", snap.PotOOP)
	}
	if navr.ChanceReport() != nil {
		t.Error("chance report should be dropped once the card is dealt")
	}
	if !near(spots[4].Actions[0].Rate, 0.5) {
		t.Errorf("turn check rate = %v, want 0.5", spots[4].Actions[0].Rate)
	}

	// OOP checks: the pot does not change across a check.
	if err := navr.Play(0); err != nil {
		t.Fatalf("play check: %v", err)
	}
	spots = navr.Spots()
	if spots[5].Kind != SpotPlayer || spots[5].Player != RoleIP {
		t.Fatalf("spot 5 = %s/%s, want player/ip", spots[5].Kind, spots[5].Player)
	}
	if spots[5].Pot != 40 {
		t.Errorf("pot after check = %v, want 40", spots[5].Pot)
	}
}

func TestFoldTerminalEquity(t *testing.T) {
	t.Parallel()

	t.Run("ip folds", func(t *testing.T) {
		navr, _ := newNavigator(t)
		if err := navr.Play(1); err != nil { // OOP bets
			t.Fatal(err)
		}
		if err := navr.Play(0); err != nil { // IP folds
			t.Fatal(err)
		}
		spots := navr.Spots()
		last := spots[len(spots)-1]
		if last.Kind != SpotTerminal || last.Player != RoleEnd {
			t.Fatalf("expected terminal spot, got %s/%s", last.Kind, last.Player)
		}
		if last.EquityOOP != 1.0 {
			t.Errorf("equity after IP fold = %v, want 1.0", last.EquityOOP)
		}
		if last.Pot != 30 {
			t.Errorf("terminal pot = %v, want 30", last.Pot)
		}
		if last.PrevPlayer != RoleIP {
			t.Errorf("prev player = %s, want ip", last.PrevPlayer)
		}
	})

	t.Run("oop folds", func(t *testing.T) {
		navr, _ := newNavigator(t)
		if err := navr.Play(0); err != nil { // OOP checks
			t.Fatal(err)
		}
		if err := navr.Play(1); err != nil { // IP bets
			t.Fatal(err)
		}
		if err := navr.Play(0); err != nil { // OOP folds
			t.Fatal(err)
		}
		spots := navr.Spots()
		last := spots[len(spots)-1]
		if last.Kind != SpotTerminal {
			t.Fatalf("expected terminal spot, got %s", last.Kind)
		}
		if last.EquityOOP != 0.0 {
			t.Errorf("equity after OOP fold = %v, want 0.0", last.EquityOOP)
		}
	})
}

func TestRevisitRoundTrip(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)

	for _, step := range []int{1, 1} {
		if err := navr.Play(step); err != nil {
			t.Fatal(err)
		}
	}
	if err := navr.Deal(mustCard(t, "Kc")); err != nil {
		t.Fatal(err)
	}

	// Going back to the root spot must not rebuild the tail.
	if err := navr.SelectSpot(1, false); err != nil {
		t.Fatalf("select spot 1: %v", err)
	}
	if len(navr.Spots()) != 5 {
		t.Fatalf("revisit truncated the path: %d spots", len(navr.Spots()))
	}
	if !near(navr.Snapshot().PotOOP, 20) {
		t.Errorf("root snapshot pot = %v, want 20", navr.Snapshot().PotOOP)
	}
	if navr.Spots()[1].Selected != 1 || navr.Spots()[3].Selected != mustCard(t, "Kc") {
		t.Error("revisit must keep resolved selections")
	}

	// And forward again to the turn spot.
	if err := navr.SelectSpot(4, false); err != nil {
		t.Fatalf("select spot 4: %v", err)
	}
	snap := navr.Snapshot()
	if snap.Kind != NodePlayer || !near(snap.PotOOP, 40) {
		t.Errorf("turn snapshot = %s/%v, want player/40", snap.Kind, snap.PotOOP)
	}
}

func TestSelectSpotNoOp(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)

	before := navr.Snapshot()
	if err := navr.SelectSpot(1, false); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if navr.Snapshot() != before {
		t.Error("reselecting the open spot must not re-extract")
	}
}

func TestPlayAndDealErrors(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)

	if err := navr.Play(5); err == nil {
		t.Error("expected error for out-of-range action index")
	}
	if err := navr.Play(-1); err == nil {
		t.Error("expected error for negative action index")
	}
	if err := navr.Deal(0); err == nil {
		t.Error("expected error when no chance spot exists")
	}

	// Walk to the fold terminal: playing there must fail.
	if err := navr.Play(1); err != nil {
		t.Fatal(err)
	}
	if err := navr.Play(0); err != nil {
		t.Fatal(err)
	}
	if err := navr.Play(0); err == nil {
		t.Error("expected error when playing at a terminal spot")
	}
}

func TestDealValidation(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)
	for _, step := range []int{1, 1} {
		if err := navr.Play(step); err != nil {
			t.Fatal(err)
		}
	}

	if err := navr.Deal(mustCard(t, "Td")); err == nil {
		t.Error("expected error for dead board card")
	}
	if err := navr.Deal(52); err == nil {
		t.Error("expected error for out-of-range card")
	}
	if err := navr.Deal(-1); err == nil {
		t.Error("expected error for negative card")
	}

	// Validation failures must not change the cursor.
	if navr.SelectedChanceIndex() != 3 || navr.Spots()[3].Selected != Unresolved {
		t.Error("failed deal mutated the chance spot")
	}
}

func TestPlayPastPendingChance(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)
	for _, step := range []int{1, 1} {
		if err := navr.Play(step); err != nil {
			t.Fatal(err)
		}
	}

	// Play the turn check without dealing: the chance spot stays pending
	// and results remain those of the chance node.
	if err := navr.Play(0); err != nil {
		t.Fatalf("play past pending chance: %v", err)
	}
	if navr.SelectedSpotIndex() != 5 || navr.SelectedChanceIndex() != 3 {
		t.Fatalf("indices = %d/%d, want 5/3", navr.SelectedSpotIndex(), navr.SelectedChanceIndex())
	}
	spots := navr.Spots()
	if spots[5].Kind != SpotPlayer || spots[5].Player != RoleIP {
		t.Fatalf("spot 5 = %s/%s, want player/ip", spots[5].Kind, spots[5].Player)
	}
	if navr.Snapshot().Kind != NodeChance {
		t.Error("snapshot should stay pending on the chance node")
	}
	if !navr.CanChanceReports() {
		t.Error("chance report should still be available")
	}

	// Dealing now resolves the chance and refreshes the open spot.
	if err := navr.Deal(mustCard(t, "Kc")); err != nil {
		t.Fatalf("deal: %v", err)
	}
	if navr.SelectedSpotIndex() != 5 || navr.SelectedChanceIndex() != -1 {
		t.Fatalf("indices after deal = %d/%d, want 5/-1",
			navr.SelectedSpotIndex(), navr.SelectedChanceIndex())
	}
	snap := navr.Snapshot()
	if snap.Kind != NodePlayer || snap.Player != solver.IP {
		t.Fatalf("post-deal snapshot should be the turn IP node")
	}
	if !near(navr.Spots()[5].Actions[0].Rate, 1.0) {
		t.Errorf("check rate = %v, want 1.0", navr.Spots()[5].Actions[0].Rate)
	}
}

func TestTerminalEquityRepairedAfterDeal(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)
	for _, step := range []int{1, 1} {
		if err := navr.Play(step); err != nil {
			t.Fatal(err)
		}
	}

	// Shove and call past the undealt turn: the terminal equity cannot be
	// computed yet.
	if err := navr.Play(2); err != nil { // AllIn 100
		t.Fatal(err)
	}
	if err := navr.Play(1); err != nil { // Call
		t.Fatal(err)
	}
	spots := navr.Spots()
	last := &spots[len(spots)-1]
	if last.Kind != SpotTerminal {
		t.Fatalf("expected terminal spot, got %s", last.Kind)
	}
	if last.EquityOOP != EquityUnavailable {
		t.Errorf("skipped-chance terminal equity = %v, want unavailable", last.EquityOOP)
	}
	if last.Pot != 220 {
		t.Errorf("terminal pot = %v, want 220", last.Pot)
	}

	// Resolving the turn backfills the showdown equity.
	if err := navr.Deal(mustCard(t, "Kc")); err != nil {
		t.Fatal(err)
	}
	spots = navr.Spots()
	if got := spots[len(spots)-1].EquityOOP; !near(got, 0.6) {
		t.Errorf("repaired equity = %v, want 0.6", got)
	}
}

func TestRedealRepairsRiverDeadCards(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)

	kc, ac := mustCard(t, "Kc"), mustCard(t, "Ac")

	// Check-check to the turn, deal Kc, check-check to the river.
	for _, step := range []int{0, 0} {
		if err := navr.Play(step); err != nil {
			t.Fatal(err)
		}
	}
	if err := navr.Deal(kc); err != nil {
		t.Fatal(err)
	}
	for _, step := range []int{0, 0} {
		if err := navr.Play(step); err != nil {
			t.Fatal(err)
		}
	}

	spots := navr.Spots()
	if spots[6].Kind != SpotChance || spots[6].Player != RoleRiver {
		t.Fatalf("spot 6 = %s/%s, want chance/river", spots[6].Kind, spots[6].Player)
	}
	if !spots[6].Cards[kc].Dead {
		t.Error("turn card should be dead at the river")
	}

	// Resolve the river with Ac, then go back and swap the turn to Ac:
	// the river spot must deselect and re-flag its cards.
	if err := navr.Deal(ac); err != nil {
		t.Fatal(err)
	}
	if navr.Spots()[6].Selected != ac {
		t.Fatalf("river selection = %d, want %d", navr.Spots()[6].Selected, ac)
	}

	if err := navr.SelectSpot(3, false); err != nil {
		t.Fatal(err)
	}
	if err := navr.Deal(ac); err != nil {
		t.Fatalf("re-deal turn: %v", err)
	}

	spots = navr.Spots()
	if spots[3].Selected != ac || spots[3].Cards[kc].Selected {
		t.Errorf("turn selection = %d, want %d", spots[3].Selected, ac)
	}
	if !spots[6].Cards[ac].Dead {
		t.Error("Ac should be dead at the river after the turn re-deal")
	}
	if spots[6].Cards[kc].Dead {
		t.Error("Kc should be dealable at the river again")
	}
	if spots[6].Selected != Unresolved {
		t.Error("river selection should be cleared once its card went dead")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	navr, game := newNavigator(t)
	for _, step := range []int{1, 1} {
		if err := navr.Play(step); err != nil {
			t.Fatal(err)
		}
	}

	saved := game.ClonedHistory()
	clone := navr.Clone(nil)
	if err := clone.Deal(mustCard(t, "Kc")); err != nil {
		t.Fatalf("deal on clone: %v", err)
	}
	game.ApplyHistory(saved)

	if navr.Spots()[3].Selected != Unresolved {
		t.Error("deal on the clone leaked into the original spot list")
	}
	if clone.Spots()[3].Selected != mustCard(t, "Kc") {
		t.Error("clone should carry its own selection")
	}
	if navr.SelectedChanceIndex() != 3 || clone.SelectedChanceIndex() != -1 {
		t.Errorf("indices diverged wrong: original %d, clone %d",
			navr.SelectedChanceIndex(), clone.SelectedChanceIndex())
	}
}

func TestPotMonotonicity(t *testing.T) {
	t.Parallel()
	navr, _ := newNavigator(t)

	walk := []func() error{
		func() error { return navr.Play(1) },                  // bet
		func() error { return navr.Play(1) },                  // call
		func() error { return navr.Deal(mustCard(t, "Kc")) },  // turn
		func() error { return navr.Play(1) },                  // bet 30
		func() error { return navr.Play(1) },                  // call
		func() error { return navr.Deal(mustCard(t, "2c")) },  // river
		func() error { return navr.Play(0) },                  // check
		func() error { return navr.Play(0) },                  // check, showdown
	}
	for i, step := range walk {
		if err := step(); err != nil {
			t.Fatalf("walk step %d: %v", i, err)
		}
	}

	spots := navr.Spots()
	if spots[len(spots)-1].Kind != SpotTerminal {
		t.Fatalf("walk should end at a terminal spot")
	}
	for i := 1; i < len(spots); i++ {
		if spots[i].Pot < spots[i-1].Pot {
			t.Errorf("pot decreased from %v to %v at spot %d", spots[i-1].Pot, spots[i].Pot, i)
		}
	}
}
