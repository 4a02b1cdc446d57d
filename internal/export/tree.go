// Package export walks a navigator over its solver cursor and writes the
// downstream JSON schemas: a recursive exploration tree keyed by formatted
// action and card strings, and per-path range snapshots.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lox/postflop-explorer/internal/fileutil"
	"github.com/lox/postflop-explorer/internal/nav"
	"github.com/lox/postflop-explorer/internal/solver"
)

// NodeStrategy is the per-hand strategy block of a tree node.
type NodeStrategy struct {
	Actions  []string             `json:"actions"`
	Strategy map[string][]float64 `json:"strategy"`
}

// TreeNode is one node of the exported exploration tree.
type TreeNode struct {
	Actions    []string             `json:"actions"`
	Children   map[string]*TreeNode `json:"childrens"`
	NodeType   string               `json:"node_type"`
	Player     string               `json:"player"`
	Strategy   *NodeStrategy        `json:"strategy,omitempty"`
	Path       []string             `json:"path"`
	PathString string               `json:"path_string"`
}

// Explorer builds exploration trees by clone-and-discard branching: each
// branch runs on a cloned navigator and the solver history is restored
// before the next sibling.
type Explorer struct {
	game     solver.Game
	log      zerolog.Logger
	maxDepth int
}

// NewExplorer returns an explorer bounded to maxDepth player decisions.
func NewExplorer(game solver.Game, maxDepth int, log zerolog.Logger) *Explorer {
	return &Explorer{game: game, maxDepth: maxDepth, log: log}
}

// streets tracks formatted actions per street for path_string rendering.
type streets struct {
	flop, turn, river []string
	current           byte
}

func (s *streets) push(entry string) {
	switch s.current {
	case 'T':
		s.turn = append(s.turn, entry)
	case 'R':
		s.river = append(s.river, entry)
	default:
		s.flop = append(s.flop, entry)
	}
}

func (s *streets) pop() {
	switch s.current {
	case 'T':
		s.turn = s.turn[:len(s.turn)-1]
	case 'R':
		s.river = s.river[:len(s.river)-1]
	default:
		s.flop = s.flop[:len(s.flop)-1]
	}
}

// pathString renders the street-grouped form "F:Bet10-Call, T:Kc-Check".
func (s *streets) pathString() string {
	var parts []string
	if len(s.flop) > 0 {
		parts = append(parts, "F:"+strings.Join(s.flop, "-"))
	}
	if len(s.turn) > 0 {
		parts = append(parts, "T:"+strings.Join(s.turn, "-"))
	}
	if len(s.river) > 0 {
		parts = append(parts, "R:"+strings.Join(s.river, "-"))
	}
	return strings.Join(parts, ", ")
}

// BuildTree explores every action line reachable from the navigator's
// current position and returns the tree. Chance nodes are expanded along a
// single representative card.
func (e *Explorer) BuildTree(navr *nav.Navigator) (*TreeNode, error) {
	st := &streets{current: 'F'}
	switch len(e.game.CurrentBoard()) {
	case 4:
		st.current = 'T'
	case 5:
		st.current = 'R'
	}
	return e.buildNode(navr, nil, st, 0)
}

// SaveTree writes the exploration tree as indented JSON.
func (e *Explorer) SaveTree(navr *nav.Navigator, path string) error {
	tree, err := e.BuildTree(navr)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding exploration tree: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, raw, 0o644); err != nil {
		return err
	}
	e.log.Info().Str("path", path).Msg("exploration tree saved")
	return nil
}

func (e *Explorer) buildNode(navr *nav.Navigator, path []string, st *streets, depth int) (*TreeNode, error) {
	if ci := navr.SelectedChanceIndex(); ci >= 0 {
		return e.buildChanceNode(navr, ci, path, st, depth)
	}

	open := navr.SelectedSpotIndex()
	spots := navr.Spots()
	if open < 0 || open >= len(spots) {
		return nil, fmt.Errorf("open spot %d not found", open)
	}
	spot := &spots[open]

	switch spot.Kind {
	case nav.SpotTerminal:
		return &TreeNode{
			NodeType:   "terminal_node",
			Player:     "TERMINAL",
			Children:   map[string]*TreeNode{},
			Path:       append([]string(nil), path...),
			PathString: st.pathString(),
		}, nil
	case nav.SpotPlayer:
		return e.buildActionNode(navr, spot, path, st, depth)
	default:
		return nil, fmt.Errorf("cannot export %s spot at index %d", spot.Kind, open)
	}
}

func (e *Explorer) buildChanceNode(navr *nav.Navigator, ci int, path []string, st *streets, depth int) (*TreeNode, error) {
	spot := &navr.Spots()[ci]
	node := &TreeNode{
		NodeType:   "chance_node",
		Player:     strings.ToUpper(spot.Player.String()),
		Children:   map[string]*TreeNode{},
		Path:       append([]string(nil), path...),
		PathString: st.pathString(),
	}

	card := -1
	for c := range spot.Cards {
		if !spot.Cards[c].Dead {
			card = c
			break
		}
	}
	if card < 0 {
		return nil, errors.New("no dealable card at chance spot")
	}
	cardStr := solver.Card(card).String()

	prevStreet := st.current
	if spot.Player == nav.RoleTurn {
		st.current = 'T'
	} else {
		st.current = 'R'
	}
	st.push(cardStr)

	saved := e.game.ClonedHistory()
	clone := navr.Clone(nil)
	if err := clone.Deal(card); err != nil {
		return nil, err
	}

	childPath := append(path, fmt.Sprintf("%s:%s", titleRole(spot.Player), cardStr))
	child, err := e.buildNode(clone, childPath, st, depth)
	e.game.ApplyHistory(saved)
	st.pop()
	st.current = prevStreet
	if err != nil {
		return nil, err
	}

	node.Children[cardStr] = child
	return node, nil
}

func (e *Explorer) buildActionNode(navr *nav.Navigator, spot *nav.Spot, path []string, st *streets, depth int) (*TreeNode, error) {
	node := &TreeNode{
		NodeType:   "action_node",
		Player:     strings.ToUpper(spot.Player.String()),
		Children:   map[string]*TreeNode{},
		Path:       append([]string(nil), path...),
		PathString: st.pathString(),
	}

	for _, a := range spot.Actions {
		node.Actions = append(node.Actions, actionLabel(a))
	}
	node.Strategy = e.nodeStrategy(navr, spot, node.Actions)

	if depth >= e.maxDepth {
		return node, nil
	}

	for i := range spot.Actions {
		label := actionLabel(spot.Actions[i])
		st.push(strings.ReplaceAll(label, " ", ""))

		saved := e.game.ClonedHistory()
		clone := navr.Clone(nil)
		err := clone.Play(i)
		if err == nil {
			var child *TreeNode
			child, err = e.buildNode(clone, append(path, label), st, depth+1)
			if err == nil {
				node.Children[label] = child
			}
		}
		e.game.ApplyHistory(saved)
		st.pop()
		if err != nil {
			return nil, err
		}
	}

	return node, nil
}

// nodeStrategy maps each live hand of the acting seat to its per-action
// frequencies from the cached snapshot.
func (e *Explorer) nodeStrategy(navr *nav.Navigator, spot *nav.Spot, actions []string) *NodeStrategy {
	snap := navr.Snapshot()
	if snap == nil || snap.Kind != nav.NodePlayer || snap.Player < 0 {
		return nil
	}

	seat := snap.Player
	hands := solver.HolesToStrings(e.game.PrivateCards(seat))
	rangeSize := len(hands)

	strategy := make(map[string][]float64, rangeSize)
	for h, hand := range hands {
		if h < len(snap.Weights[seat]) && snap.Weights[seat][h] == 0 {
			continue
		}
		freqs := make([]float64, len(actions))
		for a := range freqs {
			if idx := a*rangeSize + h; idx < len(snap.Strategy) {
				freqs[a] = snap.Strategy[idx]
			}
		}
		strategy[hand] = freqs
	}

	return &NodeStrategy{Actions: actions, Strategy: strategy}
}

func actionLabel(a nav.SpotAction) string {
	if amount := a.Amount(); amount != "0" {
		return a.Name() + " " + amount
	}
	return a.Name()
}

func titleRole(r nav.Role) string {
	s := r.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
