package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lox/postflop-explorer/internal/fileutil"
	"github.com/lox/postflop-explorer/internal/nav"
	"github.com/lox/postflop-explorer/internal/solver"
)

// HandStrategy is the per-hand strategy block of a range snapshot. It is
// present only on hands of the acting seat.
type HandStrategy struct {
	Actions     []string  `json:"actions"`
	Frequencies []float64 `json:"frequencies"`
	EV          []float64 `json:"ev"`
}

// HandData carries one live combo of a seat's range.
type HandData struct {
	Hand     string        `json:"hand"`
	Weight   float64       `json:"weight"`
	Equity   float64       `json:"equity"`
	EV       float64       `json:"ev"`
	Strategy *HandStrategy `json:"strategy,omitempty"`
}

// PlayerData is one seat's side of a range snapshot.
type PlayerData struct {
	HandsCount  int        `json:"hands_count"`
	Hands       []HandData `json:"hands"`
	RangeString string     `json:"range_string"`
}

// RangeData is the exported per-path range snapshot.
type RangeData struct {
	PathID        string     `json:"path_id"`
	BoardSize     int        `json:"board_size"`
	Board         []string   `json:"board"`
	PotOOP        float64    `json:"pot_oop"`
	PotIP         float64    `json:"pot_ip"`
	CurrentPlayer string     `json:"current_player"`
	OOPPlayer     PlayerData `json:"oop_player"`
	IPPlayer      PlayerData `json:"ip_player"`
}

// BuildRangeData captures both seats' ranges at the navigator's open node.
// The solver cursor must be positioned at that node.
func BuildRangeData(game solver.Game, navr *nav.Navigator, pathID string) (*RangeData, error) {
	snap := navr.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("no snapshot for path %q", pathID)
	}

	board := game.CurrentBoard()
	data := &RangeData{
		PathID:        pathID,
		BoardSize:     len(board),
		Board:         make([]string, 0, len(board)),
		PotOOP:        snap.PotOOP,
		PotIP:         snap.PotIP,
		CurrentPlayer: currentPlayerLabel(snap),
	}
	for _, c := range board {
		data.Board = append(data.Board, c.String())
	}

	var actions []string
	if snap.Kind == nav.NodePlayer {
		for _, a := range game.AvailableActions() {
			if a.Kind != solver.ActionChance {
				actions = append(actions, actionLabel(nav.SpotAction{Action: a}))
			}
		}
	}

	data.OOPPlayer = buildPlayerData(game, snap, solver.OOP, actions)
	data.IPPlayer = buildPlayerData(game, snap, solver.IP, actions)
	return data, nil
}

// SaveRangeData writes a range snapshot under dir, deriving the filename
// from the path id.
func SaveRangeData(dir string, data *RangeData) (string, error) {
	path := filepath.Join(dir, PathFileName(data.PathID)+".json")
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding range snapshot: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, raw, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// PathFileName flattens a path id into a filesystem-safe name.
func PathFileName(pathID string) string {
	if pathID == "" {
		return "root"
	}
	r := strings.NewReplacer(":", "_", " ", "_", ",", "_", "-", "_")
	return r.Replace(pathID)
}

func buildPlayerData(game solver.Game, snap *nav.Snapshot, seat int, actions []string) PlayerData {
	hands := solver.HolesToStrings(game.PrivateCards(seat))
	rangeSize := len(hands)
	weights := snap.Weights[seat]

	pd := PlayerData{Hands: []HandData{}}
	withStrategy := snap.Kind == nav.NodePlayer && snap.Player == seat && len(actions) > 0

	var parts []string
	for h, hand := range hands {
		if h >= len(weights) || weights[h] == 0 {
			continue
		}
		hd := HandData{
			Hand:   hand,
			Weight: weights[h],
			Equity: at(snap.Equity[seat], h),
			EV:     at(snap.EV[seat], h),
		}
		if withStrategy {
			hd.Strategy = &HandStrategy{
				Actions:     actions,
				Frequencies: make([]float64, len(actions)),
				EV:          make([]float64, len(actions)),
			}
			for a := range actions {
				hd.Strategy.Frequencies[a] = at(snap.Strategy, a*rangeSize+h)
				hd.Strategy.EV[a] = at(snap.ActionEV, a*rangeSize+h)
			}
		}
		pd.Hands = append(pd.Hands, hd)
		parts = append(parts, fmt.Sprintf("%s:%.4g", hand, hd.Weight))
	}

	pd.HandsCount = len(pd.Hands)
	pd.RangeString = strings.Join(parts, ",")
	return pd
}

func currentPlayerLabel(snap *nav.Snapshot) string {
	switch snap.Kind {
	case nav.NodeTerminal:
		return "terminal"
	case nav.NodeChance:
		return "chance"
	default:
		if snap.Player == solver.IP {
			return "ip"
		}
		return "oop"
	}
}

func at(buf []float64, i int) float64 {
	if i < 0 || i >= len(buf) {
		return 0
	}
	return buf[i]
}
