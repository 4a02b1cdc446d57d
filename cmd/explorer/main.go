package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/postflop-explorer/internal/config"
	"github.com/lox/postflop-explorer/internal/export"
	"github.com/lox/postflop-explorer/internal/nav"
	"github.com/lox/postflop-explorer/internal/solver"
)

var cli struct {
	Config string `help:"path to session config file" default:"explorer.hcl"`
	Debug  bool   `help:"enable debug logging"`

	Walk   WalkCmd   `cmd:"" help:"walk a line through the demo tree and print each spot"`
	Export ExportCmd `cmd:"" help:"write the exploration tree and range snapshots"`
}

type WalkCmd struct {
	Line  string `help:"comma-separated steps: action indices or cards to deal (e.g. '1,1,Kc,0')"`
	Hands int    `help:"number of hands to print per seat" default:"8"`
}

type ExportCmd struct {
	Out string `help:"output directory (overrides config)"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	spotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	deadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("explorer"),
		kong.Description("Navigation and result cache over a solved postflop tree"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	switch ctx.Command() {
	case "walk":
		if err := cli.Walk.Run(); err != nil {
			log.Fatal().Err(err).Msg("walk failed")
		}
	case "export":
		if err := cli.Export.Run(); err != nil {
			log.Fatal().Err(err).Msg("export failed")
		}
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func loadSession() (*config.SessionConfig, solver.Game, *nav.Navigator, error) {
	cfg, err := config.LoadSessionConfig(cli.Config)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	game, err := demoGame(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	navr, err := nav.New(game, nav.WithLogger(log.Logger))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, game, navr, nil
}

func (cmd *WalkCmd) Run() error {
	_, game, navr, err := loadSession()
	if err != nil {
		return err
	}

	if cmd.Line != "" {
		for _, step := range strings.Split(cmd.Line, ",") {
			if err := applyStep(navr, strings.TrimSpace(step)); err != nil {
				return err
			}
		}
	}

	printSpots(navr)
	printSnapshot(game, navr, cmd.Hands)
	printChanceReport(navr)
	return nil
}

func applyStep(navr *nav.Navigator, step string) error {
	if step == "" {
		return nil
	}
	if idx, err := strconv.Atoi(step); err == nil {
		return navr.Play(idx)
	}
	card, err := solver.ParseCard(step)
	if err != nil {
		return fmt.Errorf("step %q is neither an action index nor a card", step)
	}
	return navr.Deal(int(card))
}

func printSpots(navr *nav.Navigator) {
	fmt.Println(headerStyle.Render("Spots"))
	for i, spot := range navr.Spots() {
		marker := "  "
		style := spotStyle
		if i == navr.SelectedSpotIndex() {
			marker = "> "
			style = selectedStyle
		} else if i == navr.SelectedChanceIndex() {
			marker = "* "
			style = selectedStyle
		}

		desc := fmt.Sprintf("%-8s %-5s pot=%-5.0f stack=%.0f", spot.Kind, spot.Player, spot.Pot, spot.Stack)
		if sel, ok := spot.SelectedAction(); ok {
			desc += "  played=" + sel.Action.String()
		}
		if spot.Kind == nav.SpotTerminal && spot.EquityOOP != nav.EquityUnavailable {
			desc += fmt.Sprintf("  equity_oop=%.3f", spot.EquityOOP)
		}
		fmt.Printf("%s%s\n", marker, style.Render(fmt.Sprintf("[%2d] %s", i, desc)))

		for a, action := range spot.Actions {
			rate := "-"
			if action.Rate != nav.RateUnavailable {
				rate = fmt.Sprintf("%.1f%%", action.Rate*100)
			}
			line := fmt.Sprintf("       (%d) %-10s %s", a, action.Action, rate)
			if action.Selected {
				fmt.Println(selectedStyle.Render(line))
			} else {
				fmt.Println(line)
			}
		}
	}
}

func printSnapshot(game solver.Game, navr *nav.Navigator, maxHands int) {
	snap := navr.Snapshot()
	if snap == nil {
		return
	}

	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("Open node: pot_oop=%.0f pot_ip=%.0f", snap.PotOOP, snap.PotIP)))
	if snap.IsEmpty() {
		fmt.Println(deadStyle.Render("both ranges are empty here"))
		return
	}

	for seat := 0; seat < 2; seat++ {
		name := "OOP"
		if seat == solver.IP {
			name = "IP"
		}
		if snap.SeatEmpty(seat) {
			fmt.Println(deadStyle.Render(name + ": empty range"))
			continue
		}

		fmt.Println(headerStyle.Render(name))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "hand\tweight\tequity\tev\teqr")
		hands := solver.HolesToStrings(game.PrivateCards(seat))
		printed := 0
		for h, hand := range hands {
			if printed >= maxHands {
				break
			}
			if h >= len(snap.Weights[seat]) || snap.Weights[seat][h] == 0 {
				continue
			}
			eqr := "-"
			if v := snap.EQRAt(seat, h); !math.IsNaN(v) {
				eqr = fmt.Sprintf("%.3f", v)
			}
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.2f\t%s\n",
				hand, snap.Weights[seat][h], snap.Equity[seat][h], snap.EV[seat][h], eqr)
			printed++
		}
		w.Flush()
	}
}

func printChanceReport(navr *nav.Navigator) {
	report := navr.ChanceReport()
	if report == nil {
		return
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Chance report"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "card\tcombos_oop\tcombos_ip\tequity_oop")
	for c := 0; c < solver.NumCards; c++ {
		switch report.Status[c] {
		case nav.CardImpossible:
			continue
		case nav.CardCollapsed:
			fmt.Fprintf(w, "%s\t-\t-\t-\n", solver.Card(c))
		default:
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.3f\n",
				solver.Card(c), report.Combos[solver.OOP][c], report.Combos[solver.IP][c], report.Equity[solver.OOP][c])
		}
	}
	w.Flush()
}

func (cmd *ExportCmd) Run() error {
	cfg, game, navr, err := loadSession()
	if err != nil {
		return err
	}

	dir := cfg.Output.Dir
	if cmd.Out != "" {
		dir = cmd.Out
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	explorer := export.NewExplorer(game, cfg.Output.MaxDepth, log.Logger)
	treePath := filepath.Join(dir, cfg.Output.TreeFile)
	if err := explorer.SaveTree(navr, treePath); err != nil {
		return err
	}

	if cfg.Output.SaveRange {
		data, err := export.BuildRangeData(game, navr, "root")
		if err != nil {
			return err
		}
		path, err := export.SaveRangeData(dir, data)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("range snapshot saved")
	}

	return nil
}

// demoGame builds a small scripted two-street tree from the session config.
// It stands in for a real solver backend so the navigation layer can be
// exercised end to end.
func demoGame(cfg *config.SessionConfig) (solver.Game, error) {
	board, err := cfg.Board()
	if err != nil {
		return nil, err
	}
	oop, err := cfg.ParseRange(solver.OOP)
	if err != nil {
		return nil, err
	}
	ip, err := cfg.ParseRange(solver.IP)
	if err != nil {
		return nil, err
	}

	pot := cfg.Game.StartingPot
	bet := pot / 2
	if bet == 0 {
		bet = 1
	}

	// Streets after the flop betting closes: a turn card, one more round of
	// betting, then showdown or fold.
	laterStreets := func(betTotal int) *solver.ScriptNode {
		showdown := func() *solver.ScriptNode { return solver.TerminalNode() }
		riverCheckdown := solver.ChanceNode().On(solver.AnyCard,
			solver.PlayerNode(solver.OOP, solver.Action{Kind: solver.ActionCheck}).On(0,
				solver.PlayerNode(solver.IP, solver.Action{Kind: solver.ActionCheck}).On(0, showdown())))

		turnBet := betTotal + pot/2 + 1
		return solver.ChanceNode().On(solver.AnyCard,
			solver.PlayerNode(solver.OOP,
				solver.Action{Kind: solver.ActionCheck},
				solver.Action{Kind: solver.ActionBet, Amount: turnBet},
			).
				On(0, solver.PlayerNode(solver.IP, solver.Action{Kind: solver.ActionCheck}).On(0, riverCheckdown)).
				On(1, solver.PlayerNode(solver.IP,
					solver.Action{Kind: solver.ActionFold},
					solver.Action{Kind: solver.ActionCall},
				).
					On(0, solver.TerminalNode()).
					On(1, solver.ChanceNode().On(solver.AnyCard,
						solver.PlayerNode(solver.OOP, solver.Action{Kind: solver.ActionCheck}).On(0,
							solver.PlayerNode(solver.IP, solver.Action{Kind: solver.ActionCheck}).On(0, showdown()))))))
	}

	root := solver.PlayerNode(solver.OOP,
		solver.Action{Kind: solver.ActionCheck},
		solver.Action{Kind: solver.ActionBet, Amount: bet},
	).
		On(0, solver.PlayerNode(solver.IP,
			solver.Action{Kind: solver.ActionCheck},
			solver.Action{Kind: solver.ActionBet, Amount: bet},
		).
			On(0, laterStreets(0)).
			On(1, solver.PlayerNode(solver.OOP,
				solver.Action{Kind: solver.ActionFold},
				solver.Action{Kind: solver.ActionCall},
			).
				On(0, solver.TerminalNode()).
				On(1, laterStreets(bet)))).
		On(1, solver.PlayerNode(solver.IP,
			solver.Action{Kind: solver.ActionFold},
			solver.Action{Kind: solver.ActionCall},
			solver.Action{Kind: solver.ActionRaise, Amount: bet * 3},
		).
			On(0, solver.TerminalNode()).
			On(1, laterStreets(bet)).
			On(2, solver.PlayerNode(solver.OOP,
				solver.Action{Kind: solver.ActionFold},
				solver.Action{Kind: solver.ActionCall},
			).
				On(0, solver.TerminalNode()).
				On(1, laterStreets(bet*3))))

	root.WithEquity(fill(len(oop), 0.5), fill(len(ip), 0.5)).
		WithEV(fill(len(oop), float32(pot)/2), fill(len(ip), float32(pot)/2))

	game := solver.NewScriptedGame(cfg.TreeConfig(), board, [2][]solver.HolePair{oop, ip}, root)
	return game, nil
}

func fill(n int, v float32) []float32 {
	buf := make([]float32, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}
