// Package config loads exploration session configuration from HCL files.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/postflop-explorer/internal/solver"
)

// SessionConfig represents a complete exploration session
type SessionConfig struct {
	Game   GameSettings   `hcl:"game,block"`
	Ranges RangeSettings  `hcl:"ranges,block"`
	Output OutputSettings `hcl:"output,block"`
}

// GameSettings describes the solved game being explored
type GameSettings struct {
	StartingPot    int    `hcl:"starting_pot"`
	EffectiveStack int    `hcl:"effective_stack"`
	Board          string `hcl:"board"`
	LogLevel       string `hcl:"log_level,optional"`
}

// RangeSettings carries the preflop range for each seat
type RangeSettings struct {
	OOP string `hcl:"oop"`
	IP  string `hcl:"ip"`
}

// OutputSettings controls the exported artifacts
type OutputSettings struct {
	Dir       string `hcl:"dir,optional"`
	TreeFile  string `hcl:"tree_file,optional"`
	MaxDepth  int    `hcl:"max_depth,optional"`
	SaveRange bool   `hcl:"save_ranges,optional"`
}

// DefaultSessionConfig returns default session configuration
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		Game: GameSettings{
			StartingPot:    20,
			EffectiveStack: 100,
			Board:          "Td 9d 6h",
			LogLevel:       "info",
		},
		Ranges: RangeSettings{
			OOP: "AsAh,KsKh,QsQh",
			IP:  "AdAc,KdKc,JdJc",
		},
		Output: OutputSettings{
			Dir:      "out",
			TreeFile: "tree.json",
			MaxDepth: 6,
		},
	}
}

// LoadSessionConfig loads session configuration from an HCL file
func LoadSessionConfig(filename string) (*SessionConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultSessionConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config SessionConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Game.LogLevel == "" {
		config.Game.LogLevel = "info"
	}
	if config.Output.Dir == "" {
		config.Output.Dir = "out"
	}
	if config.Output.TreeFile == "" {
		config.Output.TreeFile = "tree.json"
	}
	if config.Output.MaxDepth == 0 {
		config.Output.MaxDepth = 6
	}

	return &config, nil
}

// Validate validates the session configuration
func (c *SessionConfig) Validate() error {
	if c.Game.StartingPot <= 0 {
		return fmt.Errorf("starting pot must be positive, got %d", c.Game.StartingPot)
	}
	if c.Game.EffectiveStack <= 0 {
		return fmt.Errorf("effective stack must be positive, got %d", c.Game.EffectiveStack)
	}

	board, err := solver.ParseBoard(c.Game.Board)
	if err != nil {
		return fmt.Errorf("invalid board: %w", err)
	}
	if len(board) < 3 || len(board) > 5 {
		return fmt.Errorf("board must hold 3 to 5 cards, got %d", len(board))
	}

	if _, err := c.ParseRange(solver.OOP); err != nil {
		return fmt.Errorf("oop range: %w", err)
	}
	if _, err := c.ParseRange(solver.IP); err != nil {
		return fmt.Errorf("ip range: %w", err)
	}

	if c.Output.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", c.Output.MaxDepth)
	}

	return nil
}

// TreeConfig converts the game settings to the solver tree configuration
func (c *SessionConfig) TreeConfig() solver.TreeConfig {
	return solver.TreeConfig{
		StartingPot:    c.Game.StartingPot,
		EffectiveStack: c.Game.EffectiveStack,
	}
}

// Board parses the configured board cards
func (c *SessionConfig) Board() ([]solver.Card, error) {
	return solver.ParseBoard(c.Game.Board)
}

// ParseRange parses the configured range for a seat into hole pairs
func (c *SessionConfig) ParseRange(seat int) ([]solver.HolePair, error) {
	spec := c.Ranges.OOP
	if seat == solver.IP {
		spec = c.Ranges.IP
	}
	return solver.ParseRange(spec)
}
