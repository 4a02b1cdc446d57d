package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/postflop-explorer/internal/solver"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSessionConfigMissingFile(t *testing.T) {
	cfg, err := LoadSessionConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSessionConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSessionConfig(t *testing.T) {
	path := writeConfig(t, `
game {
  starting_pot    = 50
  effective_stack = 200
  board           = "Ah Kd 2c"
  log_level       = "debug"
}

ranges {
  oop = "AsAh,KsKh"
  ip  = "QdQc"
}

output {
  dir        = "exports"
  tree_file  = "exploration.json"
  max_depth  = 3
  save_ranges = true
}
`)

	cfg, err := LoadSessionConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Game.StartingPot)
	assert.Equal(t, 200, cfg.Game.EffectiveStack)
	assert.Equal(t, "debug", cfg.Game.LogLevel)
	assert.Equal(t, "AsAh,KsKh", cfg.Ranges.OOP)
	assert.Equal(t, "exports", cfg.Output.Dir)
	assert.Equal(t, "exploration.json", cfg.Output.TreeFile)
	assert.Equal(t, 3, cfg.Output.MaxDepth)
	assert.True(t, cfg.Output.SaveRange)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSessionConfigDefaultsOptionalFields(t *testing.T) {
	path := writeConfig(t, `
game {
  starting_pot    = 20
  effective_stack = 100
  board           = "Td 9d 6h"
}

ranges {
  oop = "AsAh"
  ip  = "KdKc"
}

output {}
`)

	cfg, err := LoadSessionConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Game.LogLevel)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "tree.json", cfg.Output.TreeFile)
	assert.Equal(t, 6, cfg.Output.MaxDepth)
	assert.False(t, cfg.Output.SaveRange)
}

func TestLoadSessionConfigParseError(t *testing.T) {
	path := writeConfig(t, `game { starting_pot = `)

	_, err := LoadSessionConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse HCL")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*SessionConfig)
		wantErr string
	}{
		{
			name:    "zero pot",
			mutate:  func(c *SessionConfig) { c.Game.StartingPot = 0 },
			wantErr: "starting pot",
		},
		{
			name:    "negative stack",
			mutate:  func(c *SessionConfig) { c.Game.EffectiveStack = -1 },
			wantErr: "effective stack",
		},
		{
			name:    "bad board",
			mutate:  func(c *SessionConfig) { c.Game.Board = "Xx Yy Zz" },
			wantErr: "invalid board",
		},
		{
			name:    "short board",
			mutate:  func(c *SessionConfig) { c.Game.Board = "Td 9d" },
			wantErr: "3 to 5 cards",
		},
		{
			name:    "bad oop range",
			mutate:  func(c *SessionConfig) { c.Ranges.OOP = "AsAs" },
			wantErr: "oop range",
		},
		{
			name:    "duplicate ip combo",
			mutate:  func(c *SessionConfig) { c.Ranges.IP = "AdAc,AcAd" },
			wantErr: "ip range",
		},
		{
			name:    "zero max depth",
			mutate:  func(c *SessionConfig) { c.Output.MaxDepth = 0 },
			wantErr: "max depth",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultSessionConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestTreeConfigAndBoard(t *testing.T) {
	cfg := DefaultSessionConfig()

	assert.Equal(t, solver.TreeConfig{StartingPot: 20, EffectiveStack: 100}, cfg.TreeConfig())

	board, err := cfg.Board()
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "Td", board[0].String())

	oop, err := cfg.ParseRange(solver.OOP)
	require.NoError(t, err)
	assert.Len(t, oop, 3)

	ip, err := cfg.ParseRange(solver.IP)
	require.NoError(t, err)
	assert.Len(t, ip, 3)
}
