package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pawnshop/internal/config"
	"github.com/talgya/pawnshop/internal/negotiation"
	"github.com/talgya/pawnshop/internal/terminal"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "pawnshop dev")
}

func TestNewAppWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c := config.DefaultConfig()
	c.Storage.Path = filepath.Join(t.TempDir(), "app.db")
	c.Entropy.Seed = 9
	c.Game.StartingCash = 300

	var out bytes.Buffer
	a, err := newApp(context.Background(), c, terminal.New(&out, false))
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.llm.Enabled())
	assert.Equal(t, 300, a.ctl.Ledger().Cash())
	assert.Equal(t, "Player", a.ctl.Profile().PlayerName)

	// Without a key no customer can be voiced, and the shop stays open.
	err = a.ctl.StartCustomer(context.Background())
	assert.ErrorIs(t, err, negotiation.ErrSetup)
	assert.Equal(t, negotiation.Idle, a.ctl.State())
	assert.Contains(t, out.String(), "API Key is missing.")
}
