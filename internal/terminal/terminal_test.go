package terminal

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/entropy"
	"github.com/talgya/pawnshop/internal/llm"
	"github.com/talgya/pawnshop/internal/negotiation"
	"github.com/talgya/pawnshop/internal/notify"
	"github.com/talgya/pawnshop/internal/persistence"
	"github.com/talgya/pawnshop/internal/shop"
)

type scriptedGateway struct {
	mu      sync.Mutex
	replies []string
}

func (g *scriptedGateway) Generate(_ context.Context, _ []llm.Turn, _ string, _ bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.replies) == 0 {
		return "Hmm.", nil
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, nil
}

func newREPL(t *testing.T, cash int, replies ...string) (*REPL, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ui := New(&out, false)
	ctl := negotiation.New(negotiation.Deps{
		Gateway:   &scriptedGateway{replies: replies},
		UI:        ui,
		Ledger:    shop.NewLedger(cash, nil),
		Generator: economy.NewGenerator(entropy.NewSeeded(11)),
		Source:    entropy.NewSeeded(5),
	})
	store, err := persistence.OpenSQLite(filepath.Join(t.TempDir(), "repl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &REPL{Ctl: ctl, UI: ui, Store: store}, &out
}

func TestREPLBuysAnItem(t *testing.T) {
	r, out := newREPL(t, 2000,
		"Look at this! [ITEM_NAME: Silver Locket] [PRICE_ASK: 1200]",
		"Fine. [PRICE_ASK: 1100]",
		"Enjoy it.",
	)
	script := strings.Join([]string{"/new", "Too much.", "/accept", "/inventory", "/quit", "never read"}, "\n")
	require.NoError(t, r.Run(context.Background(), strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "Customer: Look at this! Silver Locket $1200")
	assert.Contains(t, text, "Player: Too much.")
	assert.Contains(t, text, "Asking: $1,100")
	assert.Contains(t, text, "Purchase complete! Acquired Silver Locket for $1100.")
	assert.Contains(t, text, "* Customer has left after making a purchase.")
	assert.Contains(t, text, "Inventory (1)  Cash: $900")
	assert.Contains(t, text, "Goodbye.")
	assert.NotContains(t, text, "never read")
	assert.Equal(t, 900, r.Ctl.Ledger().Cash())
}

func TestREPLCommandsWithoutCustomer(t *testing.T) {
	r, out := newREPL(t, 100)
	script := "/accept\nhello\n/bogus\n/inventory\n/help\n"
	require.NoError(t, r.Run(context.Background(), strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "No customer in the shop. Type /new.")
	assert.Contains(t, text, "Unknown command /bogus. Type /help.")
	assert.Contains(t, text, "Cash: $100. Your shop is empty.")
	assert.Contains(t, text, "/appraise")
}

func TestREPLSaveAndLoad(t *testing.T) {
	r, out := newREPL(t, 1234)
	script := "/load\n/name Ada\n/save\n/name Bea\n/load\n"
	require.NoError(t, r.Run(context.Background(), strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "No saved game found.")
	assert.Contains(t, text, "Game Saved!")
	assert.Contains(t, text, "* Game Loaded.")
	assert.Equal(t, "Ada", r.Ctl.Profile().PlayerName)
	assert.Equal(t, 1234, r.Ctl.Ledger().Cash())
}

func TestREPLRefusesSaveDuringNegotiation(t *testing.T) {
	r, out := newREPL(t, 100, "[PRICE_ASK: 50]")
	require.NoError(t, r.Run(context.Background(), strings.NewReader("/new\n/save\n/new\n")))

	text := out.String()
	assert.Contains(t, text, "Cannot save game during a negotiation.")
	assert.Contains(t, text, "Finish with the current customer first.")
	assert.NotContains(t, text, "Game Saved!")
}

func TestUIPatienceBar(t *testing.T) {
	var out bytes.Buffer
	ui := New(&out, false)
	ui.UpdatePatience(50, 100)
	ui.UpdatePatience(0, 100)
	ui.UpdatePatience(120, 100)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Patience [##########..........] 50/100", lines[0])
	assert.Equal(t, "Patience [....................] 0/100", lines[1])
	assert.Equal(t, "Patience [####################] 120/100", lines[2])
}

func TestUINotifyAndDialogue(t *testing.T) {
	var out bytes.Buffer
	ui := New(&out, false)
	ui.SetPlayer("Ada")
	ui.Notify("Deal agreed at $90!", notify.Success, notify.Short)
	ui.LogDialogue("Ada", "Hello.")
	ui.LogDialogue(negotiation.SystemSpeaker, "Game Loaded.")
	ui.DisplayLedger(1500, nil)

	assert.Equal(t, "» Deal agreed at $90!\nAda: Hello.\n* Game Loaded.\nCash: $1,500   Items: 0\n", out.String())
}
