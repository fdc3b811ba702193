package terminal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/talgya/pawnshop/internal/negotiation"
	"github.com/talgya/pawnshop/internal/notify"
	"github.com/talgya/pawnshop/internal/persistence"
)

const help = `Commands:
  /new              call in the next customer
  /accept           take the customer's current price
  /appraise         inspect the seller's item (once per customer)
  /end              walk away from the negotiation
  /inventory        list your stock
  /name <name>      change your name
  /avatar <style>   change the portrait style for new customers
  /save, /load      save or restore your game
  /help             show this help
  /quit             leave the shop
Anything else is said to the customer.`

// REPL reads commands and dialogue from a console.
type REPL struct {
	Ctl     *negotiation.Controller
	UI      *UI
	Store   persistence.Store // nil disables save and load
	SaveKey string
}

// Run reads lines from in until EOF, /quit or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	r.UI.SetPlayer(r.Ctl.Profile().PlayerName)
	r.UI.Println("Welcome to the pawn shop. Type /new to call in a customer, /help for commands.")
	r.UI.DisplayLedger(r.Ctl.Ledger().Cash(), r.Ctl.Ledger().Inventory())

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := r.dispatch(ctx, line); quit {
			r.UI.Println("Goodbye.")
			return nil
		}
	}
}

// dispatch handles one input line and reports whether to quit.
func (r *REPL) dispatch(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.report(r.Ctl.Send(ctx, line))
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		return true
	case "/help":
		r.UI.Println(help)
	case "/new":
		r.report(r.Ctl.StartCustomer(ctx))
	case "/accept":
		r.report(r.Ctl.Accept(ctx))
	case "/appraise":
		_, err := r.Ctl.Appraise()
		r.report(err)
	case "/end":
		r.report(r.Ctl.End(ctx))
	case "/inventory", "/inv":
		l := r.Ctl.Ledger()
		r.UI.PrintInventory(l.Cash(), l.Inventory())
	case "/name":
		if err := r.Ctl.SetPlayerName(arg); err == nil {
			r.UI.SetPlayer(r.Ctl.Profile().PlayerName)
			r.UI.Notify("Player name updated!", notify.Success, notify.Short)
		}
	case "/avatar":
		r.Ctl.SetAvatarStyle(arg)
		r.UI.Notify("Avatar style updated: "+r.Ctl.Profile().AvatarStyle, notify.Success, notify.Short)
	case "/save":
		r.save(ctx)
	case "/load":
		r.load(ctx)
	default:
		r.UI.Notify("Unknown command "+cmd+". Type /help.", notify.Info, notify.Short)
	}
	return false
}

// report surfaces errors the controller did not already announce.
func (r *REPL) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, negotiation.ErrNoSession):
		r.UI.Notify("No customer in the shop. Type /new.", notify.Info, notify.Short)
	case errors.Is(err, negotiation.ErrSessionActive):
		r.UI.Notify("Finish with the current customer first.", notify.Info, notify.Short)
	case errors.Is(err, negotiation.ErrBusy):
		r.UI.Notify("Please wait...", notify.Info, notify.Short)
	default:
		slog.Debug("command failed", "error", err)
	}
}

func (r *REPL) key() string {
	if r.SaveKey != "" {
		return r.SaveKey
	}
	return persistence.DefaultKey
}

func (r *REPL) save(ctx context.Context) {
	if r.Store == nil {
		r.UI.Notify("Saving is not available.", notify.Error, notify.Short)
		return
	}
	state, err := r.Ctl.SaveState()
	if err != nil {
		return
	}
	if err := r.Store.Save(ctx, r.key(), state); err != nil {
		slog.Error("save failed", "error", err)
		r.UI.Notify("Failed to save game!", notify.Error, notify.Short)
		return
	}
	r.UI.Notify("Game Saved!", notify.Success, notify.Short)
}

func (r *REPL) load(ctx context.Context) {
	if r.Store == nil {
		r.UI.Notify("Loading is not available.", notify.Error, notify.Short)
		return
	}
	state, err := r.Store.Load(ctx, r.key())
	switch {
	case errors.Is(err, persistence.ErrNoSave):
		r.UI.Notify("No saved game found.", notify.Info, notify.Short)
		return
	case err != nil:
		slog.Error("load failed", "error", err)
		r.UI.Notify("Failed to load game! Data might be corrupted.", notify.Error, notify.Long)
		return
	}
	if err := r.Ctl.LoadState(state); err != nil {
		r.report(err)
		return
	}
	r.UI.SetPlayer(r.Ctl.Profile().PlayerName)
}
