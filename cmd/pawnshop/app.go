package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/pawnshop/internal/config"
	"github.com/talgya/pawnshop/internal/economy"
	"github.com/talgya/pawnshop/internal/entropy"
	"github.com/talgya/pawnshop/internal/llm"
	"github.com/talgya/pawnshop/internal/negotiation"
	"github.com/talgya/pawnshop/internal/persistence"
	"github.com/talgya/pawnshop/internal/shop"
)

// app is the wired game shared by the play and serve commands.
type app struct {
	ctl   *negotiation.Controller
	llm   *llm.Client
	store persistence.Store
}

// newApp connects the gateway, storage and randomness described by c and
// builds a controller driving ui.
func newApp(ctx context.Context, c *config.Config, ui negotiation.UI) (*app, error) {
	client, err := llm.NewClient(ctx, llm.Config{
		APIKey:       c.LLM.APIKey,
		Model:        c.LLM.Model,
		BaseURL:      c.LLM.BaseURL,
		Timeout:      c.GetLLMTimeout(),
		MaxPerMinute: c.LLM.MaxPerMinute,
	}, ui)
	if err != nil {
		return nil, err
	}
	if !client.Enabled() {
		slog.Warn("no GEMINI_API_KEY set; customers cannot be voiced")
	}

	store, err := persistence.Open(ctx, persistence.Options{
		Driver:   c.Storage.Driver,
		Path:     c.Storage.Path,
		MongoURI: c.Storage.MongoURI,
		Database: c.Storage.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var src entropy.Source
	if c.Entropy.Seed != 0 {
		src = entropy.NewSeeded(c.Entropy.Seed)
		slog.Info("deterministic game", "seed", c.Entropy.Seed)
	} else {
		src = entropy.New(c.Entropy.RandomOrgAPIKey)
	}

	ctl := negotiation.New(negotiation.Deps{
		Gateway:   client,
		UI:        ui,
		Ledger:    shop.NewLedger(c.Game.StartingCash, nil),
		Generator: economy.NewGenerator(src),
		Source:    src,
		Profile: shop.Profile{
			PlayerName:  c.Game.PlayerName,
			AvatarStyle: c.Game.AvatarStyle,
			AvatarSeed:  c.Game.AvatarSeed,
		},
	})

	slog.Info("shop open", "model", client.Model(), "llm_enabled", client.Enabled(),
		"storage", c.Storage.Driver, "cash", c.Game.StartingCash)
	return &app{ctl: ctl, llm: client, store: store}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
