package economy

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/pawnshop/internal/entropy"
	"github.com/talgya/pawnshop/internal/shop"
)

var (
	// ErrEmptyTables means a static table the generator needs is empty.
	ErrEmptyTables = errors.New("economy: generation tables are empty")
	// ErrMissingInput means the item handed to a customer generator is unusable.
	ErrMissingInput = errors.New("economy: missing item input")
)

const (
	minBaseValue = 10
	maxBaseValue = 500
	minPatience  = 50
	maxPatience  = 100
)

// Generator draws items and customers from a Source.
type Generator struct {
	src    entropy.Source
	tables Tables
}

// NewGenerator creates a generator over the stock tables.
func NewGenerator(src entropy.Source) *Generator {
	return NewGeneratorWithTables(src, DefaultTables())
}

// NewGeneratorWithTables creates a generator over custom tables.
func NewGeneratorWithTables(src entropy.Source, t Tables) *Generator {
	return &Generator{src: src, tables: t}
}

// Tables returns the tables the generator draws from.
func (g *Generator) Tables() Tables { return g.tables }

// between returns an integer uniformly drawn from [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return g.src.Intn(hi-lo+1) + lo
}

func (g *Generator) pick(list []string) string {
	return list[g.src.Intn(len(list))]
}

// GenerateItem draws the hidden economics of a new item. Name and
// description stay empty for the model to invent.
func (g *Generator) GenerateItem() (*shop.Item, error) {
	if len(g.tables.Conditions) == 0 || g.tables.totalRarityWeight() <= 0 {
		slog.Error("cannot generate item", "conditions", len(g.tables.Conditions), "rarities", len(g.tables.Rarities))
		return nil, ErrEmptyTables
	}

	base := g.between(minBaseValue, maxBaseValue)
	cond := g.tables.Conditions[g.src.Intn(len(g.tables.Conditions))]
	rar := g.weightedRarity()

	item := &shop.Item{
		BaseValue:           base,
		Condition:           cond.Name,
		ConditionMultiplier: cond.Multiplier,
		Rarity:              rar.Name,
		RarityMultiplier:    rar.Multiplier,
		ActualValue:         ActualValue(base, cond.Multiplier, rar.Multiplier),
	}
	slog.Debug("generated item", "base", base, "condition", cond.Name, "rarity", rar.Name, "actual", item.ActualValue)
	return item, nil
}

// ActualValue is round(base × condition × rarity), never below 1.
func ActualValue(base int, condition, rarity float64) int {
	return max(1, round(float64(base)*condition*rarity))
}

func (g *Generator) weightedRarity() Rarity {
	n := g.src.Float64() * float64(g.tables.totalRarityWeight())
	for _, r := range g.tables.Rarities {
		if r.Weight <= 0 {
			continue
		}
		if n < float64(r.Weight) {
			return r
		}
		n -= float64(r.Weight)
	}
	// Float rounding can walk past the last bucket.
	return g.tables.Rarities[g.src.Intn(len(g.tables.Rarities))]
}

func (g *Generator) customerTablesReady(seller bool) bool {
	if len(g.tables.Personalities) == 0 {
		return false
	}
	return !seller || (len(g.tables.Themes) > 0 && len(g.tables.ObjectTypes) > 0)
}

// GenerateSeller draws a customer who wants to sell item to the player.
func (g *Generator) GenerateSeller(item *shop.Item, avatarStyle string) (*shop.Customer, error) {
	if item == nil || item.ActualValue <= 0 || item.BaseValue <= 0 {
		return nil, fmt.Errorf("generate seller: %w", ErrMissingInput)
	}
	if !g.customerTablesReady(true) {
		return nil, ErrEmptyTables
	}

	personality := g.pick(g.tables.Personalities)
	hint := g.pick(g.tables.Themes) + " " + g.pick(g.tables.ObjectTypes)
	patience := g.between(minPatience, maxPatience)
	sensitivity := g.src.Float64()*0.3 + 0.7

	terms := SellerTerms(item.ActualValue, item.BaseValue, sensitivity)
	terms.ItemHint = hint

	c := &shop.Customer{
		Personality:      personality,
		Patience:         patience,
		CurrentPatience:  patience,
		PriceSensitivity: sensitivity,
		Seller:           &terms,
	}
	g.assignAvatar(c, avatarStyle)
	slog.Debug("generated seller", "personality", personality, "hint", hint,
		"min", terms.MinimumAcceptablePrice, "ask", terms.InitialAskingPrice)
	return c, nil
}

// SellerTerms derives a seller's floor and opening ask. A more sensitive
// seller keeps the floor closer to actual value and marks up harder. The ask
// is capped at 5× base and 3× floor, then floored to stay above the minimum.
func SellerTerms(actual, base int, sensitivity float64) shop.SellerTerms {
	slack := 1.0 - sensitivity
	minimum := max(1, round(float64(actual)*(0.95-slack*0.5)))

	markup := 1.05 + sensitivity*0.45
	ask := max(minimum+1, round(float64(minimum)*markup))
	ask = min(ask, base*5, minimum*3)
	ask = max(ask, minimum+1)

	return shop.SellerTerms{
		MinimumAcceptablePrice: minimum,
		InitialAskingPrice:     ask,
		CurrentAskingPrice:     ask,
	}
}

// GenerateBuyer draws a customer who wants to buy item from the player.
func (g *Generator) GenerateBuyer(item *shop.InventoryItem, avatarStyle string) (*shop.Customer, error) {
	if item == nil || item.ActualValue <= 0 {
		return nil, fmt.Errorf("generate buyer: %w", ErrMissingInput)
	}
	if !g.customerTablesReady(false) {
		return nil, ErrEmptyTables
	}

	personality := g.pick(g.tables.Personalities)
	patience := g.between(minPatience, maxPatience)
	sensitivity := g.src.Float64()*0.4 + 0.6
	terms := BuyerTerms(item.ActualValue, sensitivity, g.src.Float64(), g.src.Float64())

	c := &shop.Customer{
		Personality:      personality,
		Patience:         patience,
		CurrentPatience:  patience,
		PriceSensitivity: sensitivity,
		Buyer:            &terms,
	}
	g.assignAvatar(c, avatarStyle)
	slog.Debug("generated buyer", "personality", personality,
		"offer", terms.InitialOffer, "max", terms.MaximumAcceptablePrice)
	return c, nil
}

// BuyerTerms derives a buyer's ceiling and opening offer. A less sensitive
// buyer will overpay more and opens higher. maxJitter and offerJitter are
// uniform draws in [0, 1).
func BuyerTerms(actual int, sensitivity, maxJitter, offerJitter float64) shop.BuyerTerms {
	slack := 1.0 - sensitivity
	a := float64(actual)

	maximum := max(actual+1, round(a*(1.0+slack*0.8+maxJitter*0.1)))

	offer := max(1, round(a*(1.0-slack*0.6-offerJitter*0.15)))
	offer = min(offer, max(1, maximum-1))
	if offer >= maximum {
		offer = max(1, round(float64(maximum)*0.9))
	}

	return shop.BuyerTerms{
		InitialOffer:           offer,
		MaximumAcceptablePrice: maximum,
		CurrentOffer:           offer,
	}
}

func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
